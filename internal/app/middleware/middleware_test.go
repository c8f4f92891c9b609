package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/commands"
	"staybook/internal/app/outbox"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/apperr"
)

type result struct {
	Value string `json:"value"`
}

type testCommand struct {
	User  string `json:"user" validate:"required"`
	Nth   int    `json:"nth" validate:"gte=0"`
	Idem  string `json:"-"`
	Fails error  `json:"-"`
}

func (testCommand) Key() string              { return "test.command" }
func (c testCommand) ActingUser() string     { return c.User }
func (c testCommand) IdempotencyKey() string { return c.Idem }
func (testCommand) ResultPrototype() any     { return &result{} }

type testQuery struct {
	User string `json:"user" validate:"required"`
}

func (testQuery) Key() string          { return "test.query" }
func (q testQuery) CacheKey() string   { return q.User }
func (testQuery) ResultPrototype() any { return &result{} }

func countingBus(calls *int) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[testCommand, *result](bus, "test.command", commands.HandlerFunc[testCommand, *result](
		func(_ context.Context, cmd testCommand) (*result, error) {
			*calls++
			if cmd.Fails != nil {
				return nil, cmd.Fails
			}
			return &result{Value: cmd.User}, nil
		}))
	return bus
}

func TestValidationRejectsMissingFields(t *testing.T) {
	calls := 0
	bus := ChainCommands(countingBus(&calls), Validation(NewStructValidator()))

	_, err := bus.Dispatch(context.Background(), testCommand{Nth: -1, User: "u"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "nth")
	assert.Zero(t, calls)

	res, err := commands.Dispatch[testCommand, *result](context.Background(), bus, testCommand{User: "u"})
	require.NoError(t, err)
	assert.Equal(t, "u", res.Value)
	assert.Equal(t, 1, calls)
}

func TestStructValidatorIgnoresUntaggedMessages(t *testing.T) {
	v := NewStructValidator()
	assert.NoError(t, v.Validate(context.Background(), nil))
	assert.NoError(t, v.Validate(context.Background(), "plain"))
	assert.NoError(t, v.Validate(context.Background(), (*testCommand)(nil)))
}

func TestAuthorizationRequiresActingUser(t *testing.T) {
	calls := 0
	bus := ChainCommands(countingBus(&calls), Authorization(ActorRequired{}))

	_, err := bus.Dispatch(context.Background(), testCommand{User: "  "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Zero(t, calls)

	_, err = bus.Dispatch(context.Background(), testCommand{User: "host-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

type memoryIdempotency struct {
	mu      sync.Mutex
	records map[string]IdempotencyRecord
	getErr  error
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{records: make(map[string]IdempotencyRecord)}
}

func (m *memoryIdempotency) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return IdempotencyRecord{}, false, m.getErr
	}
	rec, ok := m.records[key]
	return rec, ok, nil
}

func (m *memoryIdempotency) Save(_ context.Context, rec IdempotencyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.Key]; !ok {
		m.records[rec.Key] = rec
	}
	return nil
}

func TestIdempotencyReplaysFirstResult(t *testing.T) {
	calls := 0
	store := newMemoryIdempotency()
	bus := ChainCommands(countingBus(&calls), Idempotency(store, nil))
	ctx := context.Background()

	first, err := commands.Dispatch[testCommand, *result](ctx, bus, testCommand{User: "a", Idem: "k1"})
	require.NoError(t, err)
	second, err := commands.Dispatch[testCommand, *result](ctx, bus, testCommand{User: "a", Idem: "k1"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Contains(t, store.records, "test.command:a:k1")

	_, err = bus.Dispatch(ctx, testCommand{User: "c"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "commands without a key always run")
}

func TestIdempotencyKeysAreScopedToActingUser(t *testing.T) {
	calls := 0
	store := newMemoryIdempotency()
	bus := ChainCommands(countingBus(&calls), Idempotency(store, nil))
	ctx := context.Background()

	first, err := commands.Dispatch[testCommand, *result](ctx, bus, testCommand{User: "guest-a", Idem: "req-1"})
	require.NoError(t, err)
	second, err := commands.Dispatch[testCommand, *result](ctx, bus, testCommand{User: "guest-b", Idem: "req-1"})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, "guest-a", first.Value)
	assert.Equal(t, "guest-b", second.Value)
	assert.Len(t, store.records, 2)
}

func TestIdempotencyReplaysClassifiedErrors(t *testing.T) {
	calls := 0
	store := newMemoryIdempotency()
	bus := ChainCommands(countingBus(&calls), Idempotency(store, nil))
	ctx := context.Background()

	_, err := bus.Dispatch(ctx, testCommand{User: "a", Idem: "k", Fails: apperr.Conflict("dates taken")})
	require.Error(t, err)
	_, err = bus.Dispatch(ctx, testCommand{User: "a", Idem: "k"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, 1, calls)
}

func TestIdempotencySkipsStorageAndUnclassifiedErrors(t *testing.T) {
	calls := 0
	store := newMemoryIdempotency()
	bus := ChainCommands(countingBus(&calls), Idempotency(store, nil))
	ctx := context.Background()

	_, err := bus.Dispatch(ctx, testCommand{User: "a", Idem: "k", Fails: apperr.Storage("db", errors.New("down"))})
	require.Error(t, err)
	_, err = bus.Dispatch(ctx, testCommand{User: "a", Idem: "k", Fails: errors.New("boom")})
	require.Error(t, err)
	_, err = bus.Dispatch(ctx, testCommand{User: "a", Idem: "k"})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestIdempotencyStoreFailureIsStorageError(t *testing.T) {
	calls := 0
	store := newMemoryIdempotency()
	store.getErr = errors.New("unreachable")
	bus := ChainCommands(countingBus(&calls), Idempotency(store, nil))

	_, err := bus.Dispatch(context.Background(), testCommand{User: "a", Idem: "k"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
	assert.Zero(t, calls)
}

type fakeUnit struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (u *fakeUnit) Listings() domainlistings.Repository { return nil }
func (u *fakeUnit) Bookings() domainbooking.Repository  { return nil }
func (u *fakeUnit) LockListing(context.Context, domainlistings.ListingID) error {
	return nil
}
func (u *fakeUnit) Commit(context.Context) error {
	if u.commitErr != nil {
		return u.commitErr
	}
	u.committed = true
	return nil
}
func (u *fakeUnit) Rollback(context.Context) error {
	u.rolledBack = true
	return nil
}

type fakeFactory struct {
	units []*fakeUnit
	next  *fakeUnit
}

func (f *fakeFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	u := f.next
	if u == nil {
		u = &fakeUnit{}
	}
	f.next = nil
	f.units = append(f.units, u)
	return u, nil
}

func TestTransactionCommitsOnSuccessAndRollsBackOnError(t *testing.T) {
	factory := &fakeFactory{}
	var sawUnit bool
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[testCommand, *result](bus, "test.command", commands.HandlerFunc[testCommand, *result](
		func(ctx context.Context, cmd testCommand) (*result, error) {
			_, sawUnit = uow.FromContext(ctx)
			return nil, cmd.Fails
		}))
	chained := ChainCommands(bus, Transaction(factory, nil))

	_, err := chained.Dispatch(context.Background(), testCommand{User: "a"})
	require.NoError(t, err)
	assert.True(t, sawUnit)

	_, err = chained.Dispatch(context.Background(), testCommand{User: "a", Fails: apperr.Conflict("x")})
	require.Error(t, err)

	factory.next = &fakeUnit{commitErr: apperr.Conflict("stale")}
	_, err = chained.Dispatch(context.Background(), testCommand{User: "a"})
	require.Error(t, err)

	require.Len(t, factory.units, 3)
	assert.True(t, factory.units[0].committed)
	assert.False(t, factory.units[0].rolledBack)
	assert.True(t, factory.units[1].rolledBack)
	assert.False(t, factory.units[1].committed)
	assert.True(t, factory.units[2].rolledBack)
}

type countingOutbox struct {
	flushes int
}

func (o *countingOutbox) Add(context.Context, outbox.EventRecord) error { return nil }
func (o *countingOutbox) Flush(context.Context) error {
	o.flushes++
	return nil
}

func TestOutboxFlushOnlyAfterSuccess(t *testing.T) {
	calls := 0
	box := &countingOutbox{}
	bus := ChainCommands(countingBus(&calls), OutboxFlush(box))

	_, _ = bus.Dispatch(context.Background(), testCommand{User: "a", Fails: errors.New("boom")})
	assert.Zero(t, box.flushes)
	_, err := bus.Dispatch(context.Background(), testCommand{User: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, box.flushes)
}

type mapCache struct {
	mu   sync.Mutex
	gen  int64
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *mapCache) Bump(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return nil
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func TestQueryCachingServesUntilCommandBumpsGeneration(t *testing.T) {
	cache := newMapCache()
	reads := 0
	qbus := queries.NewInMemoryBus()
	queries.RegisterHandler[testQuery, *result](qbus, "test.query", queries.HandlerFunc[testQuery, *result](
		func(_ context.Context, q testQuery) (*result, error) {
			reads++
			return &result{Value: q.User}, nil
		}))
	cached := ChainQueries(qbus, QueryValidation(NewStructValidator()), QueryCaching(cache, nil, time.Minute))

	calls := 0
	cbus := ChainCommands(countingBus(&calls), CacheInvalidation(cache))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := queries.Ask[testQuery, *result](ctx, cached, testQuery{User: "h"})
		require.NoError(t, err)
		assert.Equal(t, "h", res.Value)
	}
	assert.Equal(t, 1, reads)
	assert.Contains(t, cache.data, "test.query:0:h")

	_, err := cbus.Dispatch(ctx, testCommand{User: "h", Fails: errors.New("boom")})
	require.Error(t, err)
	assert.EqualValues(t, 0, cache.gen, "failed commands leave the cache alone")

	_, err = cbus.Dispatch(ctx, testCommand{User: "h"})
	require.NoError(t, err)
	_, err = queries.Ask[testQuery, *result](ctx, cached, testQuery{User: "h"})
	require.NoError(t, err)
	assert.Equal(t, 2, reads)

	_, err = queries.Ask[testQuery, *result](ctx, cached, testQuery{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestChainOrderIsOutermostFirst(t *testing.T) {
	var order []string
	mark := func(name string) CommandMiddleware {
		return func(next commands.Bus) commands.Bus {
			return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
				order = append(order, name)
				return next.Dispatch(ctx, cmd)
			})
		}
	}
	calls := 0
	bus := ChainCommands(countingBus(&calls), mark("outer"), mark("inner"))
	_, err := bus.Dispatch(context.Background(), testCommand{User: "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

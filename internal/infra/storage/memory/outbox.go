package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/uow"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

type outboxEntry struct {
	record      appoutbox.EventRecord
	state       string
	attempts    int
	nextAttempt time.Time
	lastError   string
}

// Outbox keeps event records in memory. Records added inside a memory unit of
// work become visible to the relay only when that unit commits.
type Outbox struct {
	mu      sync.Mutex
	entries []*outboxEntry
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		if mu, ok := unit.(*Unit); ok && mu.outbox == o {
			return mu.stageEvent(record)
		}
	}
	o.enqueue(record)
	return nil
}

func (o *Outbox) Flush(context.Context) error {
	return nil
}

func (o *Outbox) enqueue(records ...appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now().UTC()
	for _, rec := range records {
		o.entries = append(o.entries, &outboxEntry{record: rec, state: stateNew, nextAttempt: now})
	}
}

func (o *Outbox) Claim(_ context.Context, _ string) (*appoutbox.PendingRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now().UTC()
	for _, e := range o.entries {
		if (e.state == stateNew || e.state == stateFailed) && !e.nextAttempt.After(now) {
			e.state = stateClaimed
			return &appoutbox.PendingRecord{EventRecord: e.record, Attempts: e.attempts}, nil
		}
	}
	return nil, nil
}

func (o *Outbox) MarkSent(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e := o.find(id); e != nil {
		e.state = stateSent
	}
	return nil
}

func (o *Outbox) MarkFailed(_ context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e := o.find(id); e != nil {
		e.state = stateFailed
		e.attempts++
		e.nextAttempt = next
		e.lastError = errMsg
	}
	return nil
}

// Records returns every record in insertion order, regardless of state.
func (o *Outbox) Records() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, 0, len(o.entries))
	for _, e := range o.entries {
		out = append(out, e.record)
	}
	return out
}

// Pending counts records not yet delivered.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, e := range o.entries {
		if e.state != stateSent {
			n++
		}
	}
	return n
}

func (o *Outbox) find(id string) *outboxEntry {
	for _, e := range o.entries {
		if e.record.ID == id {
			return e
		}
	}
	return nil
}

var (
	_ appoutbox.Outbox = (*Outbox)(nil)
	_ appoutbox.Source = (*Outbox)(nil)
)

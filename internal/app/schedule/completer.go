package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/handlers/booking"
)

const defaultInterval = time.Hour

var ErrCompleterNotConfigured = errors.New("schedule: completer missing command bus")

// Completer periodically dispatches CompleteDueBookingsCommand so confirmed
// stays move to completed once their check-out date has passed.
type Completer struct {
	Bus      commands.Bus
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time
}

// Run ticks until ctx is cancelled. The first sweep runs immediately.
func (c *Completer) Run(ctx context.Context) error {
	if c.Bus == nil {
		return ErrCompleterNotConfigured
	}
	interval := c.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := c.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) && c.Logger != nil {
			c.Logger.Warn("booking completion sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep completes every booking due at the current time.
func (c *Completer) Sweep(ctx context.Context) ([]string, error) {
	now := time.Now().UTC()
	if c.Now != nil {
		now = c.Now().UTC()
	}
	res, err := commands.Dispatch[booking.CompleteDueBookingsCommand, *booking.CompleteDueResult](ctx, c.Bus, booking.CompleteDueBookingsCommand{AsOf: now})
	if err != nil {
		return nil, err
	}
	if c.Logger != nil {
		c.Logger.Debug("booking completion sweep", "as_of", now, "completed", len(res.Completed))
	}
	return res.Completed, nil
}

package policies

import (
	"context"
	"time"

	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/shared/apperr"
)

// CancellationPolicy may veto a cancellation the state machine allows.
// Refunds are not modelled.
type CancellationPolicy interface {
	AllowCancel(ctx context.Context, b *domainbooking.Booking, actor domainbooking.Actor, now time.Time) error
}

// AllowAll permits every cancellation the state machine allows.
type AllowAll struct{}

func (AllowAll) AllowCancel(context.Context, *domainbooking.Booking, domainbooking.Actor, time.Time) error {
	return nil
}

var ErrCancellationWindowClosed = apperr.New(apperr.KindInvalidTransition, "policies: guest cancellation window closed")

// GuestCutoff stops guests from cancelling a confirmed booking once check-in
// is closer than Cutoff. Hosts and pending bookings are unaffected.
type GuestCutoff struct {
	Cutoff time.Duration
}

func (p GuestCutoff) AllowCancel(_ context.Context, b *domainbooking.Booking, actor domainbooking.Actor, now time.Time) error {
	if p.Cutoff <= 0 || actor.Role != domainbooking.RoleGuest || b.Status != domainbooking.StatusConfirmed {
		return nil
	}
	if now.UTC().Add(p.Cutoff).After(b.Range.CheckIn) {
		return ErrCancellationWindowClosed
	}
	return nil
}

// ForConfig returns AllowAll when cutoff is zero.
func ForConfig(cutoff time.Duration) CancellationPolicy {
	if cutoff <= 0 {
		return AllowAll{}
	}
	return GuestCutoff{Cutoff: cutoff}
}

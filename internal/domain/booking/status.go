package booking

import (
	"strings"

	"staybook/internal/domain/shared/apperr"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// LiveStatuses are the statuses that hold dates on a listing's calendar.
var LiveStatuses = []Status{StatusPending, StatusConfirmed}

// EarningStatuses are the statuses counted as revenue for hosts and spend for guests.
var EarningStatuses = []Status{StatusConfirmed, StatusCompleted}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := transitions[s]; !ok {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// Live reports whether the booking still reserves its date range.
func (s Status) Live() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Earning reports whether the booking counts toward earnings and spend.
func (s Status) Earning() bool {
	return s == StatusConfirmed || s == StatusCompleted
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Role is the capacity in which a user acts on a booking.
type Role string

const (
	RoleHost   Role = "host"
	RoleGuest  Role = "guest"
	RoleSystem Role = "system"
)

// Actor identifies who requested a transition; recorded in the audit trail.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor performs scheduled transitions.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// transitions lists, per source status, the allowed targets and the roles that may request them.
var transitions = map[Status]map[Status][]Role{
	StatusPending: {
		StatusConfirmed: {RoleHost},
		StatusCancelled: {RoleHost, RoleGuest},
	},
	StatusConfirmed: {
		StatusCancelled: {RoleHost, RoleGuest},
		StatusCompleted: {RoleHost, RoleSystem},
	},
	StatusCancelled: {},
	StatusCompleted: {},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to Status) bool {
	_, ok := transitions[from][to]
	return ok
}

func allowedRoles(from, to Status) ([]Role, bool) {
	roles, ok := transitions[from][to]
	return roles, ok
}

var (
	ErrInvalidStatus     = apperr.New(apperr.KindValidation, "booking: unknown status")
	ErrInvalidTransition = apperr.New(apperr.KindInvalidTransition, "booking: invalid status transition")
	ErrRoleNotAllowed    = apperr.New(apperr.KindInvalidTransition, "booking: transition not allowed for actor")
	ErrNotDue            = apperr.New(apperr.KindInvalidTransition, "booking: stay has not ended yet")
)

package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Requested scan actions.
const (
	ActionCheckIn  = "checkin"
	ActionCheckOut = "checkout"
)

// Service owns the per-person per-day session state machine: NoSession →
// Open (check-in) → Closed (check-out, terminal for the day). The store's
// conditional writes make the transitions atomic; the service never does a
// separate existence check before writing.
type Service struct {
	store SessionStore
	loc   *time.Location
}

// NewService creates a service over a session store. A nil location defaults
// to UTC.
func NewService(store SessionStore, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc}
}

// Location returns the deployment reference timezone.
func (s *Service) Location() *time.Location { return s.loc }

// CheckIn opens today's session for the person. Fails with
// ErrAlreadyCheckedIn when an open session already exists; no mutation
// happens in that case.
func (s *Service) CheckIn(ctx context.Context, personID string, now time.Time) (Session, error) {
	if personID == "" {
		return Session{}, errors.New("person id required")
	}
	sess := Session{
		ID:        uuid.NewString(),
		PersonID:  personID,
		DayKey:    DayKey(now, s.loc),
		CheckInAt: now,
		Status:    StatusOpen,
	}
	return s.store.CreateOpen(ctx, sess)
}

// CheckOut closes today's open session. Fails with ErrNoActiveSession when
// the person never checked in today, and with ErrAlreadyCheckedOut when
// today's session is already closed. A check-out is never converted into a
// check-in.
func (s *Service) CheckOut(ctx context.Context, personID string, now time.Time) (Session, error) {
	if personID == "" {
		return Session{}, errors.New("person id required")
	}
	return s.store.CloseOpen(ctx, personID, DayKey(now, s.loc), now)
}

// Apply dispatches one matched scan to the transition for the requested
// action.
func (s *Service) Apply(ctx context.Context, action, personID string, now time.Time) (Session, error) {
	switch action {
	case ActionCheckIn:
		return s.CheckIn(ctx, personID, now)
	case ActionCheckOut:
		return s.CheckOut(ctx, personID, now)
	default:
		return Session{}, errors.New("unknown action: " + action)
	}
}

// List returns recorded sessions for reporting.
func (s *Service) List(ctx context.Context, personID, dayKey string, limit, offset int) ([]Session, error) {
	return s.store.ListSessions(ctx, personID, dayKey, limit, offset)
}

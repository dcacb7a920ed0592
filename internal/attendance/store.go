package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore is the storage collaborator for session state. Both writes must
// be atomic with respect to concurrent attempts for the same (person, day):
// CreateOpen fails with ErrAlreadyCheckedIn when an OPEN session already
// exists, CloseOpen fails with ErrAlreadyCheckedOut / ErrNoActiveSession when
// there is nothing to close. A plain read-then-write is not an acceptable
// implementation.
type SessionStore interface {
	CreateOpen(ctx context.Context, s Session) (Session, error)
	CloseOpen(ctx context.Context, personID, dayKey string, checkOutAt time.Time) (Session, error)
	ListSessions(ctx context.Context, personID, dayKey string, limit, offset int) ([]Session, error)
}

// MemStore is a mutex-guarded in-memory SessionStore for dev and tests,
// mirroring the in-memory queue backend.
type MemStore struct {
	mu       sync.Mutex
	sessions []Session
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// CreateOpen inserts a new OPEN session unless one already exists for the
// person and day. The check and the insert happen under one lock.
func (m *MemStore) CreateOpen(ctx context.Context, s Session) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.sessions {
		if existing.PersonID == s.PersonID && existing.DayKey == s.DayKey && existing.Status == StatusOpen {
			return Session{}, ErrAlreadyCheckedIn
		}
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.Status = StatusOpen
	m.sessions = append(m.sessions, s)
	return s, nil
}

// CloseOpen closes the OPEN session for the person and day, if any.
func (m *MemStore) CloseOpen(ctx context.Context, personID, dayKey string, checkOutAt time.Time) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	closedToday := false
	for i, existing := range m.sessions {
		if existing.PersonID != personID || existing.DayKey != dayKey {
			continue
		}
		if existing.Status == StatusOpen {
			out := checkOutAt
			hours := Hours(existing.CheckInAt, out)
			existing.CheckOutAt = &out
			existing.TotalHours = &hours
			existing.Status = StatusClosed
			m.sessions[i] = existing
			return existing, nil
		}
		closedToday = true
	}
	if closedToday {
		return Session{}, ErrAlreadyCheckedOut
	}
	return Session{}, ErrNoActiveSession
}

// ListSessions returns sessions matching the optional filters, newest first.
func (m *MemStore) ListSessions(ctx context.Context, personID, dayKey string, limit, offset int) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var out []Session
	for i := len(m.sessions) - 1; i >= 0; i-- {
		s := m.sessions[i]
		if personID != "" && s.PersonID != personID {
			continue
		}
		if dayKey != "" && s.DayKey != dayKey {
			continue
		}
		out = append(out, s)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

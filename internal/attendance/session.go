package attendance

import (
	"errors"
	"math"
	"time"
)

// Session statuses.
const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

// State machine rejections. Surfaced to the operator as-is, never retried and
// never converted into a different action.
var (
	ErrAlreadyCheckedIn   = errors.New("already checked in today")
	ErrNoActiveSession    = errors.New("no active session to check out")
	ErrAlreadyCheckedOut  = errors.New("already checked out today")
	ErrStorageUnavailable = errors.New("attendance storage unavailable")
)

// Session is one person's attendance record for one day. A check-in opens it,
// a check-out closes it; it is never deleted here.
type Session struct {
	ID         string     `json:"id"`
	PersonID   string     `json:"person_id"`
	DayKey     string     `json:"day_key"`
	CheckInAt  time.Time  `json:"check_in_at"`
	CheckOutAt *time.Time `json:"check_out_at,omitempty"`
	Status     string     `json:"status"`
	TotalHours *float64   `json:"total_hours,omitempty"`
}

// DayKey buckets an instant into a calendar day in the deployment's reference
// timezone. One timezone for the whole deployment keeps day boundaries
// consistent across terminals.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// Hours returns the session length in hours rounded to two decimals.
func Hours(in, out time.Time) float64 {
	return math.Round(out.Sub(in).Hours()*100) / 100
}

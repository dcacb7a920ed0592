package scanner

import (
	"time"

	"bioattend/internal/attendance"
)

// Queue message types.
const (
	MsgCapture = "capture"
	MsgOutcome = "outcome"
)

// Outcome statuses reported back to the terminal. They distinguish "not
// recognized" (benign), "state conflict" (operator attention) and "system
// failure" (retry later).
const (
	StatusMatched  = "matched"
	StatusNoMatch  = "no_match"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// CaptureEvent is one completed hardware acquisition delivered by a scanner
// terminal. The image is a base64 PNG inside the JSON body; it is transient
// and discarded after matching.
type CaptureEvent struct {
	ScanID     string    `json:"scan_id"`
	TerminalID string    `json:"terminal_id"`
	Action     string    `json:"action"`
	Image      []byte    `json:"image"`
	CapturedAt time.Time `json:"captured_at"`
}

// Outcome is the result of processing one capture, published back through
// the transport and mirrored onto the scan attempt row.
type Outcome struct {
	ScanID    string              `json:"scan_id"`
	Status    string              `json:"status"`
	PersonID  string              `json:"person_id,omitempty"`
	Score     *float64            `json:"score,omitempty"`
	Session   *attendance.Session `json:"session,omitempty"`
	ErrorKind string              `json:"error_kind,omitempty"`
}

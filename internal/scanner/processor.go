package scanner

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"bioattend/internal/attendance"
	"bioattend/internal/biometric"
	"bioattend/internal/metrics"
)

// Error kinds carried in Outcome.ErrorKind.
const (
	KindInvalidCapture     = "invalid_capture"
	KindAlreadyCheckedIn   = "already_checked_in"
	KindNoActiveSession    = "no_active_session"
	KindAlreadyCheckedOut  = "already_checked_out"
	KindStorageUnavailable = "storage_unavailable"
	KindInternal           = "internal"
)

// RosterSource delivers the roster snapshot for one matching attempt. Every
// scan takes a fresh snapshot; the returned slice is read-only to the
// processor.
type RosterSource interface {
	LoadRoster(ctx context.Context) ([]attendance.RosterEntry, error)
}

// StaticRoster is a fixed in-memory RosterSource for dev and tests.
type StaticRoster []attendance.RosterEntry

func (r StaticRoster) LoadRoster(ctx context.Context) ([]attendance.RosterEntry, error) {
	return r, nil
}

// Processor runs one scan attempt end to end: decode the capture, snapshot
// the roster, match, then apply the attendance state machine. Session state
// is only touched after a match, so a scan abandoned earlier has no state
// effect.
type Processor struct {
	matcher  *biometric.Matcher
	sessions *attendance.Service
	roster   RosterSource
	now      func() time.Time
}

// NewProcessor wires the matcher and session manager behind the transport
// boundary. A nil clock defaults to wall time.
func NewProcessor(matcher *biometric.Matcher, sessions *attendance.Service, roster RosterSource, now func() time.Time) *Processor {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Processor{matcher: matcher, sessions: sessions, roster: roster, now: now}
}

// Handle processes one capture event and returns the outcome to report.
func (p *Processor) Handle(ctx context.Context, evt CaptureEvent) Outcome {
	capture, err := biometric.DecodeGray(evt.Image)
	if err != nil {
		return p.record(Outcome{ScanID: evt.ScanID, Status: StatusError, ErrorKind: KindInvalidCapture})
	}

	entries, err := p.roster.LoadRoster(ctx)
	if err != nil {
		log.Printf("scan %s: roster snapshot failed: %v", evt.ScanID, err)
		return p.record(Outcome{ScanID: evt.ScanID, Status: StatusError, ErrorKind: KindStorageUnavailable})
	}
	roster := make([]biometric.Template, 0, len(entries))
	for _, e := range entries {
		img, err := biometric.DecodeGray(e.Template)
		if err != nil {
			log.Printf("scan %s: template for %s undecodable, skipping: %v", evt.ScanID, e.PersonID, err)
			continue
		}
		roster = append(roster, biometric.Template{PersonID: e.PersonID, Image: img})
	}

	res := p.matcher.Match(capture, roster)
	if res.Skipped > 0 {
		log.Printf("scan %s: %d incompatible template(s) skipped", evt.ScanID, res.Skipped)
	}
	if !math.IsInf(res.Score, -1) {
		metrics.MatchScores.Observe(res.Score)
	}
	if !res.Matched {
		out := Outcome{ScanID: evt.ScanID, Status: StatusNoMatch}
		if !math.IsInf(res.Score, -1) {
			out.Score = &res.Score
		}
		return p.record(out)
	}

	session, err := p.sessions.Apply(ctx, evt.Action, res.PersonID, p.now())
	if err != nil {
		out := Outcome{ScanID: evt.ScanID, PersonID: res.PersonID, Score: &res.Score}
		out.Status, out.ErrorKind = classify(err)
		return p.record(out)
	}

	switch session.Status {
	case attendance.StatusOpen:
		metrics.SessionsOpened.Inc()
	case attendance.StatusClosed:
		metrics.SessionsClosed.Inc()
	}
	return p.record(Outcome{
		ScanID:   evt.ScanID,
		Status:   StatusMatched,
		PersonID: res.PersonID,
		Score:    &res.Score,
		Session:  &session,
	})
}

func (p *Processor) record(out Outcome) Outcome {
	metrics.ScanOutcomes.WithLabelValues(out.Status).Inc()
	return out
}

// classify maps state-machine and storage errors onto outcome statuses.
// Rejections need operator attention; storage faults mean retry later.
func classify(err error) (status, kind string) {
	switch {
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		return StatusRejected, KindAlreadyCheckedIn
	case errors.Is(err, attendance.ErrNoActiveSession):
		return StatusRejected, KindNoActiveSession
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		return StatusRejected, KindAlreadyCheckedOut
	case errors.Is(err, attendance.ErrStorageUnavailable):
		return StatusError, KindStorageUnavailable
	default:
		return StatusError, KindInternal
	}
}

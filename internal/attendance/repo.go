package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository persists attendance data in Postgres. It is the thin adapter
// over the storage collaborator: the open-session invariant lives in the
// partial unique index on (person_id, day_key) WHERE status = 'OPEN', so
// concurrent check-ins from different terminals race safely inside the
// database instead of in Go.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateOpen inserts an OPEN session unless one already exists for the
// person and day. ON CONFLICT against the partial index makes the
// check-and-insert a single atomic statement.
func (r *Repository) CreateOpen(ctx context.Context, s Session) (Session, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_sessions (id, person_id, day_key, check_in_at, status)
		VALUES ($1, $2, $3, $4, 'OPEN')
		ON CONFLICT (person_id, day_key) WHERE status = 'OPEN' DO NOTHING
		RETURNING id
	`, s.ID, s.PersonID, s.DayKey, s.CheckInAt)
	if err := row.Scan(&s.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrAlreadyCheckedIn
		}
		return Session{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	s.Status = StatusOpen
	return s, nil
}

// CloseOpen closes the person's OPEN session for the day in one conditional
// update; total_hours is computed in SQL from the stored check-in time.
func (r *Repository) CloseOpen(ctx context.Context, personID, dayKey string, checkOutAt time.Time) (Session, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE attendance_sessions
		SET check_out_at = $3,
		    status = 'CLOSED',
		    total_hours = ROUND(EXTRACT(EPOCH FROM ($3::timestamptz - check_in_at)) / 3600.0, 2)
		WHERE person_id = $1 AND day_key = $2 AND status = 'OPEN'
		RETURNING id, person_id, day_key, check_in_at, check_out_at, status, total_hours
	`, personID, dayKey, checkOutAt)
	var s Session
	err := row.Scan(&s.ID, &s.PersonID, &s.DayKey, &s.CheckInAt, &s.CheckOutAt, &s.Status, &s.TotalHours)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	// Nothing open: distinguish "never checked in" from "already closed".
	var closed int
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendance_sessions
		WHERE person_id = $1 AND day_key = $2 AND status = 'CLOSED'
	`, personID, dayKey).Scan(&closed)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if closed > 0 {
		return Session{}, ErrAlreadyCheckedOut
	}
	return Session{}, ErrNoActiveSession
}

// ListSessions returns sessions with basic filters, newest first.
func (r *Repository) ListSessions(ctx context.Context, personID, dayKey string, limit, offset int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT id, person_id, day_key, check_in_at, check_out_at, status, total_hours FROM attendance_sessions`
	args := []any{}
	clauses := []string{}
	if personID != "" {
		clauses = append(clauses, "person_id = $"+itoa(len(args)+1))
		args = append(args, personID)
	}
	if dayKey != "" {
		clauses = append(clauses, "day_key = $"+itoa(len(args)+1))
		args = append(args, dayKey)
	}
	if len(clauses) > 0 {
		query += " WHERE " + joinClauses(clauses, " AND ")
	}
	query += " ORDER BY check_in_at DESC LIMIT $" + itoa(len(args)+1) + " OFFSET $" + itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()
	var res []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.PersonID, &s.DayKey, &s.CheckInAt, &s.CheckOutAt, &s.Status, &s.TotalHours); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func itoa(i int) string { return fmt.Sprintf("%d", i) }

func joinClauses(parts []string, sep string) string {
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for i := 1; i < len(parts); i++ {
		out += sep + parts[i]
	}
	return out
}

// Employee represents an enrolled person. The biometric template is stored
// alongside but only loaded for matching, never returned by the listing.
type Employee struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	Name       *string    `json:"name,omitempty"`
	Enrolled   bool       `json:"enrolled"`
	EnrolledAt *time.Time `json:"enrolled_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ListEmployees returns all employees without template bytes.
func (r *Repository) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, employee_id, name, enrolled, enrolled_at, created_at
		FROM employees
		ORDER BY employee_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Name, &e.Enrolled, &e.EnrolledAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// RosterEntry is one enrolled template as stored: employee id plus the
// encoded reference image.
type RosterEntry struct {
	PersonID string
	Template []byte
}

// LoadRoster snapshots the enrolled templates for one matching attempt. A
// later scan re-fetches; the slice is never mutated by callers.
func (r *Repository) LoadRoster(ctx context.Context) ([]RosterEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT employee_id, template
		FROM employees
		WHERE enrolled = TRUE AND template IS NOT NULL
		ORDER BY employee_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []RosterEntry
	for rows.Next() {
		var e RosterEntry
		if err := rows.Scan(&e.PersonID, &e.Template); err != nil {
			return nil, err
		}
		roster = append(roster, e)
	}
	return roster, rows.Err()
}

// UpsertTerminal ensures a terminal record exists.
func (r *Repository) UpsertTerminal(ctx context.Context, terminalID string) error {
	if terminalID == "" {
		return errors.New("terminal id required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO terminals (terminal_id)
		VALUES ($1)
		ON CONFLICT (terminal_id) DO NOTHING
	`, terminalID)
	return err
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, terminalID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (terminal_id, token, expires_at)
		VALUES ($1, $2, $3)
	`, terminalID, token, expiresAt)
	return err
}

// Attempt records one scan attempt and its outcome for auditing and for the
// API to report back to the terminal.
type Attempt struct {
	ID         string    `json:"id"`
	TerminalID string    `json:"terminal_id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
	Status     string    `json:"status"`
	PersonID   *string   `json:"person_id,omitempty"`
	MatchScore *float64  `json:"match_score,omitempty"`
	SessionID  *string   `json:"session_id,omitempty"`
	Detail     *string   `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// InsertAttempt writes a new pending scan attempt.
func (r *Repository) InsertAttempt(ctx context.Context, a Attempt) (Attempt, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now().UTC()
	}
	if a.Status == "" {
		a.Status = "pending"
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO scan_attempts (id, terminal_id, action, occurred_at, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, a.ID, a.TerminalID, a.Action, a.OccurredAt, a.Status)
	if err := row.Scan(&a.CreatedAt); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

// GetAttempt returns a single attempt by id.
func (r *Repository) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, terminal_id, action, occurred_at, status, person_id, match_score, session_id, detail, created_at
		FROM scan_attempts WHERE id = $1
	`, id)
	var a Attempt
	err := row.Scan(&a.ID, &a.TerminalID, &a.Action, &a.OccurredAt, &a.Status, &a.PersonID, &a.MatchScore, &a.SessionID, &a.Detail, &a.CreatedAt)
	if err != nil {
		return Attempt{}, err
	}
	return a, nil
}

// ResolveAttempt records the outcome of processing a scan.
func (r *Repository) ResolveAttempt(ctx context.Context, id, status string, personID *string, score *float64, sessionID, detail *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE scan_attempts
		SET status = $2,
		    person_id = COALESCE($3, person_id),
		    match_score = COALESCE($4, match_score),
		    session_id = COALESCE($5, session_id),
		    detail = $6
		WHERE id = $1
	`, id, status, personID, score, sessionID, detail)
	return err
}

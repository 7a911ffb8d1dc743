// Package audit persists a trail of bootstrap events so a packaged
// application whose stdout is lost can still explain why the local
// server did or did not come up.
package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// EventType represents the type of bootstrap audit event
type EventType string

const (
	EventSessionStart  EventType = "session_start"
	EventShortCircuit  EventType = "short_circuit"
	EventLaunchAttempt EventType = "launch_attempt"
	EventReady         EventType = "ready"
	EventFailed        EventType = "failed"
)

// Event represents a bootstrap audit log entry in the database
type Event struct {
	ID        string `db:"id"`
	SessionID string `db:"session_id"`
	EventType string `db:"event_type"`
	Timestamp int64  `db:"timestamp"`
	Method    string `db:"method"` // launch method for attempt events, otherwise empty
	Detail    string `db:"detail"`
}

// Logger handles audit logging for one bootstrap session. A nil Logger
// is valid and discards everything, so callers never have to branch on
// whether auditing is configured.
type Logger struct {
	db        *sqlx.DB
	sessionID string
}

// NewLogger creates a new audit logger instance with a fresh session id
func NewLogger(db *sqlx.DB) (*Logger, error) {
	if err := DBInit(db); err != nil {
		return nil, err
	}
	return &Logger{
		db:        db,
		sessionID: uuid.New().String(),
	}, nil
}

// DBInit initializes the bootstrap events database table
func DBInit(db *sqlx.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS bootstrap_events (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		method TEXT,
		detail TEXT
	)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_bootstrap_events_session_id ON bootstrap_events(session_id)`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_bootstrap_events_timestamp ON bootstrap_events(timestamp)`)
	return err
}

// SessionID returns the id shared by all events logged by this logger.
func (l *Logger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}

// insertEvent is a helper method to insert an audit event into the database
func (l *Logger) insertEvent(eventType EventType, method, detail string) error {
	if l == nil {
		return nil
	}
	_, err := l.db.Exec(`
		INSERT INTO bootstrap_events (id, session_id, event_type, timestamp, method, detail)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(),
		l.sessionID,
		string(eventType),
		time.Now().Unix(),
		method,
		detail,
	)
	return err
}

// LogSessionStart records the beginning of a bootstrap session
func (l *Logger) LogSessionStart() error {
	return l.insertEvent(EventSessionStart, "", "")
}

// LogShortCircuit records that a server was already listening on the
// fixed port, so no launch strategy was invoked
func (l *Logger) LogShortCircuit() error {
	return l.insertEvent(EventShortCircuit, "", "server already running")
}

// LogAttempt records one launch strategy spawn attempt and its outcome
func (l *Logger) LogAttempt(method string, spawnErr error) error {
	detail := "ok"
	if spawnErr != nil {
		detail = spawnErr.Error()
	}
	return l.insertEvent(EventLaunchAttempt, method, detail)
}

// LogReady records a successful bootstrap and the number of probe
// attempts it took
func (l *Logger) LogReady(attempts int) error {
	return l.insertEvent(EventReady, "", readyDetail(attempts))
}

func readyDetail(attempts int) string {
	return fmt.Sprintf("attempts=%d", attempts)
}

// LogFailed records a terminal bootstrap failure
func (l *Logger) LogFailed(reason string) error {
	return l.insertEvent(EventFailed, "", reason)
}

// SessionEvents returns all events recorded for the given session id,
// oldest first.
func SessionEvents(db *sqlx.DB, sessionID string) ([]Event, error) {
	var events []Event
	err := db.Select(&events, `
		SELECT id, session_id, event_type, timestamp, method, detail
		FROM bootstrap_events WHERE session_id = $1 ORDER BY timestamp, id`,
		sessionID,
	)
	return events, err
}

// Package journal keeps a SQLite audit log of training sessions: which
// tracks were started, how far staff got, where the controller stalled and
// when a track finished. The log feeds the `journal` and `stats` commands.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/tableside/pkg/debug"
	"github.com/vanderheijden86/tableside/pkg/walkthrough"
)

// Kind classifies a journal entry.
type Kind string

const (
	KindStarted   Kind = "started"
	KindStep      Kind = "step"
	KindCompleted Kind = "completed"
	KindReset     Kind = "reset"
	KindDetour    Kind = "detour"
	KindResume    Kind = "resume"
	KindStall     Kind = "stall"
)

// ErrClosed is returned by operations on a closed journal.
var ErrClosed = errors.New("journal is closed")

// Event is one journal row.
type Event struct {
	ID       int64             `json:"id"`
	At       time.Time         `json:"at"`
	Kind     Kind              `json:"kind"`
	Track    string            `json:"track"`
	Step     int               `json:"step"`
	Selector string            `json:"selector,omitempty"`
	Instance uint64            `json:"instance"`
	Data     map[string]string `json:"data,omitempty"`
}

// Filter narrows Events.
type Filter struct {
	Track string
	Kind  Kind
	Limit int // 0 returns everything
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	at_ms     INTEGER NOT NULL,
	kind      TEXT NOT NULL,
	track     TEXT NOT NULL,
	step      INTEGER NOT NULL DEFAULT 0,
	selector  TEXT NOT NULL DEFAULT '',
	instance  INTEGER NOT NULL DEFAULT 0,
	data      TEXT
);
CREATE INDEX IF NOT EXISTS idx_events_track ON events(track);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
`

// Journal writes session events to a SQLite file.
type Journal struct {
	db   *sql.DB
	path string
	now  func() time.Time

	mu      sync.Mutex
	prev    walkthrough.Snapshot
	lastErr error
	closed  bool
}

// Option configures a Journal.
type Option func(*Journal)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) {
		j.now = now
	}
}

// Open opens or creates the journal at path.
func Open(path string, opts ...Option) (*Journal, error) {
	if path == "" {
		return nil, errors.New("journal path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open journal: %w", err)
	}
	// One writer; the UI goroutine is the only producer.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("journal: %s: %v", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}

	j := &Journal{db: db, path: path, now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Path returns the database file.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the database.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}

// Record appends one event. A zero At is stamped with the journal clock.
func (j *Journal) Record(ctx context.Context, e Event) error {
	j.mu.Lock()
	closed := j.closed
	j.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if e.At.IsZero() {
		e.At = j.now()
	}
	var data sql.NullString
	if len(e.Data) > 0 {
		b, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("encoding event data: %w", err)
		}
		data = sql.NullString{String: string(b), Valid: true}
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events (at_ms, kind, track, step, selector, instance, data) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.At.UnixMilli(), string(e.Kind), e.Track, e.Step, e.Selector, int64(e.Instance), data,
	)
	if err != nil {
		return fmt.Errorf("recording %s event: %w", e.Kind, err)
	}
	return nil
}

// RecordStall logs a step whose target never appeared.
func (j *Journal) RecordStall(ctx context.Context, snap walkthrough.Snapshot, cause error) error {
	e := Event{
		Kind:     KindStall,
		Track:    snap.ActiveTraining,
		Step:     snap.CurrentStep,
		Instance: snap.TrainingInstanceID,
	}
	if step, ok := snap.Step(); ok {
		e.Selector = step.Selector
	}
	if cause != nil {
		e.Data = map[string]string{"error": cause.Error()}
	}
	return j.Record(ctx, e)
}

// Attach records store transitions until the returned function is called.
// Detaching while a track is still unfinished records a closing reset, so a
// session that ends mid-track counts as abandoned.
// Write failures do not reach the store; they are kept for Err.
func (j *Journal) Attach(store *walkthrough.Store) func() {
	j.mu.Lock()
	j.prev = store.Snapshot()
	j.mu.Unlock()

	unsubscribe := store.Subscribe(func(next walkthrough.Snapshot) {
		j.mu.Lock()
		prev := j.prev
		j.prev = next
		j.mu.Unlock()

		for _, e := range Diff(prev, next) {
			j.recordAttached(e)
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			j.mu.Lock()
			last := j.prev
			j.mu.Unlock()
			if last.IsActive && !last.Completed {
				j.recordAttached(Event{
					Kind:     KindReset,
					Track:    last.ActiveTraining,
					Step:     last.CurrentStep,
					Instance: last.TrainingInstanceID,
					Data:     map[string]string{"completed": "false", "reason": "exit"},
				})
			}
		})
	}
}

func (j *Journal) recordAttached(e Event) {
	if err := j.Record(context.Background(), e); err != nil {
		debug.Log("journal: %v", err)
		j.mu.Lock()
		j.lastErr = err
		j.mu.Unlock()
	}
}

// Err returns the most recent write failure from Attach.
func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastErr
}

// Events returns matching events, oldest first. With a Limit, the newest
// Limit events are returned.
func (j *Journal) Events(ctx context.Context, f Filter) ([]Event, error) {
	query := `SELECT id, at_ms, kind, track, step, selector, instance, data FROM events WHERE 1=1`
	var args []any
	if f.Track != "" {
		query += ` AND track = ?`
		args = append(args, f.Track)
	}
	if f.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(f.Kind))
	}
	query += ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e        Event
			atMs     int64
			kind     string
			instance int64
			data     sql.NullString
		)
		if err := rows.Scan(&e.ID, &atMs, &kind, &e.Track, &e.Step, &e.Selector, &instance, &data); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.At = time.UnixMilli(atMs)
		e.Kind = Kind(kind)
		e.Instance = uint64(instance)
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &e.Data); err != nil {
				return nil, fmt.Errorf("decoding event %d data: %w", e.ID, err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for l, r := 0, len(events)-1; l < r; l, r = l+1, r-1 {
		events[l], events[r] = events[r], events[l]
	}
	return events, nil
}

// Clear deletes every event and returns how many were removed.
func (j *Journal) Clear(ctx context.Context) (int64, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM events`)
	if err != nil {
		return 0, fmt.Errorf("clearing journal: %w", err)
	}
	return res.RowsAffected()
}

// WriteJSON encodes matching events as an indented JSON array.
func (j *Journal) WriteJSON(ctx context.Context, w io.Writer, f Filter) error {
	events, err := j.Events(ctx, f)
	if err != nil {
		return err
	}
	if events == nil {
		events = []Event{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}

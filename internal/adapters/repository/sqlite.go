package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/scribe/internal/domain/model"
	"github.com/okian/scribe/pkg/metrics"
)

const recordColumns = `id, meeting_id, item_id, original_topic, summary, one_liner, resource_links, created_at`

// SQLiteStore keeps update records in a SQLite database.
type SQLiteStore struct {
	db    *sql.DB
	path  string
	now   func() time.Time
	newID func() string
}

var _ Store = (*SQLiteStore)(nil)

// Open initializes or connects to the record database at path and applies
// the schema. ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// each pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &SQLiteStore{db: db, path: path, now: time.Now, newID: defaultID}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// InsertRecord stores rec with a fresh id and a UTC creation time.
func (s *SQLiteStore) InsertRecord(ctx context.Context, rec model.UpdateRecord) (model.UpdateRecord, error) {
	rec.ID = s.newID()
	rec.CreatedAt = s.now().UTC()
	if rec.ResourceLinks == nil {
		rec.ResourceLinks = []string{}
	}

	topicJSON, err := json.Marshal(rec.OriginalTopic)
	if err != nil {
		return model.UpdateRecord{}, fmt.Errorf("%w: marshal topic: %w", ErrPersist, err)
	}
	linksJSON, err := json.Marshal(rec.ResourceLinks)
	if err != nil {
		return model.UpdateRecord{}, fmt.Errorf("%w: marshal links: %w", ErrPersist, err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO transcript_snippets (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.MeetingID,
		nullable(rec.ItemID),
		string(topicJSON),
		nullable(rec.Summary),
		nullable(rec.OneLiner),
		string(linksJSON),
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "insert")
		return model.UpdateRecord{}, fmt.Errorf("%w: insert: %w", ErrPersist, err)
	}
	return rec, nil
}

// GetRecord fetches a record by id.
func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (model.UpdateRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM transcript_snippets WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UpdateRecord{}, ErrNotFound
	}
	if err != nil {
		return model.UpdateRecord{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// ListByMeeting returns every record of a meeting in insertion order.
func (s *SQLiteStore) ListByMeeting(ctx context.Context, meetingID string) ([]model.UpdateRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM transcript_snippets WHERE meeting_id = ? ORDER BY created_at, rowid`,
		meetingID,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.UpdateRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM transcript_snippets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (model.UpdateRecord, error) {
	var (
		rec       model.UpdateRecord
		itemID    sql.NullString
		topicJSON string
		summary   sql.NullString
		oneLiner  sql.NullString
		linksJSON string
		createdAt string
	)
	if err := scanner.Scan(&rec.ID, &rec.MeetingID, &itemID, &topicJSON, &summary, &oneLiner, &linksJSON, &createdAt); err != nil {
		return model.UpdateRecord{}, err
	}
	if err := json.Unmarshal([]byte(topicJSON), &rec.OriginalTopic); err != nil {
		return model.UpdateRecord{}, fmt.Errorf("decode topic: %w", err)
	}
	if err := json.Unmarshal([]byte(linksJSON), &rec.ResourceLinks); err != nil {
		return model.UpdateRecord{}, fmt.Errorf("decode links: %w", err)
	}
	if rec.ResourceLinks == nil {
		rec.ResourceLinks = []string{}
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return model.UpdateRecord{}, fmt.Errorf("decode created_at: %w", err)
	}
	rec.CreatedAt = ts
	rec.ItemID = fromNull(itemID)
	rec.Summary = fromNull(summary)
	rec.OneLiner = fromNull(oneLiner)
	return rec, nil
}

func nullable(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

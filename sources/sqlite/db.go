package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/poiesic/cortexsync/sources"
)

// Source names of the fetchers provided by this package.
const (
	NotesSource     = "notes"
	CitationsSource = "citations"
	AuditSource     = "audit"
)

// DefaultAuditLimit bounds the number of audit events fetched per run.
const DefaultAuditLimit = 5000

const memoryDSN = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS note_pages (
	id INTEGER PRIMARY KEY,
	content TEXT NOT NULL DEFAULT '',
	metadata TEXT,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_note_pages_updated_at ON note_pages(updated_at);

CREATE TABLE IF NOT EXISTS citations (
	id INTEGER PRIMARY KEY,
	text TEXT NOT NULL DEFAULT '',
	context TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_citations_created_at ON citations(created_at);
`

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	event_id INTEGER PRIMARY KEY,
	actor TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL DEFAULT '',
	details TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_events_created_at ON audit_events(created_at);
`

// DB is a SQL source database holding notes, citations and audit events.
// Timestamps are stored as INTEGER microseconds since the Unix epoch.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens the source database at dsn.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Every connection to ":memory:" gets its own database
	if dsn == memoryDSN {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &DB{
		db:     db,
		logger: slog.Default().With("component", "sqlite-sources"),
	}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// EnsureSchema creates the notes and citations tables if they don't exist.
// When withAudit is true the audit_events table is created as well.
func (d *DB) EnsureSchema(ctx context.Context, withAudit bool) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if withAudit {
		if _, err := d.db.ExecContext(ctx, auditSchema); err != nil {
			return fmt.Errorf("creating audit schema: %w", err)
		}
	}
	return nil
}

// InsertNote writes a note page.
func (d *DB) InsertNote(ctx context.Context, id int64, content string, metadata map[string]string, updatedAt time.Time) error {
	meta, err := encodeMetadata(metadata)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO note_pages (id, content, metadata, updated_at) VALUES (?, ?, ?, ?)`,
		id, content, meta, updatedAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("inserting note: %w", err)
	}
	return nil
}

// InsertCitation writes a citation.
func (d *DB) InsertCitation(ctx context.Context, id int64, text string, citationContext map[string]string, createdAt time.Time) error {
	meta, err := encodeMetadata(citationContext)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO citations (id, text, context, created_at) VALUES (?, ?, ?, ?)`,
		id, text, meta, createdAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("inserting citation: %w", err)
	}
	return nil
}

// InsertAuditEvent writes an audit event.
func (d *DB) InsertAuditEvent(ctx context.Context, id int64, actor, action, details string, createdAt time.Time) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO audit_events (event_id, actor, action, details, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, actor, action, details, createdAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("inserting audit event: %w", err)
	}
	return nil
}

// Fetchers returns the notes, citations and audit fetchers in that order.
func (d *DB) Fetchers() []sources.Fetcher {
	return []sources.Fetcher{d.Notes(), d.Citations(), d.Audit(DefaultAuditLimit)}
}

func encodeMetadata(metadata map[string]string) (sql.NullString, error) {
	if len(metadata) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding metadata: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// decodeMetadata parses a JSON object column. Non-string values are kept in
// their JSON form.
func decodeMetadata(raw sql.NullString) (map[string]string, error) {
	metadata := make(map[string]string)
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return metadata, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw.String), &fields); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	for k, v := range fields {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			metadata[k] = s
			continue
		}
		metadata[k] = string(v)
	}
	return metadata, nil
}

func fromMicros(micros int64) time.Time {
	return time.UnixMicro(micros).UTC()
}

func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

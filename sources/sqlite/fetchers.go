package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/poiesic/cortexsync/activity"
	"github.com/poiesic/cortexsync/core"
	"github.com/poiesic/cortexsync/sources"
)

// tableFetcher runs one windowed query and maps each row to an Item.
type tableFetcher struct {
	name string
	// query selects rows whose timestamp is in [?, ?) ordered by primary key.
	query string
	// extra arguments appended after the window bounds
	args []any
	scan func(rows *sql.Rows) (core.Item, error)
	// missingOK turns a missing table into an acceptable empty result
	missingOK bool
	db        *sql.DB
	logger    *slog.Logger
}

var _ sources.Fetcher = (*tableFetcher)(nil)

func (f *tableFetcher) Name() string {
	return f.name
}

// Fetch returns the rows changed in [window.Since, window.TriggeredAt).
// The upper bound keeps a replayed fetch identical to the original one.
func (f *tableFetcher) Fetch(ctx context.Context, window core.RunWindow) ([]core.Item, error) {
	f.logger.Info("fetching items", "since", window.Since, "until", window.TriggeredAt)

	args := append([]any{window.Since.UnixMicro(), window.TriggeredAt.UnixMicro()}, f.args...)
	rows, err := f.db.QueryContext(ctx, f.query, args...)
	if err != nil {
		if f.missingOK && isMissingTable(err) {
			f.logger.Warn("source table not found, skipping", "error", err)
			return nil, activity.AcceptableEmpty(fmt.Errorf("querying %s: %w", f.name, err))
		}
		return nil, fmt.Errorf("querying %s: %w", f.name, err)
	}
	defer rows.Close()

	var items []core.Item //nolint:prealloc // size unknown from query
	for rows.Next() {
		item, err := f.scan(rows)
		if err != nil {
			// The same row fails the same way on every attempt
			return nil, activity.NonRetryable(fmt.Errorf("scanning %s: %w", f.name, err))
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", f.name, err)
	}

	f.logger.Info("fetched items", "count", len(items))
	return items, nil
}

// Notes returns the fetcher for note pages.
func (d *DB) Notes() sources.Fetcher {
	return &tableFetcher{
		name: NotesSource,
		query: `
			SELECT id, content, metadata, updated_at
			FROM note_pages
			WHERE updated_at >= ? AND updated_at < ?
			ORDER BY id`,
		scan:   scanNote,
		db:     d.db,
		logger: d.logger.With("source", NotesSource),
	}
}

// Citations returns the fetcher for citations.
func (d *DB) Citations() sources.Fetcher {
	return &tableFetcher{
		name: CitationsSource,
		query: `
			SELECT id, text, context, created_at
			FROM citations
			WHERE created_at >= ? AND created_at < ?
			ORDER BY id`,
		scan:   scanCitation,
		db:     d.db,
		logger: d.logger.With("source", CitationsSource),
	}
}

// Audit returns the fetcher for audit events, reading at most limit rows.
// A database without an audit_events table yields an acceptable empty result.
func (d *DB) Audit(limit int) sources.Fetcher {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	return &tableFetcher{
		name: AuditSource,
		query: `
			SELECT event_id, actor, action, details, created_at
			FROM audit_events
			WHERE created_at >= ? AND created_at < ?
			ORDER BY event_id
			LIMIT ?`,
		args:      []any{limit},
		scan:      scanAuditEvent,
		missingOK: true,
		db:        d.db,
		logger:    d.logger.With("source", AuditSource),
	}
}

func scanNote(rows *sql.Rows) (core.Item, error) {
	var (
		id        int64
		content   string
		metadata  sql.NullString
		updatedAt int64
	)
	if err := rows.Scan(&id, &content, &metadata, &updatedAt); err != nil {
		return core.Item{}, err
	}
	meta, err := decodeMetadata(metadata)
	if err != nil {
		return core.Item{}, err
	}
	ts := fromMicros(updatedAt)
	meta["source"] = "note"
	meta["updated_at"] = ts.Format(time.RFC3339Nano)
	return core.Item{
		ID:        "note:" + strconv.FormatInt(id, 10),
		Text:      content,
		Metadata:  meta,
		UpdatedAt: ts,
	}, nil
}

func scanCitation(rows *sql.Rows) (core.Item, error) {
	var (
		id        int64
		text      string
		citeCtx   sql.NullString
		createdAt int64
	)
	if err := rows.Scan(&id, &text, &citeCtx, &createdAt); err != nil {
		return core.Item{}, err
	}
	meta, err := decodeMetadata(citeCtx)
	if err != nil {
		return core.Item{}, err
	}
	ts := fromMicros(createdAt)
	meta["source"] = "citation"
	meta["created_at"] = ts.Format(time.RFC3339Nano)
	return core.Item{
		ID:        "cite:" + strconv.FormatInt(id, 10),
		Text:      text,
		Metadata:  meta,
		UpdatedAt: ts,
	}, nil
}

func scanAuditEvent(rows *sql.Rows) (core.Item, error) {
	var (
		id        int64
		actor     string
		action    string
		details   string
		createdAt int64
	)
	if err := rows.Scan(&id, &actor, &action, &details, &createdAt); err != nil {
		return core.Item{}, err
	}
	ts := fromMicros(createdAt)
	return core.Item{
		ID:   "audit:" + strconv.FormatInt(id, 10),
		Text: fmt.Sprintf("Actor: %s, Action: %s, Details: %s", actor, action, details),
		Metadata: map[string]string{
			"type":   "audit",
			"actor":  actor,
			"action": action,
			"ts":     ts.Format(time.RFC3339Nano),
		},
		UpdatedAt: ts,
	}, nil
}

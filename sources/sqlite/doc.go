// Package sqlite provides source fetchers backed by a SQL database opened with
// the pure-Go modernc.org/sqlite driver.
//
// Three tables are read:
//
//	note_pages(id, content, metadata, updated_at)       -> source "notes",     IDs "note:<id>"
//	citations(id, text, context, created_at)            -> source "citations", IDs "cite:<id>"
//	audit_events(event_id, actor, action, details, ...) -> source "audit",     IDs "audit:<id>"
//
// Each fetcher selects rows whose timestamp lies in [Since, TriggeredAt) of
// the run window, ordered by primary key. The audit table is optional: when it
// does not exist the fetcher reports an acceptable empty result.
package sqlite

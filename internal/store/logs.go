package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

const logColumns = `id, user_id, content, type, status, tags, timestamp, is_processed, is_pinned, parent_id`

// InsertEntry inserts one log entry and returns its generated id.
func (s *Store) InsertEntry(e *LogEntry) (int64, error) {
	tagsJSON, err := json.Marshal(e.Tags)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal tags: %w", err)
	}

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.Tags == nil {
		tagsJSON = []byte("[]")
	}

	query := `
		INSERT INTO logs (user_id, content, type, status, tags, timestamp, is_processed, is_pinned, parent_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(
		query,
		e.UserID,
		e.Content,
		e.Type,
		e.Status,
		string(tagsJSON),
		e.Timestamp.Format(time.RFC3339),
		boolToInt(e.IsProcessed),
		boolToInt(e.IsPinned),
		e.ParentID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	e.ID = id
	return id, nil
}

// UnprocessedSince fetches a user's unprocessed entries with a timestamp at
// or after the lower bound, in chronological order. This is the eligibility
// query of an aggregation run.
func (s *Store) UnprocessedSince(userID int64, since time.Time) ([]LogEntry, error) {
	query := `
		SELECT ` + logColumns + `
		FROM logs
		WHERE user_id = ? AND is_processed = 0 AND timestamp >= ?
		ORDER BY timestamp ASC
	`

	rows, err := s.db.Query(query, userID, since.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query unprocessed entries: %w", err)
	}
	defer closeRows(rows)

	return scanEntries(rows)
}

// MarkProcessed flips an entry's processed flag and records the summary that
// consumed it. The WHERE guard makes consumption at-most-once: an entry that
// is already processed keeps its original parent_id.
func (s *Store) MarkProcessed(entryID, parentID int64) error {
	result, err := s.db.Exec(
		`UPDATE logs SET is_processed = 1, parent_id = ? WHERE id = ? AND is_processed = 0`,
		parentID, entryID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark entry processed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entry %d already processed: %w", entryID, ErrNotFound)
	}

	return nil
}

// EntriesForUser lists a user's entries, newest first, optionally filtered
// by a content substring.
func (s *Store) EntriesForUser(userID int64, contentQuery string) ([]LogEntry, error) {
	query := `
		SELECT ` + logColumns + `
		FROM logs
		WHERE user_id = ?
	`
	args := []interface{}{userID}

	if contentQuery != "" {
		query += ` AND content LIKE ?`
		args = append(args, "%"+contentQuery+"%")
	}

	query += ` ORDER BY timestamp DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer closeRows(rows)

	return scanEntries(rows)
}

// Entry fetches one entry by id.
func (s *Store) Entry(id int64) (*LogEntry, error) {
	row := s.db.QueryRow(`SELECT `+logColumns+` FROM logs WHERE id = ?`, id)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteEntry removes one entry owned by the given user.
func (s *Store) DeleteEntry(id, userID int64) error {
	result, err := s.db.Exec(`DELETE FROM logs WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// scanner abstracts sql.Row and sql.Rows for scanEntry.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEntry scans a database row into a LogEntry struct
func scanEntry(row scanner) (*LogEntry, error) {
	var (
		id, userID            int64
		content, typ, status  string
		tagsJSON, timestamp   string
		isProcessed, isPinned int
		parentID              sql.NullInt64
	)

	err := row.Scan(&id, &userID, &content, &typ, &status, &tagsJSON, &timestamp, &isProcessed, &isPinned, &parentID)
	if err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	var tags []string
	if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}

	entry := &LogEntry{
		ID:          id,
		UserID:      userID,
		Content:     content,
		Type:        typ,
		Status:      status,
		Tags:        tags,
		Timestamp:   ts,
		IsProcessed: isProcessed != 0,
		IsPinned:    isPinned != 0,
	}
	if parentID.Valid {
		entry.ParentID = &parentID.Int64
	}

	return entry, nil
}

// scanEntries drains rows into a slice.
func scanEntries(rows *sql.Rows) ([]LogEntry, error) {
	var entries []LogEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		log.Printf("store: failed to close database rows: %v", err)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

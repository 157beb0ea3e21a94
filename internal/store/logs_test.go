package store

import (
	"errors"
	"testing"
	"time"
)

func insertTestEntry(t *testing.T, st *Store, userID int64, content string, ts time.Time) int64 {
	t.Helper()

	id, err := st.InsertEntry(&LogEntry{
		UserID:    userID,
		Content:   content,
		Type:      "task",
		Status:    "done",
		Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("InsertEntry(%q) error = %v", content, err)
	}
	return id
}

func TestInsertEntry(t *testing.T) {
	st := newTestStore(t)

	entry := &LogEntry{
		UserID:  42,
		Content: "wrote docs",
		Type:    "task",
		Status:  "done",
		Tags:    []string{"writing"},
	}
	id, err := st.InsertEntry(entry)
	if err != nil {
		t.Fatalf("InsertEntry() error = %v", err)
	}
	if id <= 0 {
		t.Errorf("InsertEntry() id = %d, want positive", id)
	}
	if entry.ID != id {
		t.Errorf("InsertEntry() did not backfill ID: %d != %d", entry.ID, id)
	}

	got, err := st.Entry(id)
	if err != nil {
		t.Fatalf("Entry() error = %v", err)
	}
	if got.Content != "wrote docs" || got.Type != "task" || got.Status != "done" {
		t.Errorf("Entry() = %+v, want the inserted values", got)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "writing" {
		t.Errorf("Entry() tags = %v, want [writing]", got.Tags)
	}
	if got.IsProcessed {
		t.Error("Entry() is_processed = true, want false for a fresh entry")
	}
	if got.ParentID != nil {
		t.Errorf("Entry() parent_id = %v, want nil", got.ParentID)
	}
	if got.Timestamp.IsZero() {
		t.Error("Entry() timestamp is zero, want defaulted insert time")
	}
}

func TestInsertEntryNilTags(t *testing.T) {
	st := newTestStore(t)

	id, err := st.InsertEntry(&LogEntry{UserID: 1, Content: "x", Type: "note"})
	if err != nil {
		t.Fatalf("InsertEntry() error = %v", err)
	}

	got, err := st.Entry(id)
	if err != nil {
		t.Fatalf("Entry() error = %v", err)
	}
	if len(got.Tags) != 0 {
		t.Errorf("Entry() tags = %v, want empty", got.Tags)
	}
}

func TestUnprocessedSince(t *testing.T) {
	st := newTestStore(t)
	now := time.Now()

	// Out of chronological order on purpose.
	second := insertTestEntry(t, st, 42, "fixed bug", now.Add(-1*time.Hour))
	first := insertTestEntry(t, st, 42, "wrote docs", now.Add(-2*time.Hour))
	insertTestEntry(t, st, 42, "yesterday's note", now.Add(-30*time.Hour))
	insertTestEntry(t, st, 7, "someone else's entry", now)

	entries, err := st.UnprocessedSince(42, now.Add(-3*time.Hour))
	if err != nil {
		t.Fatalf("UnprocessedSince() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("UnprocessedSince() returned %d entries, want 2", len(entries))
	}
	if entries[0].ID != first || entries[1].ID != second {
		t.Errorf("UnprocessedSince() order = [%d %d], want chronological [%d %d]",
			entries[0].ID, entries[1].ID, first, second)
	}
}

func TestUnprocessedSinceExcludesProcessed(t *testing.T) {
	st := newTestStore(t)
	now := time.Now()

	id := insertTestEntry(t, st, 42, "wrote docs", now)
	summaryID := insertTestEntry(t, st, 42, "summary", now)

	if err := st.MarkProcessed(id, summaryID); err != nil {
		t.Fatalf("MarkProcessed() error = %v", err)
	}

	entries, err := st.UnprocessedSince(42, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("UnprocessedSince() error = %v", err)
	}
	for _, e := range entries {
		if e.ID == id {
			t.Error("UnprocessedSince() returned a processed entry")
		}
	}
}

func TestMarkProcessed(t *testing.T) {
	st := newTestStore(t)
	now := time.Now()

	id := insertTestEntry(t, st, 42, "wrote docs", now)

	if err := st.MarkProcessed(id, 900); err != nil {
		t.Fatalf("MarkProcessed() error = %v", err)
	}

	got, err := st.Entry(id)
	if err != nil {
		t.Fatalf("Entry() error = %v", err)
	}
	if !got.IsProcessed {
		t.Error("Entry() is_processed = false after MarkProcessed")
	}
	if got.ParentID == nil || *got.ParentID != 900 {
		t.Errorf("Entry() parent_id = %v, want 900", got.ParentID)
	}
}

func TestMarkProcessedIsAtMostOnce(t *testing.T) {
	st := newTestStore(t)

	id := insertTestEntry(t, st, 42, "wrote docs", time.Now())

	if err := st.MarkProcessed(id, 900); err != nil {
		t.Fatalf("MarkProcessed() first call error = %v", err)
	}

	// A second consumer must fail and must not overwrite the original parent.
	err := st.MarkProcessed(id, 901)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkProcessed() second call error = %v, want ErrNotFound", err)
	}

	got, err := st.Entry(id)
	if err != nil {
		t.Fatalf("Entry() error = %v", err)
	}
	if got.ParentID == nil || *got.ParentID != 900 {
		t.Errorf("Entry() parent_id = %v, want original 900", got.ParentID)
	}
}

func TestMarkProcessedMissingEntry(t *testing.T) {
	st := newTestStore(t)

	if err := st.MarkProcessed(12345, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkProcessed() error = %v, want ErrNotFound", err)
	}
}

func TestEntriesForUser(t *testing.T) {
	st := newTestStore(t)
	now := time.Now()

	older := insertTestEntry(t, st, 42, "wrote docs", now.Add(-2*time.Hour))
	newer := insertTestEntry(t, st, 42, "fixed login bug", now.Add(-1*time.Hour))
	insertTestEntry(t, st, 7, "other user", now)

	entries, err := st.EntriesForUser(42, "")
	if err != nil {
		t.Fatalf("EntriesForUser() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("EntriesForUser() returned %d entries, want 2", len(entries))
	}
	if entries[0].ID != newer || entries[1].ID != older {
		t.Errorf("EntriesForUser() order = [%d %d], want newest first [%d %d]",
			entries[0].ID, entries[1].ID, newer, older)
	}

	filtered, err := st.EntriesForUser(42, "login")
	if err != nil {
		t.Fatalf("EntriesForUser() with filter error = %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != newer {
		t.Errorf("EntriesForUser() filter = %v, want only the matching entry", filtered)
	}
}

func TestEntryNotFound(t *testing.T) {
	st := newTestStore(t)

	if _, err := st.Entry(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Entry() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteEntry(t *testing.T) {
	st := newTestStore(t)

	id := insertTestEntry(t, st, 42, "wrote docs", time.Now())

	// Deleting with the wrong owner must not remove it.
	if err := st.DeleteEntry(id, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteEntry() wrong owner error = %v, want ErrNotFound", err)
	}

	if err := st.DeleteEntry(id, 42); err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}

	if _, err := st.Entry(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Entry() after delete error = %v, want ErrNotFound", err)
	}
}

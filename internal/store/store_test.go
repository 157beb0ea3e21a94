package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return st
}

func TestNew(t *testing.T) {
	st := newTestStore(t)
	if st.db == nil {
		t.Fatal("Expected database connection to be initialized")
	}
	if got := st.getSchemaVersion(); got != currentSchemaVersion {
		t.Errorf("schema version = %d, want %d", got, currentSchemaVersion)
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "deeper", "test.db")
	st, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store with nested directories: %v", err)
	}
	defer func() { _ = st.Close() }()
}

func TestReopenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	st, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if _, err := st.CreateUser("alice", "13812345678", "hash"); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	_ = st.Close()

	// Reopening must run no destructive migration.
	st2, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer func() { _ = st2.Close() }()

	if _, err := st2.UserByPhone("13812345678"); err != nil {
		t.Errorf("UserByPhone() after reopen error = %v", err)
	}
}

func TestCreateUserAndLookup(t *testing.T) {
	st := newTestStore(t)

	id, err := st.CreateUser("alice", "13812345678", "bcrypt-hash")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if id <= 0 {
		t.Errorf("CreateUser() id = %d, want positive", id)
	}

	user, err := st.UserByPhone("13812345678")
	if err != nil {
		t.Fatalf("UserByPhone() error = %v", err)
	}
	if user.ID != id || user.Username != "alice" || user.PasswordHash != "bcrypt-hash" {
		t.Errorf("UserByPhone() = %+v, want the created user", user)
	}
	if user.CreatedAt.IsZero() {
		t.Error("UserByPhone() CreatedAt is zero")
	}
}

func TestUserByPhoneNotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.UserByPhone("19900000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UserByPhone() error = %v, want ErrNotFound", err)
	}
}

func TestCreateUserDuplicatePhone(t *testing.T) {
	st := newTestStore(t)

	if _, err := st.CreateUser("alice", "13812345678", "hash"); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if _, err := st.CreateUser("bob", "13812345678", "hash"); err == nil {
		t.Error("CreateUser() expected error for duplicate phone")
	}
}

func TestModelConfigLifecycle(t *testing.T) {
	st := newTestStore(t)

	if _, err := st.ModelConfig(1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ModelConfig() error = %v, want ErrNotFound before upsert", err)
	}

	cfg := &ModelConfig{UserID: 1, Provider: "gemini", ModelName: "gemini-1.5-flash", APIKey: "key-1"}
	if err := st.UpsertModelConfig(cfg); err != nil {
		t.Fatalf("UpsertModelConfig() error = %v", err)
	}

	got, err := st.ModelConfig(1)
	if err != nil {
		t.Fatalf("ModelConfig() error = %v", err)
	}
	if got.Provider != "gemini" || got.ModelName != "gemini-1.5-flash" || got.APIKey != "key-1" {
		t.Errorf("ModelConfig() = %+v, want the upserted config", got)
	}

	// Second upsert replaces, never duplicates.
	cfg.Provider = "kimi"
	cfg.APIKey = "key-2"
	if err := st.UpsertModelConfig(cfg); err != nil {
		t.Fatalf("UpsertModelConfig() second call error = %v", err)
	}

	got, err = st.ModelConfig(1)
	if err != nil {
		t.Fatalf("ModelConfig() error = %v", err)
	}
	if got.Provider != "kimi" || got.APIKey != "key-2" {
		t.Errorf("ModelConfig() after update = %+v, want replaced values", got)
	}
}

func TestConfiguredUserIDs(t *testing.T) {
	st := newTestStore(t)

	ids, err := st.ConfiguredUserIDs()
	if err != nil {
		t.Fatalf("ConfiguredUserIDs() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ConfiguredUserIDs() = %v, want empty", ids)
	}

	for _, userID := range []int64{3, 1, 2} {
		cfg := &ModelConfig{UserID: userID, Provider: "glm", ModelName: "glm-4-flash", APIKey: "k"}
		if err := st.UpsertModelConfig(cfg); err != nil {
			t.Fatalf("UpsertModelConfig(%d) error = %v", userID, err)
		}
	}

	ids, err = st.ConfiguredUserIDs()
	if err != nil {
		t.Fatalf("ConfiguredUserIDs() error = %v", err)
	}
	want := []int64{1, 2, 3}
	if len(ids) != len(want) {
		t.Fatalf("ConfiguredUserIDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ConfiguredUserIDs()[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

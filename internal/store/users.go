package store

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateUser inserts a new account and returns its generated id.
// The phone column is unique; inserting a duplicate fails.
func (s *Store) CreateUser(username, phone, passwordHash string) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (username, phone, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		username, phone, passwordHash, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return id, nil
}

// UserByPhone fetches one account by phone number.
// Returns ErrNotFound when no such account exists.
func (s *Store) UserByPhone(phone string) (*User, error) {
	row := s.db.QueryRow(
		`SELECT id, username, phone, password_hash, created_at FROM users WHERE phone = ?`,
		phone,
	)

	var u User
	var createdAt string
	err := row.Scan(&u.ID, &u.Username, &u.Phone, &u.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	u.CreatedAt = ts

	return &u, nil
}

package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ModelConfig fetches one user's LLM configuration.
// Returns ErrNotFound when the user has never configured a provider.
func (s *Store) ModelConfig(userID int64) (*ModelConfig, error) {
	row := s.db.QueryRow(
		`SELECT user_id, provider, model_name, api_key FROM model_configs WHERE user_id = ?`,
		userID,
	)

	var cfg ModelConfig
	err := row.Scan(&cfg.UserID, &cfg.Provider, &cfg.ModelName, &cfg.APIKey)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan model config: %w", err)
	}

	return &cfg, nil
}

// UpsertModelConfig inserts or replaces a user's LLM configuration.
// One row per user, keyed by user_id.
func (s *Store) UpsertModelConfig(cfg *ModelConfig) error {
	query := `
		INSERT INTO model_configs (user_id, provider, model_name, api_key, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			provider = excluded.provider,
			model_name = excluded.model_name,
			api_key = excluded.api_key,
			updated_at = excluded.updated_at
	`

	_, err := s.db.Exec(query, cfg.UserID, cfg.Provider, cfg.ModelName, cfg.APIKey, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert model config: %w", err)
	}

	return nil
}

// ConfiguredUserIDs lists every user that has a model configuration.
// The scheduled aggregation cycle enumerates exactly this set.
func (s *Store) ConfiguredUserIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT user_id FROM model_configs ORDER BY user_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query configured users: %w", err)
	}
	defer closeRows(rows)

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

package store

import (
	"database/sql"
	"errors"
	"fmt"

	"buzzboard/internal/service/persist"
)

var _ persist.Backend = (*Store)(nil)

// Load 按 key 读取持久化快照；不存在时返回 persist.ErrNotFound
func (s *Store) Load(key string) ([]byte, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM app_state WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persist.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load app_state %s: %w", key, err)
	}
	return []byte(value), nil
}

// Save 写入持久化快照（后写覆盖）
func (s *Store) Save(key string, data []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO app_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, string(data))
	if err != nil {
		return fmt.Errorf("failed to save app_state %s: %w", key, err)
	}
	return nil
}

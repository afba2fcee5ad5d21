package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ImportLog 导入记录
type ImportLog struct {
	ID             int64      `json:"id"`
	ImportID       string     `json:"importId"`
	Filename       string     `json:"filename"`
	FileSize       int64      `json:"fileSize"`
	TotalSheets    int        `json:"totalSheets"`
	ImportedSheets int        `json:"importedSheets"`
	TotalRows      int        `json:"totalRows"`
	Categories     int        `json:"categories"`
	Status         string     `json:"status"` // processing/success/failed
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// ImportSummary 导入完成时的统计
type ImportSummary struct {
	TotalSheets    int
	ImportedSheets int
	TotalRows      int
	Categories     int
}

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(importID, filename string, fileSize int64) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO import_logs (import_id, filename, file_size, status)
		VALUES (?, ?, ?, 'processing')
	`, importID, filename, fileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// CompleteImportLog 完成导入日志更新
func (s *Store) CompleteImportLog(id int64, sum ImportSummary, status, errorMessage string) error {
	_, err := s.db.Exec(`
		UPDATE import_logs SET
			total_sheets = ?,
			imported_sheets = ?,
			total_rows = ?,
			categories = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, sum.TotalSheets, sum.ImportedSheets, sum.TotalRows, sum.Categories, status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// ListImportLogs 最近的导入记录（按时间倒序）
func (s *Store) ListImportLogs(limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, import_id, filename, file_size,
			total_sheets, imported_sheets, total_rows, categories,
			status, error_message, created_at, completed_at
		FROM import_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import logs failed: %w", err)
	}
	defer rows.Close()

	out := []ImportLog{}
	for rows.Next() {
		var it ImportLog
		var completed sql.NullTime
		if err := rows.Scan(
			&it.ID, &it.ImportID, &it.Filename, &it.FileSize,
			&it.TotalSheets, &it.ImportedSheets, &it.TotalRows, &it.Categories,
			&it.Status, &it.ErrorMessage, &it.CreatedAt, &completed,
		); err != nil {
			return nil, fmt.Errorf("scan import log failed: %w", err)
		}
		if completed.Valid {
			t := completed.Time
			it.CompletedAt = &t
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import logs failed: %w", err)
	}
	return out, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"crelay/internal/models"
)

const mediaColumns = "attachment_id, sha256, size_bytes, created_at"

// FindMedia returns the media record for an attachment ID, or nil if absent.
func (s *Store) FindMedia(ctx context.Context, attachmentID string) (*models.Media, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE attachment_id = ?`, attachmentID)
	return scanMedia(row)
}

// InsertMedia creates the record for an attachment ID; duplicate keys
// surface as a unique-constraint error.
func (s *Store) InsertMedia(ctx context.Context, m *models.Media) error {
	if m == nil {
		return fmt.Errorf("media is required")
	}
	m.SHA256 = strings.ToLower(strings.TrimSpace(m.SHA256))
	if m.SHA256 == "" {
		return fmt.Errorf("sha256 is required")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO media (attachment_id, sha256, size_bytes, created_at)
		VALUES (?, ?, ?, ?)
	`, m.AttachmentID, m.SHA256, m.SizeBytes, formatTime(m.CreatedAt))
	return err
}

// CountMedia returns the number of stored media records.
func (s *Store) CountMedia(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media").Scan(&count)
	return count, err
}

func scanMedia(row *sql.Row) (*models.Media, error) {
	var (
		m         models.Media
		createdAt string
	)
	err := row.Scan(&m.AttachmentID, &m.SHA256, &m.SizeBytes, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &m, nil
}

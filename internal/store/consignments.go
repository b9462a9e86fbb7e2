package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"crelay/internal/models"
)

const consignmentColumns = "blinded_utxo, sha256, size_bytes, ack, created_at, responded_at"

// FindConsignment returns the consignment record for a blinded UTXO,
// or nil if absent.
func (s *Store) FindConsignment(ctx context.Context, blindedUTXO string) (*models.Consignment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+consignmentColumns+` FROM consignments WHERE blinded_utxo = ?`, blindedUTXO)
	return scanConsignment(row)
}

// InsertConsignment creates the record for a blinded UTXO. The primary
// key makes the uniqueness check atomic: a concurrent insert for the
// same key surfaces as a unique-constraint error, never an overwrite.
func (s *Store) InsertConsignment(ctx context.Context, c *models.Consignment) error {
	if c == nil {
		return fmt.Errorf("consignment is required")
	}
	c.SHA256 = strings.ToLower(strings.TrimSpace(c.SHA256))
	if c.SHA256 == "" {
		return fmt.Errorf("sha256 is required")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO consignments (blinded_utxo, sha256, size_bytes, ack, created_at, responded_at)
		VALUES (?, ?, ?, NULL, ?, NULL)
	`, c.BlindedUTXO, c.SHA256, c.SizeBytes, formatTime(c.CreatedAt))
	return err
}

// SetConsignmentAck records the one-shot acknowledgment value. The
// conditional WHERE makes the undecided-to-terminal transition atomic:
// applied is true only for the single update that found ack unset.
// Interpreting an unapplied update (absent record, same-value resubmit
// or conflicting value) is the caller's job.
func (s *Store) SetConsignmentAck(ctx context.Context, blindedUTXO string, value bool) (applied bool, err error) {
	ackInt := 0
	if value {
		ackInt = 1
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE consignments SET ack = ?, responded_at = ? WHERE blinded_utxo = ? AND ack IS NULL
	`, ackInt, formatTime(time.Now().UTC()), blindedUTXO)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// CountConsignments returns the number of stored consignment records.
func (s *Store) CountConsignments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM consignments").Scan(&count)
	return count, err
}

func scanConsignment(row *sql.Row) (*models.Consignment, error) {
	var (
		c           models.Consignment
		ack         sql.NullInt64
		createdAt   string
		respondedAt sql.NullString
	)
	err := row.Scan(&c.BlindedUTXO, &c.SHA256, &c.SizeBytes, &ack, &createdAt, &respondedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if ack.Valid {
		value := ack.Int64 != 0
		c.Ack = &value
	}
	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if respondedAt.Valid && respondedAt.String != "" {
		parsed, err := parseTime(respondedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse responded_at: %w", err)
		}
		c.RespondedAt = &parsed
	}
	return &c, nil
}

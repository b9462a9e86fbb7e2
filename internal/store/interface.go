package store

import (
	"context"

	"crelay/internal/models"
)

// RelayStore abstracts the metadata repository used by RelayService.
type RelayStore interface {
	FindConsignment(ctx context.Context, blindedUTXO string) (*models.Consignment, error)
	InsertConsignment(ctx context.Context, c *models.Consignment) error
	SetConsignmentAck(ctx context.Context, blindedUTXO string, value bool) (bool, error)
	CountConsignments(ctx context.Context) (int64, error)

	FindMedia(ctx context.Context, attachmentID string) (*models.Media, error)
	InsertMedia(ctx context.Context, m *models.Media) error
	CountMedia(ctx context.Context) (int64, error)
}

var _ RelayStore = (*Store)(nil)

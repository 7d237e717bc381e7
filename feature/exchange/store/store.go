package store

import (
	"context"
	"errors"

	"edi-exchange/feature/exchange/models"
)

var (
	// ErrNotFound is returned when a backend, type or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStale is returned when a record changed since it was loaded.
	ErrStale = errors.New("record was modified concurrently")
)

// Repository persists backends, exchange types, records and their audit trail.
type Repository interface {
	CreateBackend(ctx context.Context, b *models.Backend) error
	GetBackend(ctx context.Context, id uint) (*models.Backend, error)
	FindBackendByName(ctx context.Context, name string) (*models.Backend, error)
	ListBackends(ctx context.Context) ([]models.Backend, error)

	CreateType(ctx context.Context, t *models.ExchangeType) error
	FindType(ctx context.Context, backendID uint, code string) (*models.ExchangeType, error)

	CreateRecord(ctx context.Context, rec *models.Record) error
	// GetRecord loads a record with its backend and type.
	GetRecord(ctx context.Context, id uint) (*models.Record, error)
	// SaveRecord writes the mutable fields of rec if its Version is still current,
	// then bumps rec.Version. It returns ErrStale otherwise.
	SaveRecord(ctx context.Context, rec *models.Record) error
	// ListDue returns the records of direction in one of states, oldest first.
	ListDue(ctx context.Context, direction models.Direction, states []models.State) ([]*models.Record, error)
	// ListByTarget returns the records pointing at a business entity, oldest first.
	ListByTarget(ctx context.Context, model string, resID uint64) ([]*models.Record, error)

	AddMessage(ctx context.Context, msg *models.Message) error
	// Messages returns the audit trail of a business entity, newest first.
	Messages(ctx context.Context, model string, resID uint64) ([]models.Message, error)
}

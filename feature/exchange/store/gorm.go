package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"edi-exchange/core/database"
	"edi-exchange/feature/exchange/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm is the database backed repository.
type Gorm struct {
	db *gorm.DB
}

// NewGorm creates a repository over db.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// Tables lists the models managed by the repository.
func Tables() []any {
	return []any{&models.Backend{}, &models.ExchangeType{}, &models.Record{}, &models.Message{}}
}

// Migrate creates or updates the exchange tables.
func (s *Gorm) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(Tables()...); err != nil {
		return fmt.Errorf("failed to migrate exchange tables: %w", err)
	}
	return nil
}

// requiredColumns are the record columns the reconciliation depends on.
var requiredColumns = []string{
	"id", "backend_id", "type_id", "direction", "model", "res_id",
	"exchange_file", "exchange_filename", "exchanged_on",
	"ack_file", "ack_received", "ack_received_on",
	"edi_exchange_state", "exchange_error", "version",
}

// VerifySchema reports the record columns missing from the database.
func (s *Gorm) VerifySchema(ctx context.Context) ([]string, error) {
	return database.MissingColumns(s.db.WithContext(ctx), models.Record{}.TableName(), requiredColumns)
}

func (s *Gorm) CreateBackend(ctx context.Context, b *models.Backend) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("failed to create backend %q: %w", b.Name, err)
	}
	return nil
}

func (s *Gorm) GetBackend(ctx context.Context, id uint) (*models.Backend, error) {
	var b models.Backend
	if err := s.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, notFound(err, "backend %d", id)
	}
	return &b, nil
}

func (s *Gorm) FindBackendByName(ctx context.Context, name string) (*models.Backend, error) {
	var b models.Backend
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&b).Error; err != nil {
		return nil, notFound(err, "backend %q", name)
	}
	return &b, nil
}

func (s *Gorm) ListBackends(ctx context.Context) ([]models.Backend, error) {
	var out []models.Backend
	if err := s.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list backends: %w", err)
	}
	return out, nil
}

func (s *Gorm) CreateType(ctx context.Context, t *models.ExchangeType) error {
	if !t.Direction.Valid() {
		return fmt.Errorf("exchange type %q: %w", t.Code, models.ErrInvalidDirection)
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create exchange type %q: %w", t.Code, err)
	}
	return nil
}

func (s *Gorm) FindType(ctx context.Context, backendID uint, code string) (*models.ExchangeType, error) {
	var t models.ExchangeType
	err := s.db.WithContext(ctx).Where("backend_id = ? AND code = ?", backendID, code).First(&t).Error
	if err != nil {
		return nil, notFound(err, "exchange type %q", code)
	}
	return &t, nil
}

func (s *Gorm) CreateRecord(ctx context.Context, rec *models.Record) error {
	// BeforeSave validates the state against the direction.
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

func (s *Gorm) GetRecord(ctx context.Context, id uint) (*models.Record, error) {
	var rec models.Record
	err := s.db.WithContext(ctx).Preload("Backend").Preload("Type").First(&rec, id).Error
	if err != nil {
		return nil, notFound(err, "record %d", id)
	}
	return &rec, nil
}

func (s *Gorm) SaveRecord(ctx context.Context, rec *models.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Table(models.Record{}.TableName()).
		Where("id = ? AND version = ?", rec.ID, rec.Version).
		Updates(map[string]any{
			"exchange_file":      rec.ExchangeFile,
			"exchange_filename":  rec.ExchangeFilename,
			"exchanged_on":       rec.ExchangedOn,
			"ack_file":           rec.AckFile,
			"ack_received":       rec.AckReceived,
			"ack_received_on":    rec.AckReceivedOn,
			"edi_exchange_state": rec.State,
			"exchange_error":     rec.ExchangeError,
			"version":            rec.Version + 1,
			"updated_at":         now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to save record %d: %w", rec.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: record %d version %d", ErrStale, rec.ID, rec.Version)
	}

	rec.Version++
	rec.UpdatedAt = now
	return nil
}

func (s *Gorm) ListDue(ctx context.Context, direction models.Direction, states []models.State) ([]*models.Record, error) {
	var out []*models.Record
	err := s.db.WithContext(ctx).
		Preload("Backend").Preload("Type").
		Where("direction = ? AND edi_exchange_state IN ?", direction, states).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due %s records: %w", direction, err)
	}
	return out, nil
}

func (s *Gorm) ListByTarget(ctx context.Context, model string, resID uint64) ([]*models.Record, error) {
	var out []*models.Record
	err := s.db.WithContext(ctx).
		Preload("Type").
		Where("model = ? AND res_id = ?", model, resID).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list records of %s,%d: %w", model, resID, err)
	}
	return out, nil
}

func (s *Gorm) AddMessage(ctx context.Context, msg *models.Message) error {
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}
	return nil
}

func (s *Gorm) Messages(ctx context.Context, model string, resID uint64) ([]models.Message, error) {
	var out []models.Message
	err := s.db.WithContext(ctx).
		Where("model = ? AND res_id = ?", model, resID).
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages of %s,%d: %w", model, resID, err)
	}
	return out, nil
}

func notFound(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

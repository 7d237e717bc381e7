package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"edi-exchange/feature/exchange/batch"
	"edi-exchange/feature/exchange/models"
	"edi-exchange/feature/exchange/reconcile"
	"edi-exchange/feature/exchange/store"

	"go.uber.org/zap"
)

var (
	// ErrTypeNotFound is returned when a backend has no exchange type with the requested code.
	ErrTypeNotFound = errors.New("exchange type not found")
	// ErrInvalidTarget is returned when a record does not point at a business entity.
	ErrInvalidTarget = errors.New("record target model is required")
)

// CreateRequest describes a new exchange record.
type CreateRequest struct {
	TypeCode string `json:"type"`
	Model    string `json:"model"`
	ResID    uint64 `json:"res_id"`
	// Filename overrides the name derived from the type pattern.
	Filename string `json:"filename,omitempty"`
	File     []byte `json:"file,omitempty"`
}

// Service exposes exchange operations by record id.
type Service struct {
	repo       store.Repository
	engine     *reconcile.Engine
	driver     *batch.Driver
	generators *Generators
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a service. A nil generators registry means no output generation.
func NewService(repo store.Repository, engine *reconcile.Engine, driver *batch.Driver, generators *Generators, logger *zap.Logger) *Service {
	if generators == nil {
		generators = NewGenerators()
	}
	return &Service{
		repo:       repo,
		engine:     engine,
		driver:     driver,
		generators: generators,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateRecord creates a record of the given type on a backend. The direction is
// copied from the type and the filename is derived from its pattern unless given.
func (s *Service) CreateRecord(ctx context.Context, backendID uint, req CreateRequest) (*models.Record, error) {
	if strings.TrimSpace(req.Model) == "" {
		return nil, ErrInvalidTarget
	}
	backend, err := s.repo.GetBackend(ctx, backendID)
	if err != nil {
		return nil, err
	}
	typ, err := s.repo.FindType(ctx, backend.ID, req.TypeCode)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q on backend %q", ErrTypeNotFound, req.TypeCode, backend.Name)
	}
	if err != nil {
		return nil, err
	}

	rec := &models.Record{
		BackendID:    backend.ID,
		TypeID:       typ.ID,
		Direction:    typ.Direction,
		Model:        req.Model,
		ResID:        req.ResID,
		ExchangeFile: req.File,
		State:        models.StateNew,
	}
	rec.ExchangeFilename = strings.TrimSpace(req.Filename)
	if rec.ExchangeFilename == "" {
		rec.ExchangeFilename = typ.MakeFilename(rec, s.now())
	}

	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}
	rec.Backend, rec.Type = *backend, *typ
	s.logger.Info("Exchange record created",
		zap.Uint("record_id", rec.ID),
		zap.String("backend", backend.Name),
		zap.String("type", typ.Code),
		zap.String("filename", rec.ExchangeFilename))
	return rec, nil
}

// Get loads a record with its backend and type.
func (s *Service) Get(ctx context.Context, id uint) (*models.Record, error) {
	return s.repo.GetRecord(ctx, id)
}

// Send sends an output record. It returns true when the file was put on the backend.
func (s *Service) Send(ctx context.Context, id uint) (*models.Record, bool, error) {
	rec, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return nil, false, err
	}
	sent, err := s.engine.Send(ctx, rec)
	return rec, sent, err
}

// Check reconciles a record with its backend according to its direction.
// It returns true while the remote outcome is still pending.
func (s *Service) Check(ctx context.Context, id uint) (*models.Record, bool, error) {
	rec, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return nil, false, err
	}
	var pending bool
	switch rec.Direction {
	case models.DirectionOutput:
		pending, err = s.engine.CheckOutput(ctx, rec)
	case models.DirectionInput:
		pending, err = s.engine.CheckInput(ctx, rec)
	default:
		err = fmt.Errorf("%w: %q", models.ErrInvalidDirection, rec.Direction)
	}
	return rec, pending, err
}

// Process imports a received input record.
func (s *Service) Process(ctx context.Context, id uint) (*models.Record, bool, error) {
	rec, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return nil, false, err
	}
	ok, err := s.engine.Process(ctx, rec)
	return rec, ok, err
}

// GenerateOutput renders the payload of an output record with the generator of its
// backend type. With save set the payload is saved on the record, which is only
// allowed until the record is sent.
func (s *Service) GenerateOutput(ctx context.Context, id uint, save bool) ([]byte, error) {
	rec, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Direction != models.DirectionOutput {
		return nil, fmt.Errorf("%w: generate on %s record %d", reconcile.ErrWrongDirection, rec.Direction, rec.ID)
	}
	gen, ok := s.generators.Lookup(rec.Backend.BackendType)
	if !ok {
		return nil, fmt.Errorf("%w for backend type %q", ErrNoGenerator, rec.Backend.BackendType)
	}

	data, err := gen.Generate(ctx, rec.Clone())
	if err != nil {
		return nil, fmt.Errorf("failed to generate output for record %d: %w", rec.ID, err)
	}
	if save {
		if err := s.engine.SetPayload(ctx, rec, data); err != nil {
			return nil, fmt.Errorf("failed to store output of record %d: %w", rec.ID, err)
		}
	}
	return data, nil
}

// ListFor returns the records attached to a business entity.
func (s *Service) ListFor(ctx context.Context, model string, resID uint64) ([]*models.Record, error) {
	return s.repo.ListByTarget(ctx, model, resID)
}

// Messages returns the audit trail of a business entity, newest first.
func (s *Service) Messages(ctx context.Context, model string, resID uint64) ([]models.Message, error) {
	return s.repo.Messages(ctx, model, resID)
}

// Sync runs the batch sweeps.
func (s *Service) Sync(ctx context.Context, opts batch.Options) (*batch.Report, error) {
	return s.driver.Sync(ctx, opts)
}

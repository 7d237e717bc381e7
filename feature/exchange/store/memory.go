package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"edi-exchange/feature/exchange/models"
)

// Memory is an in-process repository. Records are copied in and out, so callers never
// share state with the store.
type Memory struct {
	mu       sync.RWMutex
	backends map[uint]*models.Backend
	types    map[uint]*models.ExchangeType
	records  map[uint]*models.Record
	messages []models.Message
	nextID   uint
}

// NewMemory creates an empty repository.
func NewMemory() *Memory {
	return &Memory{
		backends: make(map[uint]*models.Backend),
		types:    make(map[uint]*models.ExchangeType),
		records:  make(map[uint]*models.Record),
	}
}

func (m *Memory) id() uint {
	m.nextID++
	return m.nextID
}

func (m *Memory) CreateBackend(_ context.Context, b *models.Backend) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.backends {
		if existing.Name == b.Name {
			return fmt.Errorf("failed to create backend %q: duplicate name", b.Name)
		}
	}
	b.ID = m.id()
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	c := *b
	m.backends[b.ID] = &c
	return nil
}

func (m *Memory) GetBackend(_ context.Context, id uint) (*models.Backend, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.backends[id]
	if !ok {
		return nil, fmt.Errorf("%w: backend %d", ErrNotFound, id)
	}
	c := *b
	return &c, nil
}

func (m *Memory) FindBackendByName(_ context.Context, name string) (*models.Backend, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.backends {
		if b.Name == name {
			c := *b
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: backend %q", ErrNotFound, name)
}

func (m *Memory) ListBackends(_ context.Context) ([]models.Backend, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Backend, 0, len(m.backends))
	for _, b := range m.backends {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b models.Backend) int { return int(a.ID) - int(b.ID) })
	return out, nil
}

func (m *Memory) CreateType(_ context.Context, t *models.ExchangeType) error {
	if !t.Direction.Valid() {
		return fmt.Errorf("exchange type %q: %w", t.Code, models.ErrInvalidDirection)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.backends[t.BackendID]; !ok {
		return fmt.Errorf("%w: backend %d", ErrNotFound, t.BackendID)
	}
	for _, existing := range m.types {
		if existing.BackendID == t.BackendID && existing.Code == t.Code {
			return fmt.Errorf("failed to create exchange type %q: duplicate code", t.Code)
		}
	}
	t.ID = m.id()
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	c := *t
	m.types[t.ID] = &c
	return nil
}

func (m *Memory) FindType(_ context.Context, backendID uint, code string) (*models.ExchangeType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.types {
		if t.BackendID == backendID && t.Code == code {
			c := *t
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: exchange type %q", ErrNotFound, code)
}

func (m *Memory) CreateRecord(_ context.Context, rec *models.Record) error {
	if err := rec.BeforeSave(nil); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = m.id()
	rec.CreatedAt = time.Now().UTC()
	rec.UpdatedAt = rec.CreatedAt
	m.records[rec.ID] = rec.Clone()
	return nil
}

func (m *Memory) GetRecord(_ context.Context, id uint) (*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: record %d", ErrNotFound, id)
	}
	return m.hydrate(rec), nil
}

// hydrate copies rec and attaches its backend and type. Callers hold the lock.
func (m *Memory) hydrate(rec *models.Record) *models.Record {
	c := rec.Clone()
	if b, ok := m.backends[c.BackendID]; ok {
		c.Backend = *b
	}
	if t, ok := m.types[c.TypeID]; ok {
		c.Type = *t
	}
	return c
}

func (m *Memory) SaveRecord(_ context.Context, rec *models.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.records[rec.ID]
	if !ok || stored.Version != rec.Version {
		return fmt.Errorf("%w: record %d version %d", ErrStale, rec.ID, rec.Version)
	}

	rec.Version++
	rec.UpdatedAt = time.Now().UTC()
	c := rec.Clone()
	c.Backend = models.Backend{}
	c.Type = models.ExchangeType{}
	m.records[rec.ID] = c
	return nil
}

func (m *Memory) ListDue(_ context.Context, direction models.Direction, states []models.State) ([]*models.Record, error) {
	return m.filter(func(r *models.Record) bool {
		return r.Direction == direction && slices.Contains(states, r.State)
	}), nil
}

func (m *Memory) ListByTarget(_ context.Context, model string, resID uint64) ([]*models.Record, error) {
	return m.filter(func(r *models.Record) bool {
		return r.Model == model && r.ResID == resID
	}), nil
}

func (m *Memory) filter(keep func(*models.Record) bool) []*models.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Record
	for _, r := range m.records {
		if keep(r) {
			out = append(out, m.hydrate(r))
		}
	}
	slices.SortFunc(out, func(a, b *models.Record) int { return int(a.ID) - int(b.ID) })
	return out
}

func (m *Memory) AddMessage(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = m.id()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *Memory) Messages(_ context.Context, model string, resID uint64) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Message
	for i := len(m.messages) - 1; i >= 0; i-- {
		if msg := m.messages[i]; msg.Model == model && msg.ResID == resID {
			out = append(out, msg)
		}
	}
	return out, nil
}

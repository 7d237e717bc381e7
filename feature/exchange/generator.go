package exchange

import (
	"context"
	"errors"
	"sync"

	"edi-exchange/feature/exchange/models"
)

// ErrNoGenerator is returned when a backend type has no output generator.
var ErrNoGenerator = errors.New("no output generator registered")

// OutputGenerator renders the payload of an output record.
type OutputGenerator interface {
	Generate(ctx context.Context, rec *models.Record) ([]byte, error)
}

// GeneratorFunc adapts a function to OutputGenerator.
type GeneratorFunc func(ctx context.Context, rec *models.Record) ([]byte, error)

func (f GeneratorFunc) Generate(ctx context.Context, rec *models.Record) ([]byte, error) {
	return f(ctx, rec)
}

// Generators maps backend type codes to output generators.
type Generators struct {
	mu        sync.RWMutex
	byBackend map[string]OutputGenerator
}

// NewGenerators creates an empty registry.
func NewGenerators() *Generators {
	return &Generators{byBackend: make(map[string]OutputGenerator)}
}

// Register sets the generator for backendType.
func (g *Generators) Register(backendType string, gen OutputGenerator) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.byBackend[backendType] = gen
}

// Lookup returns the generator for backendType.
func (g *Generators) Lookup(backendType string) (OutputGenerator, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	gen, ok := g.byBackend[backendType]
	return gen, ok
}

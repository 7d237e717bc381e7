package reconcile

import (
	"context"
	"errors"
	"sync"

	"edi-exchange/feature/exchange/models"
)

// ErrNoProcessor is recorded on input records whose type has no registered processor.
var ErrNoProcessor = errors.New("no input processor registered")

// InputProcessor imports the payload of a received input record.
// It gets a copy of the record and must not rely on mutating it.
type InputProcessor interface {
	Process(ctx context.Context, rec *models.Record) error
}

// ProcessorFunc adapts a function to InputProcessor.
type ProcessorFunc func(ctx context.Context, rec *models.Record) error

func (f ProcessorFunc) Process(ctx context.Context, rec *models.Record) error {
	return f(ctx, rec)
}

// Processors maps exchange type codes to input processors.
type Processors struct {
	mu     sync.RWMutex
	byType map[string]InputProcessor
}

// NewProcessors creates an empty registry.
func NewProcessors() *Processors {
	return &Processors{byType: make(map[string]InputProcessor)}
}

// Register sets the processor for typeCode.
func (p *Processors) Register(typeCode string, proc InputProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byType[typeCode] = proc
}

// Lookup returns the processor for typeCode.
func (p *Processors) Lookup(typeCode string) (InputProcessor, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	proc, ok := p.byType[typeCode]
	return proc, ok
}

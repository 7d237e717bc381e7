package storage

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

const (
	// KindS3 stores files in an S3 compatible bucket.
	KindS3 = "s3"
	// KindFS stores files on a filesystem path.
	KindFS = "fs"
)

// ErrUnknownKind is returned when no factory is registered for a storage kind.
var ErrUnknownKind = errors.New("unknown storage kind")

// Factory builds a gateway for a storage location (bucket or root directory).
type Factory func(location string) (Gateway, error)

// Registry maps storage kinds to gateway factories and caches built gateways,
// so each (kind, location) pair is resolved once and shared afterwards.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	gateways  map[string]Gateway
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		gateways:  make(map[string]Gateway),
	}
}

// NewDefaultRegistry registers the s3 and fs kinds from configuration.
// The S3 client is created on first use of an s3 backend.
func NewDefaultRegistry(cfg Config, base afero.Fs) *Registry {
	r := NewRegistry()

	var (
		clientOnce sync.Once
		client     Client
		clientErr  error
	)
	r.Register(KindS3, func(location string) (Gateway, error) {
		clientOnce.Do(func() {
			client, clientErr = NewClient(cfg)
		})
		if clientErr != nil {
			return nil, clientErr
		}
		bucket := location
		if bucket == "" {
			bucket = cfg.Bucket
		}
		return NewS3Gateway(client, bucket), nil
	})

	r.Register(KindFS, func(location string) (Gateway, error) {
		root := location
		if root == "" {
			root = cfg.Root
		}
		return NewFSGateway(base, root), nil
	})

	return r
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind string, factory Factory) {
	kind = normalizeKind(kind)
	if kind == "" || factory == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

// Open returns the gateway for kind and location, building it on first use.
func (r *Registry) Open(kind, location string) (Gateway, error) {
	kind = normalizeKind(kind)
	key := kind + "|" + location

	r.mu.RLock()
	gw, ok := r.gateways[key]
	factory, known := r.factories[kind]
	r.mu.RUnlock()
	if ok {
		return gw, nil
	}
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have built it meanwhile.
	if gw, ok := r.gateways[key]; ok {
		return gw, nil
	}
	gw, err := factory(location)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage %q: %w", kind, location, err)
	}
	r.gateways[key] = gw
	return gw, nil
}

// Kinds returns the registered storage kinds.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	return kinds
}

func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}

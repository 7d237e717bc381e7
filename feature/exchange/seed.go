package exchange

import (
	"context"
	"errors"
	"fmt"
	"io"

	"edi-exchange/feature/exchange/models"
	"edi-exchange/feature/exchange/store"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedFile declares backends and their exchange types:
//
//	backends:
//	  - name: acme
//	    storage_kind: s3
//	    storage_location: edi-acme
//	    output_dir_pending: out/pending
//	    output_dir_done: out/done
//	    output_dir_error: out/error
//	    types:
//	      - code: orders
//	        direction: output
//	        ack_needed: true
//	        file_ext: xml
type SeedFile struct {
	Backends []SeedBackend `yaml:"backends"`
}

// SeedBackend is a backend with its types.
type SeedBackend struct {
	models.Backend `yaml:",inline"`
	Types          []models.ExchangeType `yaml:"types"`
}

// SeedResult counts what a seed created.
type SeedResult struct {
	Backends int `json:"backends"`
	Types    int `json:"types"`
}

// ParseSeed decodes a seed file and validates the declared directions.
func ParseSeed(r io.Reader) (*SeedFile, error) {
	var file SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for _, b := range file.Backends {
		if b.Name == "" {
			return nil, errors.New("seed backend without name")
		}
		for _, t := range b.Types {
			if !t.Direction.Valid() {
				return nil, fmt.Errorf("backend %q type %q: %w: %q", b.Name, t.Code, models.ErrInvalidDirection, t.Direction)
			}
		}
	}
	return &file, nil
}

// Seed creates the backends and types declared in r. Existing backends (by name) and
// types (by backend and code) are left untouched, so seeding twice is harmless.
func Seed(ctx context.Context, repo store.Repository, r io.Reader, logger *zap.Logger) (*SeedResult, error) {
	file, err := ParseSeed(r)
	if err != nil {
		return nil, err
	}

	result := &SeedResult{}
	for _, sb := range file.Backends {
		backend, err := repo.FindBackendByName(ctx, sb.Name)
		switch {
		case errors.Is(err, store.ErrNotFound):
			backend = new(models.Backend)
			*backend = sb.Backend
			if err := repo.CreateBackend(ctx, backend); err != nil {
				return result, err
			}
			result.Backends++
			logger.Info("Seeded backend", zap.String("backend", backend.Name))
		case err != nil:
			return result, err
		}

		for _, t := range sb.Types {
			_, err := repo.FindType(ctx, backend.ID, t.Code)
			if err == nil {
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return result, err
			}
			typ := t
			typ.BackendID = backend.ID
			if err := repo.CreateType(ctx, &typ); err != nil {
				return result, err
			}
			result.Types++
			logger.Info("Seeded exchange type",
				zap.String("backend", backend.Name),
				zap.String("type", typ.Code),
				zap.String("direction", string(typ.Direction)))
		}
	}
	return result, nil
}

package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/moldshop/prodtrack/internal/domain"
)

// ProgramCreator is the slice of the program store the importer needs.
type ProgramCreator interface {
	Create(ctx context.Context, p *domain.Program) error
	FindByProgramID(ctx context.Context, programID string) (*domain.Program, error)
}

// Importer loads program seed files into the store, skipping program
// numbers that already exist.
type Importer struct {
	store ProgramCreator
}

func New(store ProgramCreator) *Importer {
	return &Importer{store: store}
}

// ImportFile imports a single seed file. Returns the created program,
// or (nil, nil) when the program number is already in the queue.
func (im *Importer) ImportFile(ctx context.Context, path string) (*domain.Program, error) {
	p, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	existing, err := im.store.FindByProgramID(ctx, p.ProgramID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	p.ID = uuid.NewString()
	if err := im.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create program %s: %w", p.ProgramID, err)
	}
	return p, nil
}

// ImportDir imports every seed file in a directory in name order.
// Returns how many programs were created; parse and store errors are
// collected rather than aborting the batch.
func (im *Importer) ImportDir(ctx context.Context, dir string) (int, []error) {
	programs, errs := LoadDir(dir)

	created := 0
	for _, p := range programs {
		existing, err := im.store.FindByProgramID(ctx, p.ProgramID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if existing != nil {
			continue
		}

		p.ID = uuid.NewString()
		if err := im.store.Create(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("create program %s: %w", p.ProgramID, err))
			continue
		}
		created++
	}
	return created, errs
}

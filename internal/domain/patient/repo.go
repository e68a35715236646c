package patient

import (
	"context"
	"fmt"
)

// Repository is the record store. Every backend keeps records in insertion
// order and treats CI as the lookup key without enforcing uniqueness.
type Repository interface {
	// Create appends p as-is; validation is the caller's job.
	Create(ctx context.Context, p *Patient) error

	// List returns every record in stored order, or ErrEmptyList.
	List(ctx context.Context) ([]*Patient, error)

	// GetByCI returns the first record with the given CI, or ErrNotFound.
	GetByCI(ctx context.Context, ci string) (*Patient, error)

	// Update changes Name and LastName of the first record with the given CI.
	Update(ctx context.Context, ci, name, lastName string) (*Patient, error)

	// Delete removes every record with the given CI, or returns ErrNotFound.
	Delete(ctx context.Context, ci string) error
}

func notFound(ci string) error {
	return fmt.Errorf("%w: CI %s", ErrNotFound, ci)
}

// findByCI returns the index of the first record with the given CI, or -1.
func findByCI(patients []*Patient, ci string) int {
	for i, p := range patients {
		if p.CI == ci {
			return i
		}
	}
	return -1
}

// withoutCI returns patients minus every record with the given CI, keeping order.
func withoutCI(patients []*Patient, ci string) []*Patient {
	kept := make([]*Patient, 0, len(patients))
	for _, p := range patients {
		if p.CI != ci {
			kept = append(kept, p)
		}
	}
	return kept
}

package extraction

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no run exists for an ID.
var ErrNotFound = errors.New("extraction run not found")

type RunRepository interface {
	Create(ctx context.Context, run *Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	// List returns run summaries newest first, plus the total count.
	List(ctx context.Context, limit, offset int) ([]*Run, int, error)
}

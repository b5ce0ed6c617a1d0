package extraction

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type runRepoMemory struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*Run
	now  func() time.Time
}

// NewRunRepoMemory returns a process-local RunRepository, used when no
// DATABASE_URL is configured.
func NewRunRepoMemory() RunRepository {
	return &runRepoMemory{
		runs: make(map[uuid.UUID]*Run),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *runRepoMemory) Create(_ context.Context, run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run.CreatedAt = r.now()
	stored := *run
	r.runs[run.ID] = &stored
	return nil
}

func (r *runRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (r *runRepoMemory) List(_ context.Context, limit, offset int) ([]*Run, int, error) {
	r.mu.RLock()
	all := make([]*Run, 0, len(r.runs))
	for _, run := range r.runs {
		all = append(all, run.Summary())
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})

	total := len(all)
	if offset >= total {
		return []*Run{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/fleetreg/internal/domain/registration"
)

// RegistrationsRepo keeps records in process. It enforces the same rules as the
// Postgres store: unique plate, store-owned version and timestamps.
type RegistrationsRepo struct {
	mu      sync.RWMutex
	items   map[string]registration.Registration
	byPlate map[string]string // plate -> id
	now     func() time.Time
}

func NewRegistrationsRepo() *RegistrationsRepo {
	return &RegistrationsRepo{
		items:   make(map[string]registration.Registration),
		byPlate: make(map[string]string),
		now:     time.Now,
	}
}

func (r *RegistrationsRepo) ExistsByPlate(_ context.Context, plate string) (bool, error) {
	r.mu.RLock()
	_, ok := r.byPlate[plate]
	r.mu.RUnlock()

	return ok, nil
}

func (r *RegistrationsRepo) Create(_ context.Context, reg registration.Registration) (registration.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byPlate[reg.Plate]; taken {
		return registration.Registration{}, registration.ErrPlateTaken
	}
	if _, taken := r.items[reg.ID]; taken {
		return registration.Registration{}, registration.ErrConstraint
	}

	now := r.now().UTC()
	reg.Version = 0
	reg.CreatedAt = now
	reg.UpdatedAt = now

	r.items[reg.ID] = reg
	r.byPlate[reg.Plate] = reg.ID

	return reg, nil
}

func (r *RegistrationsRepo) GetByID(_ context.Context, id string) (registration.Registration, error) {
	r.mu.RLock()
	reg, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return registration.Registration{}, registration.ErrNotFound
	}

	return reg, nil
}

func (r *RegistrationsRepo) List(_ context.Context, params registration.ListParams) ([]registration.Registration, int64, error) {
	r.mu.RLock()
	all := make([]registration.Registration, 0, len(r.items))
	for _, reg := range r.items {
		all = append(all, reg)
	}
	r.mu.RUnlock()

	less := lessFor(params.SortBy)
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if params.SortDir == registration.SortAsc {
			return less(a, b)
		}
		return less(b, a)
	})

	total := int64(len(all))
	start := params.Offset()
	if start >= len(all) {
		return []registration.Registration{}, total, nil
	}
	end := start + params.Size
	if end > len(all) {
		end = len(all)
	}

	return all[start:end], total, nil
}

// UpdateStatus applies an optimistic-concurrency status change.
func (r *RegistrationsRepo) UpdateStatus(_ context.Context, id string, expectedVersion int64, status registration.Status) (registration.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.items[id]
	if !ok {
		return registration.Registration{}, registration.ErrNotFound
	}
	if reg.Version != expectedVersion {
		return registration.Registration{}, registration.ErrVersionConflict
	}

	reg.Status = status
	reg.Version++
	reg.UpdatedAt = r.now().UTC()
	r.items[id] = reg

	return reg, nil
}

// lessFor orders by the requested field, tie-breaking on id for stable pages.
func lessFor(sortBy string) func(a, b registration.Registration) bool {
	var cmp func(a, b registration.Registration) int

	switch sortBy {
	case "updatedAt":
		cmp = func(a, b registration.Registration) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case "plate":
		cmp = func(a, b registration.Registration) int { return strings.Compare(a.Plate, b.Plate) }
	case "ownerName":
		cmp = func(a, b registration.Registration) int { return strings.Compare(a.OwnerName, b.OwnerName) }
	case "make":
		cmp = func(a, b registration.Registration) int { return strings.Compare(a.Make, b.Make) }
	case "year":
		cmp = func(a, b registration.Registration) int { return a.Year - b.Year }
	case "status":
		cmp = func(a, b registration.Registration) int { return strings.Compare(string(a.Status), string(b.Status)) }
	default:
		cmp = func(a, b registration.Registration) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}

	return func(a, b registration.Registration) bool {
		if c := cmp(a, b); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	}
}

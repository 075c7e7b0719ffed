package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/fleetreg/internal/domain/registration"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(plate string) registration.Registration {
	return registration.Registration{
		ID:        uuid.NewString(),
		OwnerName: "Juan Perez",
		TaxID:     "123456785",
		Email:     "juan@example.com",
		Plate:     plate,
		Make:      "Toyota",
		Model:     "Corolla",
		Year:      2020,
		Status:    registration.StatusPending,
	}
}

func TestRegistrationsRepo_CreateAssignsStoreFields(t *testing.T) {
	repo := NewRegistrationsRepo()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	in := record("ABCD12")
	in.Version = 7

	created, err := repo.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(0), created.Version)
	assert.Equal(t, fixed, created.CreatedAt)
	assert.Equal(t, fixed, created.UpdatedAt)

	exists, err := repo.ExistsByPlate(context.Background(), "ABCD12")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestRegistrationsRepo_DuplicatePlate(t *testing.T) {
	repo := NewRegistrationsRepo()
	ctx := context.Background()

	_, err := repo.Create(ctx, record("ABCD12"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, record("ABCD12"))
	assert.ErrorIs(t, err, registration.ErrPlateTaken)
}

func TestRegistrationsRepo_ConcurrentCreateSingleWinner(t *testing.T) {
	repo := NewRegistrationsRepo()
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Create(ctx, record("RACE01"))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, registration.ErrPlateTaken)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestRegistrationsRepo_GetByIDMissing(t *testing.T) {
	repo := NewRegistrationsRepo()

	_, err := repo.GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, registration.ErrNotFound)
}

func TestRegistrationsRepo_UpdateStatusVersioning(t *testing.T) {
	repo := NewRegistrationsRepo()
	ctx := context.Background()
	created, err := repo.Create(ctx, record("ABCD12"))
	require.NoError(t, err)

	later := created.CreatedAt.Add(time.Minute)
	repo.now = func() time.Time { return later }

	updated, err := repo.UpdateStatus(ctx, created.ID, 0, registration.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Version)
	assert.Equal(t, registration.StatusApproved, updated.Status)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)

	_, err = repo.UpdateStatus(ctx, created.ID, 0, registration.StatusRejected)
	assert.ErrorIs(t, err, registration.ErrVersionConflict)

	_, err = repo.UpdateStatus(ctx, uuid.NewString(), 0, registration.StatusRejected)
	assert.ErrorIs(t, err, registration.ErrNotFound)
}

func TestRegistrationsRepo_ListSortsAndPages(t *testing.T) {
	repo := NewRegistrationsRepo()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		repo.now = func() time.Time { return at }
		_, err := repo.Create(ctx, record(fmt.Sprintf("AB%04d", i)))
		require.NoError(t, err)
	}

	params := registration.ListParams{Page: 0, Size: 2}.Normalize()
	items, total, err := repo.List(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, items, 2)
	assert.Equal(t, "AB0004", items[0].Plate)
	assert.Equal(t, "AB0003", items[1].Plate)

	params = registration.ListParams{Page: 2, Size: 2, SortBy: "plate", SortDir: "asc"}.Normalize()
	items, _, err = repo.List(ctx, params)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "AB0004", items[0].Plate)

	params = registration.ListParams{Page: 9, Size: 2}.Normalize()
	items, total, err = repo.List(ctx, params)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int64(5), total)
}

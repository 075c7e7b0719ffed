package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/fleetreg/internal/cache"
	"github.com/geocoder89/fleetreg/internal/domain/registration"
)

// StatusUpdater is the store capability used by review tooling downstream of intake.
// Both repo implementations satisfy it.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, expectedVersion int64, status registration.Status) (registration.Registration, error)
}

// StatusChanges moves a registration out of PENDING under optimistic concurrency.
// Intake never calls it; it exists for the approval workflow that consumes
// registration.created events.
type StatusChanges struct {
	store StatusUpdater
	cache *cache.Cache[registration.Registration]
	log   *slog.Logger
}

func NewStatusChanges(store StatusUpdater, c *cache.Cache[registration.Registration], log *slog.Logger) *StatusChanges {
	if log == nil {
		log = slog.Default()
	}
	return &StatusChanges{store: store, cache: c, log: log}
}

func (sc *StatusChanges) Change(ctx context.Context, id string, expectedVersion int64, status registration.Status) (registration.Response, error) {
	if !status.IsValid() || status == registration.StatusPending {
		return registration.Response{}, registration.NewValidationError(fmt.Sprintf("status must be %s or %s", registration.StatusApproved, registration.StatusRejected))
	}
	if expectedVersion < 0 {
		return registration.Response{}, registration.NewValidationError("expected version must not be negative")
	}

	updated, err := sc.store.UpdateStatus(ctx, id, expectedVersion, status)
	switch {
	case err == nil:
	case errors.Is(err, registration.ErrNotFound):
		return registration.Response{}, registration.NewNotFoundError(id)
	case errors.Is(err, registration.ErrVersionConflict):
		return registration.Response{}, registration.NewVersionConflictError(id, err)
	default:
		return registration.Response{}, registration.NewInternalError("could not update registration status", err)
	}

	if sc.cache != nil {
		sc.cache.Delete(id)
	}
	sc.log.InfoContext(ctx, "registration.status_changed",
		"registration_id", id,
		"status", string(updated.Status),
		"version", updated.Version,
	)
	return registration.ToResponse(updated), nil
}

package service

import (
	"context"
	"fmt"
)

type PlateLookup interface {
	ExistsByPlate(ctx context.Context, plate string) (bool, error)
}

// DuplicateGuard is a fast existence check on a normalized plate. It only saves a
// doomed insert; the store's unique constraint decides races.
type DuplicateGuard struct {
	lookup PlateLookup
}

func NewDuplicateGuard(lookup PlateLookup) *DuplicateGuard {
	return &DuplicateGuard{lookup: lookup}
}

func (g *DuplicateGuard) Precheck(ctx context.Context, normalizedPlate string) (bool, error) {
	taken, err := g.lookup.ExistsByPlate(ctx, normalizedPlate)
	if err != nil {
		return false, fmt.Errorf("plate precheck: %w", err)
	}
	return taken, nil
}

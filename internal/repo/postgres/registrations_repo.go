package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/fleetreg/internal/domain/registration"
	"github.com/geocoder89/fleetreg/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const plateUniqueConstraint = "uk_registrations_plate"

const registrationColumns = `id, owner_name, tax_id, email, phone, plate, make, model, year,
	color, vehicle_type, notes, status, version, created_at, updated_at`

type RegistrationsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRegistrationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *RegistrationsRepo {
	return &RegistrationsRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *RegistrationsRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (repo *RegistrationsRepo) ExistsByPlate(ctx context.Context, plate string) (bool, error) {
	var exists bool

	err := repo.observe("registrations.exists_by_plate", func() error {
		return repo.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM registrations WHERE plate = $1)`, plate,
		).Scan(&exists)
	})

	return exists, err
}

// Create inserts in a single statement; the unique index on plate settles concurrent inserts.
func (repo *RegistrationsRepo) Create(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	err := repo.observe("registrations.create", func() error {
		return repo.pool.QueryRow(ctx, `
		INSERT INTO registrations (id, owner_name, tax_id, email, phone, plate, make, model, year,
			color, vehicle_type, notes, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING version, created_at, updated_at
	`, reg.ID, reg.OwnerName, reg.TaxID, reg.Email, reg.Phone, reg.Plate, reg.Make, reg.Model, reg.Year,
			reg.Color, reg.VehicleType, reg.Notes, string(reg.Status),
		).Scan(&reg.Version, &reg.CreatedAt, &reg.UpdatedAt)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == plateUniqueConstraint {
				return registration.Registration{}, fmt.Errorf("%w: %s", registration.ErrPlateTaken, pgErr.ConstraintName)
			}
			return registration.Registration{}, fmt.Errorf("%w: %s", registration.ErrConstraint, pgErr.ConstraintName)
		}
		if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
			return registration.Registration{}, fmt.Errorf("%w: %s", registration.ErrConstraint, pgErr.Message)
		}
		return registration.Registration{}, err
	}

	return reg, nil
}

func (repo *RegistrationsRepo) GetByID(ctx context.Context, id string) (registration.Registration, error) {
	var reg registration.Registration

	err := repo.observe("registrations.get_by_id", func() error {
		row := repo.pool.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id)
		return scanRegistration(row, &reg)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registration.Registration{}, registration.ErrNotFound
		}
		return registration.Registration{}, err
	}

	return reg, nil
}

// List returns one page plus the total row count. params must already be normalized.
func (repo *RegistrationsRepo) List(ctx context.Context, params registration.ListParams) ([]registration.Registration, int64, error) {
	column, ok := params.SortColumn()
	if !ok {
		return nil, 0, fmt.Errorf("unsupported sort field %q", params.SortBy)
	}
	dir := "DESC"
	if params.SortDir == registration.SortAsc {
		dir = "ASC"
	}

	// column and dir come from a whitelist; id keeps pages stable on ties.
	query := fmt.Sprintf(`SELECT %s FROM registrations ORDER BY %s %s, id %s LIMIT $1 OFFSET $2`,
		registrationColumns, column, dir, dir)

	output := make([]registration.Registration, 0, params.Size)
	var total int64

	err := repo.observe("registrations.list", func() error {
		rows, err := repo.pool.Query(ctx, query, params.Size, params.Offset())
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var reg registration.Registration
			if err := scanRegistration(rows, &reg); err != nil {
				return err
			}
			output = append(output, reg)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	err = repo.observe("registrations.count", func() error {
		return repo.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

// UpdateStatus changes status only when the stored version still equals expectedVersion.
func (repo *RegistrationsRepo) UpdateStatus(ctx context.Context, id string, expectedVersion int64, status registration.Status) (registration.Registration, error) {
	var reg registration.Registration

	err := repo.observe("registrations.update_status", func() error {
		row := repo.pool.QueryRow(ctx, `
		UPDATE registrations
		SET status = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING `+registrationColumns,
			id, expectedVersion, string(status))
		return scanRegistration(row, &reg)
	})

	if err == nil {
		return reg, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return registration.Registration{}, err
	}

	// no row updated: either missing or stale
	var exists bool
	err = repo.observe("registrations.exists_by_id", func() error {
		return repo.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM registrations WHERE id = $1)`, id).Scan(&exists)
	})
	if err != nil {
		return registration.Registration{}, err
	}
	if !exists {
		return registration.Registration{}, registration.ErrNotFound
	}
	return registration.Registration{}, registration.ErrVersionConflict
}

func scanRegistration(row pgx.Row, reg *registration.Registration) error {
	var status string
	err := row.Scan(
		&reg.ID, &reg.OwnerName, &reg.TaxID, &reg.Email, &reg.Phone, &reg.Plate, &reg.Make, &reg.Model, &reg.Year,
		&reg.Color, &reg.VehicleType, &reg.Notes, &status, &reg.Version, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return err
	}
	reg.Status = registration.Status(status)
	return nil
}

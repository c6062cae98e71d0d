package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"circulation-backend/internal/domains/licensepool/model"
)

const poolColumns = `
	id, data_source, identifier_id, work_id, open_access,
	licenses_owned, licenses_available, licenses_reserved, patrons_in_hold_queue,
	availability_time, last_checked, created_at, updated_at
`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func scanPool(row pgx.Row) (*model.LicensePool, error) {
	var p model.LicensePool
	err := row.Scan(
		&p.ID, &p.DataSource, &p.IdentifierID, &p.WorkID, &p.OpenAccess,
		&p.LicensesOwned, &p.LicensesAvailable, &p.LicensesReserved, &p.PatronsInHoldQueue,
		&p.AvailabilityTime, &p.LastChecked, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPools(rows pgx.Rows) ([]model.LicensePool, error) {
	defer rows.Close()
	var pools []model.LicensePool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan license pool: %w", err)
		}
		pools = append(pools, *p)
	}
	return pools, rows.Err()
}

func (r *postgresRepository) GetOrCreate(ctx context.Context, dataSource string, identifierID int64) (*model.LicensePool, bool, error) {
	query := `
		INSERT INTO license_pools (id, data_source, identifier_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (identifier_id) DO UPDATE SET identifier_id = EXCLUDED.identifier_id
		RETURNING ` + poolColumns + `, (xmax = 0) AS created`

	var p model.LicensePool
	var created bool
	err := r.pool.QueryRow(ctx, query, uuid.New(), dataSource, identifierID).Scan(
		&p.ID, &p.DataSource, &p.IdentifierID, &p.WorkID, &p.OpenAccess,
		&p.LicensesOwned, &p.LicensesAvailable, &p.LicensesReserved, &p.PatronsInHoldQueue,
		&p.AvailabilityTime, &p.LastChecked, &p.CreatedAt, &p.UpdatedAt, &created,
	)
	if err != nil {
		return nil, false, fmt.Errorf("get or create license pool: %w", err)
	}
	return &p, created, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.LicensePool, error) {
	p, err := scanPool(r.pool.QueryRow(ctx, `SELECT `+poolColumns+` FROM license_pools WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, model.ErrPoolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get license pool: %w", err)
	}
	return p, nil
}

func (r *postgresRepository) GetByIdentifier(ctx context.Context, identifierID int64) (*model.LicensePool, error) {
	p, err := scanPool(r.pool.QueryRow(ctx, `SELECT `+poolColumns+` FROM license_pools WHERE identifier_id = $1`, identifierID))
	if err == pgx.ErrNoRows {
		return nil, model.ErrPoolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("license pool by identifier: %w", err)
	}
	return p, nil
}

func (r *postgresRepository) ByWorkID(ctx context.Context, workID uuid.UUID) ([]model.LicensePool, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+poolColumns+` FROM license_pools WHERE work_id = $1 ORDER BY id`, workID)
	if err != nil {
		return nil, fmt.Errorf("license pools by work: %w", err)
	}
	return collectPools(rows)
}

func (r *postgresRepository) WithoutWork(ctx context.Context, limit int) ([]model.LicensePool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+poolColumns+` FROM license_pools WHERE work_id IS NULL ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("license pools without work: %w", err)
	}
	return collectPools(rows)
}

func (r *postgresRepository) Update(ctx context.Context, pool *model.LicensePool) error {
	query := `
		UPDATE license_pools SET
			work_id = $2, open_access = $3,
			licenses_owned = $4, licenses_available = $5,
			licenses_reserved = $6, patrons_in_hold_queue = $7,
			availability_time = $8, last_checked = $9, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		pool.ID, pool.WorkID, pool.OpenAccess,
		pool.LicensesOwned, pool.LicensesAvailable,
		pool.LicensesReserved, pool.PatronsInHoldQueue,
		pool.AvailabilityTime, pool.LastChecked,
	)
	if err != nil {
		return fmt.Errorf("update license pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPoolNotFound
	}
	return nil
}

func (r *postgresRepository) SetWork(ctx context.Context, poolIDs []uuid.UUID, workID *uuid.UUID) error {
	if len(poolIDs) == 0 {
		return nil
	}

	ids := make([]string, len(poolIDs))
	for i, id := range poolIDs {
		ids[i] = id.String()
	}

	query := `UPDATE license_pools SET work_id = $1, updated_at = NOW() WHERE id = ANY($2::uuid[])`
	if _, err := r.pool.Exec(ctx, query, workID, pq.Array(ids)); err != nil {
		return fmt.Errorf("set work on license pools: %w", err)
	}
	return nil
}

func (r *postgresRepository) AddEvent(ctx context.Context, event *model.CirculationEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	query := `
		INSERT INTO circulation_events (id, license_pool_id, type, old_value, new_value, start)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.pool.Exec(ctx, query,
		event.ID, event.LicensePoolID, event.Type, event.OldValue, event.NewValue, event.Start,
	); err != nil {
		return fmt.Errorf("add circulation event: %w", err)
	}
	return nil
}

func (r *postgresRepository) EventsForPool(ctx context.Context, poolID uuid.UUID) ([]model.CirculationEvent, error) {
	query := `
		SELECT id, license_pool_id, type, old_value, new_value, start
		FROM circulation_events
		WHERE license_pool_id = $1
		ORDER BY start, id`

	rows, err := r.pool.Query(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("events for pool: %w", err)
	}
	defer rows.Close()

	var events []model.CirculationEvent
	for rows.Next() {
		var e model.CirculationEvent
		if err := rows.Scan(&e.ID, &e.LicensePoolID, &e.Type, &e.OldValue, &e.NewValue, &e.Start); err != nil {
			return nil, fmt.Errorf("scan circulation event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"circulation-backend/internal/domains/measurement/model"
	"circulation-backend/pkg/database"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Add(ctx context.Context, m *model.Measurement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Weight == 0 {
		m.Weight = 1
	}
	if m.TakenAt.IsZero() {
		m.TakenAt = time.Now().UTC()
	}
	m.IsMostRecent = true

	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		demote := `
			UPDATE measurements SET is_most_recent = FALSE
			WHERE identifier_id = $1 AND data_source = $2 AND quantity = $3 AND is_most_recent`
		if _, err := tx.Exec(ctx, demote, m.IdentifierID, m.DataSource, m.Quantity); err != nil {
			return fmt.Errorf("demote previous measurement: %w", err)
		}

		insert := `
			INSERT INTO measurements
				(id, identifier_id, data_source, quantity, value, weight, taken_at, is_most_recent, normalized_value)
			VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8)`
		if _, err := tx.Exec(ctx, insert,
			m.ID, m.IdentifierID, m.DataSource, m.Quantity, m.Value, m.Weight, m.TakenAt, m.NormalizedValue,
		); err != nil {
			return fmt.Errorf("insert measurement: %w", err)
		}
		return nil
	})
}

func (r *postgresRepository) MostRecentFor(ctx context.Context, identifierIDs []int64, quantities []string) ([]model.Measurement, error) {
	if len(identifierIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, identifier_id, data_source, quantity, value, weight, taken_at, is_most_recent, normalized_value
		FROM measurements
		WHERE identifier_id = ANY($1) AND quantity = ANY($2) AND is_most_recent
		ORDER BY taken_at, id`

	rows, err := r.pool.Query(ctx, query, pq.Array(identifierIDs), pq.Array(quantities))
	if err != nil {
		return nil, fmt.Errorf("most recent measurements: %w", err)
	}
	defer rows.Close()

	var out []model.Measurement
	for rows.Next() {
		var m model.Measurement
		if err := rows.Scan(
			&m.ID, &m.IdentifierID, &m.DataSource, &m.Quantity, &m.Value, &m.Weight,
			&m.TakenAt, &m.IsMostRecent, &m.NormalizedValue,
		); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *postgresRepository) SetNormalizedValue(ctx context.Context, id uuid.UUID, normalized float64) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE measurements SET normalized_value = $2 WHERE id = $1`, id, normalized,
	); err != nil {
		return fmt.Errorf("set normalized value: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"circulation-backend/internal/domains/identifier/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) GetOrCreate(ctx context.Context, idType, value string) (*model.Identifier, bool, error) {
	// The no-op update makes RETURNING yield the row on conflict too.
	query := `
		INSERT INTO identifiers (type, value)
		VALUES ($1, $2)
		ON CONFLICT (type, value) DO UPDATE SET type = EXCLUDED.type
		RETURNING id, type, value, (xmax = 0) AS created
	`

	var ident model.Identifier
	var created bool
	err := r.pool.QueryRow(ctx, query, idType, value).Scan(
		&ident.ID, &ident.Type, &ident.Value, &created,
	)
	if err != nil {
		return nil, false, fmt.Errorf("get or create identifier: %w", err)
	}
	return &ident, created, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*model.Identifier, error) {
	query := `SELECT id, type, value FROM identifiers WHERE id = $1`

	var ident model.Identifier
	err := r.pool.QueryRow(ctx, query, id).Scan(&ident.ID, &ident.Type, &ident.Value)
	if err == pgx.ErrNoRows {
		return nil, model.ErrIdentifierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get identifier: %w", err)
	}
	return &ident, nil
}

func (r *postgresRepository) UpsertEquivalency(ctx context.Context, dataSource string, inputID, outputID int64, strength float64) (*model.Equivalency, error) {
	if strength < -1 || strength > 1 {
		return nil, model.ErrInvalidStrength
	}

	// Conflict resolution at write time: strength is revised by a
	// vote-weighted average and votes accumulate, so read paths never see
	// duplicate rows for one (source, input, output) triple.
	query := `
		INSERT INTO equivalencies (data_source, input_id, output_id, strength, votes)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (data_source, input_id, output_id) DO UPDATE SET
			strength = (equivalencies.strength * equivalencies.votes + EXCLUDED.strength)
			           / (equivalencies.votes + 1),
			votes = equivalencies.votes + 1
		RETURNING id, input_id, output_id, data_source, strength, votes
	`

	var eq model.Equivalency
	err := r.pool.QueryRow(ctx, query, dataSource, inputID, outputID, strength).Scan(
		&eq.ID, &eq.InputID, &eq.OutputID, &eq.DataSource, &eq.Strength, &eq.Votes,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert equivalency: %w", err)
	}
	return &eq, nil
}

func (r *postgresRepository) EquivalenciesFor(ctx context.Context, identifierIDs []int64, excludeEdgeIDs []int64) ([]model.Equivalency, error) {
	if len(identifierIDs) == 0 {
		return nil, nil
	}
	if excludeEdgeIDs == nil {
		// NULL would swallow the whole predicate.
		excludeEdgeIDs = []int64{}
	}

	query := `
		SELECT id, input_id, output_id, data_source, strength, votes
		FROM equivalencies
		WHERE (input_id = ANY($1) OR output_id = ANY($1))
		  AND NOT (id = ANY($2))
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query,
		pq.Array(identifierIDs), pq.Array(excludeEdgeIDs))
	if err != nil {
		return nil, fmt.Errorf("equivalencies query: %w", err)
	}
	defer rows.Close()

	var edges []model.Equivalency
	for rows.Next() {
		var eq model.Equivalency
		err := rows.Scan(&eq.ID, &eq.InputID, &eq.OutputID, &eq.DataSource, &eq.Strength, &eq.Votes)
		if err != nil {
			return nil, fmt.Errorf("scan equivalency: %w", err)
		}
		edges = append(edges, eq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return edges, nil
}

func (r *postgresRepository) ResourcesFor(ctx context.Context, identifierIDs []int64, rels []string, dataSource string) ([]model.Resource, error) {
	if len(identifierIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, identifier_id, data_source, rel, url, media_type, content, quality
		FROM resources
		WHERE identifier_id = ANY($1)
	`
	args := []interface{}{pq.Array(identifierIDs)}
	argIndex := 2

	if len(rels) > 0 {
		query += fmt.Sprintf(" AND rel = ANY($%d)", argIndex)
		args = append(args, pq.Array(rels))
		argIndex++
	}
	if dataSource != "" {
		query += fmt.Sprintf(" AND data_source = $%d", argIndex)
		args = append(args, dataSource)
	}
	query += " ORDER BY quality DESC NULLS LAST, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("resources query: %w", err)
	}
	defer rows.Close()

	var resources []model.Resource
	for rows.Next() {
		var res model.Resource
		err := rows.Scan(&res.ID, &res.IdentifierID, &res.DataSource, &res.Rel,
			&res.URL, &res.MediaType, &res.Content, &res.Quality)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return resources, nil
}

func (r *postgresRepository) AddResource(ctx context.Context, resource *model.Resource) error {
	query := `
		INSERT INTO resources (identifier_id, data_source, rel, url, media_type, content, quality)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query,
		resource.IdentifierID, resource.DataSource, resource.Rel,
		resource.URL, resource.MediaType, resource.Content, resource.Quality,
	).Scan(&resource.ID)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (r *postgresRepository) SetResourceQuality(ctx context.Context, resourceID int64, quality float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE resources SET quality = $1 WHERE id = $2`, quality, resourceID)
	if err != nil {
		return fmt.Errorf("update resource quality: %w", err)
	}
	return nil
}

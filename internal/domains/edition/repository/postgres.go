package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"circulation-backend/internal/domains/edition/model"
)

const editionColumns = `
	id, data_source, primary_identifier_id, work_id, is_primary_for_work,
	title, subtitle, sort_title, author, sort_author, language, medium,
	permanent_work_id, cover_url, cover_thumbnail_url, no_known_cover,
	created_at, updated_at
`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func scanEdition(row pgx.Row) (*model.Edition, error) {
	var e model.Edition
	err := row.Scan(
		&e.ID, &e.DataSource, &e.PrimaryIdentifierID, &e.WorkID, &e.IsPrimaryForWork,
		&e.Title, &e.Subtitle, &e.SortTitle, &e.Author, &e.SortAuthor, &e.Language, &e.Medium,
		&e.PermanentWorkID, &e.CoverURL, &e.CoverThumbnailURL, &e.NoKnownCover,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectEditions(rows pgx.Rows) ([]model.Edition, error) {
	defer rows.Close()
	var editions []model.Edition
	for rows.Next() {
		e, err := scanEdition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan edition: %w", err)
		}
		editions = append(editions, *e)
	}
	return editions, rows.Err()
}

func (r *postgresRepository) GetOrCreate(ctx context.Context, dataSource string, primaryIdentifierID int64) (*model.Edition, bool, error) {
	query := `
		INSERT INTO editions (id, data_source, primary_identifier_id, medium)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (data_source, primary_identifier_id)
			DO UPDATE SET data_source = EXCLUDED.data_source
		RETURNING ` + editionColumns + `, (xmax = 0) AS created`

	var e model.Edition
	var created bool
	err := r.pool.QueryRow(ctx, query, uuid.New(), dataSource, primaryIdentifierID, model.MediumBook).Scan(
		&e.ID, &e.DataSource, &e.PrimaryIdentifierID, &e.WorkID, &e.IsPrimaryForWork,
		&e.Title, &e.Subtitle, &e.SortTitle, &e.Author, &e.SortAuthor, &e.Language, &e.Medium,
		&e.PermanentWorkID, &e.CoverURL, &e.CoverThumbnailURL, &e.NoKnownCover,
		&e.CreatedAt, &e.UpdatedAt, &created,
	)
	if err != nil {
		return nil, false, fmt.Errorf("get or create edition: %w", err)
	}
	return &e, created, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Edition, error) {
	query := `SELECT ` + editionColumns + ` FROM editions WHERE id = $1`

	e, err := scanEdition(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, model.ErrEditionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get edition: %w", err)
	}
	return e, nil
}

func (r *postgresRepository) GetByPrimaryIdentifier(ctx context.Context, primaryIdentifierID int64) ([]model.Edition, error) {
	query := `SELECT ` + editionColumns + ` FROM editions WHERE primary_identifier_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, primaryIdentifierID)
	if err != nil {
		return nil, fmt.Errorf("editions by identifier: %w", err)
	}
	return collectEditions(rows)
}

func (r *postgresRepository) ByWorkID(ctx context.Context, workID uuid.UUID) ([]model.Edition, error) {
	query := `SELECT ` + editionColumns + ` FROM editions WHERE work_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, workID)
	if err != nil {
		return nil, fmt.Errorf("editions by work: %w", err)
	}
	return collectEditions(rows)
}

func (r *postgresRepository) ByPermanentWorkID(ctx context.Context, permanentWorkID string, excludeID uuid.UUID) ([]model.Edition, error) {
	query := `
		SELECT ` + editionColumns + `
		FROM editions
		WHERE permanent_work_id = $1 AND id <> $2
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, permanentWorkID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("editions by permanent work id: %w", err)
	}
	return collectEditions(rows)
}

func (r *postgresRepository) Update(ctx context.Context, edition *model.Edition) error {
	query := `
		UPDATE editions SET
			work_id = $2, is_primary_for_work = $3,
			title = $4, subtitle = $5, sort_title = $6,
			author = $7, sort_author = $8, language = $9, medium = $10,
			permanent_work_id = $11, cover_url = $12, cover_thumbnail_url = $13,
			no_known_cover = $14, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		edition.ID, edition.WorkID, edition.IsPrimaryForWork,
		edition.Title, edition.Subtitle, edition.SortTitle,
		edition.Author, edition.SortAuthor, edition.Language, edition.Medium,
		edition.PermanentWorkID, edition.CoverURL, edition.CoverThumbnailURL,
		edition.NoKnownCover,
	)
	if err != nil {
		return fmt.Errorf("update edition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrEditionNotFound
	}
	return nil
}

func (r *postgresRepository) SetWork(ctx context.Context, editionIDs []uuid.UUID, workID *uuid.UUID) error {
	if len(editionIDs) == 0 {
		return nil
	}

	ids := make([]string, len(editionIDs))
	for i, id := range editionIDs {
		ids[i] = id.String()
	}

	query := `UPDATE editions SET work_id = $1, updated_at = NOW() WHERE id = ANY($2::uuid[])`
	if _, err := r.pool.Exec(ctx, query, workID, pq.Array(ids)); err != nil {
		return fmt.Errorf("set work on editions: %w", err)
	}
	return nil
}

func (r *postgresRepository) SetPrimaryForWork(ctx context.Context, workID, editionID uuid.UUID) error {
	query := `
		UPDATE editions
		SET is_primary_for_work = (id = $2), updated_at = NOW()
		WHERE work_id = $1`

	if _, err := r.pool.Exec(ctx, query, workID, editionID); err != nil {
		return fmt.Errorf("set primary edition: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"circulation-backend/internal/domains/work/model"
	"circulation-backend/pkg/database"
)

const workColumns = `
	id, fiction, audience, summary_resource_id, summary_text, quality,
	presentation_ready, was_merged_into, last_update_time, created_at, updated_at
`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func scanWork(row pgx.Row) (*model.Work, error) {
	var w model.Work
	err := row.Scan(
		&w.ID, &w.Fiction, &w.Audience, &w.SummaryResourceID, &w.SummaryText, &w.Quality,
		&w.PresentationReady, &w.WasMergedInto, &w.LastUpdateTime, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *postgresRepository) Create(ctx context.Context) (*model.Work, error) {
	query := `INSERT INTO works (id) VALUES ($1) RETURNING ` + workColumns

	w, err := scanWork(r.pool.QueryRow(ctx, query, uuid.New()))
	if err != nil {
		return nil, fmt.Errorf("create work: %w", err)
	}
	return w, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Work, error) {
	w, err := scanWork(r.pool.QueryRow(ctx, `SELECT `+workColumns+` FROM works WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, model.ErrWorkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get work: %w", err)
	}
	return w, nil
}

func (r *postgresRepository) Update(ctx context.Context, work *model.Work) error {
	query := `
		UPDATE works SET
			fiction = $2, audience = $3, summary_resource_id = $4, summary_text = $5,
			quality = $6, presentation_ready = $7, was_merged_into = $8,
			last_update_time = $9, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		work.ID, work.Fiction, work.Audience, work.SummaryResourceID, work.SummaryText,
		work.Quality, work.PresentationReady, work.WasMergedInto, work.LastUpdateTime,
	)
	if err != nil {
		return fmt.Errorf("update work: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrWorkNotFound
	}
	return nil
}

func (r *postgresRepository) TouchLastUpdate(ctx context.Context, workID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE works SET last_update_time = NOW(), updated_at = NOW() WHERE id = $1`, workID,
	); err != nil {
		return fmt.Errorf("touch work: %w", err)
	}
	return nil
}

func (r *postgresRepository) ReplaceGenres(ctx context.Context, workID uuid.UUID, genres []model.WorkGenre) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM work_genres WHERE work_id = $1`, workID); err != nil {
			return fmt.Errorf("clear work genres: %w", err)
		}
		for _, g := range genres {
			if _, err := tx.Exec(ctx,
				`INSERT INTO work_genres (work_id, genre, affinity) VALUES ($1, $2, $3)`,
				workID, g.Genre, g.Affinity,
			); err != nil {
				return fmt.Errorf("insert work genre: %w", err)
			}
		}
		return nil
	})
}

func (r *postgresRepository) GenresFor(ctx context.Context, workID uuid.UUID) ([]model.WorkGenre, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT work_id, genre, affinity FROM work_genres WHERE work_id = $1 ORDER BY affinity DESC, genre`, workID)
	if err != nil {
		return nil, fmt.Errorf("genres for work: %w", err)
	}
	defer rows.Close()

	var out []model.WorkGenre
	for rows.Next() {
		var g model.WorkGenre
		if err := rows.Scan(&g.WorkID, &g.Genre, &g.Affinity); err != nil {
			return nil, fmt.Errorf("scan work genre: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

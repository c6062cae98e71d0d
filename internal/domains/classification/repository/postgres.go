package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"circulation-backend/internal/domains/classification/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) GetOrCreateSubject(ctx context.Context, subjectType, identifier, name string) (*model.Subject, bool, error) {
	query := `
		INSERT INTO subjects (type, identifier, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (type, identifier) DO UPDATE SET type = EXCLUDED.type
		RETURNING id, type, identifier, name, fiction, audience, genre, checked, created_at,
			(xmax = 0) AS created`

	var s model.Subject
	var created bool
	err := r.pool.QueryRow(ctx, query, subjectType, identifier, name).Scan(
		&s.ID, &s.Type, &s.Identifier, &s.Name, &s.Fiction, &s.Audience, &s.Genre, &s.Checked,
		&s.CreatedAt, &created,
	)
	if err != nil {
		return nil, false, fmt.Errorf("get or create subject: %w", err)
	}
	return &s, created, nil
}

func (r *postgresRepository) UpdateSubject(ctx context.Context, subject *model.Subject) error {
	query := `
		UPDATE subjects SET
			name = $2, fiction = $3, audience = $4, genre = $5, checked = $6
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		subject.ID, subject.Name, subject.Fiction, subject.Audience, subject.Genre, subject.Checked,
	)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrSubjectNotFound
	}
	return nil
}

func (r *postgresRepository) UpsertClassification(ctx context.Context, identifierID, subjectID int64, dataSource string, weight int) (*model.Classification, error) {
	query := `
		INSERT INTO classifications (identifier_id, subject_id, data_source, weight)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identifier_id, subject_id, data_source)
			DO UPDATE SET weight = EXCLUDED.weight
		RETURNING id, identifier_id, subject_id, data_source, weight`

	var c model.Classification
	err := r.pool.QueryRow(ctx, query, identifierID, subjectID, dataSource, weight).Scan(
		&c.ID, &c.IdentifierID, &c.SubjectID, &c.DataSource, &c.Weight,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert classification: %w", err)
	}
	return &c, nil
}

func (r *postgresRepository) ForIdentifiers(ctx context.Context, identifierIDs []int64) ([]model.WithSubject, error) {
	if len(identifierIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT c.id, c.identifier_id, c.subject_id, c.data_source, c.weight,
			s.id, s.type, s.identifier, s.name, s.fiction, s.audience, s.genre, s.checked, s.created_at
		FROM classifications c
		JOIN subjects s ON s.id = c.subject_id
		WHERE c.identifier_id = ANY($1)
		ORDER BY c.id`

	rows, err := r.pool.Query(ctx, query, pq.Array(identifierIDs))
	if err != nil {
		return nil, fmt.Errorf("classifications for identifiers: %w", err)
	}
	defer rows.Close()

	var out []model.WithSubject
	for rows.Next() {
		var cs model.WithSubject
		err := rows.Scan(
			&cs.ID, &cs.IdentifierID, &cs.SubjectID, &cs.DataSource, &cs.Weight,
			&cs.Subject.ID, &cs.Subject.Type, &cs.Subject.Identifier, &cs.Subject.Name,
			&cs.Subject.Fiction, &cs.Subject.Audience, &cs.Subject.Genre, &cs.Subject.Checked,
			&cs.Subject.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan classification: %w", err)
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

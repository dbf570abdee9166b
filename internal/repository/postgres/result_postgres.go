package postgres

import (
	"context"
	"database/sql"
	"errors"

	"cellclassify/internal/model"
	"cellclassify/internal/repository"
)

// ResultPostgres is a PostgreSQL implementation of repository.ResultRepository.
// The document is kept as a json column so reads return the bytes as written.
// It uses database/sql with parameterized queries and contains no business logic.
type ResultPostgres struct {
	db *sql.DB
}

// NewResultPostgres creates a new ResultPostgres repository.
func NewResultPostgres(db *sql.DB) *ResultPostgres {
	return &ResultPostgres{db: db}
}

var _ repository.ResultRepository = (*ResultPostgres)(nil)

// Create inserts a new result row.
func (r *ResultPostgres) Create(ctx context.Context, res *model.AnalysisResult) error {
	data, err := repository.Encode(res)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO analysis_results (id, file_id, created_at, document)
		VALUES ($1, $2, $3, $4)
	`
	_, err = r.db.ExecContext(ctx, q,
		res.AnalysisID,
		res.FileID,
		res.Timestamp,
		string(data),
	)
	return err
}

// FindRaw fetches the stored document of one analysis.
func (r *ResultPostgres) FindRaw(ctx context.Context, id string) ([]byte, error) {
	const q = `
		SELECT document
		FROM analysis_results
		WHERE id = $1
	`
	var doc string
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return []byte(doc), nil
}

// FindByID fetches and decodes the document of one analysis.
func (r *ResultPostgres) FindByID(ctx context.Context, id string) (*model.AnalysisResult, error) {
	data, err := r.FindRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	return repository.Decode(data)
}

// List returns all documents, most recent first.
func (r *ResultPostgres) List(ctx context.Context) ([]*model.AnalysisResult, error) {
	const q = `
		SELECT document
		FROM analysis_results
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*model.AnalysisResult, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		res, err := repository.Decode([]byte(doc))
		if err != nil {
			return nil, err
		}
		items = append(items, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Ping checks the database connection.
func (r *ResultPostgres) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

package storage

import (
	"context"
	"errors"
	"fmt"

	"paperxray/internal/models"
	"paperxray/internal/util"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type PaperRepo struct {
	db *DB
}

func NewPaperRepo(db *DB) *PaperRepo {
	return &PaperRepo{db: db}
}

// InsertPaper relies on the fingerprint uniqueness constraint for dedup:
// a violation surfaces as util.ErrDuplicateFingerprint, which callers resolve
// to the existing paper rather than treating as a failure.
func (r *PaperRepo) InsertPaper(ctx context.Context, p models.Paper) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO papers (paper_id, title, authors, filename, pdf_path, fingerprint, text, page_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.PaperID, p.Title, p.Authors, p.Filename, p.PDFPath, p.Fingerprint, p.Text, p.PageCount,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return util.ErrDuplicateFingerprint
		}
		return fmt.Errorf("insert paper: %w", err)
	}
	return nil
}

func (r *PaperRepo) FindByFingerprint(ctx context.Context, fingerprint string) (models.Paper, error) {
	return r.scanPaper(r.db.Pool.QueryRow(ctx, `
SELECT paper_id, title, authors, filename, pdf_path, fingerprint, text, page_count, created_at
FROM papers
WHERE fingerprint=$1`, fingerprint), "find paper by fingerprint")
}

func (r *PaperRepo) GetPaper(ctx context.Context, paperID string) (models.Paper, error) {
	return r.scanPaper(r.db.Pool.QueryRow(ctx, `
SELECT paper_id, title, authors, filename, pdf_path, fingerprint, text, page_count, created_at
FROM papers
WHERE paper_id=$1`, paperID), "get paper")
}

func (r *PaperRepo) scanPaper(row pgx.Row, op string) (models.Paper, error) {
	var p models.Paper
	err := row.Scan(&p.PaperID, &p.Title, &p.Authors, &p.Filename, &p.PDFPath, &p.Fingerprint, &p.Text, &p.PageCount, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Paper{}, util.ErrNotFound
		}
		return models.Paper{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (r *PaperRepo) ListPapers(ctx context.Context) ([]models.PaperSummary, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT paper_id, title, authors, filename, page_count, created_at
FROM papers
ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()

	out := make([]models.PaperSummary, 0)
	for rows.Next() {
		var p models.PaperSummary
		if err := rows.Scan(&p.PaperID, &p.Title, &p.Authors, &p.Filename, &p.PageCount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan paper summary: %w", err)
		}
		p.Results = map[string]string{}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate papers: %w", err)
	}
	return out, nil
}

// DeletePaper removes the paper row; results and chat messages cascade.
func (r *PaperRepo) DeletePaper(ctx context.Context, paperID string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM papers WHERE paper_id=$1`, paperID)
	if err != nil {
		return fmt.Errorf("delete paper: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return util.ErrNotFound
	}
	return nil
}

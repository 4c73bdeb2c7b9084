package storage

import (
	"context"
	"errors"
	"fmt"

	"paperxray/internal/models"
	"paperxray/internal/util"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ResultRepo struct {
	db *DB
}

func NewResultRepo(db *DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// CreateResult makes the (paper, lang) result row if it does not exist yet.
// At most one result exists per pair, so a concurrent create is a no-op.
func (r *ResultRepo) CreateResult(ctx context.Context, paperID, lang string) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO results (result_id, paper_id, lang, content, status)
VALUES ($1, $2, $3, '', $4)
ON CONFLICT (paper_id, lang) DO NOTHING`,
		uuid.NewString(), paperID, lang, models.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("create result: %w", err)
	}
	return nil
}

func (r *ResultRepo) GetResult(ctx context.Context, paperID, lang string) (models.Result, error) {
	var res models.Result
	err := r.db.Pool.QueryRow(ctx, `
SELECT result_id, paper_id, lang, content, status, created_at
FROM results
WHERE paper_id=$1 AND lang=$2`, paperID, lang).
		Scan(&res.ResultID, &res.PaperID, &res.Lang, &res.Content, &res.Status, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Result{}, util.ErrNotFound
		}
		return models.Result{}, fmt.Errorf("get result: %w", err)
	}
	return res, nil
}

// AppendContent concatenates a chunk onto the accumulated content in a single
// atomic statement. Appending to a deleted result is a no-op.
func (r *ResultRepo) AppendContent(ctx context.Context, resultID, chunk string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE results SET content = content || $2 WHERE result_id=$1`, resultID, chunk)
	if err != nil {
		return fmt.Errorf("append result content: %w", err)
	}
	return nil
}

func (r *ResultRepo) SetStatus(ctx context.Context, resultID, status string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE results SET status=$2 WHERE result_id=$1`, resultID, status)
	if err != nil {
		return fmt.Errorf("set result status: %w", err)
	}
	return nil
}

// ResetForRetry clears a failed result back to pending so a fresh run can
// write from a clean slate. Results in any other status are left alone and
// false is returned.
func (r *ResultRepo) ResetForRetry(ctx context.Context, paperID, lang string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE results SET content='', status=$3
WHERE paper_id=$1 AND lang=$2 AND status=$4`,
		paperID, lang, models.StatusPending, models.StatusError,
	)
	if err != nil {
		return false, fmt.Errorf("reset result: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ResultRepo) GetContent(ctx context.Context, resultID string) (string, error) {
	var content string
	err := r.db.Pool.QueryRow(ctx, `SELECT content FROM results WHERE result_id=$1`, resultID).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", util.ErrNotFound
		}
		return "", fmt.Errorf("get result content: %w", err)
	}
	return content, nil
}

// StatusesByPaper returns the lang -> status map used by paper listings.
func (r *ResultRepo) StatusesByPaper(ctx context.Context, paperID string) (map[string]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT lang, status FROM results WHERE paper_id=$1`, paperID)
	if err != nil {
		return nil, fmt.Errorf("list result statuses: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var lang, status string
		if err := rows.Scan(&lang, &status); err != nil {
			return nil, fmt.Errorf("scan result status: %w", err)
		}
		out[lang] = status
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result statuses: %w", err)
	}
	return out, nil
}

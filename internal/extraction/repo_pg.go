package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type runRepoPG struct{ db queryable }

func NewRunRepoPG(pool *pgxpool.Pool) RunRepository {
	return &runRepoPG{db: pool}
}

const runSummaryCols = `id, source_name, status, reason, sections_found, counts, created_at`

func (r *runRepoPG) Create(ctx context.Context, run *Run) error {
	sections, err := json.Marshal(nonNilStrings(run.SectionsFound))
	if err != nil {
		return fmt.Errorf("encode sections: %w", err)
	}
	counts, err := json.Marshal(nonNilCounts(run.Counts))
	if err != nil {
		return fmt.Errorf("encode counts: %w", err)
	}
	tables := run.Tables
	if len(tables) == 0 {
		tables = json.RawMessage(`{}`)
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO extraction_runs (id, source_name, status, reason, sections_found, counts, tables)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		run.ID, run.SourceName, run.Status, run.Reason, sections, counts, []byte(tables),
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert extraction run: %w", err)
	}
	return nil
}

func (r *runRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := r.db.QueryRow(ctx, `SELECT `+runSummaryCols+`, tables FROM extraction_runs WHERE id = $1`, id)

	var (
		run                      Run
		sections, counts, tables []byte
	)
	err := row.Scan(&run.ID, &run.SourceName, &run.Status, &run.Reason, &sections, &counts, &run.CreatedAt, &tables)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get extraction run %s: %w", id, err)
	}
	if err := decodeSummary(&run, sections, counts); err != nil {
		return nil, err
	}
	run.Tables = json.RawMessage(tables)
	return &run, nil
}

func (r *runRepoPG) List(ctx context.Context, limit, offset int) ([]*Run, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM extraction_runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count extraction runs: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT `+runSummaryCols+` FROM extraction_runs
		ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list extraction runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var (
			run              Run
			sections, counts []byte
		)
		if err := rows.Scan(&run.ID, &run.SourceName, &run.Status, &run.Reason, &sections, &counts, &run.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan extraction run: %w", err)
		}
		if err := decodeSummary(&run, sections, counts); err != nil {
			return nil, 0, err
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate extraction runs: %w", err)
	}
	return runs, total, nil
}

func decodeSummary(run *Run, sections, counts []byte) error {
	if err := json.Unmarshal(sections, &run.SectionsFound); err != nil {
		return fmt.Errorf("decode sections_found: %w", err)
	}
	if err := json.Unmarshal(counts, &run.Counts); err != nil {
		return fmt.Errorf("decode counts: %w", err)
	}
	return nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilCounts(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

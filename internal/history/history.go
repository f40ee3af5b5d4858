package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status of a recorded generation.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Record is one generation.
type Record struct {
	ID          string    `json:"id"`
	Recipe      string    `json:"recipe"`
	Status      string    `json:"status"`
	ErrorCode   string    `json:"error_code,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`
	Attempts    int       `json:"attempts"`
	TokensUsed  int       `json:"tokens_used"`
	DurationMs  int64     `json:"duration_ms"`
	Model       string    `json:"model,omitempty"`
	InputJSON   string    `json:"input,omitempty"`
	OutputJSON  string    `json:"output,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter narrows List.
type Filter struct {
	Recipe string
	Status string
	Limit  int // default 20
}

// Append stores r, assigning ID and CreatedAt when unset.
func (s *Store) Append(ctx context.Context, r *Record) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations
			(id, recipe, status, error_code, error_detail, attempts, tokens_used,
			 duration_ms, model, input_json, output_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Recipe, r.Status, nullable(r.ErrorCode), nullable(r.ErrorDetail),
		r.Attempts, r.TokensUsed, r.DurationMs, nullable(r.Model),
		nullable(r.InputJSON), nullable(r.OutputJSON), r.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("append generation: %w", err)
	}
	return nil
}

// Get returns a record by ID; sql.ErrNoRows when absent.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	return scanRecord(row)
}

// List returns the most recent records first.
func (s *Store) List(ctx context.Context, f Filter) ([]*Record, error) {
	var (
		where []string
		args  []any
	)
	if f.Recipe != "" {
		where = append(where, "recipe = ?")
		args = append(args, f.Recipe)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}

	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountByStatus returns how many generations ended in each status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM generations GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count generations: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// Prune deletes records older than before and reports how many went.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM generations WHERE created_at < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune generations: %w", err)
	}
	return res.RowsAffected()
}

const selectColumns = `
	SELECT id, recipe, status, error_code, error_detail, attempts, tokens_used,
	       duration_ms, model, input_json, output_json, created_at
	FROM generations`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		r                                  Record
		errCode, errDetail, model, in, out sql.NullString
		created                            int64
	)
	if err := sc.Scan(&r.ID, &r.Recipe, &r.Status, &errCode, &errDetail, &r.Attempts,
		&r.TokensUsed, &r.DurationMs, &model, &in, &out, &created); err != nil {
		return nil, err
	}
	r.ErrorCode = errCode.String
	r.ErrorDetail = errDetail.String
	r.Model = model.String
	r.InputJSON = in.String
	r.OutputJSON = out.String
	r.CreatedAt = time.Unix(created, 0)
	return &r, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package job

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/rivertype"
)

// store reads river_job directly for the queries River's client API does not
// offer: lookup by public id, bucket counts and offset windows.
type store struct {
	db *pgxpool.Pool
}

const jobColumns = `id, args, attempt, max_attempts, state::text, priority, queue,
	created_at, scheduled_at, attempted_at, finalized_at,
	coalesce(array_to_json(errors)::text, '[]'), metadata`

const lookupQuery = `SELECT ` + jobColumns + `
	FROM river_job
	WHERE queue = $1 AND kind = $2 AND args->>'id' = $3
	ORDER BY id DESC
	LIMIT 1`

const countQuery = `SELECT count(*)
	FROM river_job
	WHERE queue = $1 AND kind = $2 AND state::text = ANY($3)`

const progressQuery = `UPDATE river_job
	SET metadata = jsonb_set(metadata, '{progress}', to_jsonb($2::int), true)
	WHERE id = $1`

func (s *store) lookup(ctx context.Context, queue, id string) (*rivertype.JobRow, error) {
	return scanJob(s.db.QueryRow(ctx, lookupQuery, queue, taskKind, id))
}

func (s *store) count(ctx context.Context, queue string, b Bucket) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, countQuery, queue, taskKind, b.stateNames()).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *store) window(ctx context.Context, queue string, b Bucket, offset, limit int) ([]*rivertype.JobRow, error) {
	query := `SELECT ` + jobColumns + `
	FROM river_job
	WHERE queue = $1 AND kind = $2 AND state::text = ANY($3)
	ORDER BY ` + bucketOrder[b] + `
	OFFSET $4 LIMIT $5`

	rows, err := s.db.Query(ctx, query, queue, taskKind, b.stateNames(), offset, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*rivertype.JobRow, error) {
		return scanJob(row)
	})
}

func (s *store) setProgress(ctx context.Context, engineID int64, progress int) error {
	_, err := s.db.Exec(ctx, progressQuery, engineID, progress)
	return err
}

func scanJob(row pgx.Row) (*rivertype.JobRow, error) {
	var (
		r      rivertype.JobRow
		state  string
		errors []byte
	)
	if err := row.Scan(
		&r.ID, &r.EncodedArgs, &r.Attempt, &r.MaxAttempts, &state, &r.Priority, &r.Queue,
		&r.CreatedAt, &r.ScheduledAt, &r.AttemptedAt, &r.FinalizedAt,
		&errors, &r.Metadata,
	); err != nil {
		return nil, err
	}
	r.State = rivertype.JobState(state)
	r.Kind = taskKind

	if len(errors) > 0 {
		if err := decodeAttemptErrors(errors, &r); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

func decodeAttemptErrors(data []byte, r *rivertype.JobRow) error {
	return json.Unmarshal(data, &r.Errors)
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSelfReference = errors.New("self reference")

// AffinityRepo owns the directed "has rated" relation. An edge
// rater -> rated means the rater liked the rated user; mutual affinity is
// never stored, it is derived from the two directions at rate time.
type AffinityRepo struct {
	pool *pgxpool.Pool
}

func NewAffinityRepo(pool *pgxpool.Pool) *AffinityRepo {
	return &AffinityRepo{pool: pool}
}

func (r *AffinityRepo) HasEdge(ctx context.Context, raterID, ratedID int64) (bool, error) {
	if raterID <= 0 || ratedID <= 0 {
		return false, fmt.Errorf("invalid affinity lookup payload")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var one int
	err := r.pool.QueryRow(ctx, `
SELECT 1
FROM affinities
WHERE rater_id = $1 AND rated_id = $2
LIMIT 1
`, raterID, ratedID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup affinity edge: %w", err)
	}

	return true, nil
}

func (r *AffinityRepo) AddEdge(ctx context.Context, raterID, ratedID int64) error {
	if raterID <= 0 || ratedID <= 0 {
		return fmt.Errorf("invalid affinity payload")
	}
	if raterID == ratedID {
		return ErrSelfReference
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO affinities (
	rater_id,
	rated_id,
	created_at
) VALUES ($1, $2, NOW())
ON CONFLICT (rater_id, rated_id) DO NOTHING
`, raterID, ratedID); err != nil {
		return fmt.Errorf("add affinity edge: %w", err)
	}

	return nil
}

func (r *AffinityRepo) RemoveEdge(ctx context.Context, raterID, ratedID int64) error {
	if raterID <= 0 || ratedID <= 0 {
		return fmt.Errorf("invalid affinity delete payload")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
DELETE FROM affinities
WHERE rater_id = $1 AND rated_id = $2
`, raterID, ratedID); err != nil {
		return fmt.Errorf("remove affinity edge: %w", err)
	}

	return nil
}

// ClearMutual removes both directions of the pair in a single transaction,
// so a concurrent rating never observes only one of them deleted.
func (r *AffinityRepo) ClearMutual(ctx context.Context, userA, userB int64) error {
	if userA <= 0 || userB <= 0 {
		return fmt.Errorf("invalid affinity clear payload")
	}

	return WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(txCtx, `
DELETE FROM affinities
WHERE (rater_id = $1 AND rated_id = $2)
	OR (rater_id = $2 AND rated_id = $1)
`, userA, userB); err != nil {
			return fmt.Errorf("clear mutual affinity: %w", err)
		}
		return nil
	})
}

func (r *AffinityRepo) RatersOf(ctx context.Context, userID int64) ([]int64, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return []int64{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT rater_id
FROM affinities
WHERE rated_id = $1
ORDER BY created_at DESC, rater_id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list raters: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan rater id: %w", err)
		}
		ids = append(ids, id)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate raters: %w", rows.Err())
	}

	return ids, nil
}

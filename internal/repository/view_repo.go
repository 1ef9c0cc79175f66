package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDailyViewLimitExceeded is returned when a user has reached their daily
// view limit.
var ErrDailyViewLimitExceeded = errors.New("daily_view_limit_exceeded")

// BulkViewOutcome reports the result of a batch view attempt. Usage is the
// count observed inside the transaction, before any inserts.
type BulkViewOutcome struct {
	Usage    int
	Accepted int
	Skipped  int
}

// ViewRepository is the append-only unlock ledger: one row per (user,
// contact) pair, ever. All quota decisions re-derive counts inside a
// serializable transaction; the cache layer is never consulted here.
type ViewRepository interface {
	// CountViewsInRange counts a user's view events in [start, end).
	CountViewsInRange(ctx context.Context, userID string, start, end time.Time) (int, error)
	// ViewedContactIDs returns which of the given contact ids the user has viewed.
	ViewedContactIDs(ctx context.Context, userID string, contactIDs []string) (map[string]bool, error)
	// CheckAndRecordView atomically checks the user's view count for the period
	// and records a new view. Returns alreadyViewed=true with no write if the
	// pair exists, and ErrDailyViewLimitExceeded if the limit is reached.
	CheckAndRecordView(ctx context.Context, userID, contactID string, start, end time.Time, limit int) (alreadyViewed bool, err error)
	// CheckAndRecordBulkViews applies the batch policy in one transaction:
	// reject outright if usage plus the requested length would exceed the
	// limit, otherwise skip already-viewed ids and insert the rest together.
	CheckAndRecordBulkViews(ctx context.Context, userID string, contactIDs []string, start, end time.Time, limit int) (BulkViewOutcome, error)
}

type viewRepo struct {
	pool *pgxpool.Pool
}

// NewViewRepo creates a new ViewRepository.
func NewViewRepo(pool *pgxpool.Pool) ViewRepository {
	return &viewRepo{pool: pool}
}

const countViewsQ = `
	SELECT COUNT(*)
	FROM contact_views
	WHERE user_id = $1
	  AND viewed_at >= $2
	  AND viewed_at < $3
`

func (r *viewRepo) CountViewsInRange(ctx context.Context, userID string, start, end time.Time) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, countViewsQ, userID, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting views for user %s: %w", userID, err)
	}
	return count, nil
}

func (r *viewRepo) ViewedContactIDs(ctx context.Context, userID string, contactIDs []string) (map[string]bool, error) {
	viewed := make(map[string]bool, len(contactIDs))
	if len(contactIDs) == 0 {
		return viewed, nil
	}
	const q = `
		SELECT contact_id
		FROM contact_views
		WHERE user_id = $1
		  AND contact_id = ANY($2)
	`
	rows, err := r.pool.Query(ctx, q, userID, contactIDs)
	if err != nil {
		return nil, fmt.Errorf("fetching viewed contacts for user %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning viewed contact id: %w", err)
		}
		viewed[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return viewed, nil
}

// CheckAndRecordView atomically checks the user's view count for the period
// and records a new view event.
func (r *viewRepo) CheckAndRecordView(ctx context.Context, userID, contactID string, start, end time.Time, limit int) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return false, fmt.Errorf("starting transaction for view check: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var exists bool
	const existsQ = `SELECT EXISTS(SELECT 1 FROM contact_views WHERE user_id = $1 AND contact_id = $2)`
	if err := tx.QueryRow(ctx, existsQ, userID, contactID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking existing view for user %s: %w", userID, err)
	}
	if exists {
		// Re-viewing is a no-op, never a second charge.
		return true, nil
	}

	var count int
	if err := tx.QueryRow(ctx, countViewsQ, userID, start, end).Scan(&count); err != nil {
		return false, fmt.Errorf("counting views for user %s: %w", userID, err)
	}
	if limit > 0 && count >= limit {
		return false, ErrDailyViewLimitExceeded
	}

	const insertQ = `INSERT INTO contact_views (user_id, contact_id) VALUES ($1, $2)`
	if _, err := tx.Exec(ctx, insertQ, userID, contactID); err != nil {
		return false, fmt.Errorf("recording view for user %s: %w", userID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing view for user %s: %w", userID, err)
	}
	return false, nil
}

// CheckAndRecordBulkViews records a batch of views in a single transaction;
// either every new row is inserted or none are.
func (r *viewRepo) CheckAndRecordBulkViews(ctx context.Context, userID string, contactIDs []string, start, end time.Time, limit int) (BulkViewOutcome, error) {
	var out BulkViewOutcome
	if len(contactIDs) == 0 {
		return out, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return out, fmt.Errorf("starting transaction for bulk view: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := tx.QueryRow(ctx, countViewsQ, userID, start, end).Scan(&out.Usage); err != nil {
		return out, fmt.Errorf("counting views for user %s: %w", userID, err)
	}
	// The guard uses the requested length before dedup. A batch that would
	// fit after dropping already-viewed ids can still be rejected here;
	// that conservatism is intentional.
	if limit > 0 && out.Usage+len(contactIDs) > limit {
		return out, ErrDailyViewLimitExceeded
	}

	const existingQ = `
		SELECT contact_id
		FROM contact_views
		WHERE user_id = $1
		  AND contact_id = ANY($2)
	`
	rows, err := tx.Query(ctx, existingQ, userID, contactIDs)
	if err != nil {
		return out, fmt.Errorf("fetching existing views for user %s: %w", userID, err)
	}
	viewed := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return out, fmt.Errorf("scanning existing view id: %w", err)
		}
		viewed[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("row iteration error: %w", err)
	}

	toInsert := make([]string, 0, len(contactIDs))
	for _, id := range contactIDs {
		if !viewed[id] {
			toInsert = append(toInsert, id)
		}
	}
	out.Skipped = len(contactIDs) - len(toInsert)

	if len(toInsert) > 0 {
		const insertQ = `
			INSERT INTO contact_views (user_id, contact_id)
			SELECT $1, unnest($2::text[])
		`
		if _, err := tx.Exec(ctx, insertQ, userID, toInsert); err != nil {
			return out, fmt.Errorf("recording bulk views for user %s: %w", userID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return out, fmt.Errorf("committing bulk views for user %s: %w", userID, err)
	}
	out.Accepted = len(toInsert)
	return out, nil
}

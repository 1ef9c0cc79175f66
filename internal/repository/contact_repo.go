package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ViewFilter narrows a contact listing by the user's unlock state.
type ViewFilter string

const (
	ViewFilterAll      ViewFilter = "all"
	ViewFilterViewed   ViewFilter = "viewed"
	ViewFilterUnviewed ViewFilter = "unviewed"
)

// ContactRepository reads the externally-owned contact collection. The
// viewed/unviewed predicate joins against the unlock ledger at query time.
type ContactRepository interface {
	// ListContacts returns one page of contacts matching the search text and
	// view filter, plus the total match count. Search is a case-insensitive
	// substring match ORed across first name, last name, email, title and
	// department; sort is first_name ASC.
	ListContacts(ctx context.Context, search string, filter ViewFilter, userID string, limit, offset int) ([]model.Contact, int, error)
	// CountContacts returns the total number of contact rows.
	CountContacts(ctx context.Context) (int, error)
	GetContactByID(ctx context.Context, id string) (*model.Contact, error)
}

type contactRepo struct {
	pool *pgxpool.Pool
}

func NewContactRepo(pool *pgxpool.Pool) ContactRepository {
	return &contactRepo{pool: pool}
}

const contactSearchWhere = `
	($1 = '' OR c.first_name ILIKE '%' || $1 || '%'
	         OR c.last_name ILIKE '%' || $1 || '%'
	         OR c.email ILIKE '%' || $1 || '%'
	         OR c.title ILIKE '%' || $1 || '%'
	         OR c.department ILIKE '%' || $1 || '%')
`

func viewFilterClause(filter ViewFilter) string {
	switch filter {
	case ViewFilterViewed:
		return ` AND EXISTS(SELECT 1 FROM contact_views v WHERE v.contact_id = c.id AND v.user_id = $4)`
	case ViewFilterUnviewed:
		return ` AND NOT EXISTS(SELECT 1 FROM contact_views v WHERE v.contact_id = c.id AND v.user_id = $4)`
	default:
		return ""
	}
}

func (r *contactRepo) ListContacts(ctx context.Context, search string, filter ViewFilter, userID string, limit, offset int) ([]model.Contact, int, error) {
	filterClause := viewFilterClause(filter)

	listQ := `
		SELECT c.id, c.first_name, c.last_name, c.email, c.phone, c.title,
		       c.department, c.agency_id, a.name, c.created_at, c.updated_at
		FROM contacts c
		LEFT JOIN agencies a ON a.id = c.agency_id
		WHERE ` + contactSearchWhere + filterClause + `
		ORDER BY c.first_name ASC
		LIMIT $2 OFFSET $3
	`
	args := []any{search, limit, offset}
	if filterClause != "" {
		args = append(args, userID)
	}
	rows, err := r.pool.Query(ctx, listQ, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(
			&c.ID,
			&c.FirstName,
			&c.LastName,
			&c.Email,
			&c.Phone,
			&c.Title,
			&c.Department,
			&c.AgencyID,
			&c.AgencyName,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scanning contact row: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	countQ := `
		SELECT COUNT(*)
		FROM contacts c
		WHERE ` + contactSearchWhere + countFilterClause(filter)
	countArgs := []any{search}
	if filterClause != "" {
		countArgs = append(countArgs, userID)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting contacts: %w", err)
	}
	return contacts, total, nil
}

// countFilterClause mirrors viewFilterClause with the user id at position $2,
// since the count query has no limit/offset arguments.
func countFilterClause(filter ViewFilter) string {
	switch filter {
	case ViewFilterViewed:
		return ` AND EXISTS(SELECT 1 FROM contact_views v WHERE v.contact_id = c.id AND v.user_id = $2)`
	case ViewFilterUnviewed:
		return ` AND NOT EXISTS(SELECT 1 FROM contact_views v WHERE v.contact_id = c.id AND v.user_id = $2)`
	default:
		return ""
	}
}

func (r *contactRepo) CountContacts(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting contacts: %w", err)
	}
	return count, nil
}

func (r *contactRepo) GetContactByID(ctx context.Context, id string) (*model.Contact, error) {
	const q = `
		SELECT c.id, c.first_name, c.last_name, c.email, c.phone, c.title,
		       c.department, c.agency_id, a.name, c.created_at, c.updated_at
		FROM contacts c
		LEFT JOIN agencies a ON a.id = c.agency_id
		WHERE c.id = $1
	`
	var c model.Contact
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Title,
		&c.Department,
		&c.AgencyID,
		&c.AgencyName,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching contact %s: %w", id, err)
	}
	return &c, nil
}

package repository

import (
	"context"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AgencyRepository reads the externally-owned agency collection.
type AgencyRepository interface {
	// ListAgencies returns one page of agencies matching the search text
	// plus the total match count. Search is a case-insensitive substring
	// match ORed across name, state, type and county; sort is name ASC.
	ListAgencies(ctx context.Context, search string, limit, offset int) ([]model.Agency, int, error)
	// CountAgencies returns the total number of agency rows.
	CountAgencies(ctx context.Context) (int, error)
	// TopAgenciesByContactCount returns the agencies with the most contact
	// records, largest first.
	TopAgenciesByContactCount(ctx context.Context, limit int) ([]model.AgencyContactCount, error)
}

type agencyRepo struct {
	pool *pgxpool.Pool
}

func NewAgencyRepo(pool *pgxpool.Pool) AgencyRepository {
	return &agencyRepo{pool: pool}
}

const agencySearchWhere = `
	($1 = '' OR name ILIKE '%' || $1 || '%'
	         OR state ILIKE '%' || $1 || '%'
	         OR type ILIKE '%' || $1 || '%'
	         OR county ILIKE '%' || $1 || '%')
`

func (r *agencyRepo) ListAgencies(ctx context.Context, search string, limit, offset int) ([]model.Agency, int, error) {
	listQ := `
		SELECT id, name, state, state_code, type, population, website,
		       total_schools, total_students, county, phone, status,
		       student_teacher_ratio, created_at, updated_at
		FROM agencies
		WHERE ` + agencySearchWhere + `
		ORDER BY name ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, listQ, search, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("querying agencies: %w", err)
	}
	defer rows.Close()

	var agencies []model.Agency
	for rows.Next() {
		var a model.Agency
		if err := rows.Scan(
			&a.ID,
			&a.Name,
			&a.State,
			&a.StateCode,
			&a.Type,
			&a.Population,
			&a.Website,
			&a.TotalSchools,
			&a.TotalStudents,
			&a.County,
			&a.Phone,
			&a.Status,
			&a.StudentTeacherRatio,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scanning agency row: %w", err)
		}
		agencies = append(agencies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	var total int
	countQ := `SELECT COUNT(*) FROM agencies WHERE ` + agencySearchWhere
	if err := r.pool.QueryRow(ctx, countQ, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting agencies: %w", err)
	}
	return agencies, total, nil
}

func (r *agencyRepo) CountAgencies(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM agencies`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting agencies: %w", err)
	}
	return count, nil
}

func (r *agencyRepo) TopAgenciesByContactCount(ctx context.Context, limit int) ([]model.AgencyContactCount, error) {
	const q = `
		SELECT a.name, COUNT(c.id) AS contact_count
		FROM agencies a
		LEFT JOIN contacts c ON c.agency_id = a.id
		GROUP BY a.id, a.name
		ORDER BY contact_count DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top agencies: %w", err)
	}
	defer rows.Close()

	var top []model.AgencyContactCount
	for rows.Next() {
		var t model.AgencyContactCount
		if err := rows.Scan(&t.Name, &t.ContactCount); err != nil {
			return nil, fmt.Errorf("scanning top agency row: %w", err)
		}
		top = append(top, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return top, nil
}

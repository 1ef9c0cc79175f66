package repository

import (
	"context"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SavedRepository is the per-user bookmark set. Saves are independent of the
// view quota and carry no cap.
type SavedRepository interface {
	// Save bookmarks a contact. Saving an already-saved contact is a no-op.
	Save(ctx context.Context, userID, contactID string) error
	// Unsave removes zero or one bookmark and never errors on absence.
	Unsave(ctx context.Context, userID, contactID string) error
	// ListByUser returns the user's bookmarks, most recently saved first,
	// with the contact row and its agency name joined in.
	ListByUser(ctx context.Context, userID string) ([]model.SavedContact, error)
}

type savedRepo struct {
	pool *pgxpool.Pool
}

func NewSavedRepo(pool *pgxpool.Pool) SavedRepository {
	return &savedRepo{pool: pool}
}

func (r *savedRepo) Save(ctx context.Context, userID, contactID string) error {
	const q = `
		INSERT INTO saved_contacts (user_id, contact_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, contact_id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, q, userID, contactID); err != nil {
		return fmt.Errorf("saving contact %s for user %s: %w", contactID, userID, err)
	}
	return nil
}

func (r *savedRepo) Unsave(ctx context.Context, userID, contactID string) error {
	const q = `DELETE FROM saved_contacts WHERE user_id = $1 AND contact_id = $2`
	if _, err := r.pool.Exec(ctx, q, userID, contactID); err != nil {
		return fmt.Errorf("unsaving contact %s for user %s: %w", contactID, userID, err)
	}
	return nil
}

func (r *savedRepo) ListByUser(ctx context.Context, userID string) ([]model.SavedContact, error) {
	const q = `
		SELECT s.user_id, s.contact_id, s.saved_at,
		       c.id, c.first_name, c.last_name, c.email, c.phone, c.title,
		       c.department, c.agency_id, a.name, c.created_at, c.updated_at
		FROM saved_contacts s
		JOIN contacts c ON c.id = s.contact_id
		LEFT JOIN agencies a ON a.id = c.agency_id
		WHERE s.user_id = $1
		ORDER BY s.saved_at DESC
	`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing saved contacts for user %s: %w", userID, err)
	}
	defer rows.Close()

	var saved []model.SavedContact
	for rows.Next() {
		var s model.SavedContact
		var c model.Contact
		if err := rows.Scan(
			&s.UserID,
			&s.ContactID,
			&s.SavedAt,
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
			return nil, fmt.Errorf("scanning saved contact row: %w", err)
		}
		s.Contact = &c
		saved = append(saved, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return saved, nil
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulsehr-backend/internal/models"
)

type AnnouncementRepo struct {
	pool *pgxpool.Pool
}

func NewAnnouncementRepo(pool *pgxpool.Pool) *AnnouncementRepo {
	return &AnnouncementRepo{pool: pool}
}

func (r *AnnouncementRepo) Create(ctx context.Context, a *models.Announcement) error {
	a.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO announcements (id, author_id, title, body, attachment_url, attachment_text, pinned)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		a.ID, a.AuthorID, a.Title, a.Body, a.AttachmentURL, a.AttachmentText, a.Pinned,
	).Scan(&a.CreatedAt)
}

func (r *AnnouncementRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Announcement, error) {
	a := &models.Announcement{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, author_id, title, body, attachment_url, attachment_text, pinned, created_at
		FROM announcements WHERE id = $1`, id,
	).Scan(&a.ID, &a.AuthorID, &a.Title, &a.Body, &a.AttachmentURL, &a.AttachmentText, &a.Pinned, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AnnouncementRepo) List(ctx context.Context, limit int) ([]*models.Announcement, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, author_id, title, body, attachment_url, attachment_text, pinned, created_at
		FROM announcements
		ORDER BY pinned DESC, created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*models.Announcement, 0)
	for rows.Next() {
		a := &models.Announcement{}
		if err := rows.Scan(&a.ID, &a.AuthorID, &a.Title, &a.Body, &a.AttachmentURL, &a.AttachmentText, &a.Pinned, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *AnnouncementRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	return err
}

// ToggleReaction adds the reaction, or removes it when it already exists.
// Returns true when the reaction is now present.
func (r *AnnouncementRepo) ToggleReaction(ctx context.Context, announcementID, employeeID uuid.UUID, emoji string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM announcement_reactions
		WHERE announcement_id = $1 AND employee_id = $2 AND emoji = $3`,
		announcementID, employeeID, emoji)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO announcement_reactions (announcement_id, employee_id, emoji)
		VALUES ($1, $2, $3)`,
		announcementID, employeeID, emoji)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *AnnouncementRepo) ListReactions(ctx context.Context, announcementID uuid.UUID) ([]*models.Reaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT announcement_id, employee_id, emoji, created_at
		FROM announcement_reactions
		WHERE announcement_id = $1
		ORDER BY created_at`, announcementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reactions := make([]*models.Reaction, 0)
	for rows.Next() {
		re := &models.Reaction{}
		if err := rows.Scan(&re.AnnouncementID, &re.EmployeeID, &re.Emoji, &re.CreatedAt); err != nil {
			return nil, err
		}
		reactions = append(reactions, re)
	}
	return reactions, rows.Err()
}

func (r *AnnouncementRepo) AddComment(ctx context.Context, c *models.Comment) error {
	c.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO announcement_comments (id, announcement_id, employee_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		c.ID, c.AnnouncementID, c.EmployeeID, c.Body,
	).Scan(&c.CreatedAt)
}

func (r *AnnouncementRepo) ListComments(ctx context.Context, announcementID uuid.UUID) ([]*models.Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, announcement_id, employee_id, body, created_at
		FROM announcement_comments
		WHERE announcement_id = $1
		ORDER BY created_at`, announcementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		c := &models.Comment{}
		if err := rows.Scan(&c.ID, &c.AnnouncementID, &c.EmployeeID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulsehr-backend/internal/models"
)

type ShoutOutRepo struct {
	pool *pgxpool.Pool
}

func NewShoutOutRepo(pool *pgxpool.Pool) *ShoutOutRepo {
	return &ShoutOutRepo{pool: pool}
}

func (r *ShoutOutRepo) Create(ctx context.Context, s *models.ShoutOut) error {
	s.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO shoutouts (id, from_id, to_id, message, badge)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		s.ID, s.FromID, s.ToID, s.Message, s.Badge,
	).Scan(&s.CreatedAt)
}

func (r *ShoutOutRepo) List(ctx context.Context, limit int) ([]*models.ShoutOut, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, from_id, to_id, message, badge, created_at
		FROM shoutouts
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*models.ShoutOut, 0)
	for rows.Next() {
		s := &models.ShoutOut{}
		if err := rows.Scan(&s.ID, &s.FromID, &s.ToID, &s.Message, &s.Badge, &s.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

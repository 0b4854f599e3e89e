package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulsehr-backend/internal/models"
)

type SecretSantaRepo struct {
	pool *pgxpool.Pool
}

func NewSecretSantaRepo(pool *pgxpool.Pool) *SecretSantaRepo {
	return &SecretSantaRepo{pool: pool}
}

func (r *SecretSantaRepo) CreateEvent(ctx context.Context, ev *models.SecretSantaEvent) error {
	ev.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO secret_santa_events (id, name, budget, exchange_on, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		ev.ID, ev.Name, ev.Budget, ev.ExchangeOn, ev.CreatedBy,
	).Scan(&ev.CreatedAt)
}

func (r *SecretSantaRepo) GetEvent(ctx context.Context, id uuid.UUID) (*models.SecretSantaEvent, error) {
	ev := &models.SecretSantaEvent{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, budget, exchange_on, drawn_at, created_by, created_at
		FROM secret_santa_events WHERE id = $1`, id,
	).Scan(&ev.ID, &ev.Name, &ev.Budget, &ev.ExchangeOn, &ev.DrawnAt, &ev.CreatedBy, &ev.CreatedAt)
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *SecretSantaRepo) Join(ctx context.Context, eventID, employeeID uuid.UUID, wishList string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO secret_santa_participants (event_id, employee_id, wish_list)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, employee_id) DO UPDATE SET wish_list = EXCLUDED.wish_list`,
		eventID, employeeID, wishList)
	return err
}

func (r *SecretSantaRepo) ListParticipants(ctx context.Context, eventID uuid.UUID) ([]*models.SecretSantaParticipant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT event_id, employee_id, wish_list, joined_at
		FROM secret_santa_participants
		WHERE event_id = $1
		ORDER BY joined_at`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]*models.SecretSantaParticipant, 0)
	for rows.Next() {
		p := &models.SecretSantaParticipant{}
		if err := rows.Scan(&p.EventID, &p.EmployeeID, &p.WishList, &p.JoinedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// SaveAssignments stores the full draw and stamps the event in one
// transaction. A drawn event cannot be drawn again.
func (r *SecretSantaRepo) SaveAssignments(ctx context.Context, eventID uuid.UUID, assignments []models.SecretSantaAssignment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE secret_santa_events SET drawn_at = NOW()
		WHERE id = $1 AND drawn_at IS NULL`, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("event already drawn")
	}

	for _, a := range assignments {
		if _, err := tx.Exec(ctx, `
			INSERT INTO secret_santa_assignments (event_id, giver_id, receiver_id)
			VALUES ($1, $2, $3)`,
			eventID, a.GiverID, a.ReceiverID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetAssignment returns who the giver buys for. Participants can only read
// their own row.
func (r *SecretSantaRepo) GetAssignment(ctx context.Context, eventID, giverID uuid.UUID) (*models.SecretSantaAssignment, error) {
	a := &models.SecretSantaAssignment{}
	err := r.pool.QueryRow(ctx, `
		SELECT event_id, giver_id, receiver_id
		FROM secret_santa_assignments
		WHERE event_id = $1 AND giver_id = $2`, eventID, giverID,
	).Scan(&a.EventID, &a.GiverID, &a.ReceiverID)
	if err != nil {
		return nil, err
	}
	return a, nil
}

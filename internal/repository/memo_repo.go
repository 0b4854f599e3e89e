package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulsehr-backend/internal/models"
)

type MemoRepo struct {
	pool *pgxpool.Pool
}

func NewMemoRepo(pool *pgxpool.Pool) *MemoRepo {
	return &MemoRepo{pool: pool}
}

func (r *MemoRepo) Create(ctx context.Context, m *models.Memo) error {
	m.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO memos (id, sender_id, recipient_id, subject, body, escalate_after_hours, original_memo_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		m.ID, m.SenderID, m.RecipientID, m.Subject, m.Body, m.EscalateAfterHours, m.OriginalMemoID,
	).Scan(&m.CreatedAt)
}

func (r *MemoRepo) ListForRecipient(ctx context.Context, recipientID uuid.UUID) ([]*models.Memo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sender_id, recipient_id, subject, body, escalate_after_hours, escalated, original_memo_id, read_at, created_at
		FROM memos
		WHERE recipient_id = $1
		ORDER BY created_at DESC`, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMemoRows(rows)
}

func (r *MemoRepo) MarkRead(ctx context.Context, memoID, recipientID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE memos SET read_at = NOW()
		WHERE id = $1 AND recipient_id = $2 AND read_at IS NULL`,
		memoID, recipientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListEscalatable returns unread, non-escalated memos whose escalation
// deadline (created_at + escalate_after_hours) has elapsed. Reminder memos
// themselves are never escalated.
func (r *MemoRepo) ListEscalatable(ctx context.Context) ([]*models.Memo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sender_id, recipient_id, subject, body, escalate_after_hours, escalated, original_memo_id, read_at, created_at
		FROM memos
		WHERE read_at IS NULL
		  AND escalated = FALSE
		  AND original_memo_id IS NULL
		  AND created_at + (escalate_after_hours * interval '1 hour') <= NOW()
		ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMemoRows(rows)
}

func (r *MemoRepo) MarkEscalated(ctx context.Context, memoID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE memos SET escalated = TRUE WHERE id = $1`, memoID)
	return err
}

func scanMemoRows(rows pgx.Rows) ([]*models.Memo, error) {
	memos := make([]*models.Memo, 0)
	for rows.Next() {
		m := &models.Memo{}
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Subject, &m.Body,
			&m.EscalateAfterHours, &m.Escalated, &m.OriginalMemoID, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		memos = append(memos, m)
	}
	return memos, rows.Err()
}

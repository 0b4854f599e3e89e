package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"pulsehr-backend/internal/metrics"
	"pulsehr-backend/internal/models"
)

// memoStore is the slice of MemoRepo the escalator needs.
type memoStore interface {
	ListEscalatable(ctx context.Context) ([]*models.Memo, error)
	Create(ctx context.Context, m *models.Memo) error
	MarkEscalated(ctx context.Context, memoID uuid.UUID) error
}

type employeeDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error)
}

type escalationMailer interface {
	SendEscalationReminder(to, managerName, recipientName, subjectLine string) error
}

// EscalationService sweeps unread memos past their deadline and forwards a
// reminder memo to the recipient's manager.
type EscalationService struct {
	memos        memoStore
	employees    employeeDirectory
	mailer       escalationMailer
	pollInterval time.Duration
	stopChan     chan struct{}
}

func NewEscalationService(memos memoStore, employees employeeDirectory, mailer escalationMailer, pollInterval time.Duration) *EscalationService {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Minute
	}
	return &EscalationService{
		memos:        memos,
		employees:    employees,
		mailer:       mailer,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
	}
}

func (s *EscalationService) Start() {
	go s.loop()
	log.Printf("Memo escalation scheduler started (every %s)", s.pollInterval)
}

func (s *EscalationService) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *EscalationService) loop() {
	// Run on startup as well as by interval.
	s.sweep()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *EscalationService) sweep() {
	result := s.RunOnce(context.Background())
	if result.Escalated > 0 || len(result.Errors) > 0 {
		log.Printf("memo escalation: checked=%d escalated=%d errors=%d",
			result.TotalChecked, result.Escalated, len(result.Errors))
	}
}

// RunOnce performs a single escalation sweep. Re-running immediately is a
// no-op: escalated memos no longer match the due query.
func (s *EscalationService) RunOnce(ctx context.Context) models.EscalationResult {
	result := models.EscalationResult{Success: true}

	due, err := s.memos.ListEscalatable(ctx)
	if err != nil {
		result.Success = false
		result.Errors = append(result.Errors, fmt.Sprintf("list due memos: %v", err))
		return result
	}
	result.TotalChecked = len(due)

	for _, memo := range due {
		if err := s.escalate(ctx, memo); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("memo %s: %v", memo.ID, err))
			continue
		}
		result.Escalated++
		metrics.MemosEscalatedTotal.Inc()
	}

	if len(result.Errors) > 0 {
		result.Success = false
	}
	return result
}

func (s *EscalationService) escalate(ctx context.Context, memo *models.Memo) error {
	recipient, err := s.employees.GetByID(ctx, memo.RecipientID)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}

	// Without a manager the memo is still marked escalated so it is not
	// swept again every poll.
	if recipient.ManagerID != nil {
		manager, err := s.employees.GetByID(ctx, *recipient.ManagerID)
		if err != nil {
			return fmt.Errorf("load manager: %w", err)
		}

		reminder := &models.Memo{
			SenderID:           memo.SenderID,
			RecipientID:        manager.ID,
			Subject:            "Escalated: " + memo.Subject,
			Body:               fmt.Sprintf("The memo below to %s has gone unread for over %d hours.\n\n%s", recipient.FullName, memo.EscalateAfterHours, memo.Body),
			EscalateAfterHours: memo.EscalateAfterHours,
			OriginalMemoID:     &memo.ID,
		}
		if err := s.memos.Create(ctx, reminder); err != nil {
			return fmt.Errorf("create reminder: %w", err)
		}

		if err := s.mailer.SendEscalationReminder(manager.Email, manager.FullName, recipient.FullName, memo.Subject); err != nil {
			log.Printf("memo escalation: failed to email manager %s: %v", manager.Email, err)
		}
	} else {
		log.Printf("memo escalation: recipient %s has no manager, marking memo %s escalated without reminder", recipient.ID, memo.ID)
	}

	return s.memos.MarkEscalated(ctx, memo.ID)
}

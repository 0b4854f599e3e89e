package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pulsehr-backend/internal/models"
)

type stubMemoStore struct {
	due       []*models.Memo
	created   []*models.Memo
	escalated map[uuid.UUID]bool
	listErr   error
}

func newStubMemoStore(due ...*models.Memo) *stubMemoStore {
	return &stubMemoStore{due: due, escalated: make(map[uuid.UUID]bool)}
}

func (s *stubMemoStore) ListEscalatable(ctx context.Context) ([]*models.Memo, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	// Mirror the real query: escalated memos drop out of the due set.
	remaining := make([]*models.Memo, 0)
	for _, m := range s.due {
		if !s.escalated[m.ID] {
			remaining = append(remaining, m)
		}
	}
	return remaining, nil
}

func (s *stubMemoStore) Create(ctx context.Context, m *models.Memo) error {
	m.ID = uuid.New()
	s.created = append(s.created, m)
	return nil
}

func (s *stubMemoStore) MarkEscalated(ctx context.Context, memoID uuid.UUID) error {
	s.escalated[memoID] = true
	return nil
}

type stubDirectory struct {
	employees map[uuid.UUID]*models.Employee
}

func (s *stubDirectory) GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	emp, ok := s.employees[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return emp, nil
}

type stubMailer struct {
	sent []string
	err  error
}

func (s *stubMailer) SendEscalationReminder(to, managerName, recipientName, subjectLine string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

func overdueMemo(recipientID uuid.UUID) *models.Memo {
	return &models.Memo{
		ID:                 uuid.New(),
		SenderID:           uuid.New(),
		RecipientID:        recipientID,
		Subject:            "Submit your timesheet",
		Body:               "Please submit by Friday.",
		EscalateAfterHours: 24,
		CreatedAt:          time.Now().Add(-48 * time.Hour),
	}
}

func TestRunOnceEscalatesToManager(t *testing.T) {
	managerID := uuid.New()
	recipientID := uuid.New()

	directory := &stubDirectory{employees: map[uuid.UUID]*models.Employee{
		managerID:   {ID: managerID, Email: "manager@pulsehr.test", FullName: "Morgan Lee"},
		recipientID: {ID: recipientID, Email: "dev@pulsehr.test", FullName: "Sam Ortiz", ManagerID: &managerID},
	}}

	memo := overdueMemo(recipientID)
	memos := newStubMemoStore(memo)
	mailer := &stubMailer{}

	svc := NewEscalationService(memos, directory, mailer, time.Minute)
	result := svc.RunOnce(context.Background())

	if !result.Success {
		t.Fatalf("expected success, got errors: %v", result.Errors)
	}
	if result.TotalChecked != 1 || result.Escalated != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(memos.created) != 1 {
		t.Fatalf("expected one reminder memo, got %d", len(memos.created))
	}

	reminder := memos.created[0]
	if reminder.RecipientID != managerID {
		t.Fatalf("reminder should go to the manager")
	}
	if reminder.OriginalMemoID == nil || *reminder.OriginalMemoID != memo.ID {
		t.Fatalf("reminder should reference the original memo")
	}
	if !memos.escalated[memo.ID] {
		t.Fatalf("original memo should be marked escalated")
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "manager@pulsehr.test" {
		t.Fatalf("expected email to manager, got %v", mailer.sent)
	}
}

func TestRunOnceIsIdempotent(t *testing.T) {
	managerID := uuid.New()
	recipientID := uuid.New()

	directory := &stubDirectory{employees: map[uuid.UUID]*models.Employee{
		managerID:   {ID: managerID, Email: "manager@pulsehr.test", FullName: "Morgan Lee"},
		recipientID: {ID: recipientID, Email: "dev@pulsehr.test", FullName: "Sam Ortiz", ManagerID: &managerID},
	}}

	memos := newStubMemoStore(overdueMemo(recipientID))
	svc := NewEscalationService(memos, directory, &stubMailer{}, time.Minute)

	first := svc.RunOnce(context.Background())
	second := svc.RunOnce(context.Background())

	if first.Escalated != 1 {
		t.Fatalf("first sweep should escalate, got %+v", first)
	}
	if second.TotalChecked != 0 || second.Escalated != 0 {
		t.Fatalf("second sweep should find nothing, got %+v", second)
	}
	if len(memos.created) != 1 {
		t.Fatalf("reminder must not be duplicated, got %d", len(memos.created))
	}
}

func TestRunOnceWithoutManagerStillMarksEscalated(t *testing.T) {
	recipientID := uuid.New()

	directory := &stubDirectory{employees: map[uuid.UUID]*models.Employee{
		recipientID: {ID: recipientID, Email: "dev@pulsehr.test", FullName: "Sam Ortiz"},
	}}

	memo := overdueMemo(recipientID)
	memos := newStubMemoStore(memo)
	mailer := &stubMailer{}

	svc := NewEscalationService(memos, directory, mailer, time.Minute)
	result := svc.RunOnce(context.Background())

	if !result.Success || result.Escalated != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(memos.created) != 0 {
		t.Fatalf("no reminder memo expected without a manager")
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("no email expected without a manager")
	}
	if !memos.escalated[memo.ID] {
		t.Fatalf("memo should still be marked escalated")
	}
}

func TestRunOnceCollectsPerMemoErrors(t *testing.T) {
	managerID := uuid.New()
	knownID := uuid.New()
	orphanID := uuid.New() // not in the directory

	directory := &stubDirectory{employees: map[uuid.UUID]*models.Employee{
		managerID: {ID: managerID, Email: "manager@pulsehr.test", FullName: "Morgan Lee"},
		knownID:   {ID: knownID, Email: "dev@pulsehr.test", FullName: "Sam Ortiz", ManagerID: &managerID},
	}}

	broken := overdueMemo(orphanID)
	fine := overdueMemo(knownID)
	memos := newStubMemoStore(broken, fine)

	svc := NewEscalationService(memos, directory, &stubMailer{}, time.Minute)
	result := svc.RunOnce(context.Background())

	if result.Success {
		t.Fatalf("expected failure when a memo cannot be escalated")
	}
	if result.TotalChecked != 2 || result.Escalated != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %v", result.Errors)
	}
	if memos.escalated[broken.ID] {
		t.Fatalf("broken memo must stay unescalated for the next sweep")
	}
}

func TestRunOnceListFailure(t *testing.T) {
	memos := newStubMemoStore()
	memos.listErr = fmt.Errorf("connection refused")

	svc := NewEscalationService(memos, &stubDirectory{}, &stubMailer{}, time.Minute)
	result := svc.RunOnce(context.Background())

	if result.Success {
		t.Fatalf("expected failure when the due query fails")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %v", result.Errors)
	}
}

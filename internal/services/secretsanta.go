package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"pulsehr-backend/internal/models"
	"pulsehr-backend/internal/repository"
)

// SecretSantaService draws gift assignments for an event. The draw is a
// single cycle, so nobody is ever assigned to themselves and every
// participant both gives and receives exactly once.
type SecretSantaService struct {
	repo *repository.SecretSantaRepo
}

func NewSecretSantaService(repo *repository.SecretSantaRepo) *SecretSantaService {
	return &SecretSantaService{repo: repo}
}

func (s *SecretSantaService) Draw(ctx context.Context, eventID uuid.UUID) ([]models.SecretSantaAssignment, error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.DrawnAt != nil {
		return nil, &ConflictError{Message: "Assignments have already been drawn for this event"}
	}

	participants, err := s.repo.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(participants) < 2 {
		return nil, &ValidationError{Fields: map[string]string{
			"participants": "At least 2 participants are required to draw",
		}}
	}

	ids := make([]uuid.UUID, len(participants))
	for i, p := range participants {
		ids[i] = p.EmployeeID
	}

	cycle, err := drawCycle(ids)
	if err != nil {
		return nil, err
	}

	assignments := make([]models.SecretSantaAssignment, len(cycle))
	for i, giver := range cycle {
		receiver := cycle[(i+1)%len(cycle)]
		assignments[i] = models.SecretSantaAssignment{
			EventID:    eventID,
			GiverID:    giver,
			ReceiverID: receiver,
		}
	}

	if err := s.repo.SaveAssignments(ctx, eventID, assignments); err != nil {
		return nil, err
	}

	return assignments, nil
}

// drawCycle shuffles the ids into a random order that is read as a single
// cycle (each id gives to the next one). Sattolo's algorithm guarantees the
// permutation has no fixed points.
func drawCycle(ids []uuid.UUID) ([]uuid.UUID, error) {
	cycle := make([]uuid.UUID, len(ids))
	copy(cycle, ids)

	for i := len(cycle) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i)))
		if err != nil {
			return nil, fmt.Errorf("failed to draw assignments: %w", err)
		}
		j := int(n.Int64())
		cycle[i], cycle[j] = cycle[j], cycle[i]
	}

	return cycle, nil
}

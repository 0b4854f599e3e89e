package services

import (
	"testing"

	"github.com/google/uuid"
)

func TestDrawCycleHasNoFixedPoints(t *testing.T) {
	ids := make([]uuid.UUID, 6)
	for i := range ids {
		ids[i] = uuid.New()
	}

	// The draw is random; repeat to catch an unlucky-looking pass.
	for run := 0; run < 50; run++ {
		cycle, err := drawCycle(ids)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for i, giver := range cycle {
			receiver := cycle[(i+1)%len(cycle)]
			if giver == receiver {
				t.Fatalf("run %d: %s was assigned to themselves", run, giver)
			}
		}
	}
}

func TestDrawCycleIsSingleCycle(t *testing.T) {
	ids := make([]uuid.UUID, 8)
	for i := range ids {
		ids[i] = uuid.New()
	}

	cycle, err := drawCycle(ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cycle) != len(ids) {
		t.Fatalf("cycle length %d, want %d", len(cycle), len(ids))
	}

	// Everyone appears exactly once, so following giver -> receiver visits
	// all participants before returning to the start.
	seen := make(map[uuid.UUID]bool, len(cycle))
	for _, id := range cycle {
		if seen[id] {
			t.Fatalf("%s appears twice in the cycle", id)
		}
		seen[id] = true
	}
	for _, id := range ids {
		if !seen[id] {
			t.Fatalf("%s missing from the cycle", id)
		}
	}
}

func TestDrawCycleTwoParticipantsSwap(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	cycle, err := drawCycle([]uuid.UUID{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// With two participants the only derangement is a mutual swap.
	if cycle[0] == cycle[1] {
		t.Fatalf("duplicate participant in cycle")
	}
}

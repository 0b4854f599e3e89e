package services

import (
	"strings"
	"testing"

	"pulsehr-backend/internal/models"
)

func TestParseEvaluationSummary(t *testing.T) {
	raw := `{"overall": "Solid quarter overall.", "strengths": ["Ships on time"], "improvements": ["Speak up in reviews"], "rating": "meets"}`

	summary, err := parseEvaluationSummary(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Overall != "Solid quarter overall." {
		t.Fatalf("unexpected overall: %q", summary.Overall)
	}
	if summary.Rating != "meets" {
		t.Fatalf("unexpected rating: %q", summary.Rating)
	}
}

func TestParseEvaluationSummaryRecoversEmbeddedJSON(t *testing.T) {
	raw := "Here is the summary you asked for:\n{\"overall\": \"Great work.\", \"strengths\": [], \"improvements\": [], \"rating\": \"exceeds\"}\nHope this helps!"

	summary, err := parseEvaluationSummary(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Rating != "exceeds" {
		t.Fatalf("unexpected rating: %q", summary.Rating)
	}
}

func TestParseEvaluationSummaryDefaultsUnknownRating(t *testing.T) {
	raw := `{"overall": "Fine.", "strengths": [], "improvements": [], "rating": "stellar"}`

	summary, err := parseEvaluationSummary(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Rating != "meets" {
		t.Fatalf("expected unknown rating to fall back to meets, got %q", summary.Rating)
	}
}

func TestParseEvaluationSummaryRejectsMissingOverall(t *testing.T) {
	if _, err := parseEvaluationSummary(`{"strengths": ["x"], "rating": "meets"}`); err == nil {
		t.Fatalf("expected error for missing overall narrative")
	}
}

func TestStripCodeFence(t *testing.T) {
	fenced := "```json\n{\"overall\": \"ok\"}\n```"
	if got := stripCodeFence(fenced); got != `{"overall": "ok"}` {
		t.Fatalf("unexpected result: %q", got)
	}

	plain := `{"overall": "ok"}`
	if got := stripCodeFence(plain); got != plain {
		t.Fatalf("plain text should pass through, got %q", got)
	}
}

func TestBuildEvaluationPrompt(t *testing.T) {
	scores := models.EvaluationScores{Productivity: 4, Communication: 3, Teamwork: 5, Initiative: 2, Reliability: 4}

	prompt := buildEvaluationPrompt("Backend Engineer", "2026-Q2", scores, "Consistently reliable.")

	for _, want := range []string{
		"Backend Engineer",
		"2026-Q2",
		"- Teamwork: 5",
		"Consistently reliable.",
		"Return ONLY a valid JSON object",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

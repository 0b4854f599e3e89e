package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"pulsehr-backend/internal/models"
	"pulsehr-backend/internal/repository"
)

// SummarizerService turns raw evaluation scores and reviewer comments into a
// structured narrative summary via Gemini.
type SummarizerService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	evalRepo *repository.EvaluationRepo
	empRepo  *repository.EmployeeRepo
	jobRepo  *repository.JobRepo
	redis    *redis.Client
	rateChan chan struct{} // Token bucket
}

func NewSummarizerService(
	apiKey string,
	concurrentReqs int,
	evalRepo *repository.EvaluationRepo,
	empRepo *repository.EmployeeRepo,
	jobRepo *repository.JobRepo,
	redisClient *redis.Client,
) (*SummarizerService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &SummarizerService{
		client:   client,
		model:    model,
		evalRepo: evalRepo,
		empRepo:  empRepo,
		jobRepo:  jobRepo,
		redis:    redisClient,
		rateChan: rateChan,
	}, nil
}

func (s *SummarizerService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *SummarizerService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *SummarizerService) releaseRate() {
	s.rateChan <- struct{}{}
}

// PublishUpdate sends a WebSocket update via Redis pub/sub
func (s *SummarizerService) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	s.redis.Publish(ctx, fmt.Sprintf("user_updates:%s", userID.String()), string(data))
}

// Summarize calls Gemini for one evaluation and persists the result. The
// returned summary is also stored as summary_json on the evaluation row.
func (s *SummarizerService) Summarize(ctx context.Context, evaluationID uuid.UUID) (*models.EvaluationSummary, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	eval, err := s.evalRepo.GetByID(ctx, evaluationID)
	if err != nil {
		return nil, err
	}

	employee, err := s.empRepo.GetByID(ctx, eval.EmployeeID)
	if err != nil {
		return nil, err
	}

	prompt := buildEvaluationPrompt(employee.Position, eval.Period, eval.Scores, eval.Comments)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, mapGeminiError(err)
	}

	rawText := stripCodeFence(extractText(resp))
	summary, err := parseEvaluationSummary(rawText)
	if err != nil {
		return nil, fmt.Errorf("Gemini returned unusable summary: %w", err)
	}

	summaryJSON, _ := json.Marshal(summary)
	if err := s.evalRepo.SaveSummary(ctx, eval.ID, summaryJSON); err != nil {
		return nil, err
	}

	return summary, nil
}

// RunSummaryJob is the queue-side entry point: it summarizes the referenced
// evaluation and pushes a status update to the requesting employee's socket.
func (s *SummarizerService) RunSummaryJob(ctx context.Context, job *models.Job) error {
	s.PublishUpdate(ctx, job.RequestedBy, models.WSMessage{
		Type:    "job_update",
		Payload: models.JobUpdate{JobID: job.ID, Status: "processing", Detail: "Generating evaluation summary"},
	})

	_, err := s.Summarize(ctx, job.ReferenceID)
	return err
}

func buildEvaluationPrompt(position, period string, scores models.EvaluationScores, comments string) string {
	var b strings.Builder

	b.WriteString("You are an experienced HR business partner. Write a performance evaluation summary from the scores and reviewer comments below.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON object. No preamble, no markdown, no backticks.\n\n")

	b.WriteString(`JSON schema:
{"overall": "2-3 sentence narrative", "strengths": ["string"], "improvements": ["string"], "rating": "exceeds"|"meets"|"below"}

Rules:
- strengths and improvements each contain 2-4 short, specific items
- rating reflects the scores: averages above 4 are "exceeds", below 2.5 are "below", otherwise "meets"
- keep the tone professional and constructive; never mention the numeric scores directly
`)

	b.WriteString(fmt.Sprintf("\nRole: %s\nPeriod: %s\n\nScores (1-5):\n", position, period))
	b.WriteString(fmt.Sprintf("- Productivity: %d\n", scores.Productivity))
	b.WriteString(fmt.Sprintf("- Communication: %d\n", scores.Communication))
	b.WriteString(fmt.Sprintf("- Teamwork: %d\n", scores.Teamwork))
	b.WriteString(fmt.Sprintf("- Initiative: %d\n", scores.Initiative))
	b.WriteString(fmt.Sprintf("- Reliability: %d\n", scores.Reliability))

	b.WriteString("\n---REVIEWER COMMENTS---\n")
	b.WriteString(comments)
	b.WriteString("\n---END---\n")

	return b.String()
}

func parseEvaluationSummary(rawText string) (*models.EvaluationSummary, error) {
	var summary models.EvaluationSummary
	if err := json.Unmarshal([]byte(rawText), &summary); err != nil {
		// Try to extract the JSON object
		start := strings.Index(rawText, "{")
		end := strings.LastIndex(rawText, "}")
		if start < 0 || end <= start {
			return nil, err
		}
		if err := json.Unmarshal([]byte(rawText[start:end+1]), &summary); err != nil {
			return nil, err
		}
	}

	if summary.Overall == "" {
		return nil, fmt.Errorf("missing overall narrative")
	}
	switch summary.Rating {
	case "exceeds", "meets", "below":
	default:
		summary.Rating = "meets"
	}

	return &summary, nil
}

// mapGeminiError translates upstream API failures into the typed errors the
// handler layer knows how to report.
func mapGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429:
			return &RateLimitError{Message: "AI summary service is rate limited, try again shortly"}
		case 402:
			return &QuotaError{Message: "AI summary quota exhausted"}
		case 403:
			if strings.Contains(strings.ToLower(apiErr.Message), "quota") {
				return &QuotaError{Message: "AI summary quota exhausted"}
			}
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "quota") {
		return &QuotaError{Message: "AI summary quota exhausted"}
	}
	return fmt.Errorf("Gemini API error: %w", err)
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

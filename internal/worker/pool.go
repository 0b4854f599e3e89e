package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"pulsehr-backend/internal/metrics"
	"pulsehr-backend/internal/models"
	"pulsehr-backend/internal/repository"
	"pulsehr-backend/internal/services"
)

const (
	QueuePayrollRun        = "queue:payroll-run"
	QueueEvaluationSummary = "queue:evaluation-summary"
)

type Pool struct {
	redis       *redis.Client
	summarizer  *services.SummarizerService
	payroll     *services.PayrollService
	jobRepo     *repository.JobRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	summarizer *services.SummarizerService,
	payroll *services.PayrollService,
	jobRepo *repository.JobRepo,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		summarizer:  summarizer,
		payroll:     payroll,
		jobRepo:     jobRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

// Enqueue persists the job row and pushes it onto its queue.
func (p *Pool) Enqueue(ctx context.Context, job *models.Job) error {
	if err := p.jobRepo.Create(ctx, job); err != nil {
		return err
	}

	jobBytes, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return p.redis.LPush(ctx, jobQueueName(job.Type), string(jobBytes)).Err()
}

func (p *Pool) Start() {
	queues := []string{
		QueuePayrollRun,
		QueueEvaluationSummary,
	}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		// Parse job
		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

		var processErr error
		switch job.Type {
		case "payroll-run":
			processErr = p.processPayrollRun(ctx, &job)
		case "evaluation-summary":
			processErr = p.summarizer.RunSummaryJob(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.handleSuccess(ctx, &job)
		}

		// Release lock
		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) processPayrollRun(ctx context.Context, job *models.Job) error {
	var config models.PayrollRunRequest
	if err := json.Unmarshal(job.ConfigJSON, &config); err != nil {
		return fmt.Errorf("invalid payroll run config: %w", err)
	}

	records, skipped, err := p.payroll.Run(ctx, config.PeriodStart, config.PeriodEnd)
	if err != nil {
		return err
	}

	detail := fmt.Sprintf("Generated %d draft payroll records", len(records))
	if len(skipped) > 0 {
		detail += fmt.Sprintf(" (%d already finalized, left untouched)", len(skipped))
	}
	p.summarizer.PublishUpdate(ctx, job.RequestedBy, models.WSMessage{
		Type: "job_update",
		Payload: models.JobUpdate{
			JobID:  job.ID,
			Status: "processing",
			Detail: detail,
		},
	})

	return nil
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job) {
	p.jobRepo.MarkCompleted(ctx, job.ID)
	metrics.JobsProcessedTotal.WithLabelValues(job.Type, "completed").Inc()

	p.summarizer.PublishUpdate(ctx, job.RequestedBy, models.WSMessage{
		Type:    "job_update",
		Payload: models.JobUpdate{JobID: job.ID, Status: "completed"},
	})

	log.Printf("Job %s completed successfully", job.ID)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	maxRetries := job.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	if job.RetryCount < maxRetries {
		// Re-queue with backoff
		log.Printf("Job %s failed (attempt %d): %s — retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.IncrementRetry(ctx, job.ID)

		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), jobQueueName(job.Type), string(jobBytes))
		})
		return
	}

	// Max retries reached
	log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
	p.jobRepo.MarkFailed(ctx, job.ID, errMsg)
	metrics.JobsProcessedTotal.WithLabelValues(job.Type, "failed").Inc()

	p.summarizer.PublishUpdate(ctx, job.RequestedBy, models.WSMessage{
		Type:    "job_update",
		Payload: models.JobUpdate{JobID: job.ID, Status: "failed", Detail: errMsg},
	})
}

func jobQueueName(jobType string) string {
	switch jobType {
	case "payroll-run":
		return QueuePayrollRun
	case "evaluation-summary":
		return QueueEvaluationSummary
	default:
		return "queue:" + jobType
	}
}

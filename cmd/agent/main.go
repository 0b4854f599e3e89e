package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"pulsehr-backend/internal/config"
	"pulsehr-backend/internal/models"
	"pulsehr-backend/internal/sampler"
	"pulsehr-backend/internal/storage"
)

// portalSink reports finished captures back to the portal. The portal trusts
// the shared agent token, not a JWT.
type portalSink struct {
	client    *http.Client
	portalURL string
	token     string
}

func (s *portalSink) Record(ctx context.Context, c models.Capture) error {
	body, err := json.Marshal(models.RecordCaptureRequest{
		AttendanceID: c.AttendanceID,
		ImageURL:     c.ImageURL,
		CapturedAt:   c.CapturedAt,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.portalURL+"/api/v1/agent/captures", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Agent-Token", s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("portal rejected capture: %s", resp.Status)
	}
	return nil
}

func main() {
	attendanceFlag := flag.String("attendance", "", "attendance session id (required)")
	employeeFlag := flag.String("employee", "", "employee id (required)")
	flag.Parse()

	attendanceID, err := uuid.Parse(*attendanceFlag)
	if err != nil {
		log.Fatalf("✗ Invalid -attendance id: %v", err)
	}
	employeeID, err := uuid.Parse(*employeeFlag)
	if err != nil {
		log.Fatalf("✗ Invalid -employee id: %v", err)
	}

	cfg := config.LoadAgent()
	log.Println("✓ Agent configuration loaded")

	uploader := storage.New(cfg.StorageCloudName, cfg.StorageAPIKey, cfg.StorageAPISecret, cfg.StorageFolder)
	sink := &portalSink{
		client:    &http.Client{Timeout: 30 * time.Second},
		portalURL: cfg.PortalURL,
		token:     cfg.AgentToken,
	}

	s := sampler.New(uploader, sink, sampler.Options{Interval: cfg.CaptureInterval})
	s.Update(sampler.Inputs{
		Source:       sampler.NewScreenSource(),
		AttendanceID: attendanceID,
		EmployeeID:   employeeID,
	})
	log.Printf("✓ Capture agent running (every %s) for session %s", cfg.CaptureInterval, attendanceID)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	s.Stop()
}

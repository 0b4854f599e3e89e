// Package sampler produces periodic screen captures for an active attendance
// session: grab a frame, encode it as JPEG, upload it to object storage and
// record a capture row. A lost capture is tolerable; nothing here retries.
package sampler

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pulsehr-backend/internal/metrics"
	"pulsehr-backend/internal/models"
	"pulsehr-backend/internal/storage"
)

// FrameSource is a live screen stream. Ready reports whether the source has
// non-zero dimensions yet; Frame grabs the current frame at native size.
type FrameSource interface {
	Ready() bool
	Frame() (image.Image, error)
	Close() error
}

// CaptureSink records one capture row after its image has been stored.
type CaptureSink interface {
	Record(ctx context.Context, c models.Capture) error
}

type State int

const (
	StateIdle State = iota
	StateWaitingReady
	StateSampling
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitingReady:
		return "waiting-ready"
	case StateSampling:
		return "sampling"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Inputs are the four values that decide whether sampling runs. Sampling is
// active only when the source and both ids are present and OnBreak is false.
type Inputs struct {
	Source       FrameSource
	AttendanceID uuid.UUID
	EmployeeID   uuid.UUID
	OnBreak      bool
}

func (in Inputs) complete() bool {
	return in.Source != nil && in.AttendanceID != uuid.Nil && in.EmployeeID != uuid.Nil && !in.OnBreak
}

type Options struct {
	Interval      time.Duration // capture cadence, default 3m
	ReadyPoll     time.Duration // readiness poll sub-interval, default 100ms
	ReadyAttempts int           // bounded readiness attempts, default 50
	JPEGQuality   int           // default 70
	UploadTimeout time.Duration // per-capture I/O budget, default 30s
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = 3 * time.Minute
	}
	if o.ReadyPoll <= 0 {
		o.ReadyPoll = 100 * time.Millisecond
	}
	if o.ReadyAttempts <= 0 {
		o.ReadyAttempts = 50
	}
	if o.JPEGQuality <= 0 {
		o.JPEGQuality = 70
	}
	if o.UploadTimeout <= 0 {
		o.UploadTimeout = 30 * time.Second
	}
	return o
}

// Sampler owns at most one sampling timer at a time. All mutable state lives
// behind the mutex; timer callbacks snapshot it instead of capturing cells by
// reference.
type Sampler struct {
	opts     Options
	uploader storage.Uploader
	sink     CaptureSink

	mu          sync.Mutex
	state       State
	in          Inputs
	done        chan struct{} // closed to clear the running timer
	readySource FrameSource   // source whose readiness wait already completed
	lastBase    string        // last storage path base, for collision suffixes
	lastSeq     int

	now  func() time.Time
	logf func(format string, args ...interface{})
}

func New(uploader storage.Uploader, sink CaptureSink, opts Options) *Sampler {
	return &Sampler{
		opts:     opts.withDefaults(),
		uploader: uploader,
		sink:     sink,
		state:    StateIdle,
		now:      time.Now,
		logf:     log.Printf,
	}
}

// State returns the current lifecycle state.
func (s *Sampler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update replaces the sampler inputs and re-evaluates whether sampling should
// run. Complete inputs start (or resume) the timer; incomplete inputs or an
// active break pause it without releasing the source.
func (s *Sampler) Update(in Inputs) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateStopped {
		return
	}

	s.in = in

	if in.complete() {
		if s.done == nil {
			s.startLocked()
		}
		return
	}

	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	if in.Source != nil || in.AttendanceID != uuid.Nil || in.EmployeeID != uuid.Nil {
		s.state = StatePaused
	} else {
		s.state = StateIdle
	}
}

// startLocked arms the timer. The readiness wait runs once per source; a
// source resuming from pause starts ticking immediately.
func (s *Sampler) startLocked() {
	done := make(chan struct{})
	s.done = done
	src := s.in.Source

	if s.readySource == src {
		s.state = StateSampling
		go s.run(done)
		return
	}

	s.state = StateWaitingReady
	go func() {
		s.waitReady(src, done)

		s.mu.Lock()
		if s.done != done {
			// Paused or stopped while waiting.
			s.mu.Unlock()
			return
		}
		s.readySource = src
		s.state = StateSampling
		s.mu.Unlock()

		s.run(done)
	}()
}

// waitReady polls the source until it reports non-zero dimensions, for a
// bounded number of attempts. Never becoming ready is logged once and
// sampling proceeds anyway.
func (s *Sampler) waitReady(src FrameSource, done chan struct{}) {
	for attempt := 0; attempt < s.opts.ReadyAttempts; attempt++ {
		if src.Ready() {
			return
		}
		select {
		case <-done:
			return
		case <-time.After(s.opts.ReadyPoll):
		}
	}
	s.logf("sampler: source never reported ready after %d attempts, proceeding anyway", s.opts.ReadyAttempts)
}

// run attempts one capture immediately, then one per interval. Each attempt
// is fire-and-forget so a slow upload never delays the next tick.
func (s *Sampler) run(done chan struct{}) {
	go s.CaptureNow()

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			go s.CaptureNow()
		}
	}
}

// CaptureNow performs a single capture attempt against the current inputs.
// Any failure is logged and dropped; the next scheduled tick is independent.
func (s *Sampler) CaptureNow() {
	s.mu.Lock()
	in := s.in
	capturedAt := s.now()
	if (s.state != StateSampling && s.state != StateWaitingReady) || !in.complete() {
		s.mu.Unlock()
		return
	}
	path := s.nextPathLocked(in, capturedAt)
	s.mu.Unlock()

	frame, err := in.Source.Frame()
	if err != nil {
		s.logf("sampler: frame grab failed: %v", err)
		metrics.CaptureFailuresTotal.Inc()
		return
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: s.opts.JPEGQuality}); err != nil {
		s.logf("sampler: jpeg encode failed: %v", err)
		metrics.CaptureFailuresTotal.Inc()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.UploadTimeout)
	defer cancel()

	url, err := s.uploader.Upload(ctx, path, buf.Bytes(), "image/jpeg")
	if err != nil {
		s.logf("sampler: upload failed for %s: %v", path, err)
		metrics.CaptureFailuresTotal.Inc()
		return
	}

	err = s.sink.Record(ctx, models.Capture{
		AttendanceID: in.AttendanceID,
		EmployeeID:   in.EmployeeID,
		ImageURL:     url,
		CapturedAt:   capturedAt,
	})
	if err != nil {
		s.logf("sampler: record failed for %s: %v", path, err)
		metrics.CaptureFailuresTotal.Inc()
		return
	}

	metrics.CapturesTotal.Inc()
}

// nextPathLocked builds the timestamp-namespaced storage path. Two captures
// that land on the same timestamp string get a numeric suffix so paths never
// collide.
func (s *Sampler) nextPathLocked(in Inputs, at time.Time) string {
	ts := at.UTC().Format(time.RFC3339Nano)
	ts = strings.ReplaceAll(ts, ":", "-")
	ts = strings.ReplaceAll(ts, ".", "-")

	base := fmt.Sprintf("%s/%s/%s", in.EmployeeID, in.AttendanceID, ts)
	if base == s.lastBase {
		s.lastSeq++
		return fmt.Sprintf("%s-%d.jpg", base, s.lastSeq)
	}
	s.lastBase = base
	s.lastSeq = 0
	return base + ".jpg"
}

// Stop clears the timer, releases the source and detaches. Terminal and
// idempotent: the source is closed exactly once.
func (s *Sampler) Stop() {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	src := s.in.Source
	s.in = Inputs{}
	s.readySource = nil
	s.state = StateStopped
	s.mu.Unlock()

	if src != nil {
		if err := src.Close(); err != nil {
			s.logf("sampler: source close failed: %v", err)
		}
	}
}

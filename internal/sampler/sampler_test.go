package sampler

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"pulsehr-backend/internal/models"
)

type fakeSource struct {
	mu         sync.Mutex
	ready      bool
	readyCalls int
	frameErr   error
	closeCalls int
}

func (f *fakeSource) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readyCalls++
	return f.ready
}

func (f *fakeSource) Frame() (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frameErr != nil {
		return nil, f.frameErr
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	return nil
}

func (f *fakeSource) ReadyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readyCalls
}

func (f *fakeSource) CloseCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCalls
}

type fakeUploader struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.paths = append(f.paths, path)
	return "https://cdn.test/" + path, nil
}

func (f *fakeUploader) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.paths))
	copy(out, f.paths)
	return out
}

type fakeSink struct {
	mu       sync.Mutex
	captures []models.Capture
	err      error
}

func (f *fakeSink) Record(ctx context.Context, c models.Capture) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.captures = append(f.captures, c)
	return nil
}

func (f *fakeSink) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.captures)
}

func testOptions() Options {
	return Options{
		Interval:      25 * time.Millisecond,
		ReadyPoll:     time.Millisecond,
		ReadyAttempts: 5,
	}
}

func completeInputs(src FrameSource) Inputs {
	return Inputs{
		Source:       src,
		AttendanceID: uuid.New(),
		EmployeeID:   uuid.New(),
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

func TestSampler_ImmediateCaptureThenInterval(t *testing.T) {
	src := &fakeSource{ready: true}
	up := &fakeUploader{}
	sink := &fakeSink{}
	s := New(up, sink, testOptions())
	defer s.Stop()

	s.Update(completeInputs(src))

	if !waitFor(t, time.Second, func() bool { return sink.Count() >= 1 }) {
		t.Fatal("expected an immediate capture on activation")
	}
	if !waitFor(t, time.Second, func() bool { return sink.Count() >= 3 }) {
		t.Fatalf("expected interval captures to follow, got %d", sink.Count())
	}
	if got := s.State(); got != StateSampling {
		t.Errorf("expected sampling state, got %s", got)
	}
}

func TestSampler_IncompleteInputsNeverStart(t *testing.T) {
	tests := []struct {
		name string
		in   func(src FrameSource) Inputs
	}{
		{"nil source", func(src FrameSource) Inputs {
			in := completeInputs(src)
			in.Source = nil
			return in
		}},
		{"missing attendance id", func(src FrameSource) Inputs {
			in := completeInputs(src)
			in.AttendanceID = uuid.Nil
			return in
		}},
		{"missing employee id", func(src FrameSource) Inputs {
			in := completeInputs(src)
			in.EmployeeID = uuid.Nil
			return in
		}},
		{"on break", func(src FrameSource) Inputs {
			in := completeInputs(src)
			in.OnBreak = true
			return in
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := &fakeSource{ready: true}
			up := &fakeUploader{}
			sink := &fakeSink{}
			s := New(up, sink, testOptions())
			defer s.Stop()

			s.Update(tc.in(src))

			time.Sleep(60 * time.Millisecond)
			if sink.Count() != 0 {
				t.Errorf("expected no captures, got %d", sink.Count())
			}
			if got := s.State(); got == StateSampling || got == StateWaitingReady {
				t.Errorf("sampler should not be running, state %s", got)
			}
		})
	}
}

func TestSampler_BreakPausesAndResumeSkipsReadinessWait(t *testing.T) {
	src := &fakeSource{ready: true}
	up := &fakeUploader{}
	sink := &fakeSink{}
	s := New(up, sink, testOptions())
	defer s.Stop()

	in := completeInputs(src)
	s.Update(in)

	if !waitFor(t, time.Second, func() bool { return sink.Count() >= 1 }) {
		t.Fatal("expected capture before break")
	}

	in.OnBreak = true
	s.Update(in)
	if got := s.State(); got != StatePaused {
		t.Fatalf("expected paused state, got %s", got)
	}

	before := sink.Count()
	readyBefore := src.ReadyCalls()
	time.Sleep(80 * time.Millisecond)
	if sink.Count() != before {
		t.Errorf("expected no captures while paused, got %d new", sink.Count()-before)
	}
	if src.CloseCalls() != 0 {
		t.Error("pause must not release the source")
	}

	in.OnBreak = false
	s.Update(in)
	if !waitFor(t, time.Second, func() bool { return sink.Count() > before }) {
		t.Fatal("expected captures to resume after break")
	}
	// The unchanged source must not go through the readiness wait again.
	if src.ReadyCalls() != readyBefore {
		t.Errorf("readiness wait repeated on resume: %d extra Ready calls", src.ReadyCalls()-readyBefore)
	}
}

func TestSampler_NeverReadyWarnsOnceAndProceeds(t *testing.T) {
	src := &fakeSource{ready: false}
	up := &fakeUploader{}
	sink := &fakeSink{}
	s := New(up, sink, testOptions())
	defer s.Stop()

	var mu sync.Mutex
	warnings := 0
	s.logf = func(format string, args ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		if strings.Contains(format, "never reported ready") {
			warnings++
		}
	}

	s.Update(completeInputs(src))

	if !waitFor(t, time.Second, func() bool { return sink.Count() >= 1 }) {
		t.Fatal("sampling should proceed even when the source never becomes ready")
	}

	mu.Lock()
	got := warnings
	mu.Unlock()
	if got != 1 {
		t.Errorf("expected exactly one readiness warning, got %d", got)
	}
}

func TestSampler_StopIsIdempotentAndReleasesSourceOnce(t *testing.T) {
	src := &fakeSource{ready: true}
	up := &fakeUploader{}
	sink := &fakeSink{}
	s := New(up, sink, testOptions())

	s.Update(completeInputs(src))
	waitFor(t, time.Second, func() bool { return sink.Count() >= 1 })

	s.Stop()
	s.Stop()

	if got := src.CloseCalls(); got != 1 {
		t.Errorf("expected source closed exactly once, got %d", got)
	}
	if got := s.State(); got != StateStopped {
		t.Errorf("expected stopped state, got %s", got)
	}

	// Stopped is terminal: new inputs must not restart sampling.
	before := sink.Count()
	s.Update(completeInputs(&fakeSource{ready: true}))
	time.Sleep(60 * time.Millisecond)
	if sink.Count() != before {
		t.Error("stopped sampler accepted new inputs")
	}
}

func TestSampler_UploadFailureIsDroppedAndSamplingContinues(t *testing.T) {
	src := &fakeSource{ready: true}
	up := &fakeUploader{err: errors.New("bucket unavailable")}
	sink := &fakeSink{}
	s := New(up, sink, testOptions())
	defer s.Stop()

	s.Update(completeInputs(src))
	time.Sleep(80 * time.Millisecond)
	if sink.Count() != 0 {
		t.Fatalf("no rows should be recorded when uploads fail, got %d", sink.Count())
	}

	// Uploads recover; the next ticks record normally with no replay of the
	// missed captures.
	up.mu.Lock()
	up.err = nil
	up.mu.Unlock()
	if !waitFor(t, time.Second, func() bool { return sink.Count() >= 1 }) {
		t.Fatal("expected sampling to continue after upload failures")
	}
}

func TestSampler_IdenticalTimestampsProduceDistinctPaths(t *testing.T) {
	src := &fakeSource{ready: true}
	up := &fakeUploader{}
	sink := &fakeSink{}
	opts := testOptions()
	opts.Interval = time.Hour // only the immediate capture fires on its own
	s := New(up, sink, opts)
	defer s.Stop()

	frozen := time.Date(2026, 8, 21, 10, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return frozen }

	in := completeInputs(src)
	s.Update(in)
	if !waitFor(t, time.Second, func() bool { return len(up.Paths()) >= 1 }) {
		t.Fatal("expected the immediate capture")
	}

	// Manual invocations at the exact same clock reading.
	s.CaptureNow()
	s.CaptureNow()

	paths := up.Paths()
	if len(paths) != 3 {
		t.Fatalf("expected 3 uploads, got %d", len(paths))
	}

	seen := make(map[string]bool)
	for _, p := range paths {
		if seen[p] {
			t.Fatalf("storage path collision: %s", p)
		}
		seen[p] = true

		prefix := fmt.Sprintf("%s/%s/", in.EmployeeID, in.AttendanceID)
		if !strings.HasPrefix(p, prefix) {
			t.Errorf("path %s not namespaced under %s", p, prefix)
		}
		if strings.ContainsAny(p[len(prefix):len(p)-len(".jpg")], ":.") {
			t.Errorf("path %s contains unsafe timestamp characters", p)
		}
	}
}

func TestSampler_PathTimestampIsFilesystemSafe(t *testing.T) {
	s := New(&fakeUploader{}, &fakeSink{}, testOptions())
	in := completeInputs(&fakeSource{ready: true})

	at := time.Date(2026, 1, 2, 3, 4, 5, 678900000, time.UTC)
	path := s.nextPathLocked(in, at)

	want := fmt.Sprintf("%s/%s/2026-01-02T03-04-05-6789Z.jpg", in.EmployeeID, in.AttendanceID)
	if path != want {
		t.Errorf("path mismatch:\n got %s\nwant %s", path, want)
	}
}

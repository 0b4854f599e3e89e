package sampler

import (
	"image"

	"github.com/vova616/screenshot"
)

// ScreenSource grabs frames from the primary display. It satisfies
// FrameSource for the desktop agent.
type ScreenSource struct {
	closed bool
}

func NewScreenSource() *ScreenSource {
	return &ScreenSource{}
}

// Ready reports whether the display currently has non-zero dimensions.
func (s *ScreenSource) Ready() bool {
	if s.closed {
		return false
	}
	rect, err := screenshot.ScreenRect()
	if err != nil {
		return false
	}
	return rect.Dx() > 0 && rect.Dy() > 0
}

func (s *ScreenSource) Frame() (image.Image, error) {
	return screenshot.CaptureScreen()
}

// Close marks the source detached. The display itself needs no teardown.
func (s *ScreenSource) Close() error {
	s.closed = true
	return nil
}

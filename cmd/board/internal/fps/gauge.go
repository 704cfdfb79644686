// Package fps is the board's frame-rate indicator. It counts render frames,
// recomputes an integer frames-per-second figure once per second, and maps it
// to a three-tier status. The widget is self-contained: consumers call
// FrameTick and read FPS/Status; the sampling and the tier thresholds are not
// tunable.
package fps

import (
	"math"
	"sync"
	"time"
)

const (
	StatusPoor    = "poor"
	StatusReduced = "reduced"
	StatusOptimal = "optimal"

	reducedAt = 20
	optimalAt = 50
)

// Clock is injectable for deterministic tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type Gauge struct {
	mu          sync.Mutex
	clock       Clock
	windowStart time.Time
	frames      int
	fps         int
}

func NewGauge(clock Clock) *Gauge {
	return &Gauge{clock: clock}
}

// FrameTick records one render frame. Once at least a second of frames has
// accumulated, the FPS figure is recomputed and the window restarts.
func (g *Gauge) FrameTick() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if g.windowStart.IsZero() {
		g.windowStart = now
	}
	g.frames++

	elapsed := now.Sub(g.windowStart)
	if elapsed >= time.Second {
		g.fps = int(math.Round(float64(g.frames) * float64(time.Second) / float64(elapsed)))
		g.frames = 0
		g.windowStart = now
	}
}

// FPS returns the most recently computed figure. Zero until the first full
// sampling window has elapsed.
func (g *Gauge) FPS() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fps
}

// Status returns the tier for the current FPS figure.
func (g *Gauge) Status() string {
	return StatusFor(g.FPS())
}

// StatusFor maps a frames-per-second figure to its tier.
func StatusFor(fps int) string {
	switch {
	case fps < reducedAt:
		return StatusPoor
	case fps < optimalAt:
		return StatusReduced
	default:
		return StatusOptimal
	}
}

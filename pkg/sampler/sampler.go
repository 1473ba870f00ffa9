package sampler

import (
	"sync"
	"time"

	"github.com/tauraamui/scandaemon/pkg/log"
	"github.com/tauraamui/scandaemon/pkg/metrics"
	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
)

const DefaultWindow = 500 * time.Millisecond

// Analyzer receives admitted frames. Once Analyze is called the
// analyzer owns the frame and must release it exactly once.
type Analyzer interface {
	Analyze(videoframe.Frame)
}

type AnalyzerFunc func(videoframe.Frame)

func (f AnalyzerFunc) Analyze(frame videoframe.Frame) { f(frame) }

// Discard releases every frame handed to it.
var Discard Analyzer = AnalyzerFunc(func(f videoframe.Frame) { release(f) })

type Decision int

const (
	Admitted Decision = iota
	Rejected
	Dropped
	Closed
)

func (d Decision) String() string {
	switch d {
	case Admitted:
		return "admitted"
	case Rejected:
		return "rejected"
	case Dropped:
		return "dropped"
	case Closed:
		return "closed"
	}
	return "unknown"
}

type Stats struct {
	Admitted uint64
	Rejected uint64
	Dropped  uint64
	Closed   uint64
}

// Sampler forwards at most one frame per window to its analyzer and
// releases everything else before Offer returns.
type Sampler struct {
	label     string
	window    time.Duration
	analyzer  Analyzer
	mu        sync.Mutex
	forwarded bool
	last      time.Time
	closed    bool
	stats     Stats
}

func New(window time.Duration, analyzer Analyzer) *Sampler {
	return NewLabelled("", window, analyzer)
}

// NewLabelled is New with a label used in logs and metrics, usually
// the title of the camera the frames come from.
func NewLabelled(label string, window time.Duration, analyzer Analyzer) *Sampler {
	if window < 0 {
		window = 0
	}
	if analyzer == nil {
		analyzer = Discard
	}
	return &Sampler{label: label, window: window, analyzer: analyzer}
}

func (s *Sampler) Window() time.Duration { return s.window }

func (s *Sampler) Offer(frame videoframe.Frame) Decision {
	d := s.decide(frame)
	metrics.FramesSampledTotal.WithLabelValues(s.label, d.String()).Inc()
	if d == Admitted {
		s.analyzer.Analyze(frame)
		return d
	}
	release(frame)
	return d
}

func (s *Sampler) decide(frame videoframe.Frame) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.stats.Closed++
		return Closed
	}

	if videoframe.IsNil(frame) || frame.IsEmpty() {
		log.Debug("Dropping empty frame from [%s]", s.label)
		s.stats.Dropped++
		return Dropped
	}

	ts := frame.Timestamp()
	if s.forwarded && ts.Sub(s.last) < s.window {
		s.stats.Rejected++
		return Rejected
	}

	s.forwarded = true
	s.last = ts
	s.stats.Admitted++
	return Admitted
}

// Teardown stops the sampler from admitting anything else. The sampler
// never holds a frame between calls to Offer, so there is nothing left
// to release here, frames offered afterwards are released immediately.
func (s *Sampler) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Sampler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func release(f videoframe.Frame) {
	if !videoframe.Release(f) {
		metrics.FrameReleaseFailuresTotal.Inc()
	}
}

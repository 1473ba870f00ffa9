package sampler_test

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tacusci/logging/v2"
	"github.com/tauraamui/scandaemon/pkg/log"
	"github.com/tauraamui/scandaemon/pkg/sampler"
	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
)

var baseTime = time.Date(2021, 10, 27, 20, 12, 45, 0, time.UTC)

type mockFrame struct {
	mu         sync.Mutex
	ts         time.Time
	empty      bool
	closeCount int
	onClose    func()
}

func newFrame(offsetMillis int) *mockFrame {
	return &mockFrame{ts: baseTime.Add(time.Duration(offsetMillis) * time.Millisecond)}
}

func (m *mockFrame) DataRef() interface{} { return nil }
func (m *mockFrame) Dimensions() videoframe.Dimensions { return videoframe.Dimensions{W: 1280, H: 720} }
func (m *mockFrame) Timestamp() time.Time { return m.ts }
func (m *mockFrame) Rotation() int { return 0 }
func (m *mockFrame) IsEmpty() bool { return m.empty }
func (m *mockFrame) Close() {
	m.mu.Lock()
	m.closeCount++
	m.mu.Unlock()
	if m.onClose != nil {
		m.onClose()
	}
}

func (m *mockFrame) closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCount
}

// holdingAnalyzer keeps every admitted frame until released, acting
// like a slow recognizer whose completion has not fired yet.
type holdingAnalyzer struct {
	mu     sync.Mutex
	frames []videoframe.Frame
}

func (h *holdingAnalyzer) Analyze(f videoframe.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = append(h.frames, f)
}

func (h *holdingAnalyzer) held() []videoframe.Frame {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]videoframe.Frame{}, h.frames...)
}

func (h *holdingAnalyzer) releaseAll() {
	for _, f := range h.held() {
		f.Close()
	}
}

type SamplerTestSuite struct {
	suite.Suite
	errorLogs      []string
	resetErrorLogs func()
}

func (suite *SamplerTestSuite) SetupSuite() {
	logging.CurrentLoggingLevel = logging.SilentLevel
}

func (suite *SamplerTestSuite) TearDownSuite() {
	logging.CurrentLoggingLevel = logging.WarnLevel
}

func (suite *SamplerTestSuite) SetupTest() {
	logErrorRef := log.Error
	log.Error = func(format string, a ...interface{}) {
		suite.errorLogs = append(suite.errorLogs, fmt.Sprintf(format, a...))
	}
	suite.resetErrorLogs = func() { log.Error = logErrorRef }
}

func (suite *SamplerTestSuite) TearDownTest() {
	suite.errorLogs = nil
	suite.resetErrorLogs()
}

func TestSamplerTestSuite(t *testing.T) {
	suite.Run(t, &SamplerTestSuite{})
}

func (suite *SamplerTestSuite) TestNewSamplerDefaults() {
	is := is.New(suite.T())
	s := sampler.New(sampler.DefaultWindow, nil)
	is.True(s != nil)
	is.Equal(s.Window(), 500*time.Millisecond)
	is.Equal(sampler.New(-time.Second, nil).Window(), time.Duration(0))
}

func (suite *SamplerTestSuite) TestAdmitsAndRejectsAgainstWindow() {
	is := is.New(suite.T())
	analyzer := &holdingAnalyzer{}
	s := sampler.New(500*time.Millisecond, analyzer)

	offsets := []int{0, 100, 300, 500, 600}
	expected := []sampler.Decision{
		sampler.Admitted, sampler.Rejected, sampler.Rejected, sampler.Admitted, sampler.Rejected,
	}

	frames := []*mockFrame{}
	for i, offset := range offsets {
		f := newFrame(offset)
		frames = append(frames, f)
		is.Equal(s.Offer(f), expected[i])
	}

	held := analyzer.held()
	is.Equal(len(held), 2)
	is.Equal(held[0], videoframe.Frame(frames[0]))
	is.Equal(held[1], videoframe.Frame(frames[3]))

	// rejected frames are released synchronously, admitted ones are not
	is.Equal(frames[0].closes(), 0)
	is.Equal(frames[1].closes(), 1)
	is.Equal(frames[2].closes(), 1)
	is.Equal(frames[3].closes(), 0)
	is.Equal(frames[4].closes(), 1)

	is.Equal(s.Stats(), sampler.Stats{Admitted: 2, Rejected: 3})
}

func (suite *SamplerTestSuite) TestForwardedFramesAreAtLeastOneWindowApart() {
	window := 500 * time.Millisecond
	analyzer := &holdingAnalyzer{}
	s := sampler.New(window, analyzer)

	// roughly 30fps with a little jitter
	offset := 0
	for i := 0; i < 600; i++ {
		offset += 30 + (i*7)%9
		s.Offer(newFrame(offset))
	}

	held := analyzer.held()
	require.Greater(suite.T(), len(held), 1)
	for i := 1; i < len(held); i++ {
		assert.GreaterOrEqual(suite.T(), held[i].Timestamp().Sub(held[i-1].Timestamp()), window)
	}
}

func (suite *SamplerTestSuite) TestEmptyFrameIsReleasedAndDoesNotMoveWindow() {
	is := is.New(suite.T())
	analyzer := &holdingAnalyzer{}
	s := sampler.New(500*time.Millisecond, analyzer)

	first := newFrame(0)
	is.Equal(s.Offer(first), sampler.Admitted)

	empty := newFrame(500)
	empty.empty = true
	is.Equal(s.Offer(empty), sampler.Dropped)
	is.Equal(empty.closes(), 1)

	// had the empty frame moved the window this would be rejected
	is.Equal(s.Offer(newFrame(600)), sampler.Admitted)
	is.Equal(s.Stats(), sampler.Stats{Admitted: 2, Dropped: 1})
}

func (suite *SamplerTestSuite) TestEmptyFirstFrameDoesNotCountAsForwarded() {
	is := is.New(suite.T())
	s := sampler.New(500*time.Millisecond, &holdingAnalyzer{})

	empty := newFrame(0)
	empty.empty = true
	is.Equal(s.Offer(empty), sampler.Dropped)
	is.Equal(s.Offer(newFrame(100)), sampler.Admitted)
	is.Equal(s.Offer(nil), sampler.Dropped)
}

func (suite *SamplerTestSuite) TestNilPointerFrameIsDroppedWithoutPanic() {
	is := is.New(suite.T())
	s := sampler.New(500*time.Millisecond, &holdingAnalyzer{})

	var missing *mockFrame
	is.Equal(s.Offer(missing), sampler.Dropped)
	is.Equal(s.Offer(newFrame(0)), sampler.Admitted)
	is.Equal(s.Stats(), sampler.Stats{Admitted: 1, Dropped: 1})
	is.Equal(len(suite.errorLogs), 0)
}

func (suite *SamplerTestSuite) TestDoesNotBlockOnPendingAnalysis() {
	is := is.New(suite.T())
	analyzer := &holdingAnalyzer{}
	s := sampler.New(500*time.Millisecond, analyzer)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			s.Offer(newFrame(i * 250))
		}
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		suite.T().Fatal("sampler blocked on pending analysis")
	}

	held := analyzer.held()
	is.Equal(len(held), 5)
	for i, f := range held {
		is.Equal(f.Timestamp(), baseTime.Add(time.Duration(i*500)*time.Millisecond))
	}
}

func (suite *SamplerTestSuite) TestEveryFrameReleasedExactlyOnceAfterTeardown() {
	is := is.New(suite.T())
	analyzer := &holdingAnalyzer{}
	s := sampler.New(500*time.Millisecond, analyzer)

	frames := []*mockFrame{}
	for i := 0; i < 40; i++ {
		f := newFrame(i * 120)
		frames = append(frames, f)
		s.Offer(f)
	}
	s.Teardown()

	late := newFrame(100000)
	is.Equal(s.Offer(late), sampler.Closed)
	is.Equal(late.closes(), 1)

	analyzer.releaseAll()

	stats := s.Stats()
	total := 0
	for _, f := range frames {
		is.Equal(f.closes(), 1)
		total += f.closes()
	}
	is.Equal(uint64(total), stats.Admitted+stats.Rejected)
	is.Equal(int(stats.Admitted), len(analyzer.held()))
}

func (suite *SamplerTestSuite) TestReleasePanicIsLoggedNotPropagated() {
	is := is.New(suite.T())
	s := sampler.New(500*time.Millisecond, &holdingAnalyzer{})
	is.Equal(s.Offer(newFrame(0)), sampler.Admitted)

	f := newFrame(10)
	f.onClose = func() { panic("double free") }
	is.Equal(s.Offer(f), sampler.Rejected)
	is.Equal(f.closes(), 1)
	is.Equal(suite.errorLogs, []string{"Unable to release frame: double free"})
}

func (suite *SamplerTestSuite) TestConcurrentOffersKeepWindowInvariant() {
	window := 500 * time.Millisecond
	analyzer := &holdingAnalyzer{}
	s := sampler.New(window, analyzer)

	wg := sync.WaitGroup{}
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s.Offer(newFrame(i*40 + g*5))
			}
		}(g)
	}
	wg.Wait()

	held := analyzer.held()
	require.NotEmpty(suite.T(), held)
	sort.Slice(held, func(i, j int) bool { return held[i].Timestamp().Before(held[j].Timestamp()) })
	for i := 1; i < len(held); i++ {
		assert.GreaterOrEqual(suite.T(), held[i].Timestamp().Sub(held[i-1].Timestamp()), window)
	}

	stats := s.Stats()
	assert.Equal(suite.T(), uint64(8*200), stats.Admitted+stats.Rejected)
}

func TestDiscardAnalyzerReleasesAdmittedFrames(t *testing.T) {
	is := is.New(t)
	s := sampler.New(time.Second, nil)
	f := newFrame(0)
	is.Equal(s.Offer(f), sampler.Admitted)
	is.Equal(f.closes(), 1)
}

func TestDecisionString(t *testing.T) {
	is := is.New(t)
	is.Equal(sampler.Admitted.String(), "admitted")
	is.Equal(sampler.Rejected.String(), "rejected")
	is.Equal(sampler.Dropped.String(), "dropped")
	is.Equal(sampler.Closed.String(), "closed")
	is.Equal(sampler.Decision(42).String(), "unknown")
}

package mocks

import (
	"sync"
	"time"

	"github.com/tauraamui/scandaemon/pkg/camera"
	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

type Options struct {
	UUID     string
	Title    string
	IsOpen   bool
	Settings camera.Settings
	// ReadFunc replaces the default frame source, which hands out a
	// new frame every call stamped 100ms after the previous one.
	ReadFunc func() (videoframe.Frame, error)
}

func NewCamConn(opts Options) *CamConn {
	return &CamConn{
		opts:   opts,
		isOpen: opts.IsOpen,
		base:   time.Date(2021, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

// CamConn is a camera connection which tracks every frame it hands out.
type CamConn struct {
	opts      Options
	mu        sync.Mutex
	isOpen    bool
	isClosing bool
	base      time.Time
	reads     int
	frames    []*Frame
}

func (m *CamConn) UUID() string {
	return m.opts.UUID
}

func (m *CamConn) Title() string {
	return m.opts.Title
}

func (m *CamConn) Settings() camera.Settings {
	return m.opts.Settings
}

func (m *CamConn) Read() (videoframe.Frame, error) {
	if m.opts.ReadFunc != nil {
		m.mu.Lock()
		m.reads++
		m.mu.Unlock()
		return m.opts.ReadFunc()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isOpen {
		return nil, xerror.New("connection is closed")
	}
	f := NewFrame(m.base.Add(time.Duration(m.reads) * 100 * time.Millisecond))
	m.reads++
	m.frames = append(m.frames, f)
	return f, nil
}

func (m *CamConn) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isOpen
}

func (m *CamConn) IsClosing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isClosing
}

func (m *CamConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isClosing = true
	m.isOpen = false
	return nil
}

func (m *CamConn) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Frames returns every frame handed out by the default frame source.
func (m *CamConn) Frames() []*Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	frames := make([]*Frame, len(m.frames))
	copy(frames, m.frames)
	return frames
}

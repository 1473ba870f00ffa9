package mocks

import (
	"sync"
	"time"

	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
)

type Frame struct {
	mu         sync.Mutex
	ts         time.Time
	rotation   int
	empty      bool
	data       interface{}
	closeCount int
	OnClose    func()
}

func NewFrame(ts time.Time) *Frame {
	return &Frame{ts: ts, data: []byte{0x0A}}
}

func NewEmptyFrame(ts time.Time) *Frame {
	return &Frame{ts: ts, empty: true}
}

// NewFrameWithData is a frame whose DataRef returns data, recognizers
// under test can use it to carry a payload.
func NewFrameWithData(ts time.Time, data interface{}) *Frame {
	return &Frame{ts: ts, data: data}
}

func (f *Frame) DataRef() interface{} { return f.data }
func (f *Frame) Dimensions() videoframe.Dimensions { return videoframe.Dimensions{W: 640, H: 480} }
func (f *Frame) Timestamp() time.Time { return f.ts }
func (f *Frame) Rotation() int { return f.rotation }
func (f *Frame) IsEmpty() bool { return f.empty }

func (f *Frame) Close() {
	f.mu.Lock()
	f.closeCount++
	onClose := f.OnClose
	f.mu.Unlock()
	if onClose != nil {
		onClose()
	}
}

func (f *Frame) CloseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCount
}

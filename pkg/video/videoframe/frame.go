package videoframe

import (
	"reflect"
	"time"

	"github.com/tauraamui/scandaemon/pkg/log"
)

type Dimensions struct {
	W, H int
}

// Frame is a handle to a single captured image. Whoever holds a frame
// is responsible for calling Close exactly once.
type Frame interface {
	DataRef() interface{}
	Dimensions() Dimensions
	Timestamp() time.Time
	Rotation() int
	IsEmpty() bool
	Close()
}

// Stamper is implemented by frames which accept capture metadata
// after the backend has filled their payload.
type Stamper interface {
	Stamp(ts time.Time, rotation int)
}

// IsNil reports whether f is nil, including a nil pointer stored in
// the interface.
func IsNil(f Frame) bool {
	if f == nil {
		return true
	}
	v := reflect.ValueOf(f)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Release closes the frame, swallowing and logging any panic raised
// by the underlying backend. Reports whether the close completed.
func Release(f Frame) (ok bool) {
	if IsNil(f) {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("Unable to release frame: %v", r)
			ok = false
		}
	}()
	f.Close()
	return true
}

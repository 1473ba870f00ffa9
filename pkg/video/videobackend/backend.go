package videobackend

import (
	"context"

	"github.com/spf13/afero"
	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
)

var fs = afero.NewOsFs()

type Connection interface {
	UUID() string
	Read(videoframe.Frame) error
	IsOpen() bool
	Close() error
}

// SnapshotWriter persists a single frame as a still image.
type SnapshotWriter interface {
	Write(path string, frame videoframe.Frame) error
}

type Backend interface {
	Connect(context.Context, string) (Connection, error)
	NewFrame() videoframe.Frame
	NewSnapshotWriter() SnapshotWriter
}

func Default() Backend {
	return OpenCV()
}

func OpenCV() Backend {
	return &openCVBackend{}
}

func Mock() Backend {
	return &mockVideoBackend{}
}

func Resolve(t string) Backend {
	switch t {
	case "mock":
		return Mock()
	default:
		return Default()
	}
}

package scan

import (
	"context"

	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
)

// Recognizer decodes the symbols visible in a frame. It must not
// release the frame, that stays the caller's responsibility.
type Recognizer interface {
	Recognize(context.Context, videoframe.Frame) ([]Barcode, error)
	Close() error
}

func DefaultRecognizer() Recognizer {
	return OpenCV()
}

func ResolveRecognizer(t string) Recognizer {
	switch t {
	case "zxing":
		return ZXing()
	default:
		return DefaultRecognizer()
	}
}

package scan

import (
	"context"
	"sync"

	"github.com/tauraamui/scandaemon/pkg/video/videobackend"
	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

const qrCodeFormat = "QR_CODE"

// openCVRecognizer uses OpenCV's QR detector. A single detector is
// shared across frames, access to it is serialised.
type openCVRecognizer struct {
	mu       sync.Mutex
	detector *gocv.QRCodeDetector
}

func OpenCV() Recognizer {
	return &openCVRecognizer{}
}

func (r *openCVRecognizer) Recognize(ctx context.Context, frame videoframe.Frame) ([]Barcode, error) {
	mat, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return nil, xerror.New("must pass OpenCV frame to OpenCV recognizer")
	}
	if mat.Empty() {
		return nil, xerror.New("cannot recognize empty frame")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	upright, err := videobackend.UprightMat(*mat, frame.Rotation())
	if err != nil {
		return nil, err
	}
	defer upright.Close()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.detector == nil {
		d := gocv.NewQRCodeDetector()
		r.detector = &d
	}

	points := gocv.NewMat()
	defer points.Close()
	straight := gocv.NewMat()
	defer straight.Close()

	text := r.detector.DetectAndDecode(upright, &points, &straight)
	if len(text) == 0 {
		return []Barcode{}, nil
	}
	return []Barcode{New(qrCodeFormat, text)}, nil
}

func (r *openCVRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.detector == nil {
		return nil
	}
	err := r.detector.Close()
	r.detector = nil
	return err
}

package state

import (
	"github.com/tauraamui/scandaemon/pkg/scan"
	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
)

type Event interface {
	Name() string
}

type RequestPermission struct{}

func (RequestPermission) Name() string { return "request_permission" }

type PreviewReady struct {
	Preview Preview
}

func (PreviewReady) Name() string { return "preview_ready" }

type TakePicture struct{}

func (TakePicture) Name() string { return "take_picture" }

// PictureTaken carries a captured frame. The handler consuming the
// event owns the frame, if the event is discarded the frame is released.
type PictureTaken struct {
	Frame videoframe.Frame
}

func (PictureTaken) Name() string { return "picture_taken" }

type BarcodeScanned struct {
	Barcodes []scan.Barcode
}

func (BarcodeScanned) Name() string { return "barcode_scanned" }

func discard(e Event) {
	if pt, ok := e.(PictureTaken); ok {
		videoframe.Release(pt.Frame)
	}
}

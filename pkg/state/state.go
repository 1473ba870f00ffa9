package state

import (
	"time"

	"github.com/tauraamui/scandaemon/pkg/scan"
	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
)

type Preview struct {
	CameraTitle string `json:"camera_title"`
	CameraUUID  string `json:"camera_uuid"`
}

type Picture struct {
	Path       string                `json:"path"`
	Dimensions videoframe.Dimensions `json:"dimensions"`
	TakenAt    time.Time             `json:"taken_at"`
}

// State is what a client of a scanning session renders.
type State struct {
	IsLoading    bool           `json:"is_loading"`
	PreviewReady bool           `json:"preview_ready"`
	Preview      *Preview       `json:"preview,omitempty"`
	ImageTaken   *Picture       `json:"image_taken,omitempty"`
	Barcodes     []scan.Barcode `json:"barcodes"`
}

// Reduce applies the state change carried by an event. Events with
// only side effects leave the state untouched.
func Reduce(s State, e Event) State {
	switch evt := e.(type) {
	case PreviewReady:
		s.PreviewReady = true
		p := evt.Preview
		s.Preview = &p
	case PictureTaken:
		s.IsLoading = true
	case BarcodeScanned:
		s.Barcodes = evt.Barcodes
	}
	return s
}

package videobackend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tauraamui/scandaemon/pkg/rtsp"
	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

type openCVFrame struct {
	isClosed  bool
	mat       gocv.Mat
	timestamp time.Time
	rotation  int
}

func (frame *openCVFrame) DataRef() interface{} {
	return &frame.mat
}

func (frame *openCVFrame) Dimensions() videoframe.Dimensions {
	return videoframe.Dimensions{W: frame.mat.Cols(), H: frame.mat.Rows()}
}

func (frame *openCVFrame) Timestamp() time.Time { return frame.timestamp }

func (frame *openCVFrame) Rotation() int { return frame.rotation }

func (frame *openCVFrame) Stamp(ts time.Time, rotation int) {
	frame.timestamp = ts
	frame.rotation = rotation
}

func (frame *openCVFrame) IsEmpty() bool {
	return frame.isClosed || frame.mat.Empty()
}

func (frame *openCVFrame) Close() {
	if !frame.isClosed {
		frame.mat.Close()
		frame.isClosed = true
	}
}

type openCVBackend struct{}

func (b *openCVBackend) Connect(cancel context.Context, addr string) (Connection, error) {
	if err := probeStream(cancel, addr); err != nil {
		return nil, err
	}
	conn := openCVConnection{}
	err := conn.connect(cancel, addr)
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (b *openCVBackend) NewFrame() videoframe.Frame {
	return &openCVFrame{mat: gocv.NewMat()}
}

func (b *openCVBackend) NewSnapshotWriter() SnapshotWriter {
	return openCVSnapshotWriter{}
}

type openCVSnapshotWriter struct{}

func (w openCVSnapshotWriter) Write(path string, frame videoframe.Frame) error {
	mat, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return xerror.New("must pass OpenCV frame to OpenCV snapshot writer")
	}
	if mat.Empty() {
		return xerror.New("cannot write empty frame")
	}

	if err := ensureDirectoryPathExists(filepath.Dir(path)); err != nil {
		return err
	}

	upright, err := UprightMat(*mat, frame.Rotation())
	if err != nil {
		return err
	}
	defer upright.Close()

	if !writeImage(path, upright) {
		return xerror.Errorf("unable to write snapshot to: %s", path)
	}
	return nil
}

// UprightMat returns a copy of the mat rotated by the given clockwise
// degrees. The caller owns the returned mat.
func UprightMat(src gocv.Mat, degrees int) (gocv.Mat, error) {
	dst := gocv.NewMat()
	switch degrees {
	case 0:
		src.CopyTo(&dst)
	case 90:
		gocv.Rotate(src, &dst, gocv.Rotate90Clockwise)
	case 180:
		gocv.Rotate(src, &dst, gocv.Rotate180Clockwise)
	case 270:
		gocv.Rotate(src, &dst, gocv.Rotate90CounterClockwise)
	default:
		dst.Close()
		return gocv.Mat{}, xerror.Errorf("unsupported frame rotation: %d", degrees)
	}
	return dst, nil
}

var writeImage = func(path string, mat gocv.Mat) bool {
	return gocv.IMWrite(path, mat)
}

func ensureDirectoryPathExists(path string) error {
	err := fs.MkdirAll(path, os.ModePerm|os.ModeDir)
	if err == nil || os.IsExist(err) {
		return nil
	}
	return err
}

type openCVConnection struct {
	uuid   string
	mu     sync.Mutex
	isOpen bool
	vc     *gocv.VideoCapture
}

func (c *openCVConnection) connect(cancel context.Context, addr string) error {
	connAndError := make(chan openVideoStreamResult)
	go openVideoStream(addr, connAndError)
	select {
	case r := <-connAndError:
		if r.err != nil {
			return r.err
		}
		c.vc = r.vc
		c.isOpen = true
		return nil
	case <-cancel.Done():
		return xerror.New("connection cancelled")
	}
}

type openVideoStreamResult struct {
	vc  *gocv.VideoCapture
	err error
}

func openVideoStream(addr string, d chan openVideoStreamResult) {
	vc, err := openVideoCapture(addr)
	result := openVideoStreamResult{vc: vc, err: err}
	select {
	case d <- result:
	case <-time.After(time.Minute):
		// nobody is waiting on us any more, don't leak the capture
		if vc != nil {
			vc.Close()
		}
	}
}

// probeStream fails fast on network streams which do not answer.
var probeStream = func(ctx context.Context, addr string) error {
	if !strings.HasPrefix(strings.ToLower(addr), "rtsp://") {
		return nil
	}
	client, err := rtsp.NewClient(addr)
	if err != nil {
		return err
	}
	return client.Probe(ctx)
}

var openVideoCapture = func(addr string) (*gocv.VideoCapture, error) {
	return gocv.OpenVideoCapture(addr)
}

var readFromVideoConnection = func(vc *gocv.VideoCapture, mat *gocv.Mat) bool {
	if vc.IsOpened() {
		return vc.Read(mat)
	}
	return false
}

func (c *openCVConnection) UUID() string {
	if len(c.uuid) == 0 {
		c.uuid = uuid.NewString()
	}
	return c.uuid
}

func (c *openCVConnection) Read(frame videoframe.Frame) error {
	mat, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return xerror.New("must pass OpenCV frame to OpenCV connection read")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ok = readFromVideoConnection(c.vc, mat)
	if !ok {
		return xerror.New("unable to read from video connection")
	}
	return nil
}

func (c *openCVConnection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isOpen {
		return c.vc.IsOpened()
	}
	return false
}

func (c *openCVConnection) Close() error {
	c.mu.Lock()
	c.isOpen = false
	c.mu.Unlock()
	return c.vc.Close()
}

package scanner

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/tauraamui/scandaemon/pkg/camera"
	"github.com/tauraamui/scandaemon/pkg/database/models"
	"github.com/tauraamui/scandaemon/pkg/log"
	"github.com/tauraamui/scandaemon/pkg/metrics"
	"github.com/tauraamui/scandaemon/pkg/sampler"
	"github.com/tauraamui/scandaemon/pkg/scan"
	"github.com/tauraamui/scandaemon/pkg/scanner/process"
	"github.com/tauraamui/scandaemon/pkg/state"
	"github.com/tauraamui/scandaemon/pkg/video/videobackend"
	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

const snapshotTimeFormat = "2006-01-02_15.04.05.000"

// ScanHistory stores barcodes the first time a session sees them.
type ScanHistory interface {
	Create(*models.Scan) error
	ListByCamera(title string, limit int) ([]models.Scan, error)
}

type SessionOptions struct {
	Recognizer scan.Recognizer
	Snapshots  videobackend.SnapshotWriter
	History    ScanHistory
}

// Session ties a single camera to its scanning pipeline and to the
// state clients observe.
type Session struct {
	cam        camera.Connection
	store      *state.Store
	sampler    *sampler.Sampler
	analyzer   *scan.Analyzer
	recognizer scan.Recognizer
	snapshots  videobackend.SnapshotWriter
	history    ScanHistory
	stream     process.Process

	seenMu sync.Mutex
	seen   map[string]struct{}

	cancel    context.CancelFunc
	storeDone chan struct{}
	pending   sync.WaitGroup
}

func NewSession(cam camera.Connection, opts SessionOptions) *Session {
	sett := cam.Settings()
	window := sett.SamplingWindow
	if window <= 0 {
		window = sampler.DefaultWindow
	}
	recognizer := opts.Recognizer
	if recognizer == nil {
		recognizer = scan.ResolveRecognizer(sett.Recognizer)
	}

	s := &Session{
		cam:        cam,
		store:      state.NewStore(cam.Title(), state.State{Barcodes: []scan.Barcode{}}),
		recognizer: recognizer,
		snapshots:  opts.Snapshots,
		history:    opts.History,
		seen:       map[string]struct{}{},
	}
	s.analyzer = scan.NewAnalyzer(cam.Title(), recognizer, s.onBarcodes)
	s.sampler = sampler.NewLabelled(cam.Title(), window, s.analyzer)
	s.stream = process.NewStreamProcess(cam, s.sampler, s.analyzer)
	s.store.Handle(s.handle)
	return s
}

func (s *Session) Title() string { return s.cam.Title() }
func (s *Session) UUID() string { return s.cam.UUID() }

func (s *Session) Sampler() *sampler.Sampler { return s.sampler }

func (s *Session) State() state.State { return s.store.State() }

// Subscribe streams the session state, the first subscriber triggers
// the permission request that opens the preview.
func (s *Session) Subscribe() (<-chan state.State, func()) {
	return s.store.Subscribe()
}

func (s *Session) TakePicture() bool {
	return s.store.Send(state.TakePicture{})
}

func (s *Session) Scans(limit int) ([]models.Scan, error) {
	if s.history == nil {
		return []models.Scan{}, nil
	}
	return s.history.ListByCamera(s.cam.Title(), limit)
}

func (s *Session) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.storeDone = make(chan struct{})
	go func() {
		defer close(s.storeDone)
		s.store.Run(ctx) //nolint
	}()
	s.stream.Setup().Start()
	metrics.ActiveSessions.Inc()
}

// Stop halts the stream first so no more frames are admitted, waits for
// in-flight recognition, then stops the event loop and any snapshot
// still being written.
func (s *Session) Stop() {
	s.stream.Stop()
	s.stream.Wait()
	s.analyzer.Stop()

	if s.cancel != nil {
		s.cancel()
		<-s.storeDone
		metrics.ActiveSessions.Dec()
	}
	s.pending.Wait()

	if err := s.recognizer.Close(); err != nil {
		log.Error("Unable to close recognizer for camera [%s]: %v", s.cam.Title(), err)
	}
}

func (s *Session) onBarcodes(barcodes []scan.Barcode) {
	s.store.Send(state.BarcodeScanned{Barcodes: barcodes})
}

func (s *Session) handle(e state.Event, send func(state.Event)) {
	switch evt := e.(type) {
	case state.RequestPermission:
		send(state.PreviewReady{Preview: state.Preview{
			CameraTitle: s.cam.Title(),
			CameraUUID:  s.cam.UUID(),
		}})
	case state.TakePicture:
		s.takePicture(send)
	case state.PictureTaken:
		s.savePicture(evt.Frame)
	case state.BarcodeScanned:
		s.recordFirstSeen(evt.Barcodes)
	}
}

func (s *Session) takePicture(send func(state.Event)) {
	frame, err := s.cam.Read()
	if err != nil {
		metrics.SnapshotsTakenTotal.WithLabelValues(s.cam.Title(), "failed").Inc()
		log.Error("Unable to take picture from camera [%s]: %v", s.cam.Title(), err)
		return
	}
	send(state.PictureTaken{Frame: frame})
}

func (s *Session) savePicture(frame videoframe.Frame) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer videoframe.Release(frame)

		takenAt := frame.Timestamp()
		if takenAt.IsZero() {
			takenAt = time.Now()
		}
		path := filepath.Join(
			s.cam.Settings().SnapshotLocation,
			fmt.Sprintf("%s.jpg", takenAt.Format(snapshotTimeFormat)),
		)

		var err error
		if s.snapshots == nil {
			err = xerror.New("no snapshot writer configured")
		} else {
			err = s.snapshots.Write(path, frame)
		}

		if err != nil {
			metrics.SnapshotsTakenTotal.WithLabelValues(s.cam.Title(), "failed").Inc()
			log.Error("Unable to save picture from camera [%s]: %v", s.cam.Title(), err)
			s.store.Update(func(st state.State) state.State {
				st.IsLoading = false
				return st
			})
			return
		}

		metrics.SnapshotsTakenTotal.WithLabelValues(s.cam.Title(), "saved").Inc()
		log.Info("Saved picture from camera [%s] to %s", s.cam.Title(), path)
		picture := state.Picture{Path: path, Dimensions: frame.Dimensions(), TakenAt: takenAt}
		s.store.Update(func(st state.State) state.State {
			st.ImageTaken = &picture
			st.IsLoading = false
			return st
		})
	}()
}

func (s *Session) recordFirstSeen(barcodes []scan.Barcode) {
	for _, b := range barcodes {
		key := b.Format + ":" + b.RawValue
		s.seenMu.Lock()
		_, seen := s.seen[key]
		s.seen[key] = struct{}{}
		s.seenMu.Unlock()
		if seen {
			continue
		}

		log.Info("Camera [%s] scanned new %s barcode: %s", s.cam.Title(), b.ValueType, b.DisplayValue)
		if s.history == nil {
			continue
		}
		err := s.history.Create(&models.Scan{
			CameraTitle:  s.cam.Title(),
			Format:       b.Format,
			ValueType:    b.ValueType.String(),
			RawValue:     b.RawValue,
			DisplayValue: b.DisplayValue,
			ScannedAt:    time.Now(),
		})
		if err != nil {
			log.Error("Unable to record scan from camera [%s]: %v", s.cam.Title(), err)
		}
	}
}

package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/tauraamui/scandaemon/pkg/camera"
	"github.com/tauraamui/scandaemon/pkg/configdef"
	"github.com/tauraamui/scandaemon/pkg/log"
	"github.com/tauraamui/scandaemon/pkg/video/videobackend"
)

type Server interface {
	LoadConfiguration() error
	Config() configdef.Values
	Connect() []error
	ConnectWithCancel(context.Context) []error
	SetupProcesses()
	RunProcesses()
	Sessions() []*Session
	Session(title string) (*Session, bool)
	Shutdown() <-chan interface{}
}

func NewServer(cr configdef.Resolver, vb videobackend.Backend, history ScanHistory) Server {
	return &server{
		configResolver: cr,
		videoBackend:   vb,
		history:        history,
	}
}

type server struct {
	configResolver configdef.Resolver
	videoBackend   videobackend.Backend
	history        ScanHistory
	shutdownDone   chan interface{}
	config         configdef.Values
	mu             sync.Mutex
	cameras        []camera.Connection
	sessions       []*Session
}

func (s *server) LoadConfiguration() error {
	config, err := s.configResolver.Resolve()
	if err != nil {
		return err
	}

	s.config = config
	return nil
}

func (s *server) Config() configdef.Values {
	return s.config
}

func (s *server) Connect() []error {
	return s.connect(context.Background())
}

func (s *server) ConnectWithCancel(cancel context.Context) []error {
	return s.connect(cancel)
}

func (s *server) connect(cancel context.Context) []error {
	s.shutdownDone = make(chan interface{})
	var errs []error

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cam := range s.config.Cameras {
		select {
		case <-cancel.Done():
			return errs
		default:
			if cam.Disabled {
				log.Warn("Camera [%s] is disabled... skipping...", cam.Title)
				continue
			}
			settings := camera.Settings{
				RotationDegrees:  cam.RotationDegrees,
				SamplingWindow:   time.Duration(cam.SamplingWindowMS) * time.Millisecond,
				Recognizer:       cam.Recognizer,
				SnapshotLocation: cam.SnapshotLocation,
			}
			conn, err := connectToCamera(cancel, cam.Title, cam.Address, settings, s.videoBackend)
			if err != nil {
				errs = append(errs, err)
			}

			if conn != nil {
				log.Info("Connected successfully to camera: [%s]", cam.Title)
				s.cameras = append(s.cameras, conn)
			}
		}
	}
	return errs
}

var connectToCamera = func(ctx context.Context, title, addr string, sett camera.Settings, backend videobackend.Backend) (camera.Connection, error) {
	log.Info("Connecting to camera: [%s]...", title)
	return camera.ConnectWithCancel(ctx, title, addr, sett, backend)
}

func (s *server) Sessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := make([]*Session, len(s.sessions))
	copy(sessions, s.sessions)
	return sessions
}

func (s *server) Session(title string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.Title() == title {
			return sess, true
		}
	}
	return nil, false
}

func (s *server) shutdown() {
	s.shutdownProcesses()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cam := range s.cameras {
		log.Warn("Closing camera connection: [%s]...", cam.Title())
		if err := cam.Close(); err != nil {
			log.Error("Unable to close camera [%s]: %v", cam.Title(), err)
		}
	}
	if s.shutdownDone == nil {
		s.shutdownDone = make(chan interface{})
	}
	close(s.shutdownDone)
}

func (s *server) Shutdown() <-chan interface{} {
	s.shutdown()
	return s.shutdownDone
}

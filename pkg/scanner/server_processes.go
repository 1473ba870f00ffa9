package scanner

import (
	"sync"

	"github.com/tauraamui/scandaemon/pkg/scan"
)

var resolveRecognizer = scan.ResolveRecognizer

func (s *server) SetupProcesses() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cam := range s.cameras {
		sess := NewSession(cam, SessionOptions{
			Recognizer: resolveRecognizer(cam.Settings().Recognizer),
			Snapshots:  s.videoBackend.NewSnapshotWriter(),
			History:    s.history,
		})
		s.sessions = append(s.sessions, sess)
	}
}

func (s *server) RunProcesses() {
	for _, sess := range s.Sessions() {
		sess.Start()
	}
}

func (s *server) shutdownProcesses() {
	sessions := s.Sessions()
	wg := sync.WaitGroup{}
	wg.Add(len(sessions))
	for _, sess := range sessions {
		go func(wg *sync.WaitGroup, sess *Session) {
			sess.Stop()
			wg.Done()
		}(&wg, sess)
	}
	wg.Wait()
}

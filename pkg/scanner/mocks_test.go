package scanner_test

import (
	"context"
	"errors"
	"sync"

	"github.com/tauraamui/scandaemon/pkg/configdef"
	"github.com/tauraamui/scandaemon/pkg/database/models"
	"github.com/tauraamui/scandaemon/pkg/scan"
	"github.com/tauraamui/scandaemon/pkg/video/videobackend"
	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
)

type mockRecognizer struct {
	barcodes []scan.Barcode
	err      error
	mu       sync.Mutex
	closed   bool
}

func (m *mockRecognizer) Recognize(ctx context.Context, f videoframe.Frame) ([]scan.Barcode, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.barcodes, nil
}

func (m *mockRecognizer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockRecognizer) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type mockSnapshotWriter struct {
	mu      sync.Mutex
	calls   int
	written []string
	err     error
}

func (m *mockSnapshotWriter) Write(path string, frame videoframe.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.written = append(m.written, path)
	return nil
}

func (m *mockSnapshotWriter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockSnapshotWriter) paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.written...)
}

type mockHistory struct {
	mu      sync.Mutex
	created []models.Scan
}

func (m *mockHistory) Create(s *models.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, *s)
	return nil
}

func (m *mockHistory) ListByCamera(title string, limit int) ([]models.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scans := []models.Scan{}
	for _, s := range m.created {
		if s.CameraTitle == title {
			scans = append(scans, s)
		}
	}
	return scans, nil
}

func (m *mockHistory) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

type mockConfigResolver struct {
	values configdef.Values
	err    error
}

func (m mockConfigResolver) Resolve() (configdef.Values, error) {
	return m.values, m.err
}

type mockBackend struct {
	writer *mockSnapshotWriter
}

func (m mockBackend) Connect(context.Context, string) (videobackend.Connection, error) {
	return nil, errors.New("mock backend does not connect")
}

func (m mockBackend) NewFrame() videoframe.Frame { return nil }

func (m mockBackend) NewSnapshotWriter() videobackend.SnapshotWriter { return m.writer }

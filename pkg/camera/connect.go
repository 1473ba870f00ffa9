package camera

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tauraamui/scandaemon/pkg/video/videobackend"
	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

type Connection interface {
	UUID() string
	Title() string
	Settings() Settings
	Read() (videoframe.Frame, error)
	IsOpen() bool
	IsClosing() bool
	Close() error
}

// Now stamps each read frame with its arrival time.
var Now = func() time.Time {
	return time.Now()
}

type connection struct {
	uuid      string
	backend   videobackend.Backend
	title     string
	sett      Settings
	mu        sync.Mutex
	isClosing bool
	vc        videobackend.Connection
}

func (c *connection) UUID() string {
	return c.uuid
}

func (c *connection) Title() string {
	return c.title
}

func (c *connection) Settings() Settings {
	return c.sett
}

func (c *connection) Read() (videoframe.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame := c.backend.NewFrame()
	if err := c.vc.Read(frame); err != nil {
		frame.Close()
		return nil, xerror.Errorf("unable to read frame from connection: %w", err)
	}
	if s, ok := frame.(videoframe.Stamper); ok {
		s.Stamp(Now(), c.sett.RotationDegrees)
	}
	return frame, nil
}

func (c *connection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vc.IsOpen()
}

func (c *connection) IsClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isClosing
}

func (c *connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isClosing = true
	return c.vc.Close()
}

func connect(ctx context.Context, title, addr string, settings Settings, backend videobackend.Backend) (Connection, error) {
	vc, err := backend.Connect(ctx, addr)
	if err != nil {
		return nil, xerror.Errorf("Unable to connect to camera [%s]: %w", title, err)
	}
	return &connection{
		uuid:    uuid.NewString(),
		backend: backend,
		title:   title,
		vc:      vc,
		sett:    settings,
	}, nil
}

func Connect(title, addr string, settings Settings, backend videobackend.Backend) (Connection, error) {
	return connect(context.Background(), title, addr, settings, backend)
}

func ConnectWithCancel(cancel context.Context, title, addr string, settings Settings, backend videobackend.Backend) (Connection, error) {
	return connect(cancel, title, addr, settings, backend)
}

package process

import (
	"context"
	"fmt"
	"time"

	"github.com/tauraamui/scandaemon/pkg/camera"
	"github.com/tauraamui/scandaemon/pkg/log"
	"github.com/tauraamui/scandaemon/pkg/sampler"
	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
)

// Offerer is what the stream delivers frames to.
type Offerer interface {
	Offer(videoframe.Frame) sampler.Decision
	Teardown()
}

// Drainer is waited on after the stream stops so nothing it was handed
// is still being worked on once Wait returns.
type Drainer interface {
	Wait()
}

var idleDelay = 10 * time.Millisecond

// StreamProcess reads frames from the camera on a single goroutine and
// offers each one to the sampler until stopped.
func StreamProcess(cam camera.Connection, s Offerer, d Drainer) func(context.Context) []chan interface{} {
	return func(ctx context.Context) []chan interface{} {
		stopping := make(chan interface{})
		go func(ctx context.Context, stopping chan interface{}) {
			defer close(stopping)
			defer func() {
				s.Teardown()
				if d != nil {
					d.Wait()
				}
			}()
			for {
				select {
				case <-ctx.Done():
					return
				default:
					if !stream(cam, s) {
						time.Sleep(idleDelay)
					}
				}
			}
		}(ctx, stopping)
		return []chan interface{}{stopping}
	}
}

func NewStreamProcess(cam camera.Connection, s Offerer, d Drainer) Process {
	return New(Settings{
		WaitForShutdownMsg: fmt.Sprintf("Closing camera [%s] scan stream...", cam.Title()),
		Process:            StreamProcess(cam, s, d),
	})
}

func stream(cam camera.Connection, s Offerer) bool {
	if !cam.IsOpen() {
		return false
	}

	frame, err := cam.Read()
	if err != nil {
		log.Error("Unable to retrieve frame from [%s]: %v. Auto re-connecting is not yet implemented", cam.Title(), err)
		return false
	}

	d := s.Offer(frame)
	log.Debug("Frame from camera [%s] %s", cam.Title(), d)
	return true
}

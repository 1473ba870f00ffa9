package process_test

import (
	"context"
	"testing"

	"github.com/matryer/is"
	"github.com/tauraamui/scandaemon/pkg/scanner/process"
)

func TestProcessStartStopWait(t *testing.T) {
	is := is.New(t)
	started := make(chan struct{})
	proc := process.New(process.Settings{
		WaitForShutdownMsg: "",
		Process: func(ctx context.Context) []chan interface{} {
			stopped := make(chan interface{})
			go func() {
				close(started)
				<-ctx.Done()
				close(stopped)
			}()
			return []chan interface{}{stopped}
		},
	})

	is.True(proc.Setup() == proc)
	proc.Start()
	<-started
	proc.Stop()
	proc.Wait()
}

func TestProcessStopBeforeStartDoesNotPanic(t *testing.T) {
	proc := process.New(process.Settings{})
	proc.Stop()
	proc.Wait()
}

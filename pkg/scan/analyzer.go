package scan

import (
	"context"
	"sync"
	"time"

	"github.com/tauraamui/scandaemon/pkg/log"
	"github.com/tauraamui/scandaemon/pkg/metrics"
	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
)

// Analyzer takes ownership of admitted frames, recognises them off the
// caller's goroutine and releases each frame exactly once when done.
type Analyzer struct {
	label      string
	ctx        context.Context
	cancel     context.CancelFunc
	recognizer Recognizer
	onResult   func([]Barcode)
	wg         sync.WaitGroup
}

func NewAnalyzer(label string, recognizer Recognizer, onResult func([]Barcode)) *Analyzer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Analyzer{
		label: label,
		ctx:   ctx, cancel: cancel,
		recognizer: recognizer,
		onResult:   onResult,
	}
}

func (a *Analyzer) Analyze(frame videoframe.Frame) {
	a.wg.Add(1)
	go a.analyze(frame)
}

func (a *Analyzer) analyze(frame videoframe.Frame) {
	defer a.wg.Done()
	defer func() {
		if !videoframe.Release(frame) {
			metrics.FrameReleaseFailuresTotal.Inc()
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			metrics.RecognitionFailuresTotal.WithLabelValues(a.label).Inc()
			log.Error("Recognition for camera [%s] panicked: %v", a.label, r)
		}
	}()

	started := time.Now()
	barcodes, err := a.recognizer.Recognize(a.ctx, frame)
	metrics.RecognitionDuration.WithLabelValues(a.label).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.RecognitionFailuresTotal.WithLabelValues(a.label).Inc()
		log.Error("Unable to recognize frame from camera [%s]: %v", a.label, err)
		return
	}

	for _, b := range barcodes {
		metrics.BarcodesScannedTotal.WithLabelValues(a.label, b.Format).Inc()
	}
	log.Debug("Recognized %d barcode(s) from camera [%s]", len(barcodes), a.label)

	if a.onResult != nil {
		a.onResult(barcodes)
	}
}

// Wait blocks until every analysis already dispatched has finished
// and released its frame.
func (a *Analyzer) Wait() {
	a.wg.Wait()
}

// Stop cancels in-flight recognition and waits for it to wind down.
func (a *Analyzer) Stop() {
	a.cancel()
	a.Wait()
}

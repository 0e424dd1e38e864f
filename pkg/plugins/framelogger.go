// Package plugins holds the built-in bus subscribers.
package plugins

import (
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/xh.go/pkg/protocol"
)

// Frame history bounds: once more than FrameHistoryLimit frames are kept,
// the history is trimmed to the newest FrameHistoryTrim.
const (
	FrameHistoryLimit = 700
	FrameHistoryTrim  = 500
)

// Record is a frame in the history.
type Record struct {
	Frame      protocol.Frame
	ReceivedAt time.Time
}

// FrameLogger logs every received frame and keeps a bounded history.
type FrameLogger struct {
	lock sync.RWMutex
	// oldest first.
	history []Record

	now func() time.Time
}

// NewFrameLogger creates a FrameLogger.
func NewFrameLogger() *FrameLogger {
	return &FrameLogger{now: time.Now}
}

// Name is the bus subscriber name.
func (l *FrameLogger) Name() string {
	return "frame-logger"
}

// HandleFrame implements bus.Handler.
func (l *FrameLogger) HandleFrame(f protocol.Frame) error {
	glog.Infof("received %s", f)
	l.lock.Lock()
	l.history = append(l.history, Record{Frame: f, ReceivedAt: l.now()})
	if len(l.history) > FrameHistoryLimit {
		kept := make([]Record, FrameHistoryTrim)
		copy(kept, l.history[len(l.history)-FrameHistoryTrim:])
		l.history = kept
	}
	l.lock.Unlock()
	return nil
}

// Latest returns the most recent frame.
func (l *FrameLogger) Latest() (protocol.Frame, bool) {
	return l.Frame(0)
}

// Frame returns the i-th most recent frame, 0 being the latest.
func (l *FrameLogger) Frame(i int) (protocol.Frame, bool) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	if i < 0 || i >= len(l.history) {
		return nil, false
	}
	return l.history[len(l.history)-1-i].Frame, true
}

// History returns a copy of the history, most recent first.
func (l *FrameLogger) History() []protocol.Frame {
	records := l.Records(0)
	frames := make([]protocol.Frame, len(records))
	for n, r := range records {
		frames[n] = r.Frame
	}
	return frames
}

// Records returns up to n most recent records, most recent first. n <= 0
// means all.
func (l *FrameLogger) Records(n int) []Record {
	l.lock.RLock()
	defer l.lock.RUnlock()
	if n <= 0 || n > len(l.history) {
		n = len(l.history)
	}
	records := make([]Record, n)
	for i := range records {
		records[i] = l.history[len(l.history)-1-i]
	}
	return records
}

// Len returns the number of frames kept.
func (l *FrameLogger) Len() int {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return len(l.history)
}

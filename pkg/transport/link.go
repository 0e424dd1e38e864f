package transport

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/xh.go/pkg/bus"
	fx "github.com/robotalks/xh.go/pkg/framework"
	"github.com/robotalks/xh.go/pkg/protocol"
)

// Link connects a Port to a Bus. Run is the single delivery goroutine:
// every inbound field map is decoded and published in arrival order. Link
// is also the protocol.Sender for outbound commands.
type Link struct {
	Port Port
	Bus  *bus.Bus

	sendLock  sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

// NewLink creates a Link.
func NewLink(port Port, b *bus.Bus) *Link {
	return &Link{Port: port, Bus: b, closed: make(chan struct{})}
}

// Name implements framework.Named.
func (l *Link) Name() string {
	return "link"
}

// SendLocal implements protocol.Sender.
func (l *Link) SendLocal(command, frameID string, parameter []byte) error {
	return l.write(&protocol.Request{Command: command, FrameID: frameID, Parameter: parameter})
}

// SendRemote implements protocol.Sender.
func (l *Link) SendRemote(command, frameID string, parameter []byte, dest uint64) error {
	return l.write(&protocol.Request{
		Command:     command,
		FrameID:     frameID,
		Parameter:   parameter,
		Destination: dest,
		Remote:      true,
	})
}

func (l *Link) write(req *protocol.Request) error {
	select {
	case <-l.closed:
		return ErrClosed
	default:
	}
	l.sendLock.Lock()
	defer l.sendLock.Unlock()
	glog.V(4).Infof("TX %s #%s %x", req.Command, req.FrameID, req.Parameter)
	return l.Port.WriteRequest(req)
}

// Run implements framework.Runnable.
func (l *Link) Run(ctx context.Context) error {
	return fx.RunWithContextCloser(ctx, l, l.receive)
}

func (l *Link) receive() error {
	for {
		fm, err := l.Port.ReadFieldMap()
		if err != nil {
			select {
			case <-l.closed:
				return ErrClosed
			default:
			}
			return err
		}
		glog.V(4).Infof("RX %s", fm)
		// malformed frames are logged and dropped.
		if frame := protocol.DecodeSafe(fm); frame != nil {
			l.Bus.Publish(frame)
		}
	}
}

// Close implements io.Closer.
func (l *Link) Close() (err error) {
	l.closeOnce.Do(func() {
		close(l.closed)
		if closer, ok := l.Port.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return
}

package mqtt

import (
	"context"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/xh.go/pkg/bus"
	"github.com/robotalks/xh.go/pkg/protocol"
	"github.com/robotalks/xh.go/pkg/transport/wire"
)

// TopicFrames prefixes the topics decoded frames are republished on.
const TopicFrames = "frames/"

// Publisher publishes a payload to a topic.
type Publisher interface {
	Pub(topic string, payload []byte) paho.Token
}

// Bridge republishes every decoded frame on the bus as a FrameSummary on
// frames/<frame type>.
type Bridge struct {
	Publisher Publisher
	Bus       *bus.Bus
	// ConnectAttempts is used by Run when Publisher is a Queue.
	ConnectAttempts uint

	now func() time.Time
}

// NewBridge creates a Bridge.
func NewBridge(pub Publisher, b *bus.Bus) *Bridge {
	return &Bridge{Publisher: pub, Bus: b, ConnectAttempts: 3, now: time.Now}
}

// Name implements framework.Named.
func (b *Bridge) Name() string {
	return "mqtt-bridge"
}

// Run implements framework.Runnable. It connects the queue if needed and
// republishes frames until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	if q, ok := b.Publisher.(*Queue); ok {
		if err := q.Connect(ctx, b.ConnectAttempts); err != nil {
			return err
		}
		defer q.Close()
	}
	sub := b.Bus.Subscribe(b.Name(), b)
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}

// HandleFrame implements bus.Handler.
func (b *Bridge) HandleFrame(f protocol.Frame) error {
	payload, err := proto.Marshal(wire.NewFrameSummary(f, b.now()))
	if err != nil {
		return err
	}
	topic := TopicFrames + string(f.FrameType())
	glog.V(4).Infof("PUB %q", topic)
	// delivery must not block on the broker.
	b.Publisher.Pub(topic, payload)
	return nil
}

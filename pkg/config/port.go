package config

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/golang/glog"

	"github.com/robotalks/xh.go/pkg/transport"
	"github.com/robotalks/xh.go/pkg/transport/fake"
	"github.com/robotalks/xh.go/pkg/transport/mqtt"
	"github.com/robotalks/xh.go/pkg/transport/stream"
	"github.com/robotalks/xh.go/pkg/transport/websocket"
)

// Transport URL schemes.
const (
	SchemeFake      = "fake"
	SchemeSerial    = "serial"
	SchemeTCP       = "tcp"
	SchemeMQTT      = "mqtt"
	SchemeWebSocket = "ws"
	SchemeWSS       = "wss"
)

// connectAttempts is how many times a transport is tried before failing.
const connectAttempts = 3

// Endpoint is a parsed transport URL.
type Endpoint struct {
	Scheme string
	// Address is the device path for serial, host:port for tcp and the
	// full URL for mqtt and websocket.
	Address string
	Baud    int
}

// ParseTransport parses a transport URL. An empty serial device means the
// first serial candidate.
func ParseTransport(raw string, defaultBaud int) (*Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid transport URL: %v", err)
	}
	ep := &Endpoint{Scheme: u.Scheme, Baud: defaultBaud}
	switch u.Scheme {
	case SchemeFake:
	case SchemeSerial:
		ep.Address = u.Path
		if val := u.Query().Get("baud"); val != "" {
			if ep.Baud, err = strconv.Atoi(val); err != nil || ep.Baud <= 0 {
				return nil, fmt.Errorf("invalid baud %q", val)
			}
		}
	case SchemeTCP:
		if u.Host == "" {
			return nil, fmt.Errorf("missing host in %q", raw)
		}
		ep.Address = u.Host
	case SchemeMQTT, SchemeWebSocket, SchemeWSS:
		if u.Host == "" {
			return nil, fmt.Errorf("missing host in %q", raw)
		}
		ep.Address = raw
	default:
		return nil, fmt.Errorf("unknown transport URL scheme: %q", u.Scheme)
	}
	if ep.Baud <= 0 {
		ep.Baud = stream.DefaultBaud
	}
	return ep, nil
}

// OpenPort opens the gateway link named by Transport.
func (c *Config) OpenPort(ctx context.Context) (transport.Port, error) {
	ep, err := ParseTransport(c.Transport, c.Baud)
	if err != nil {
		return nil, err
	}
	return ep.Open(ctx, c.MQTTClientID())
}

// Open opens the endpoint. clientID is used for MQTT.
func (ep *Endpoint) Open(ctx context.Context, clientID string) (transport.Port, error) {
	opts := stream.DialOptions{Attempts: connectAttempts, Delay: stream.DefaultDialOptions.Delay}
	switch ep.Scheme {
	case SchemeFake:
		glog.Info("using the fake radio")
		return fake.New(), nil
	case SchemeSerial:
		device := ep.Address
		if device == "" {
			ports, err := stream.SerialCandidates()
			if err != nil {
				return nil, err
			}
			if len(ports) == 0 {
				return nil, fmt.Errorf("no serial device found")
			}
			device = ports[0].Name
			glog.Infof("picked serial device %s out of %d candidates", device, len(ports))
		}
		rw, err := stream.OpenSerial(ctx, device, ep.Baud, opts)
		if err != nil {
			return nil, err
		}
		return transport.NewPacketPort(rw), nil
	case SchemeTCP:
		rw, err := stream.DialTCP(ctx, ep.Address, opts)
		if err != nil {
			return nil, err
		}
		return transport.NewPacketPort(rw), nil
	case SchemeMQTT:
		q, err := mqtt.NewQueueFromURL(ep.Address, clientID)
		if err != nil {
			return nil, err
		}
		if err = q.Connect(ctx, connectAttempts); err != nil {
			return nil, err
		}
		return &queuePort{PacketPort: transport.NewPacketPort(mqtt.NewPacketReadWriter(q)), queue: q}, nil
	case SchemeWebSocket, SchemeWSS:
		rw, err := websocket.Dial(ctx, ep.Address, connectAttempts)
		if err != nil {
			return nil, err
		}
		return transport.NewPacketPort(rw), nil
	}
	return nil, fmt.Errorf("unknown transport URL scheme: %q", ep.Scheme)
}

// queuePort disconnects the MQTT client with the port.
type queuePort struct {
	*transport.PacketPort
	queue *mqtt.Queue
}

func (p *queuePort) Close() error {
	err := p.PacketPort.Close()
	p.queue.Close()
	return err
}

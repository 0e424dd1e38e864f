// Package fake is an in-memory coordinator that answers AT requests, for
// tests and for running without hardware.
package fake

import (
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/xh.go/pkg/codec"
	"github.com/robotalks/xh.go/pkg/protocol"
	"github.com/robotalks/xh.go/pkg/transport"
)

// DefaultSerial is the serial number of the fake coordinator.
const DefaultSerial uint64 = 0x0013a20040000001

// inboxSize bounds queued inbound field maps.
const inboxSize = 64

// Node is a remote module known to the fake radio.
type Node struct {
	Info protocol.NodeInfo
	// Registers holds the raw values answered to remote queries.
	Registers map[protocol.CommandName][]byte
}

// DefaultNodes returns the canned remote modules.
func DefaultNodes() []*Node {
	return []*Node{
		{
			Info: protocol.NodeInfo{
				ShortAddr:      0x1234,
				Serial:         0x0013a200408cca0e,
				Name:           "Node1",
				Role:           protocol.RoleRouter,
				ProfileID:      0xc105,
				ManufacturerID: 0x101e,
			},
			Registers: map[protocol.CommandName][]byte{
				protocol.NameInputVolts: {0x0b, 0x00},
			},
		},
		{
			Info: protocol.NodeInfo{
				ShortAddr:      0x5678,
				Serial:         0x0013a20040a1b2c3,
				Name:           "Porch",
				Role:           protocol.RoleEndDevice,
				ProfileID:      0xc105,
				ManufacturerID: 0x101e,
			},
			Registers: map[protocol.CommandName][]byte{
				protocol.NameInputVolts: {0x0a, 0x80},
			},
		},
	}
}

// Radio implements transport.Port in memory.
type Radio struct {
	// Delay is how long the radio takes to answer.
	Delay time.Duration

	lock      sync.Mutex
	registers map[protocol.CommandName][]byte
	nodes     []*Node
	requests  []*protocol.Request

	inbox     chan protocol.FieldMap
	closeOnce sync.Once
	closed    chan struct{}
}

// New creates a Radio with DefaultSerial and DefaultNodes.
func New() *Radio {
	high, low := codec.SplitSerial(DefaultSerial)
	return &Radio{
		Delay: 5 * time.Millisecond,
		registers: map[protocol.CommandName][]byte{
			protocol.NameSerialHigh:           codec.NumberToBytes(uint64(high), 4),
			protocol.NameSerialLow:            codec.NumberToBytes(uint64(low), 4),
			protocol.NameNetworkAddress:       {0x00, 0x00},
			protocol.NamePanID:                {0x3e, 0xf7},
			protocol.NameEncryptionEnable:     {0x00},
			protocol.NameNodeIdentifier:       []byte("coordinator"),
			protocol.NameNodeDiscoveryTimeout: {0x3c},
			protocol.NameSleepPeriod:          {0x00, 0x20},
			protocol.NameInputVolts:           {0x0b, 0x00},
		},
		nodes:  DefaultNodes(),
		inbox:  make(chan protocol.FieldMap, inboxSize),
		closed: make(chan struct{}),
	}
}

// WithNodes replaces the remote modules.
func (r *Radio) WithNodes(nodes ...*Node) *Radio {
	r.lock.Lock()
	r.nodes = nodes
	r.lock.Unlock()
	return r
}

// Register returns the current raw value of a local register.
func (r *Radio) Register(name protocol.CommandName) ([]byte, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	v, ok := r.registers[name]
	return v, ok
}

// Requests returns every request received so far.
func (r *Radio) Requests() []*protocol.Request {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]*protocol.Request(nil), r.requests...)
}

// Inject queues an unsolicited inbound field map.
func (r *Radio) Inject(fm protocol.FieldMap) error {
	select {
	case <-r.closed:
		return transport.ErrClosed
	default:
	}
	select {
	case <-r.closed:
		return transport.ErrClosed
	case r.inbox <- fm:
		return nil
	}
}

// ReadFieldMap implements transport.Port.
func (r *Radio) ReadFieldMap() (protocol.FieldMap, error) {
	select {
	case fm := <-r.inbox:
		return fm, nil
	case <-r.closed:
		return nil, transport.ErrClosed
	}
}

// WriteRequest implements transport.Port.
func (r *Radio) WriteRequest(req *protocol.Request) error {
	select {
	case <-r.closed:
		return transport.ErrClosed
	default:
	}
	responses := r.Respond(req)
	time.AfterFunc(r.Delay, func() {
		for _, fm := range responses {
			if err := r.Inject(fm); err != nil {
				return
			}
		}
	})
	return nil
}

// Close implements io.Closer.
func (r *Radio) Close() error {
	r.closeOnce.Do(func() { close(r.closed) })
	return nil
}

// Respond computes the field maps answering req.
func (r *Radio) Respond(req *protocol.Request) []protocol.FieldMap {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.requests = append(r.requests, req)
	glog.V(2).Infof("fake radio: %s #%s %x remote=%v", req.Command, req.FrameID, req.Parameter, req.Remote)

	name := protocol.CommandName(req.Command)
	if req.Remote {
		return []protocol.FieldMap{r.respondRemote(name, req)}
	}
	if name == protocol.NameNodeDiscover {
		var responses []protocol.FieldMap
		for _, n := range r.nodes {
			fm := response(req, protocol.StatusOK)
			fm[protocol.KeyParameter] = n.Info.Record()
			responses = append(responses, fm)
		}
		return responses
	}
	return []protocol.FieldMap{r.respondLocal(name, req)}
}

func (r *Radio) respondLocal(name protocol.CommandName, req *protocol.Request) protocol.FieldMap {
	if !name.Valid() {
		return response(req, protocol.StatusInvalidCommand)
	}
	fm := response(req, protocol.StatusOK)
	switch {
	case name == protocol.NameWrite:
	case len(req.Parameter) > 0:
		r.registers[name] = append([]byte(nil), req.Parameter...)
	default:
		if v, ok := r.registers[name]; ok && name != protocol.NameLinkKey {
			fm[protocol.KeyParameter] = v
		}
	}
	return fm
}

func (r *Radio) respondRemote(name protocol.CommandName, req *protocol.Request) protocol.FieldMap {
	var node *Node
	for _, n := range r.nodes {
		if n.Info.Serial == req.Destination {
			node = n
			break
		}
	}
	if node == nil {
		fm := response(req, protocol.StatusTransmitFailure)
		fm[protocol.KeyFrameType] = string(protocol.FrameTypeRemoteATResponse)
		fm[protocol.KeySourceAddr] = []byte{0xff, 0xfe}
		fm[protocol.KeySourceAddrLong] = codec.NumberToSerialBytes(req.Destination)
		return fm
	}
	fm := response(req, protocol.StatusOK)
	fm[protocol.KeyFrameType] = string(protocol.FrameTypeRemoteATResponse)
	fm[protocol.KeySourceAddr] = codec.NumberToBytes(uint64(node.Info.ShortAddr), 2)
	fm[protocol.KeySourceAddrLong] = codec.NumberToSerialBytes(node.Info.Serial)
	switch {
	case !name.Valid():
		fm[protocol.KeyStatus] = []byte{byte(protocol.StatusInvalidCommand)}
	case len(req.Parameter) > 0:
		if node.Registers == nil {
			node.Registers = make(map[protocol.CommandName][]byte)
		}
		node.Registers[name] = append([]byte(nil), req.Parameter...)
	default:
		if v, ok := node.Registers[name]; ok {
			fm[protocol.KeyParameter] = v
		}
	}
	return fm
}

func response(req *protocol.Request, status protocol.Status) protocol.FieldMap {
	return protocol.FieldMap{
		protocol.KeyFrameType: string(protocol.FrameTypeATResponse),
		protocol.KeyFrameID:   req.FrameID,
		protocol.KeyCommand:   req.Command,
		protocol.KeyStatus:    []byte{byte(status)},
	}
}

// Serve answers requests read from a gateway port until it fails, so the
// fake radio can sit behind a real stream or MQTT link.
func (r *Radio) Serve(gw *transport.GatewayPort) error {
	errCh := make(chan error, 1)
	go func() {
		for {
			fm, err := r.ReadFieldMap()
			if err != nil {
				errCh <- err
				return
			}
			if err = gw.WriteFieldMap(fm); err != nil {
				errCh <- err
				return
			}
		}
	}()
	for {
		req, err := gw.ReadRequest()
		if err != nil {
			r.Close()
			<-errCh
			return err
		}
		if err = r.WriteRequest(req); err != nil {
			return err
		}
	}
}

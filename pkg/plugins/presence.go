package plugins

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/xh.go/pkg/protocol"
	"github.com/robotalks/xh.go/pkg/setup"
)

// Node is a remote module in the presence directory.
type Node struct {
	Serial uint64
	// Info is known once the module answered discovery or identified
	// itself.
	Info     *protocol.NodeInfo
	LastSeen time.Time
}

// Presence is a directory of remote modules seen on the network. Modules
// never leave it since nothing is sent when a module goes away.
type Presence struct {
	lock        sync.RWMutex
	nodes       map[uint64]*Node
	localSerial uint64
	hasLocal    bool

	now func() time.Time
}

// NewPresence creates a Presence.
func NewPresence() *Presence {
	return &Presence{nodes: make(map[uint64]*Node), now: time.Now}
}

// Name is the bus subscriber name.
func (p *Presence) Name() string {
	return "presence"
}

// Activate reads the local serial and broadcasts a node discovery. The
// answers reach the directory through HandleFrame.
func (p *Presence) Activate(ctx context.Context, r setup.Requester, s protocol.Sender) error {
	serial, err := setup.LocalSerial(ctx, r)
	if err != nil {
		return err
	}
	p.lock.Lock()
	p.localSerial, p.hasLocal = serial, true
	p.lock.Unlock()
	glog.V(2).Infof("presence: local serial 0x%016x", serial)
	return protocol.Send(s, protocol.NewNodeDiscover())
}

// HandleFrame implements bus.Handler.
func (p *Presence) HandleFrame(f protocol.Frame) error {
	var (
		serial uint64
		info   *protocol.NodeInfo
	)
	switch v := f.(type) {
	case *protocol.NodeDiscover:
		n, ok := v.Node()
		if !ok {
			return nil
		}
		serial, info = n.Serial, &n
	case *protocol.NodeID:
		n := v.Info()
		serial, info = n.Serial, &n
	case *protocol.IOData:
		_, serial = v.Source()
	case protocol.Command:
		src, ok := v.Source()
		// a failed transmission echoes the unreachable destination.
		if !ok || protocol.CheckStatus(v) != nil {
			return nil
		}
		serial = src.Serial
	default:
		return nil
	}
	p.see(serial, info)
	return nil
}

func (p *Presence) see(serial uint64, info *protocol.NodeInfo) {
	p.lock.Lock()
	defer p.lock.Unlock()
	node, ok := p.nodes[serial]
	if !ok {
		glog.V(1).Infof("now present: 0x%016x", serial)
		node = &Node{Serial: serial}
		p.nodes[serial] = node
	}
	if info != nil {
		node.Info = info
	}
	node.LastSeen = p.now()
}

// LocalSerial returns the serial of the local module once Activate read it.
func (p *Presence) LocalSerial() (uint64, bool) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.localSerial, p.hasLocal
}

// RemoteSerials returns the serials of all known remote modules, sorted.
func (p *Presence) RemoteSerials() []uint64 {
	p.lock.RLock()
	serials := make([]uint64, 0, len(p.nodes))
	for serial := range p.nodes {
		serials = append(serials, serial)
	}
	p.lock.RUnlock()
	sort.Slice(serials, func(i, j int) bool { return serials[i] < serials[j] })
	return serials
}

// Nodes returns copies of the directory entries sorted by serial.
func (p *Presence) Nodes() []Node {
	p.lock.RLock()
	nodes := make([]Node, 0, len(p.nodes))
	for _, n := range p.nodes {
		nodes = append(nodes, *n)
	}
	p.lock.RUnlock()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Serial < nodes[j].Serial })
	return nodes
}

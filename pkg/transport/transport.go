// Package transport moves field maps and outbound requests between the
// host and the gateway attached to the coordinator.
package transport

import (
	"errors"
	"io"

	"github.com/robotalks/xh.go/pkg/protocol"
	"github.com/robotalks/xh.go/pkg/transport/wire"
)

// ErrClosed is returned once a Link or Port is closed.
var ErrClosed = errors.New("transport closed")

// Port is the host side of a gateway connection.
type Port interface {
	// ReadFieldMap blocks for the next inbound field map.
	ReadFieldMap() (protocol.FieldMap, error)
	// WriteRequest sends an outbound request.
	WriteRequest(*protocol.Request) error
}

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// PacketPort is a Port exchanging wire envelopes over packets.
type PacketPort struct {
	ReadWriter PacketReadWriter
}

// NewPacketPort creates a PacketPort.
func NewPacketPort(rw PacketReadWriter) *PacketPort {
	return &PacketPort{ReadWriter: rw}
}

// ReadFieldMap implements Port.
func (p *PacketPort) ReadFieldMap() (protocol.FieldMap, error) {
	pkt, err := p.ReadWriter.ReadPacket()
	if err != nil {
		return nil, err
	}
	return wire.DecodeFieldMap(pkt)
}

// WriteRequest implements Port.
func (p *PacketPort) WriteRequest(req *protocol.Request) error {
	pkt, err := wire.EncodeRequest(req)
	if err != nil {
		return err
	}
	return p.ReadWriter.WritePacket(pkt)
}

// Close implements io.Closer.
func (p *PacketPort) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// GatewayPort is the gateway side of a packet link: it reads requests and
// writes field maps.
type GatewayPort struct {
	ReadWriter PacketReadWriter
}

// NewGatewayPort creates a GatewayPort.
func NewGatewayPort(rw PacketReadWriter) *GatewayPort {
	return &GatewayPort{ReadWriter: rw}
}

// ReadRequest blocks for the next outbound request from the host.
func (p *GatewayPort) ReadRequest() (*protocol.Request, error) {
	pkt, err := p.ReadWriter.ReadPacket()
	if err != nil {
		return nil, err
	}
	return wire.DecodeRequest(pkt)
}

// WriteFieldMap sends an inbound field map to the host.
func (p *GatewayPort) WriteFieldMap(fm protocol.FieldMap) error {
	pkt, err := wire.EncodeFieldMap(fm)
	if err != nil {
		return err
	}
	return p.ReadWriter.WritePacket(pkt)
}

// Close implements io.Closer.
func (p *GatewayPort) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

package mqtt

import (
	"context"
	"io"
	"sync"
)

// Topics used by the gateway link, relative to the queue prefix.
const (
	// TopicRx carries field maps from the gateway to the host.
	TopicRx = "rx"
	// TopicTx carries requests from the host to the gateway.
	TopicTx = "tx"
)

// packetQueueSize bounds packets received but not yet read.
const packetQueueSize = 64

// ReadWriter implements transport.PacketReadWriter over a Queue.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh  chan []byte
	closeOnce sync.Once
	done      chan struct{}
	sub       *Subscription
}

// NewPacketReadWriter creates the ReadWriter with the host side topics.
// The subscription is active right away so nothing published before Run
// is lost.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return newReadWriter(q, TopicRx, TopicTx)
}

// NewGatewayReadWriter creates the ReadWriter with the gateway side topics.
func NewGatewayReadWriter(q *Queue) *ReadWriter {
	return newReadWriter(q, TopicTx, TopicRx)
}

func newReadWriter(q *Queue, sub, pub string) *ReadWriter {
	p := &ReadWriter{
		Queue:    q,
		SubTopic: sub,
		PubTopic: pub,
		packetCh: make(chan []byte, packetQueueSize),
		done:     make(chan struct{}),
	}
	p.sub = q.Sub(sub, p.handleMsg)
	return p
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	select {
	case <-p.done:
		return io.ErrClosedPipe
	default:
	}
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements framework.Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		p.Close()
		return ctx.Err()
	case <-p.done:
		return nil
	}
}

// Close implements io.Closer.
func (p *ReadWriter) Close() (err error) {
	p.closeOnce.Do(func() {
		close(p.done)
		err = p.sub.Close()
	})
	return
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.done:
	}
}

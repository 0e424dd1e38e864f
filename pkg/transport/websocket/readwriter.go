// Package websocket carries envelope packets as binary WebSocket messages.
package websocket

import (
	"context"
	"net/url"
	"time"

	"github.com/avast/retry-go"
	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// ReadWriter implements transport.PacketReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// Dial connects to a ws:// or wss:// gateway, retrying up to attempts times.
func Dial(ctx context.Context, rawURL string, attempts uint) (*ReadWriter, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	origin := "http://" + u.Host
	if u.Scheme == "wss" {
		origin = "https://" + u.Host
	}
	if attempts == 0 {
		attempts = 1
	}
	var conn *websocket.Conn
	err = retry.Do(func() (err error) {
		conn, err = websocket.Dial(u.String(), "", origin)
		return
	},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			glog.Warningf("websocket dial %s retry #%d: %v", u, n+1, err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return New(conn), nil
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

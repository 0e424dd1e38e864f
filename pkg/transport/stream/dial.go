package stream

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/avast/retry-go"
	"github.com/golang/glog"
	"go.bug.st/serial"
)

// DefaultBaud is the factory baud rate of the coordinator's serial port.
const DefaultBaud = 9600

// DialOptions controls how a stream is opened.
type DialOptions struct {
	// Attempts is the number of tries before giving up, at least 1.
	Attempts uint
	// Delay is the base delay between attempts.
	Delay time.Duration
}

// DefaultDialOptions are used when none are given.
var DefaultDialOptions = DialOptions{Attempts: 3, Delay: 500 * time.Millisecond}

func (o DialOptions) retry(ctx context.Context, what string, fn func() error) error {
	attempts := o.Attempts
	if attempts == 0 {
		attempts = 1
	}
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(o.Delay),
		retry.OnRetry(func(n uint, err error) {
			glog.Warningf("open %s retry #%d: %v", what, n+1, err)
		}),
		retry.LastErrorOnly(true),
	)
}

// DialTCP connects to a gateway listening on addr (host:port).
func DialTCP(ctx context.Context, addr string, opts DialOptions) (*ReadWriter, error) {
	var conn net.Conn
	err := opts.retry(ctx, addr, func() (err error) {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", addr)
		return
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	glog.Infof("connected to %s", addr)
	return New(conn), nil
}

// OpenSerial opens a serial device at baud, 8N1.
func OpenSerial(ctx context.Context, device string, baud int, opts DialOptions) (*ReadWriter, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	mode := &serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	var port serial.Port
	err := opts.retry(ctx, device, func() (err error) {
		port, err = serial.Open(device, mode)
		return
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %q: %w", device, err)
	}
	port.ResetInputBuffer()
	port.ResetOutputBuffer()
	glog.Infof("opened %s at %d baud", device, baud)
	return New(port), nil
}

// Package synchronous turns the asynchronous frame stream into blocking
// request/response calls.
package synchronous

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/xh.go/pkg/bus"
	"github.com/robotalks/xh.go/pkg/protocol"
)

// DefaultTimeout is used by SendAndWait when no timeout is given.
const DefaultTimeout = 200 * time.Millisecond

// ErrClosed is returned by calls on a closed Correlator.
var ErrClosed = errors.New("correlator closed")

// TimeoutError indicates no response arrived in time.
type TimeoutError struct {
	Command protocol.Command
	After   time.Duration
}

// Error implements error.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no response after %v waiting for %s", e.After, e.Command)
}

// Timeout tells the error is a timeout.
func (e *TimeoutError) Timeout() bool { return true }

// Correlator matches command responses from a Bus to the requests that
// caused them, by request id.
type Correlator struct {
	// Timeout is used by SendAndWait when no timeout is given.
	Timeout time.Duration

	sender protocol.Sender
	sub    *bus.Subscription

	lock    sync.Mutex
	pending map[uint32]*pending
	closed  bool
}

type pending struct {
	// single response mode.
	result chan protocol.Command

	// accumulation mode.
	accumulate bool
	matches    []protocol.Command
}

// New creates a Correlator subscribed to b and sending through s.
func New(b *bus.Bus, s protocol.Sender) *Correlator {
	c := &Correlator{
		Timeout: DefaultTimeout,
		sender:  s,
		pending: make(map[uint32]*pending),
	}
	c.sub = b.Subscribe("synchronous", bus.HandlerFunc(c.handleFrame))
	return c
}

// SendAndWait sends cmd and waits for its single response. A timeout <= 0
// means c.Timeout. Returns *TimeoutError if nothing arrives in time.
func (c *Correlator) SendAndWait(ctx context.Context, cmd protocol.Command, timeout time.Duration) (protocol.Command, error) {
	if timeout <= 0 {
		timeout = c.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	p := &pending{result: make(chan protocol.Command, 1)}
	if err := c.add(cmd.ID(), p); err != nil {
		return nil, err
	}
	defer c.remove(cmd.ID())

	if err := protocol.Send(c.sender, cmd); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case resp := <-p.result:
		return resp, nil
	case <-timer.C:
		return nil, &TimeoutError{Command: cmd, After: timeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendAndAccumulate sends cmd and collects every response arriving within
// window, in arrival order. It always waits for the full window unless ctx
// is done first.
func (c *Correlator) SendAndAccumulate(ctx context.Context, cmd protocol.Command, window time.Duration) ([]protocol.Command, error) {
	p := &pending{accumulate: true}
	if err := c.add(cmd.ID(), p); err != nil {
		return nil, err
	}
	collect := func() []protocol.Command {
		c.lock.Lock()
		defer c.lock.Unlock()
		delete(c.pending, cmd.ID())
		return p.matches
	}

	if err := protocol.Send(c.sender, cmd); err != nil {
		collect()
		return nil, err
	}

	timer := time.NewTimer(window)
	defer timer.Stop()
	select {
	case <-timer.C:
		return collect(), nil
	case <-ctx.Done():
		return collect(), ctx.Err()
	}
}

// Pending returns the number of requests waiting for responses.
func (c *Correlator) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.pending)
}

// Close detaches from the bus. Waiting calls run to their deadline.
func (c *Correlator) Close() error {
	c.lock.Lock()
	c.closed = true
	c.lock.Unlock()
	return c.sub.Close()
}

func (c *Correlator) add(id uint32, p *pending) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return ErrClosed
	}
	if _, exist := c.pending[id]; exist {
		return fmt.Errorf("request #%x is already waiting for response", id)
	}
	c.pending[id] = p
	return nil
}

func (c *Correlator) remove(id uint32) {
	c.lock.Lock()
	delete(c.pending, id)
	c.lock.Unlock()
}

func (c *Correlator) handleFrame(frame protocol.Frame) error {
	cmd, ok := frame.(protocol.Command)
	if !ok {
		return nil
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	p := c.pending[cmd.ID()]
	if p == nil {
		return nil
	}
	if p.accumulate {
		p.matches = append(p.matches, cmd)
		return nil
	}
	// first response wins.
	delete(c.pending, cmd.ID())
	p.result <- cmd
	glog.V(4).Infof("matched %s", cmd)
	return nil
}

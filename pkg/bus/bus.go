// Package bus fans decoded frames out to in-process subscribers.
package bus

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/xh.go/pkg/framework"
	"github.com/robotalks/xh.go/pkg/protocol"
)

// Handler receives published frames.
type Handler interface {
	HandleFrame(protocol.Frame) error
}

// HandlerFunc is the func form of Handler.
type HandlerFunc func(protocol.Frame) error

// HandleFrame implements Handler.
func (f HandlerFunc) HandleFrame(frame protocol.Frame) error {
	return f(frame)
}

// DeliveryError is a failure of one subscriber to handle a frame.
type DeliveryError struct {
	Subscriber string
	Frame      protocol.Frame
	Err        error
}

// Error implements error.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("subscriber %s failed on %s: %v", e.Subscriber, e.Frame.FrameType(), e.Err)
}

// Unwrap returns the subscriber's error.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Bus delivers every published frame to all subscribers, in subscription
// order. A failing subscriber does not affect delivery to others.
type Bus struct {
	subsLock sync.RWMutex
	subs     list.List
}

// Subscription is a subscribed Handler.
type Subscription struct {
	Name string

	bus     *Bus
	elm     *list.Element
	handler Handler
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe adds a handler. name only identifies it in logs and errors.
func (b *Bus) Subscribe(name string, handler Handler) *Subscription {
	sub := &Subscription{Name: name, bus: b, handler: handler}
	b.subsLock.Lock()
	sub.elm = b.subs.PushBack(sub)
	b.subsLock.Unlock()
	glog.V(4).Infof("SUB %s", name)
	return sub
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.subsLock.RLock()
	defer b.subsLock.RUnlock()
	return b.subs.Len()
}

// Publish delivers a frame to all current subscribers and returns an
// AggregatedError of DeliveryErrors if any of them failed. Each failure is
// also logged. A nil frame is ignored.
func (b *Bus) Publish(frame protocol.Frame) error {
	if frame == nil {
		return nil
	}
	b.subsLock.RLock()
	subs := make([]*Subscription, 0, b.subs.Len())
	for elm := b.subs.Front(); elm != nil; elm = elm.Next() {
		subs = append(subs, elm.Value.(*Subscription))
	}
	b.subsLock.RUnlock()

	var errs fx.AggregatedError
	for _, sub := range subs {
		if err := sub.deliver(frame); err != nil {
			glog.Errorf("%v", err)
			errs.Add(err)
		}
	}
	return errs.Aggregate()
}

func (s *Subscription) deliver(frame protocol.Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &DeliveryError{Subscriber: s.Name, Frame: frame, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if e := s.handler.HandleFrame(frame); e != nil {
		return &DeliveryError{Subscriber: s.Name, Frame: frame, Err: e}
	}
	return nil
}

// Close unsubscribes the handler. Closing twice is a no-op.
func (s *Subscription) Close() error {
	s.bus.subsLock.Lock()
	if s.elm != nil {
		s.bus.subs.Remove(s.elm)
		s.elm = nil
	}
	s.bus.subsLock.Unlock()
	glog.V(4).Infof("UNSUB %s", s.Name)
	return nil
}

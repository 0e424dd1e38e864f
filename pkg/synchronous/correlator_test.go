package synchronous

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/xh.go/pkg/bus"
	"github.com/robotalks/xh.go/pkg/codec"
	"github.com/robotalks/xh.go/pkg/protocol"
)

type reply struct {
	after time.Duration
	id    uint32 // 0 means the id of the request.
	param []byte // nil means 0x1234.
}

// scriptedSender publishes canned responses on a bus after each send.
type scriptedSender struct {
	t       *testing.T
	bus     *bus.Bus
	replies []reply
	err     error

	wg sync.WaitGroup
}

func (s *scriptedSender) SendLocal(command, frameID string, parameter []byte) error {
	if s.err != nil {
		return s.err
	}
	reqID, err := codec.ParseHexID(frameID)
	if err != nil {
		return err
	}
	for _, r := range s.replies {
		id := r.id
		if id == 0 {
			id = reqID
		}
		param := r.param
		s.wg.Add(1)
		time.AfterFunc(r.after, func() {
			defer s.wg.Done()
			s.bus.Publish(response(s.t, id, command, param))
		})
	}
	return nil
}

func (s *scriptedSender) SendRemote(command, frameID string, parameter []byte, dest uint64) error {
	return s.SendLocal(command, frameID, parameter)
}

// response may be called off the test goroutine so it never calls FailNow.
func response(t *testing.T, id uint32, command string, param []byte) protocol.Frame {
	fm := protocol.FieldMap{
		protocol.KeyFrameType: string(protocol.FrameTypeATResponse),
		protocol.KeyFrameID:   codec.FormatHexID(id),
		protocol.KeyCommand:   command,
		protocol.KeyStatus:    []byte{0},
	}
	if command != string(protocol.NameNodeDiscover) {
		if param == nil {
			param = []byte{0x12, 0x34}
		}
		fm[protocol.KeyParameter] = param
	}
	frame, err := protocol.Decode(fm)
	if err != nil {
		t.Errorf("decode response: %v", err)
	}
	return frame
}

func newCorrelator(t *testing.T, replies ...reply) (*Correlator, *scriptedSender) {
	b := bus.New()
	s := &scriptedSender{t: t, bus: b, replies: replies}
	return New(b, s), s
}

func TestSendAndWait(t *testing.T) {
	c, s := newCorrelator(t, reply{after: 50 * time.Millisecond})
	defer c.Close()
	cmd, err := protocol.NewCommand(protocol.NameNetworkAddress)
	require.NoError(t, err)

	start := time.Now()
	resp, err := c.SendAndWait(context.Background(), cmd, 200*time.Millisecond)
	require.NoError(t, err)
	assert.Less(t, int64(time.Since(start)), int64(200*time.Millisecond))
	assert.Equal(t, cmd.ID(), resp.ID())
	n, ok := resp.(*protocol.GenericCommand).Number()
	require.True(t, ok)
	assert.Equal(t, uint64(0x1234), n)
	assert.Equal(t, 0, c.Pending())
	s.wg.Wait()
}

func TestSendAndWaitTimeout(t *testing.T) {
	c, s := newCorrelator(t)
	defer c.Close()
	cmd, err := protocol.NewCommand(protocol.NameNetworkAddress)
	require.NoError(t, err)

	start := time.Now()
	_, err = c.SendAndWait(context.Background(), cmd, 0)
	var timeout *TimeoutError
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, DefaultTimeout, timeout.After)
	assert.True(t, timeout.Timeout())
	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(DefaultTimeout))
	assert.Equal(t, 0, c.Pending())

	// a late response to the first request must not match the next one.
	s.bus.Publish(response(t, cmd.ID(), "MY", nil))
	s.replies = []reply{{after: 20 * time.Millisecond, id: cmd.ID()}}
	next, err := protocol.NewCommand(protocol.NameNetworkAddress)
	require.NoError(t, err)
	_, err = c.SendAndWait(context.Background(), next, 100*time.Millisecond)
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, 0, c.Pending())
	s.wg.Wait()
}

func TestSendAndWaitFirstResponseWins(t *testing.T) {
	c, s := newCorrelator(t,
		reply{after: 10 * time.Millisecond},
		reply{after: 20 * time.Millisecond})
	defer c.Close()
	cmd, err := protocol.NewCommand(protocol.NameSerialLow)
	require.NoError(t, err)
	resp, err := c.SendAndWait(context.Background(), cmd, 0)
	require.NoError(t, err)
	assert.Equal(t, cmd.ID(), resp.ID())
	s.wg.Wait()
	assert.Equal(t, 0, c.Pending())
}

func TestSendAndAccumulate(t *testing.T) {
	c, s := newCorrelator(t,
		reply{after: 50 * time.Millisecond, param: []byte{1}},
		reply{after: 80 * time.Millisecond, id: 0xffffff00, param: []byte{9}},
		reply{after: 100 * time.Millisecond, param: []byte{2}},
		reply{after: 250 * time.Millisecond, param: []byte{3}})
	defer c.Close()
	cmd, err := protocol.NewCommand(protocol.NameNetworkAddress)
	require.NoError(t, err)

	start := time.Now()
	got, err := c.SendAndAccumulate(context.Background(), cmd, 300*time.Millisecond)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(300*time.Millisecond))
	require.Len(t, got, 3)
	var order []uint64
	for _, resp := range got {
		assert.Equal(t, cmd.ID(), resp.ID())
		n, ok := resp.(*protocol.GenericCommand).Number()
		require.True(t, ok)
		order = append(order, n)
	}
	assert.Equal(t, []uint64{1, 2, 3}, order)
	assert.Equal(t, 0, c.Pending())
	s.wg.Wait()
}

func TestSendAndAccumulateNothing(t *testing.T) {
	c, _ := newCorrelator(t)
	defer c.Close()
	got, err := c.SendAndAccumulate(context.Background(), protocol.NewNodeDiscover(), 30*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSendFailure(t *testing.T) {
	c, s := newCorrelator(t)
	defer c.Close()
	s.err = errors.New("link down")
	_, err := c.SendAndWait(context.Background(), protocol.NewWrite(), 0)
	assert.EqualError(t, err, "link down")
	_, err = c.SendAndAccumulate(context.Background(), protocol.NewNodeDiscover(), time.Second)
	assert.EqualError(t, err, "link down")
	assert.Equal(t, 0, c.Pending())
}

func TestContextCanceled(t *testing.T) {
	c, _ := newCorrelator(t)
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.SendAndWait(ctx, protocol.NewWrite(), time.Second)
	assert.Equal(t, context.DeadlineExceeded, err)
	assert.Equal(t, 0, c.Pending())
}

func TestClosed(t *testing.T) {
	c, s := newCorrelator(t)
	require.NoError(t, c.Close())
	assert.Equal(t, 0, s.bus.Len())
	_, err := c.SendAndWait(context.Background(), protocol.NewWrite(), 0)
	assert.Equal(t, ErrClosed, err)
}

func TestConcurrentRequests(t *testing.T) {
	c, s := newCorrelator(t, reply{after: 5 * time.Millisecond})
	defer c.Close()
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmd, err := protocol.NewCommand(protocol.NameSerialHigh)
			if err != nil {
				errs <- err
				return
			}
			resp, err := c.SendAndWait(context.Background(), cmd, time.Second)
			if err == nil && resp.ID() != cmd.ID() {
				err = errors.New("mismatched response")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	s.wg.Wait()
	assert.Equal(t, 0, c.Pending())
}

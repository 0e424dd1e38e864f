package transport_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/xh.go/pkg/bus"
	"github.com/robotalks/xh.go/pkg/protocol"
	"github.com/robotalks/xh.go/pkg/synchronous"
	"github.com/robotalks/xh.go/pkg/transport"
	"github.com/robotalks/xh.go/pkg/transport/fake"
	"github.com/robotalks/xh.go/pkg/transport/stream"
)

func runLink(t *testing.T, port transport.Port) (*transport.Link, *synchronous.Correlator, func()) {
	b := bus.New()
	link := transport.NewLink(port, b)
	c := synchronous.New(b, link)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- link.Run(ctx) }()
	return link, c, func() {
		cancel()
		<-done
		c.Close()
	}
}

func TestLinkWithFakeRadio(t *testing.T) {
	radio := fake.New()
	_, c, stop := runLink(t, radio)
	defer stop()

	cmd, err := protocol.NewCommand(protocol.NameSerialLow)
	require.NoError(t, err)
	resp, err := c.SendAndWait(context.Background(), cmd, time.Second)
	require.NoError(t, err)
	n, ok := resp.(*protocol.GenericCommand).Number()
	require.True(t, ok)
	assert.Equal(t, uint64(0x40000001), n)

	nodes, err := c.SendAndAccumulate(context.Background(), protocol.NewNodeDiscover(), 100*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	info, ok := nodes[0].(*protocol.NodeDiscover).Node()
	require.True(t, ok)
	assert.Equal(t, "Node1", info.Name)
}

func TestLinkDropsMalformedFrames(t *testing.T) {
	radio := fake.New()
	link, _, stop := runLink(t, radio)
	defer stop()

	received := make(chan protocol.Frame, 4)
	link.Bus.Subscribe("test", bus.HandlerFunc(func(f protocol.Frame) error {
		received <- f
		return nil
	}))
	require.NoError(t, radio.Inject(protocol.FieldMap{protocol.KeyFrameType: "tx_status"}))
	require.NoError(t, radio.Inject(protocol.FieldMap{
		protocol.KeyFrameType: string(protocol.FrameTypeATResponse),
		protocol.KeyFrameID:   "1",
		protocol.KeyCommand:   "ND",
		protocol.KeyParameter: []byte{0x12},
	}))
	require.NoError(t, radio.Inject(protocol.FieldMap{
		protocol.KeyFrameType: string(protocol.FrameTypeATResponse),
		protocol.KeyFrameID:   "2",
		protocol.KeyCommand:   "WR",
		protocol.KeyStatus:    []byte{0},
	}))
	select {
	case f := <-received:
		assert.Equal(t, protocol.NameWrite, f.(protocol.Command).Name())
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}
}

func TestLinkClosed(t *testing.T) {
	radio := fake.New()
	link := transport.NewLink(radio, bus.New())
	require.NoError(t, link.Close())
	require.NoError(t, link.Close())
	assert.Equal(t, transport.ErrClosed, link.SendLocal("SH", "1", nil))
	assert.Equal(t, transport.ErrClosed, link.Run(context.Background()))
}

func TestLinkOverStream(t *testing.T) {
	hostConn, gwConn := net.Pipe()
	radio := fake.New()
	served := make(chan error, 1)
	go func() {
		served <- radio.Serve(transport.NewGatewayPort(stream.New(gwConn)))
	}()

	_, c, stop := runLink(t, transport.NewPacketPort(stream.New(hostConn)))

	remote := protocol.NewInputVolts(protocol.WithDestination(0x0013a200408cca0e))
	resp, err := c.SendAndWait(context.Background(), remote, time.Second)
	require.NoError(t, err)
	volts, ok := resp.(*protocol.InputVolts).Volts()
	require.True(t, ok)
	assert.InDelta(t, 3.3, volts, 0.01)
	src, ok := resp.Source()
	require.True(t, ok)
	assert.Equal(t, uint16(0x1234), src.ShortAddr)

	unknown := protocol.NewInputVolts(protocol.WithDestination(0x1))
	resp, err = c.SendAndWait(context.Background(), unknown, time.Second)
	require.NoError(t, err)
	var statusErr *protocol.StatusError
	assert.ErrorAs(t, protocol.CheckStatus(resp), &statusErr)

	stop()
	select {
	case err := <-served:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("gateway did not stop")
	}
}

func TestFakeRadioRegisters(t *testing.T) {
	radio := fake.New()
	defer radio.Close()
	_, c, stop := runLink(t, radio)
	defer stop()

	set, err := protocol.NewCommand(protocol.NamePanID, protocol.WithNumber(0x1b37))
	require.NoError(t, err)
	_, err = c.SendAndWait(context.Background(), set, time.Second)
	require.NoError(t, err)
	v, ok := radio.Register(protocol.NamePanID)
	require.True(t, ok)
	assert.Equal(t, []byte{0x1b, 0x37}, v)

	reqs := radio.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "ID", reqs[0].Command)
}

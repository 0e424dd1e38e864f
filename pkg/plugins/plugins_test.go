package plugins

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/xh.go/pkg/bus"
	"github.com/robotalks/xh.go/pkg/codec"
	"github.com/robotalks/xh.go/pkg/protocol"
	"github.com/robotalks/xh.go/pkg/synchronous"
	"github.com/robotalks/xh.go/pkg/transport"
	"github.com/robotalks/xh.go/pkg/transport/fake"
)

func decode(t *testing.T, fm protocol.FieldMap) protocol.Frame {
	frame, err := protocol.Decode(fm)
	require.NoError(t, err)
	return frame
}

func writeResponse(t *testing.T, id uint32) protocol.Frame {
	return decode(t, protocol.FieldMap{
		protocol.KeyFrameType: string(protocol.FrameTypeATResponse),
		protocol.KeyFrameID:   codec.FormatHexID(id),
		protocol.KeyCommand:   "WR",
		protocol.KeyStatus:    []byte{0},
	})
}

func TestFrameLoggerHistory(t *testing.T) {
	l := NewFrameLogger()
	_, ok := l.Latest()
	assert.False(t, ok)

	for i := uint32(1); i <= 3; i++ {
		require.NoError(t, l.HandleFrame(writeResponse(t, i)))
	}
	latest, ok := l.Latest()
	require.True(t, ok)
	assert.Equal(t, uint32(3), latest.(protocol.Command).ID())
	oldest, ok := l.Frame(2)
	require.True(t, ok)
	assert.Equal(t, uint32(1), oldest.(protocol.Command).ID())
	_, ok = l.Frame(3)
	assert.False(t, ok)
	_, ok = l.Frame(-1)
	assert.False(t, ok)

	records := l.Records(2)
	require.Len(t, records, 2)
	assert.Equal(t, uint32(2), records[1].Frame.(protocol.Command).ID())
	assert.False(t, records[0].ReceivedAt.IsZero())

	history := l.History()
	require.Len(t, history, 3)
	assert.Equal(t, uint32(3), history[0].(protocol.Command).ID())
	assert.Equal(t, uint32(1), history[2].(protocol.Command).ID())
}

func TestFrameLoggerTrim(t *testing.T) {
	l := NewFrameLogger()
	frame := writeResponse(t, 1)
	for i := 0; i < FrameHistoryLimit; i++ {
		require.NoError(t, l.HandleFrame(frame))
	}
	assert.Equal(t, FrameHistoryLimit, l.Len())

	last := writeResponse(t, 2)
	require.NoError(t, l.HandleFrame(last))
	assert.Equal(t, FrameHistoryTrim, l.Len())
	latest, ok := l.Latest()
	require.True(t, ok)
	assert.Equal(t, last, latest)
}

func TestPresenceFrames(t *testing.T) {
	p := NewPresence()
	seen := time.Unix(1000, 0)
	p.now = func() time.Time { return seen }

	ioData := decode(t, protocol.FieldMap{
		protocol.KeyFrameType:      string(protocol.FrameTypeIOData),
		protocol.KeyOptions:        []byte{0x01},
		protocol.KeySourceAddr:     []byte{0x56, 0x78},
		protocol.KeySourceAddrLong: codec.NumberToSerialBytes(0x0013a20040a1b2c3),
		protocol.KeySamples:        []map[string]int{{"dio-0": 1}},
	})
	nodeID := decode(t, protocol.FieldMap{
		protocol.KeyFrameType:        string(protocol.FrameTypeNodeID),
		protocol.KeyOptions:          []byte{0x02},
		protocol.KeyNodeID:           "Kitchen",
		protocol.KeyParentSourceAddr: []byte{0xff, 0xfe},
		protocol.KeyDeviceType:       []byte{0x02},
		protocol.KeyProfileID:        []byte{0xc1, 0x05},
		protocol.KeyManufacturerID:   []byte{0x10, 0x1e},
		protocol.KeySourceEvent:      []byte{0x02},
		protocol.KeySourceAddr:       []byte{0x56, 0x78},
		protocol.KeySourceAddrLong:   codec.NumberToSerialBytes(0x0013a20040a1b2c3),
		protocol.KeySenderAddr:       []byte{0x56, 0x78},
		protocol.KeySenderAddrLong:   codec.NumberToSerialBytes(0x0013a20040a1b2c3),
	})
	remote := decode(t, protocol.FieldMap{
		protocol.KeyFrameType:      string(protocol.FrameTypeRemoteATResponse),
		protocol.KeyFrameID:        "1",
		protocol.KeyCommand:        "%V",
		protocol.KeyStatus:         []byte{0},
		protocol.KeySourceAddr:     []byte{0x12, 0x34},
		protocol.KeySourceAddrLong: codec.NumberToSerialBytes(0x0013a200408cca0e),
		protocol.KeyParameter:      []byte{0x0b, 0x00},
	})
	failed := decode(t, protocol.FieldMap{
		protocol.KeyFrameType:      string(protocol.FrameTypeRemoteATResponse),
		protocol.KeyFrameID:        "2",
		protocol.KeyCommand:        "%V",
		protocol.KeyStatus:         []byte{4},
		protocol.KeySourceAddr:     []byte{0xff, 0xfe},
		protocol.KeySourceAddrLong: codec.NumberToSerialBytes(0x1),
	})

	for _, f := range []protocol.Frame{ioData, writeResponse(t, 3), failed} {
		require.NoError(t, p.HandleFrame(f))
	}
	assert.Equal(t, []uint64{0x0013a20040a1b2c3}, p.RemoteSerials())
	assert.Nil(t, p.Nodes()[0].Info)

	require.NoError(t, p.HandleFrame(nodeID))
	require.NoError(t, p.HandleFrame(remote))
	nodes := p.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, uint64(0x0013a200408cca0e), nodes[0].Serial)
	assert.Nil(t, nodes[0].Info)
	require.NotNil(t, nodes[1].Info)
	assert.Equal(t, "Kitchen", nodes[1].Info.Name)
	assert.Equal(t, seen, nodes[1].LastSeen)
}

func TestPresenceActivate(t *testing.T) {
	radio := fake.New()
	b := bus.New()
	link := transport.NewLink(radio, b)
	c := synchronous.New(b, link)
	defer c.Close()
	p := NewPresence()
	b.Subscribe(p.Name(), p)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- link.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	_, ok := p.LocalSerial()
	assert.False(t, ok)
	require.NoError(t, p.Activate(context.Background(), c, link))
	serial, ok := p.LocalSerial()
	require.True(t, ok)
	assert.Equal(t, fake.DefaultSerial, serial)

	require.Eventually(t, func() bool {
		return len(p.RemoteSerials()) == 2
	}, time.Second, 10*time.Millisecond)
	for _, n := range p.Nodes() {
		require.NotNil(t, n.Info)
	}
}

package fake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/xh.go/pkg/protocol"
	"github.com/robotalks/xh.go/pkg/transport"
)

func TestRespondLocal(t *testing.T) {
	r := New()
	testCases := []struct {
		name    string
		req     protocol.Request
		status  byte
		param   []byte
		noParam bool
	}{
		{"query", protocol.Request{Command: "MY", FrameID: "1"}, 0, []byte{0, 0}, false},
		{"set", protocol.Request{Command: "NI", FrameID: "2", Parameter: []byte("hub")}, 0, nil, true},
		{"query after set", protocol.Request{Command: "NI", FrameID: "3"}, 0, []byte("hub"), false},
		{"write", protocol.Request{Command: "WR", FrameID: "4"}, 0, nil, true},
		{"link key is write only", protocol.Request{Command: "KY", FrameID: "5"}, 0, nil, true},
		{"invalid", protocol.Request{Command: "QQ", FrameID: "6"}, 2, nil, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			fms := r.Respond(&req)
			require.Len(t, fms, 1)
			fm := fms[0]
			assert.Equal(t, req.FrameID, fm[protocol.KeyFrameID])
			assert.Equal(t, []byte{tc.status}, fm[protocol.KeyStatus])
			if tc.noParam {
				assert.False(t, fm.Has(protocol.KeyParameter))
			} else {
				assert.Equal(t, tc.param, fm[protocol.KeyParameter])
			}
		})
	}
	assert.Len(t, r.Requests(), len(testCases))
}

func TestRespondNodeDiscover(t *testing.T) {
	r := New().WithNodes(DefaultNodes()[1])
	fms := r.Respond(&protocol.Request{Command: "ND", FrameID: "9"})
	require.Len(t, fms, 1)
	frame, err := protocol.Decode(fms[0])
	require.NoError(t, err)
	info, ok := frame.(*protocol.NodeDiscover).Node()
	require.True(t, ok)
	assert.Equal(t, "Porch", info.Name)

	assert.Empty(t, New().WithNodes().Respond(&protocol.Request{Command: "ND", FrameID: "a"}))
}

func TestRespondRemote(t *testing.T) {
	r := New()
	node := DefaultNodes()[0]
	fms := r.Respond(&protocol.Request{Command: "D1", FrameID: "b", Parameter: []byte{2}, Destination: node.Info.Serial, Remote: true})
	require.Len(t, fms, 1)
	frame, err := protocol.Decode(fms[0])
	require.NoError(t, err)
	cmd := frame.(*protocol.ConfigureIOPin)
	src, ok := cmd.Source()
	require.True(t, ok)
	assert.Equal(t, node.Info.Serial, src.Serial)

	fms = r.Respond(&protocol.Request{Command: "D1", FrameID: "c", Destination: node.Info.Serial, Remote: true})
	frame, err = protocol.Decode(fms[0])
	require.NoError(t, err)
	fn, ok := frame.(*protocol.ConfigureIOPin).Function()
	require.True(t, ok)
	assert.Equal(t, protocol.FuncAnalogInput, fn)
}

func TestReadAfterClose(t *testing.T) {
	r := New()
	r.Delay = time.Millisecond
	require.NoError(t, r.WriteRequest(&protocol.Request{Command: "SH", FrameID: "1"}))
	fm, err := r.ReadFieldMap()
	require.NoError(t, err)
	assert.Equal(t, "SH", fm[protocol.KeyCommand])

	require.NoError(t, r.Close())
	_, err = r.ReadFieldMap()
	assert.Equal(t, transport.ErrClosed, err)
	assert.Equal(t, transport.ErrClosed, r.WriteRequest(&protocol.Request{Command: "SH", FrameID: "2"}))
	assert.Equal(t, transport.ErrClosed, r.Inject(protocol.FieldMap{}))
}

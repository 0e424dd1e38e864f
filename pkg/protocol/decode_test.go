package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/xh.go/pkg/codec"
)

func atResponse(frameID, command string, status byte, parameter []byte) FieldMap {
	fm := FieldMap{
		KeyFrameType: string(FrameTypeATResponse),
		KeyFrameID:   frameID,
		KeyCommand:   command,
		KeyStatus:    []byte{status},
	}
	if parameter != nil {
		fm[KeyParameter] = parameter
	}
	return fm
}

func TestDecodeNodeDiscoverResponse(t *testing.T) {
	frame, unused, err := DecodeFields(atResponse("1f", "ND", 0, node1Record))
	require.NoError(t, err)
	require.Empty(t, unused)
	nd, ok := frame.(*NodeDiscover)
	require.True(t, ok)
	assert.Equal(t, FrameTypeATResponse, nd.FrameType())
	assert.Equal(t, uint32(0x1f), nd.ID())
	assert.Equal(t, NameNodeDiscover, nd.Name())
	assert.True(t, nd.IsResponse())
	status, ok := nd.Status()
	assert.True(t, ok)
	assert.Equal(t, StatusOK, status)
	info, ok := nd.Node()
	require.True(t, ok)
	assert.Equal(t, "Node1", info.Name)
	assert.Equal(t, uint64(0x0013a200408cca0e), info.Serial)
	assert.Contains(t, nd.String(), `NI="Node1"`)
}

func TestDecodeTruncatedNodeDiscover(t *testing.T) {
	_, err := Decode(atResponse("1", "ND", 0, node1Record[:12]))
	var truncated *TruncatedError
	require.True(t, errors.As(err, &truncated))

	// unrelated frames still decode.
	frame, err := Decode(atResponse("2", "ND", 0, node1Record))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), frame.(Command).ID())
}

func TestDecodeUnknownFrameType(t *testing.T) {
	_, err := Decode(FieldMap{KeyFrameType: "tx_status"})
	var unknown *UnknownFrameTypeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, FrameType("tx_status"), unknown.Type)
	assert.Nil(t, DecodeSafe(FieldMap{KeyFrameType: "tx_status"}))
}

func TestDecodeMissingFields(t *testing.T) {
	_, err := Decode(FieldMap{KeyCommand: "ND"})
	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, KeyFrameType, missing.Field)

	_, err = Decode(FieldMap{KeyFrameType: string(FrameTypeATResponse), KeyCommand: "ND"})
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, KeyFrameID, missing.Field)
}

func TestDecodeUnusedKeys(t *testing.T) {
	fm := atResponse("3", "SH", 0, []byte{0x00, 0x13, 0xa2, 0x00})
	fm["rssi"] = []byte{0x28}
	fm["extra"] = "x"
	frame, unused, err := DecodeFields(fm)
	require.NoError(t, err)
	assert.Equal(t, []string{"extra", "rssi"}, unused)
	cmd := frame.(*GenericCommand)
	n, ok := cmd.Number()
	require.True(t, ok)
	assert.Equal(t, uint64(0x0013a200), n)
	assert.False(t, cmd.NumberGuessed())

	// the warning does not fail decoding.
	frame, err = Decode(fm)
	require.NoError(t, err)
	assert.NotNil(t, frame)
}

// Commands without a known parameter structure are read as a number with a
// warning. This is accepted behavior, not a decode failure.
func TestDecodeUncatalogedParameterAccepted(t *testing.T) {
	frame, err := Decode(atResponse("4", "KY", 0, []byte{0x01, 0x02}))
	require.NoError(t, err)
	cmd, ok := frame.(*GenericCommand)
	require.True(t, ok)
	n, ok := cmd.Number()
	require.True(t, ok)
	assert.Equal(t, uint64(0x0102), n)
	assert.True(t, cmd.NumberGuessed())

	// too wide for a number: kept raw.
	wide := make([]byte, 16)
	wide[0] = 0x80
	frame, err = Decode(atResponse("5", "KY", 0, wide))
	require.NoError(t, err)
	cmd = frame.(*GenericCommand)
	_, ok = cmd.Number()
	assert.False(t, ok)
	assert.Equal(t, wide, cmd.Parameter())
}

func TestDecodeInvalidValues(t *testing.T) {
	testCases := []struct {
		name  string
		fm    FieldMap
		field string
	}{
		{"unknown status", atResponse("1", "MY", 5, nil), KeyStatus},
		{"unknown command", atResponse("1", "ZZ", 0, nil), KeyCommand},
		{"bad frame id", atResponse("xyz", "MY", 0, nil), KeyFrameID},
		{"bad boolean", atResponse("1", "EE", 0, []byte{2}), KeyParameter},
		{"ambiguous pin function", atResponse("1", "D1", 0, []byte{1}), KeyParameter},
		{"sample rate too fast", atResponse("1", "IR", 0, []byte{0x10}), KeyParameter},
		{"unknown sleep mode", atResponse("1", "SM", 0, []byte{2}), KeyParameter},
		{"pull-up out of field", atResponse("1", "PR", 0, []byte{0x40, 0x00}), KeyParameter},
		{"wrong value type", FieldMap{KeyFrameType: string(FrameTypeATResponse), KeyFrameID: "1", KeyCommand: "MY", KeyStatus: 0}, KeyStatus},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.fm)
			var invalid *InvalidFieldError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Equal(t, tc.field, invalid.Field)
		})
	}
}

func TestDecodeStatusError(t *testing.T) {
	frame, err := Decode(atResponse("a", "IS", byte(StatusErr), nil))
	require.NoError(t, err)
	cmd := frame.(Command)
	err = CheckStatus(cmd)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, StatusErr, statusErr.Status)
	assert.Equal(t, uint32(0xa), statusErr.ID)

	frame, err = Decode(atResponse("b", "IS", 0, nil))
	require.NoError(t, err)
	assert.NoError(t, CheckStatus(frame.(Command)))
}

func TestDecodeRemoteResponse(t *testing.T) {
	fm := FieldMap{
		KeyFrameType:      string(FrameTypeRemoteATResponse),
		KeyFrameID:        "20",
		KeyCommand:        "%V",
		KeyStatus:         []byte{0},
		KeyParameter:      []byte{0x0b, 0x00},
		KeySourceAddr:     []byte{0x12, 0x34},
		KeySourceAddrLong: codec.NumberToSerialBytes(0x0013a200408cca0e),
	}
	frame, unused, err := DecodeFields(fm)
	require.NoError(t, err)
	require.Empty(t, unused)
	cmd := frame.(*InputVolts)
	assert.Equal(t, FrameTypeRemoteATResponse, cmd.FrameType())
	src, ok := cmd.Source()
	require.True(t, ok)
	assert.Equal(t, RemoteSource{ShortAddr: 0x1234, Serial: 0x0013a200408cca0e}, src)
	volts, ok := cmd.Volts()
	require.True(t, ok)
	assert.InDelta(t, 3.3, volts, 0.01)
	_, err = cmd.Request()
	assert.Equal(t, ErrNotOutbound, err)
}

func TestDecodeNodeID(t *testing.T) {
	fm := FieldMap{
		KeyFrameType:        string(FrameTypeNodeID),
		KeyOptions:          []byte{0x02},
		KeyNodeID:           "Kitchen",
		KeyParentSourceAddr: []byte{0xff, 0xfe},
		KeyDeviceType:       []byte{0x02},
		KeyProfileID:        []byte{0xc1, 0x05},
		KeyManufacturerID:   []byte{0x10, 0x1e},
		KeySourceEvent:      []byte{0x02},
		KeySourceAddr:       []byte{0x56, 0x78},
		KeySourceAddrLong:   codec.NumberToSerialBytes(0x0013a20040a1b2c3),
		KeySenderAddr:       []byte{0x56, 0x78},
		KeySenderAddrLong:   codec.NumberToSerialBytes(0x0013a20040a1b2c3),
	}
	frame, unused, err := DecodeFields(fm)
	require.NoError(t, err)
	require.Empty(t, unused)
	id := frame.(*NodeID)
	assert.True(t, id.Options.Has(ReceiveBroadcast))
	info := id.Info()
	assert.Equal(t, "Kitchen", info.Name)
	assert.Equal(t, RoleEndDevice, info.Role)
	assert.Equal(t, uint16(0x5678), info.ShortAddr)
	assert.Equal(t, uint64(0x0013a20040a1b2c3), info.Serial)
	assert.Equal(t, EventJoin, id.Event())
	addr, serial := id.Sender()
	assert.Equal(t, uint16(0x5678), addr)
	assert.Equal(t, uint64(0x0013a20040a1b2c3), serial)

	fm[KeySourceEvent] = []byte{0x00}
	_, err = Decode(fm)
	var invalid *InvalidFieldError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, KeySourceEvent, invalid.Field)
}

func TestDecodeIOData(t *testing.T) {
	fm := FieldMap{
		KeyFrameType:      string(FrameTypeIOData),
		KeyOptions:        []byte{0x01},
		KeySourceAddr:     []byte{0x56, 0x78},
		KeySourceAddrLong: codec.NumberToSerialBytes(0x0013a20040a1b2c3),
		KeySamples:        []map[string]int{{"dio-0": 1, "adc-1": 512, "adc-7": 1024}},
	}
	frame, unused, err := DecodeFields(fm)
	require.NoError(t, err)
	require.Empty(t, unused)
	data := frame.(*IOData)
	addr, serial := data.Source()
	assert.Equal(t, uint16(0x5678), addr)
	assert.Equal(t, uint64(0x0013a20040a1b2c3), serial)
	assert.False(t, data.Timestamp().IsZero())
	samples := data.Samples()
	require.Len(t, samples, 3)
	assert.Equal(t, PinAD1, samples[0].Pin)
	assert.True(t, samples[0].Analog)
	assert.InDelta(t, 0.6, samples[0].Volts, 1e-9)
	assert.Equal(t, PinVCC, samples[1].Pin)
	assert.InDelta(t, 1.2, samples[1].Volts, 1e-9)
	assert.Equal(t, Sample{Pin: PinDIO0, High: true}, samples[2])

	fm[KeySamples] = []map[string]int{{"dio-0": 2}}
	_, err = Decode(fm)
	require.Error(t, err)
	fm[KeySamples] = []map[string]int{{"pwm-0": 1}}
	_, err = Decode(fm)
	require.Error(t, err)
	fm[KeySamples] = []map[string]int{{"adc-5": 1}}
	_, err = Decode(fm)
	require.Error(t, err)
}

package protocol

import (
	"fmt"
	"strings"
)

// FrameType is the message-kind tag carried in the "id" field.
type FrameType string

// Known frame types.
const (
	FrameTypeATResponse       FrameType = "at_response"
	FrameTypeRemoteATResponse FrameType = "remote_at_response"
	FrameTypeIOData           FrameType = "rx_io_data_long_addr"
	FrameTypeNodeID           FrameType = "node_id_indicator"

	// outbound only, never decoded.
	FrameTypeAT       FrameType = "at"
	FrameTypeRemoteAT FrameType = "remote_at"
)

var frameTypes = map[FrameType]bool{
	FrameTypeATResponse:       true,
	FrameTypeRemoteATResponse: true,
	FrameTypeIOData:           true,
	FrameTypeNodeID:           true,
	FrameTypeAT:               true,
	FrameTypeRemoteAT:         true,
}

// Valid checks if the frame type is in the enumeration.
func (t FrameType) Valid() bool {
	return frameTypes[t]
}

// ReceiveOption is the bit field describing how a frame arrived.
type ReceiveOption byte

// Receive options.
const (
	ReceiveAcknowledged ReceiveOption = 1
	ReceiveBroadcast    ReceiveOption = 2
)

// Has checks if all bits of o are set.
func (r ReceiveOption) Has(o ReceiveOption) bool {
	return r&o == o
}

// String implements fmt.Stringer.
func (r ReceiveOption) String() string {
	var names []string
	if r.Has(ReceiveAcknowledged) {
		names = append(names, "ACKNOWLEDGED")
	}
	if r.Has(ReceiveBroadcast) {
		names = append(names, "BROADCAST")
	}
	if rest := r &^ (ReceiveAcknowledged | ReceiveBroadcast); rest != 0 || len(names) == 0 {
		names = append(names, fmt.Sprintf("0x%02x", byte(rest)))
	}
	return strings.Join(names, "|")
}

// Frame is one decoded protocol message.
type Frame interface {
	FrameType() FrameType
	String() string
}

// FrameHeader holds the fields common to all frames.
type FrameHeader struct {
	Type    FrameType
	Options ReceiveOption
}

// FrameType implements Frame.
func (h *FrameHeader) FrameType() FrameType {
	return h.Type
}

// namedValues formats key=value pairs, skipping unset values.
type namedValues struct {
	strings.Builder
}

func (v *namedValues) add(name string, value interface{}) *namedValues {
	switch val := value.(type) {
	case nil:
		return v
	case uint8, uint16, uint32, uint64:
		fmt.Fprintf(v, " %s=0x%x", name, val)
	case string:
		fmt.Fprintf(v, " %s=%q", name, val)
	case []byte:
		fmt.Fprintf(v, " %s=%x", name, val)
	case float64:
		fmt.Fprintf(v, " %s=%.3f", name, val)
	default:
		fmt.Fprintf(v, " %s=%v", name, val)
	}
	return v
}

func (v *namedValues) options(o ReceiveOption) *namedValues {
	if o != 0 {
		v.add("options", o)
	}
	return v
}

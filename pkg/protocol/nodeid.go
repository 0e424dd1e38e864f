package protocol

import "fmt"

// SourceEvent is the cause of a node identification frame.
type SourceEvent byte

// Source events, 1-indexed on the wire.
const (
	EventButton SourceEvent = iota + 1
	EventJoin
	EventPowerCycle
)

// String implements fmt.Stringer.
func (e SourceEvent) String() string {
	switch e {
	case EventButton:
		return "BUTTON"
	case EventJoin:
		return "JOIN"
	case EventPowerCycle:
		return "POWER_CYCLE"
	}
	return fmt.Sprintf("EVENT(%d)", byte(e))
}

// ParseSourceEvent validates a raw source event.
func ParseSourceEvent(n uint64) (SourceEvent, error) {
	if n < uint64(EventButton) || n > uint64(EventPowerCycle) {
		return 0, fmt.Errorf("unknown source event %d", n)
	}
	return SourceEvent(n), nil
}

// NodeID is the identification frame a module sends when it joins,
// power cycles or its commissioning button is pressed.
type NodeID struct {
	FrameHeader

	info         NodeInfo
	event        SourceEvent
	senderAddr   uint16
	senderSerial uint64
}

// Info returns the identity of the module.
func (f *NodeID) Info() NodeInfo { return f.info }

// Event returns why the frame was sent.
func (f *NodeID) Event() SourceEvent { return f.event }

// Sender returns the address of the module which relayed the frame.
func (f *NodeID) Sender() (addr uint16, serial uint64) {
	return f.senderAddr, f.senderSerial
}

// String implements Frame.
func (f *NodeID) String() string {
	var v namedValues
	v.options(f.Options)
	f.info.describe(&v)
	v.add("sourceEvent", f.event).
		add("senderAddr", f.senderAddr).
		add("senderSerial", f.senderSerial)
	return "NodeId" + v.String()
}

func decodeNodeID(fm FieldMap, used KeySet) (Frame, error) {
	r := newFieldReader(fm, used)
	f := &NodeID{FrameHeader: r.header(FrameTypeNodeID)}
	f.info.Name = r.text(KeyNodeID)
	f.info.ParentAddr = uint16(r.number(KeyParentSourceAddr))
	role := r.number(KeyDeviceType)
	f.info.ProfileID = uint16(r.number(KeyProfileID))
	f.info.ManufacturerID = uint16(r.number(KeyManufacturerID))
	event := r.number(KeySourceEvent)
	f.info.ShortAddr = uint16(r.number(KeySourceAddr))
	f.info.Serial = r.number(KeySourceAddrLong)
	f.senderAddr = uint16(r.number(KeySenderAddr))
	f.senderSerial = r.number(KeySenderAddrLong)
	if r.err != nil {
		return nil, r.err
	}
	var err error
	if f.info.Role, err = ParseDeviceRole(role); err != nil {
		return nil, &InvalidFieldError{Field: KeyDeviceType, Err: err}
	}
	if f.event, err = ParseSourceEvent(event); err != nil {
		return nil, &InvalidFieldError{Field: KeySourceEvent, Err: err}
	}
	return f, nil
}

func init() {
	Frames.MustPut(FrameTypeNodeID, decodeNodeID)
}

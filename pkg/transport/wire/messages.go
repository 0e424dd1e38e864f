package wire

import "github.com/golang/protobuf/proto"

// Messages of wire.proto.

// Envelope carries either an inbound field map or an outbound request.
type Envelope struct {
	Fields  map[string][]byte `protobuf:"bytes,1,rep,name=fields,proto3" json:"fields,omitempty" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
	Samples []*SampleSet      `protobuf:"bytes,2,rep,name=samples,proto3" json:"samples,omitempty"`
	Request *Request          `protobuf:"bytes,3,opt,name=request,proto3" json:"request,omitempty"`
	Text    map[string]string `protobuf:"bytes,4,rep,name=text,proto3" json:"text,omitempty" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

func (m *Envelope) Reset()         { *m = Envelope{} }
func (m *Envelope) String() string { return proto.CompactTextString(m) }
func (*Envelope) ProtoMessage()    {}

// SampleSet is one set of IO samples keyed by channel ("adc-N", "dio-N").
type SampleSet struct {
	Values map[string]int32 `protobuf:"bytes,1,rep,name=values,proto3" json:"values,omitempty" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"zigzag32,2,opt,name=value,proto3"`
}

func (m *SampleSet) Reset()         { *m = SampleSet{} }
func (m *SampleSet) String() string { return proto.CompactTextString(m) }
func (*SampleSet) ProtoMessage()    {}

// Request is an outbound AT command.
type Request struct {
	Command      string `protobuf:"bytes,1,opt,name=command,proto3" json:"command,omitempty"`
	FrameId      string `protobuf:"bytes,2,opt,name=frame_id,json=frameId,proto3" json:"frame_id,omitempty"`
	Parameter    []byte `protobuf:"bytes,3,opt,name=parameter,proto3" json:"parameter,omitempty"`
	DestAddrLong uint64 `protobuf:"fixed64,4,opt,name=dest_addr_long,json=destAddrLong,proto3" json:"dest_addr_long,omitempty"`
	Remote       bool   `protobuf:"varint,5,opt,name=remote,proto3" json:"remote,omitempty"`
}

func (m *Request) Reset()         { *m = Request{} }
func (m *Request) String() string { return proto.CompactTextString(m) }
func (*Request) ProtoMessage()    {}

// FrameSummary is a decoded frame as republished by the bridge.
type FrameSummary struct {
	FrameType    string `protobuf:"bytes,1,opt,name=frame_type,json=frameType,proto3" json:"frame_type,omitempty"`
	Description  string `protobuf:"bytes,2,opt,name=description,proto3" json:"description,omitempty"`
	FrameId      uint32 `protobuf:"varint,3,opt,name=frame_id,json=frameId,proto3" json:"frame_id,omitempty"`
	Command      string `protobuf:"bytes,4,opt,name=command,proto3" json:"command,omitempty"`
	Status       string `protobuf:"bytes,5,opt,name=status,proto3" json:"status,omitempty"`
	Serial       uint64 `protobuf:"fixed64,6,opt,name=serial,proto3" json:"serial,omitempty"`
	ReceivedAtNs int64  `protobuf:"varint,7,opt,name=received_at_ns,json=receivedAtNs,proto3" json:"received_at_ns,omitempty"`
}

func (m *FrameSummary) Reset()         { *m = FrameSummary{} }
func (m *FrameSummary) String() string { return proto.CompactTextString(m) }
func (*FrameSummary) ProtoMessage()    {}

// Package wire is the protobuf envelope carrying field maps and requests
// between the host and the gateway.
package wire

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/xh.go/pkg/protocol"
)

// ErrNoRequest indicates the envelope carries a field map, not a request.
var ErrNoRequest = errors.New("envelope carries no request")

// UnsupportedValueError is a field map value the envelope cannot carry.
type UnsupportedValueError struct {
	Key   string
	Value interface{}
}

// Error implements error.
func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("field %q: unsupported value type %T", e.Key, e.Value)
}

// EnvelopeFromFieldMap converts a field map into an Envelope.
func EnvelopeFromFieldMap(fm protocol.FieldMap) (*Envelope, error) {
	env := &Envelope{}
	for key, val := range fm {
		switch v := val.(type) {
		case []byte:
			if env.Fields == nil {
				env.Fields = make(map[string][]byte)
			}
			env.Fields[key] = v
		case string:
			if env.Text == nil {
				env.Text = make(map[string]string)
			}
			env.Text[key] = v
		case []map[string]int:
			if key != protocol.KeySamples {
				return nil, &UnsupportedValueError{Key: key, Value: val}
			}
			for _, set := range v {
				values := make(map[string]int32, len(set))
				for ch, n := range set {
					if n < math.MinInt32 || n > math.MaxInt32 {
						return nil, fmt.Errorf("sample %s=%d out of range", ch, n)
					}
					values[ch] = int32(n)
				}
				env.Samples = append(env.Samples, &SampleSet{Values: values})
			}
		default:
			return nil, &UnsupportedValueError{Key: key, Value: val}
		}
	}
	return env, nil
}

// FieldMap converts the envelope back into a field map.
func (m *Envelope) FieldMap() protocol.FieldMap {
	fm := make(protocol.FieldMap, len(m.Fields)+len(m.Text)+1)
	for key, val := range m.Fields {
		if val == nil {
			val = []byte{}
		}
		fm[key] = val
	}
	for key, val := range m.Text {
		fm[key] = val
	}
	if len(m.Samples) > 0 {
		sets := make([]map[string]int, len(m.Samples))
		for n, set := range m.Samples {
			sets[n] = make(map[string]int, len(set.GetValues()))
			for ch, v := range set.GetValues() {
				sets[n][ch] = int(v)
			}
		}
		fm[protocol.KeySamples] = sets
	}
	return fm
}

// GetValues returns the values, nil safe.
func (m *SampleSet) GetValues() map[string]int32 {
	if m == nil {
		return nil
	}
	return m.Values
}

// EncodeFieldMap encodes a field map as an Envelope.
func EncodeFieldMap(fm protocol.FieldMap) ([]byte, error) {
	env, err := EnvelopeFromFieldMap(fm)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(env)
}

// DecodeFieldMap decodes an Envelope into a field map.
func DecodeFieldMap(data []byte) (protocol.FieldMap, error) {
	var env Envelope
	if err := proto.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return env.FieldMap(), nil
}

// EncodeRequest encodes an outbound request as an Envelope.
func EncodeRequest(r *protocol.Request) ([]byte, error) {
	return proto.Marshal(&Envelope{Request: &Request{
		Command:      r.Command,
		FrameId:      r.FrameID,
		Parameter:    r.Parameter,
		DestAddrLong: r.Destination,
		Remote:       r.Remote,
	}})
}

// DecodeRequest decodes an Envelope carrying a request.
func DecodeRequest(data []byte) (*protocol.Request, error) {
	var env Envelope
	if err := proto.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if env.Request == nil {
		return nil, ErrNoRequest
	}
	return &protocol.Request{
		Command:     env.Request.Command,
		FrameID:     env.Request.FrameId,
		Parameter:   env.Request.Parameter,
		Destination: env.Request.DestAddrLong,
		Remote:      env.Request.Remote,
	}, nil
}

// NewFrameSummary summarizes a decoded frame.
func NewFrameSummary(f protocol.Frame, receivedAt time.Time) *FrameSummary {
	s := &FrameSummary{
		FrameType:    string(f.FrameType()),
		Description:  f.String(),
		ReceivedAtNs: receivedAt.UnixNano(),
	}
	switch v := f.(type) {
	case protocol.Command:
		s.FrameId = v.ID()
		s.Command = string(v.Name())
		if status, ok := v.Status(); ok {
			s.Status = status.String()
		}
		if src, ok := v.Source(); ok {
			s.Serial = src.Serial
		}
	case *protocol.NodeID:
		s.Serial = v.Info().Serial
	case *protocol.IOData:
		_, s.Serial = v.Source()
	}
	return s
}

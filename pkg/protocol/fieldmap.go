package protocol

import (
	"fmt"
	"sort"
	"strings"

	"github.com/robotalks/xh.go/pkg/codec"
)

// Field map keys shared by the frame kinds.
const (
	KeyFrameType = "id"
	KeyOptions   = "options"

	KeyFrameID   = "frame_id"
	KeyCommand   = "command"
	KeyParameter = "parameter"
	KeyStatus    = "status"

	KeySourceAddr       = "source_addr"
	KeySourceAddrLong   = "source_addr_long"
	KeySenderAddr       = "sender_addr"
	KeySenderAddrLong   = "sender_addr_long"
	KeyNodeID           = "node_id"
	KeyParentSourceAddr = "parent_source_addr"
	KeyDeviceType       = "device_type"
	KeyProfileID        = "digi_profile_id"
	KeyManufacturerID   = "manufacturer_id"
	KeySourceEvent      = "source_event"
	KeySamples          = "samples"
)

// FieldMap is the loosely typed representation of one inbound message.
// Values are []byte (packed numbers), string (ASCII text) or
// []map[string]int (IO sample sets).
type FieldMap map[string]interface{}

// Bytes gets a raw value. Strings are accepted as raw bytes.
func (fm FieldMap) Bytes(key string) ([]byte, bool) {
	switch v := fm[key].(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	}
	return nil, false
}

// Text gets an ASCII value. Raw bytes are accepted as text.
func (fm FieldMap) Text(key string) (string, bool) {
	switch v := fm[key].(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

// SampleSets gets IO sample sets.
func (fm FieldMap) SampleSets(key string) ([]map[string]int, bool) {
	v, ok := fm[key].([]map[string]int)
	return v, ok
}

// Has checks if key is present.
func (fm FieldMap) Has(key string) bool {
	_, ok := fm[key]
	return ok
}

// String renders the map with sorted keys.
func (fm FieldMap) String() string {
	keys := make([]string, 0, len(fm))
	for k := range fm {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fm.format(keys)
}

func (fm FieldMap) format(keys []string) string {
	parts := make([]string, len(keys))
	for n, k := range keys {
		switch v := fm[k].(type) {
		case []byte:
			parts[n] = fmt.Sprintf("%s:%x", k, v)
		case string:
			parts[n] = fmt.Sprintf("%s:%q", k, v)
		default:
			parts[n] = fmt.Sprintf("%s:%v", k, v)
		}
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// KeySet records the keys a decoder consumed.
type KeySet map[string]struct{}

// Add adds keys.
func (s KeySet) Add(keys ...string) {
	for _, k := range keys {
		s[k] = struct{}{}
	}
}

// Has checks if key was consumed.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Unused returns the sorted keys of fm not in the set.
func (s KeySet) Unused(fm FieldMap) []string {
	var keys []string
	for k := range fm {
		if !s.Has(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// fieldReader reads fields and records consumed keys.
// The first error sticks and later reads return zero values.
type fieldReader struct {
	fm   FieldMap
	used KeySet
	err  error
}

func newFieldReader(fm FieldMap, used KeySet) *fieldReader {
	return &fieldReader{fm: fm, used: used}
}

func (r *fieldReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *fieldReader) optionalBytes(key string) ([]byte, bool) {
	if r.err != nil || !r.fm.Has(key) {
		return nil, false
	}
	b, ok := r.fm.Bytes(key)
	if !ok {
		r.fail(&InvalidFieldError{Field: key, Reason: fmt.Sprintf("unexpected value type %T", r.fm[key])})
		return nil, false
	}
	r.used.Add(key)
	return b, true
}

func (r *fieldReader) bytes(key string) []byte {
	if r.err == nil && !r.fm.Has(key) {
		r.fail(&MissingFieldError{Field: key})
	}
	b, _ := r.optionalBytes(key)
	return b
}

func (r *fieldReader) numberOf(key string, b []byte) uint64 {
	n, err := codec.BytesToNumber(b)
	if err != nil {
		r.fail(&InvalidFieldError{Field: key, Err: err})
	}
	return n
}

func (r *fieldReader) number(key string) uint64 {
	b := r.bytes(key)
	if r.err != nil {
		return 0
	}
	return r.numberOf(key, b)
}

func (r *fieldReader) optionalNumber(key string) (uint64, bool) {
	b, ok := r.optionalBytes(key)
	if !ok {
		return 0, false
	}
	return r.numberOf(key, b), r.err == nil
}

func (r *fieldReader) text(key string) string {
	if r.err != nil {
		return ""
	}
	if !r.fm.Has(key) {
		r.fail(&MissingFieldError{Field: key})
		return ""
	}
	s, ok := r.fm.Text(key)
	if !ok {
		r.fail(&InvalidFieldError{Field: key, Reason: fmt.Sprintf("unexpected value type %T", r.fm[key])})
		return ""
	}
	r.used.Add(key)
	return s
}

func (r *fieldReader) sampleSets(key string) []map[string]int {
	if r.err != nil {
		return nil
	}
	if !r.fm.Has(key) {
		r.fail(&MissingFieldError{Field: key})
		return nil
	}
	sets, ok := r.fm.SampleSets(key)
	if !ok {
		r.fail(&InvalidFieldError{Field: key, Reason: fmt.Sprintf("unexpected value type %T", r.fm[key])})
		return nil
	}
	r.used.Add(key)
	return sets
}

// header reads the fields common to all frames.
func (r *fieldReader) header(t FrameType) FrameHeader {
	h := FrameHeader{Type: t}
	if opts, ok := r.optionalNumber(KeyOptions); ok {
		h.Options = ReceiveOption(opts)
	}
	return h
}

package protocol

import "github.com/golang/glog"

// DecodeFields decodes a field map using the Frames registry and returns
// the keys the decoder did not consume.
func DecodeFields(fm FieldMap) (Frame, []string, error) {
	used := make(KeySet)
	tag, ok := fm.Text(KeyFrameType)
	if !ok {
		return nil, nil, &MissingFieldError{Field: KeyFrameType}
	}
	used.Add(KeyFrameType)
	decode := Frames.Get(FrameType(tag))
	if decode == nil {
		return nil, nil, &UnknownFrameTypeError{Type: FrameType(tag)}
	}
	frame, err := decode(fm, used)
	if err != nil {
		return nil, nil, err
	}
	return frame, used.Unused(fm), nil
}

// Decode decodes a field map and logs a warning naming any fields the
// decoder did not consume.
func Decode(fm FieldMap) (Frame, error) {
	frame, unused, err := DecodeFields(fm)
	if err != nil {
		return nil, err
	}
	if len(unused) > 0 {
		glog.Warningf("in decoding %s, did not use %s", frame, fm.format(unused))
	}
	return frame, nil
}

// DecodeSafe is Decode which logs errors and returns nil instead.
func DecodeSafe(fm FieldMap) Frame {
	frame, err := Decode(fm)
	if err != nil {
		glog.Errorf("error decoding %s: %v", fm, err)
		return nil
	}
	return frame
}

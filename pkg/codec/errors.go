package codec

import "fmt"

// EncodingError indicates malformed input to a conversion.
type EncodingError struct {
	Op     string
	Input  []byte
	Reason string
}

// Error implements error.
func (e *EncodingError) Error() string {
	if e.Input == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s %x: %s", e.Op, e.Input, e.Reason)
}

func newError(op string, input []byte, reason string) *EncodingError {
	in := make([]byte, len(input))
	copy(in, input)
	return &EncodingError{Op: op, Input: in, Reason: reason}
}

package codec

import (
	"math"
	"math/big"
	"sort"
	"strconv"
)

const (
	// SerialBytes is the width of a module serial number (64-bit address).
	SerialBytes = 8

	// ADCReferenceVolts is the reference voltage of the analog inputs.
	ADCReferenceVolts = 1.2
	// ADCResolution is the number of steps of the 10-bit ADC.
	ADCResolution = 1024
	// VoltsPerUnit converts raw ADC units to volts.
	VoltsPerUnit = ADCReferenceVolts / ADCResolution
)

// NumberToBytes packs n into its minimal big-endian form,
// left-padded with zeros to at least minWidth bytes.
// Example: 0x3ef7 => []byte{0x3e, 0xf7}
func NumberToBytes(n uint64, minWidth int) []byte {
	var b []byte
	for ; n > 0; n >>= 8 {
		b = append(b, byte(n))
	}
	for len(b) < minWidth {
		b = append(b, 0)
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// BytesToNumber unpacks big-endian bytes as an unsigned number.
// Example: []byte{0x0a, 0xe4} => 2788
func BytesToNumber(b []byte) (uint64, error) {
	var n uint64
	significant := 0
	for _, c := range b {
		if significant == 0 && c == 0 {
			continue
		}
		significant++
		if significant > 8 {
			return 0, newError("BytesToNumber", b, "more than 8 significant bytes")
		}
		n = n<<8 | uint64(c)
	}
	return n, nil
}

// BigToBytes is NumberToBytes for numbers wider than 64 bits.
func BigToBytes(n *big.Int, minWidth int) []byte {
	b := n.Bytes()
	if len(b) >= minWidth {
		return b
	}
	padded := make([]byte, minWidth)
	copy(padded[minWidth-len(b):], b)
	return padded
}

// BytesToBig is BytesToNumber without a width limit.
func BytesToBig(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// NumberToSerialBytes packs a module serial number into exactly 8 bytes.
func NumberToSerialBytes(n uint64) []byte {
	return NumberToBytes(n, SerialBytes)
}

// BuildSerial joins the high (SH) and low (SL) halves of a serial number.
func BuildSerial(high, low uint32) uint64 {
	return uint64(high)<<32 | uint64(low)
}

// SplitSerial is the inverse of BuildSerial.
func SplitSerial(serial uint64) (high, low uint32) {
	return uint32(serial >> 32), uint32(serial)
}

// BoolToBytes encodes a boolean as a single 0 or 1 byte.
func BoolToBytes(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

// BytesToBool decodes a single byte which must be 0 or 1.
func BytesToBool(b []byte) (bool, error) {
	if len(b) != 1 {
		return false, newError("BytesToBool", b, "expected exactly 1 byte")
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, newError("BytesToBool", b, "value is neither 0 nor 1")
}

// NumberToVolts converts raw ADC units to volts.
func NumberToVolts(raw uint64) float64 {
	return float64(raw) * VoltsPerUnit
}

// BytesToVolts unpacks raw ADC units and converts them to volts.
func BytesToVolts(b []byte) (float64, error) {
	n, err := BytesToNumber(b)
	if err != nil {
		return 0, err
	}
	return NumberToVolts(n), nil
}

// VoltsToNumber converts volts to raw ADC units, rounded to the nearest unit.
func VoltsToNumber(v float64) (uint64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, &EncodingError{Op: "VoltsToNumber", Reason: "volts must be finite and >= 0: " + strconv.FormatFloat(v, 'g', -1, 64)}
	}
	units := math.Round(v / VoltsPerUnit)
	if units >= math.MaxUint64 {
		return 0, &EncodingError{Op: "VoltsToNumber", Reason: "volts out of range"}
	}
	return uint64(units), nil
}

// IndexSet is a set of bit positions.
type IndexSet map[int]struct{}

// NewIndexSet creates an IndexSet from indices.
func NewIndexSet(indices ...int) IndexSet {
	s := make(IndexSet, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}

// Has checks if index i is in the set.
func (s IndexSet) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Sorted returns the indices in ascending order.
func (s IndexSet) Sorted() []int {
	indices := make([]int, 0, len(s))
	for i := range s {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

// BitfieldToIndexSet returns the positions of the set bits in the
// big-endian number b, bit 0 being the least significant.
// Example: []byte{0x43} => {0, 1, 6}
func BitfieldToIndexSet(b []byte) IndexSet {
	s := make(IndexSet)
	for n := range b {
		c := b[len(b)-1-n]
		for bit := 0; c != 0; bit, c = bit+1, c>>1 {
			if c&1 != 0 {
				s[n*8+bit] = struct{}{}
			}
		}
	}
	return s
}

// NumberToIndexSet is BitfieldToIndexSet for a number.
func NumberToIndexSet(n uint64) IndexSet {
	return BitfieldToIndexSet(NumberToBytes(n, 0))
}

// IndexSetToBitfield sets the bits with the given indices.
// Example: {0, 1, 6} => 0x43
func IndexSetToBitfield(s IndexSet) (uint64, error) {
	var field uint64
	for i := range s {
		if i < 0 || i > 63 {
			return 0, &EncodingError{Op: "IndexSetToBitfield", Reason: "bit index out of range: " + strconv.Itoa(i)}
		}
		field |= 1 << uint(i)
	}
	return field, nil
}

// FormatHexID renders a request id in the printed-hex form used on the wire.
func FormatHexID(id uint32) string {
	return strconv.FormatUint(uint64(id), 16)
}

// ParseHexID parses a printed-hex request id.
func ParseHexID(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, &EncodingError{Op: "ParseHexID", Input: []byte(s), Reason: err.Error()}
	}
	return uint32(n), nil
}

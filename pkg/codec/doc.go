// Package codec provides the numeric and bit-level conversions used to
// pack and unpack values for XBee API communication.
//
// Numbers travel as big-endian byte strings of minimal width, booleans as a
// single 0/1 byte, analog readings as raw units of a 10-bit ADC against a
// 1.2V reference and pin masks as bit fields.
package codec

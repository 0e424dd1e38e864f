package protocol

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/xh.go/pkg/codec"
)

// TimestampFormat renders IOData receive times.
// Example: 2012 Jun 17 23:24:18 UTC
const TimestampFormat = "2006 Jan 02 15:04:05 UTC"

// Sample set keys are "<type>-<channel>".
const (
	sampleTypeAnalog  = "adc"
	sampleTypeDigital = "dio"
)

// IOData is a periodic IO sample frame sent by a remote module.
type IOData struct {
	FrameHeader

	sourceAddr   uint16
	sourceSerial uint64
	samples      []Sample
	timestamp    time.Time
}

// Source returns the address of the sampling module.
func (f *IOData) Source() (addr uint16, serial uint64) {
	return f.sourceAddr, f.sourceSerial
}

// Samples returns the readings.
func (f *IOData) Samples() []Sample {
	return append([]Sample(nil), f.samples...)
}

// Timestamp returns the UTC time the frame was decoded.
func (f *IOData) Timestamp() time.Time { return f.timestamp }

// String implements Frame.
func (f *IOData) String() string {
	var v namedValues
	v.options(f.Options)
	v.add("sourceAddress", f.sourceAddr).
		add("sourceAddressLong", f.sourceSerial)
	if len(f.samples) > 0 {
		v.add("samples", formatSamples(f.samples))
	}
	return "data " + f.timestamp.Format(TimestampFormat) + v.String()
}

func formatSamples(samples []Sample) string {
	strs := make([]string, len(samples))
	for n, s := range samples {
		strs[n] = s.String()
	}
	return "[" + strings.Join(strs, ", ") + "]"
}

func parseSampleKey(key string) (analog bool, channel int, err error) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return false, 0, fmt.Errorf("malformed sample key %q", key)
	}
	if channel, err = strconv.Atoi(parts[1]); err != nil {
		return false, 0, fmt.Errorf("malformed sample key %q", key)
	}
	switch parts[0] {
	case sampleTypeAnalog:
		return true, channel, nil
	case sampleTypeDigital:
		return false, channel, nil
	}
	return false, 0, fmt.Errorf("unknown sample type in %q", key)
}

func analogSample(channel int, raw uint64) (Sample, error) {
	pin, err := AnalogPin(channel)
	if err != nil {
		return Sample{}, err
	}
	return Sample{Pin: pin, Analog: true, Volts: codec.NumberToVolts(raw)}, nil
}

func digitalSample(channel int, high bool) (Sample, error) {
	pin, err := DigitalPin(channel)
	if err != nil {
		return Sample{}, err
	}
	return Sample{Pin: pin, High: high}, nil
}

// decodeSampleSet converts one sample set, ordered by key.
func decodeSampleSet(set map[string]int) ([]Sample, error) {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	samples := make([]Sample, 0, len(keys))
	for _, key := range keys {
		analog, channel, err := parseSampleKey(key)
		if err != nil {
			return nil, err
		}
		value := set[key]
		var s Sample
		if analog {
			if value < 0 {
				return nil, fmt.Errorf("negative analog value %d for %s", value, key)
			}
			s, err = analogSample(channel, uint64(value))
		} else {
			if value != 0 && value != 1 {
				return nil, fmt.Errorf("digital value %d for %s is neither 0 nor 1", value, key)
			}
			s, err = digitalSample(channel, value == 1)
		}
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func decodeIOData(fm FieldMap, used KeySet) (Frame, error) {
	r := newFieldReader(fm, used)
	f := &IOData{FrameHeader: r.header(FrameTypeIOData)}
	f.sourceAddr = uint16(r.number(KeySourceAddr))
	f.sourceSerial = r.number(KeySourceAddrLong)
	sets := r.sampleSets(KeySamples)
	if r.err != nil {
		return nil, r.err
	}
	for _, set := range sets {
		samples, err := decodeSampleSet(set)
		if err != nil {
			return nil, &InvalidFieldError{Field: KeySamples, Err: err}
		}
		f.samples = append(f.samples, samples...)
	}
	f.timestamp = time.Now().UTC()
	return f, nil
}

func init() {
	Frames.MustPut(FrameTypeIOData, decodeIOData)
}

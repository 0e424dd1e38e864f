package protocol

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robotalks/xh.go/pkg/codec"
)

// InputSample forces a module to sample its configured input pins.
// A module with no input pins answers with an error status.
type InputSample struct {
	BaseCommand

	samples []Sample
}

// NewInputSample creates a sample request.
func NewInputSample(opts ...CommandOption) *InputSample {
	return &InputSample{BaseCommand: newOutbound(NameInputSample, opts)}
}

// Samples returns the readings.
func (c *InputSample) Samples() []Sample {
	return append([]Sample(nil), c.samples...)
}

// String implements Frame.
func (c *InputSample) String() string {
	var v namedValues
	if len(c.samples) > 0 {
		v.add("samples", formatSamples(c.samples))
	}
	return c.format(&v)
}

// ParseSampleSet decodes a packed sample set:
//
//	offset  size  content
//	0       1     number of sets, always 1
//	1       2     digital channel mask
//	3       1     analog channel mask
//	4       2     digital values, only if any digital channel is set
//	...     2     analog values, one per analog channel
func ParseSampleSet(b []byte) ([]Sample, error) {
	r := &recordReader{buf: b}
	sets := r.number("number of sets", 1)
	digitalMask := codec.BitfieldToIndexSet(r.take("digital mask", 2))
	analogMask := codec.BitfieldToIndexSet(r.take("analog mask", 1))
	if r.err != nil {
		return nil, r.err
	}
	if sets != 1 {
		return nil, fmt.Errorf("number of sample sets is expected to always be 1, but is %d", sets)
	}
	var digitalValues codec.IndexSet
	if len(digitalMask) > 0 {
		digitalValues = codec.BitfieldToIndexSet(r.take("digital values", 2))
	}
	analogChannels := analogMask.Sorted()
	analogValues := make([]uint64, len(analogChannels))
	for n := range analogChannels {
		analogValues[n] = r.number("analog value", 2)
	}
	if r.err != nil {
		return nil, r.err
	}

	var samples []Sample
	for _, channel := range digitalMask.Sorted() {
		s, err := digitalSample(channel, digitalValues.Has(channel))
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	for n, channel := range analogChannels {
		s, err := analogSample(channel, analogValues[n])
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func decodeInputSample(base BaseCommand) (Command, error) {
	c := &InputSample{BaseCommand: base}
	if !c.hasParameter {
		return c, nil
	}
	samples, err := ParseSampleSet(c.parameter)
	if err != nil {
		return nil, &InvalidFieldError{Field: KeyParameter, Err: err}
	}
	c.samples = samples
	return c, nil
}

// PinFunction is what an IO pin is configured to do.
type PinFunction string

// Pin functions across all pins.
const (
	FuncDisabled          PinFunction = "DISABLED"
	FuncUnmonitoredInput  PinFunction = "UNMONITORED_INPUT"
	FuncCTS               PinFunction = "CTS"
	FuncRTS               PinFunction = "RTS"
	FuncRSSI              PinFunction = "RSSI"
	FuncCommissioning     PinFunction = "COMM"
	FuncAssociated        PinFunction = "ASSOC"
	FuncAnalogInput       PinFunction = "ANALOG_INPUT"
	FuncDigitalInput      PinFunction = "DIGITAL_INPUT"
	FuncDigitalOutputLow  PinFunction = "DIGITAL_OUTPUT_LOW"
	FuncDigitalOutputHigh PinFunction = "DIGITAL_OUTPUT_HIGH"
	FuncRS485EnableLow    PinFunction = "RS485_TX_ENABLE_LOW"
	FuncRS485EnableHigh   PinFunction = "RS485_TX_ENABLE_HIGH"
)

var pinFunctionValues = map[PinFunction]uint64{
	FuncDisabled:          0,
	FuncUnmonitoredInput:  0,
	FuncCTS:               1,
	FuncRTS:               1,
	FuncRSSI:              1,
	FuncCommissioning:     1,
	FuncAssociated:        1,
	FuncAnalogInput:       2,
	FuncDigitalInput:      3,
	FuncDigitalOutputLow:  4,
	FuncDigitalOutputHigh: 5,
	FuncRS485EnableLow:    6,
	FuncRS485EnableHigh:   7,
}

// pinCommand describes the pin one of D0-D7, P0-P2 acts on.
type pinCommand struct {
	pin       Pin
	functions []PinFunction
}

var (
	digitalFunctions         = []PinFunction{FuncDigitalInput, FuncDigitalOutputLow, FuncDigitalOutputHigh}
	digitalOrDisabled        = append([]PinFunction{FuncDisabled}, digitalFunctions...)
	digitalOrUnmonitored     = append([]PinFunction{FuncUnmonitoredInput}, digitalFunctions...)
	analogDigitalOrDisabled  = append([]PinFunction{FuncAnalogInput}, digitalOrDisabled...)
	commissioningAnalogOrAny = append([]PinFunction{FuncCommissioning}, analogDigitalOrDisabled...)
)

var pinCommands = map[CommandName]pinCommand{
	NameD0: {PinDIO0, commissioningAnalogOrAny},
	NameD1: {PinDIO1, analogDigitalOrDisabled},
	NameD2: {PinDIO2, analogDigitalOrDisabled},
	NameD3: {PinDIO3, analogDigitalOrDisabled},
	NameD4: {PinDIO4, digitalOrDisabled},
	NameD5: {PinDIO5, append([]PinFunction{FuncAssociated}, digitalOrDisabled...)},
	NameD6: {PinDIO6, append([]PinFunction{FuncRTS}, digitalOrDisabled...)},
	NameD7: {PinDIO7, append([]PinFunction{FuncCTS, FuncRS485EnableLow, FuncRS485EnableHigh}, digitalOrDisabled...)},
	NameP0: {PinDIO10, append([]PinFunction{FuncRSSI}, digitalOrDisabled...)},
	NameP1: {PinDIO11, digitalOrUnmonitored},
	NameP2: {PinDIO12, digitalOrUnmonitored},
}

// PinCommandName returns the command configuring a pin.
func PinCommandName(p Pin) (CommandName, bool) {
	for name, pc := range pinCommands {
		if pc.pin == p {
			return name, true
		}
	}
	return "", false
}

// PinFunctions returns the functions the pin of a command supports.
func PinFunctions(name CommandName) []PinFunction {
	return append([]PinFunction(nil), pinCommands[name].functions...)
}

func (pc pinCommand) supports(fn PinFunction) bool {
	for _, f := range pc.functions {
		if f == fn {
			return true
		}
	}
	return false
}

// ConfigureIOPin sets or reads the function of a digital/analog IO pin.
type ConfigureIOPin struct {
	BaseCommand

	function PinFunction
}

// NewConfigureIOPin creates a request setting the function of the pin
// driven by command name, one of D0-D7, P0-P2.
func NewConfigureIOPin(name CommandName, fn PinFunction, opts ...CommandOption) (*ConfigureIOPin, error) {
	pc, ok := pinCommands[name]
	if !ok {
		return nil, parameterErrorf(name, "not a pin configuration command")
	}
	if !pc.supports(fn) {
		return nil, parameterErrorf(name, "function %s is not valid for pin %s, available functions are %v", fn, pc.pin, pc.functions)
	}
	c := &ConfigureIOPin{BaseCommand: newOutbound(name, opts), function: fn}
	c.setParameter(codec.NumberToBytes(pinFunctionValues[fn], 1))
	return c, nil
}

// Pin returns the configured pin.
func (c *ConfigureIOPin) Pin() Pin { return pinCommands[c.name].pin }

// Function returns the pin function.
func (c *ConfigureIOPin) Function() (PinFunction, bool) { return c.function, c.function != "" }

// String implements Frame.
func (c *ConfigureIOPin) String() string {
	var v namedValues
	v.add("pin", c.Pin())
	if n, ok := c.Pin().Number(); ok {
		v.add("pinNumber", n)
	}
	if c.function != "" {
		v.add("function", c.function)
	}
	return c.format(&v)
}

func decodeConfigureIOPin(base BaseCommand) (Command, error) {
	c := &ConfigureIOPin{BaseCommand: base}
	if !c.hasParameter {
		return c, nil
	}
	value, err := codec.BytesToNumber(c.parameter)
	if err != nil {
		return nil, &InvalidFieldError{Field: KeyParameter, Err: err}
	}
	pc := pinCommands[c.name]
	var matches []PinFunction
	for _, fn := range pc.functions {
		if pinFunctionValues[fn] == value {
			matches = append(matches, fn)
		}
	}
	if len(matches) != 1 {
		return nil, &InvalidFieldError{
			Field:  KeyParameter,
			Reason: fmt.Sprintf("ambiguous or invalid function number %d for pin %s", value, pc.pin),
		}
	}
	c.function = matches[0]
	return c, nil
}

// pullUpPinOrder maps bit positions of the PR bit field to physical pins.
var pullUpPinOrder = [...]int{11, 17, 18, 19, 20, 16, 9, 3, 15, 13, 4, 6, 7, 12}

const pullUpAllOn = 1<<uint(len(pullUpPinOrder)) - 1

// PullUpResistor sets or reads the pins with internal pull-up resistors
// enabled.
type PullUpResistor struct {
	BaseCommand

	field    uint64
	hasField bool
}

// NewPullUpResistor creates a request enabling pull-ups on the given
// physical pins and disabling the rest.
func NewPullUpResistor(pins []int, opts ...CommandOption) (*PullUpResistor, error) {
	indices := codec.NewIndexSet()
	for _, p := range pins {
		index := -1
		for n, pin := range pullUpPinOrder {
			if pin == p {
				index = n
				break
			}
		}
		if index < 0 {
			return nil, parameterErrorf(NamePullUpResistor, "pin %d is not in the pull-up resistor bit field, valid pins are %v", p, pullUpPinOrder)
		}
		indices[index] = struct{}{}
	}
	field, err := codec.IndexSetToBitfield(indices)
	if err != nil {
		return nil, err
	}
	c := &PullUpResistor{BaseCommand: newOutbound(NamePullUpResistor, opts)}
	c.setParameter(codec.NumberToBytes(field, 2))
	c.field, c.hasField = field, true
	return c, nil
}

// BitField returns the raw bit field.
func (c *PullUpResistor) BitField() (uint64, bool) { return c.field, c.hasField }

// Pins returns the physical pins with pull-ups enabled, ascending.
func (c *PullUpResistor) Pins() []int {
	var pins []int
	for _, index := range codec.NumberToIndexSet(c.field).Sorted() {
		pins = append(pins, pullUpPinOrder[index])
	}
	sort.Ints(pins)
	return pins
}

// String implements Frame.
func (c *PullUpResistor) String() string {
	var v namedValues
	if c.hasField {
		v.add("bitField", c.field)
		var names []string
		for _, n := range c.Pins() {
			p, _ := PinByNumber(n)
			names = append(names, string(p))
		}
		v.add("enabledPins", "["+strings.Join(names, ", ")+"]")
	}
	return c.format(&v)
}

func decodePullUpResistor(base BaseCommand) (Command, error) {
	c := &PullUpResistor{BaseCommand: base}
	if !c.hasParameter {
		return c, nil
	}
	field, err := codec.BytesToNumber(c.parameter)
	if err != nil {
		return nil, &InvalidFieldError{Field: KeyParameter, Err: err}
	}
	if field&^pullUpAllOn != 0 {
		return nil, &InvalidFieldError{
			Field:  KeyParameter,
			Reason: fmt.Sprintf("bit field 0x%x exceeds %d bits", field, len(pullUpPinOrder)),
		}
	}
	c.field, c.hasField = field, true
	return c, nil
}

// Sample rate limits in milliseconds.
const (
	SampleRateMin = 0x32
	SampleRateMax = 0xffff
)

// SampleRate sets or reads the periodic IO sampling rate.
type SampleRate struct {
	BaseCommand

	millis  uint64
	hasRate bool
}

// NewSampleRate creates a request setting the sampling period.
// A zero rate disables periodic sampling.
func NewSampleRate(rate time.Duration, opts ...CommandOption) (*SampleRate, error) {
	millis := uint64(rate / time.Millisecond)
	if rate < 0 || (millis != 0 && (millis < SampleRateMin || millis > SampleRateMax)) {
		return nil, parameterErrorf(NameSampleRate, "sampling rate %v is not 0 or within [%dms, %dms]", rate, SampleRateMin, SampleRateMax)
	}
	c := &SampleRate{BaseCommand: newOutbound(NameSampleRate, opts)}
	c.setParameter(codec.NumberToBytes(millis, 1))
	c.millis, c.hasRate = millis, true
	return c, nil
}

// Rate returns the sampling period; zero if sampling is disabled.
func (c *SampleRate) Rate() (time.Duration, bool) {
	return time.Duration(c.millis) * time.Millisecond, c.hasRate
}

// Disabled tells whether periodic sampling is off.
func (c *SampleRate) Disabled() bool { return c.hasRate && c.millis == 0 }

// String implements Frame.
func (c *SampleRate) String() string {
	var v namedValues
	if c.hasRate {
		if c.millis == 0 {
			v.add("disabled", true)
		} else {
			v.add("rate", time.Duration(c.millis)*time.Millisecond)
		}
	}
	return c.format(&v)
}

func decodeSampleRate(base BaseCommand) (Command, error) {
	c := &SampleRate{BaseCommand: base}
	if !c.hasParameter {
		return c, nil
	}
	millis, err := codec.BytesToNumber(c.parameter)
	if err != nil {
		return nil, &InvalidFieldError{Field: KeyParameter, Err: err}
	}
	if millis != 0 && (millis < SampleRateMin || millis > SampleRateMax) {
		return nil, &InvalidFieldError{
			Field:  KeyParameter,
			Reason: fmt.Sprintf("sampling rate %dms out of range", millis),
		}
	}
	c.millis, c.hasRate = millis, true
	return c, nil
}

func init() {
	Commands.MustPut(NameInputSample, decodeInputSample)
	Commands.MustPut(NamePullUpResistor, decodePullUpResistor)
	Commands.MustPut(NameSampleRate, decodeSampleRate)
	mustRegisterCommands(decodeConfigureIOPin,
		NameD0, NameD1, NameD2, NameD3, NameD4, NameD5, NameD6, NameD7,
		NameP0, NameP1, NameP2)
}

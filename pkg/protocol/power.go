package protocol

import (
	"math"

	"github.com/golang/glog"

	"github.com/robotalks/xh.go/pkg/codec"
)

// Useful supply threshold extrema of series 2 modules.
const (
	SupplyVoltsMin = 2.1
	SupplyVoltsMax = 3.6
)

// MaxThresholdVolts is the highest representable supply threshold.
var MaxThresholdVolts = codec.NumberToVolts(0xffff)

// InputVolts reads the supply voltage of a module.
type InputVolts struct {
	BaseCommand

	volts    float64
	hasVolts bool
}

// NewInputVolts creates a supply voltage query.
func NewInputVolts(opts ...CommandOption) *InputVolts {
	return &InputVolts{BaseCommand: newOutbound(NameInputVolts, opts)}
}

// Volts returns the supply voltage.
func (c *InputVolts) Volts() (float64, bool) { return c.volts, c.hasVolts }

// String implements Frame.
func (c *InputVolts) String() string {
	var v namedValues
	if c.hasVolts {
		v.add("volts", c.volts)
	}
	return c.format(&v)
}

func decodeInputVolts(base BaseCommand) (Command, error) {
	c := &InputVolts{BaseCommand: base}
	if !c.hasParameter {
		return c, nil
	}
	volts, err := codec.BytesToVolts(c.parameter)
	if err != nil {
		return nil, &InvalidFieldError{Field: KeyParameter, Err: err}
	}
	c.volts, c.hasVolts = volts, true
	return c, nil
}

// VoltageSupplyThreshold is the supply voltage at or below which the
// voltage is included in IO samples.
type VoltageSupplyThreshold struct {
	BaseCommand

	volts    float64
	hasVolts bool
}

// NewVoltageSupplyThreshold creates a request setting the threshold.
// Values above MaxThresholdVolts are clamped.
func NewVoltageSupplyThreshold(volts float64, opts ...CommandOption) (*VoltageSupplyThreshold, error) {
	if math.IsNaN(volts) || volts < 0 {
		return nil, parameterErrorf(NameVoltageSupplyThreshold, "threshold must be >= 0 but got %v", volts)
	}
	if volts < SupplyVoltsMin || volts > SupplyVoltsMax {
		glog.Warningf("threshold %.3fV is outside of expected useful extrema, %.2f to %.2f",
			volts, SupplyVoltsMin, SupplyVoltsMax)
	}
	volts = math.Min(volts, MaxThresholdVolts)
	raw, err := codec.VoltsToNumber(volts)
	if err != nil {
		return nil, err
	}
	c := &VoltageSupplyThreshold{BaseCommand: newOutbound(NameVoltageSupplyThreshold, opts)}
	c.setParameter(codec.NumberToBytes(raw, 1))
	c.volts, c.hasVolts = volts, true
	return c, nil
}

// Threshold returns the threshold in volts.
func (c *VoltageSupplyThreshold) Threshold() (float64, bool) { return c.volts, c.hasVolts }

// String implements Frame.
func (c *VoltageSupplyThreshold) String() string {
	var v namedValues
	if c.hasVolts {
		v.add("volts", c.volts)
	}
	return c.format(&v)
}

func decodeVoltageSupplyThreshold(base BaseCommand) (Command, error) {
	c := &VoltageSupplyThreshold{BaseCommand: base}
	if !c.hasParameter {
		return c, nil
	}
	volts, err := codec.BytesToVolts(c.parameter)
	if err != nil {
		return nil, &InvalidFieldError{Field: KeyParameter, Err: err}
	}
	c.volts, c.hasVolts = volts, true
	return c, nil
}

func init() {
	Commands.MustPut(NameInputVolts, decodeInputVolts)
	Commands.MustPut(NameVoltageSupplyThreshold, decodeVoltageSupplyThreshold)
}

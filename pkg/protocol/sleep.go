package protocol

import (
	"fmt"
	"time"

	"github.com/robotalks/xh.go/pkg/codec"
)

// SleepType is when a module sleeps and wakes.
type SleepType byte

// Sleep types, by their wire value.
const (
	SleepDisabled      SleepType = 0
	SleepPinEnable     SleepType = 1
	SleepCyclic        SleepType = 4
	SleepCyclicPinWake SleepType = 5
)

var sleepTypeNames = map[SleepType]string{
	SleepDisabled:      "DISABLED",
	SleepPinEnable:     "PIN_ENABLE",
	SleepCyclic:        "CYCLIC",
	SleepCyclicPinWake: "CYCLIC_PIN_WAKE",
}

// String implements fmt.Stringer.
func (t SleepType) String() string {
	if name, ok := sleepTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("SLEEP(%d)", byte(t))
}

// SleepMode sets or reads whether and when a module sleeps.
type SleepMode struct {
	BaseCommand

	mode    SleepType
	hasMode bool
}

// NewSleepMode creates a request setting the sleep mode.
func NewSleepMode(mode SleepType, opts ...CommandOption) (*SleepMode, error) {
	if _, ok := sleepTypeNames[mode]; !ok {
		return nil, parameterErrorf(NameSleepMode, "unknown sleep mode %d", byte(mode))
	}
	c := &SleepMode{BaseCommand: newOutbound(NameSleepMode, opts), mode: mode, hasMode: true}
	c.setParameter(codec.NumberToBytes(uint64(mode), 1))
	return c, nil
}

// Mode returns the sleep mode.
func (c *SleepMode) Mode() (SleepType, bool) { return c.mode, c.hasMode }

// String implements Frame.
func (c *SleepMode) String() string {
	var v namedValues
	if c.hasMode {
		v.add("mode", c.mode)
	}
	return c.format(&v)
}

func decodeSleepMode(base BaseCommand) (Command, error) {
	c := &SleepMode{BaseCommand: base}
	if !c.hasParameter {
		return c, nil
	}
	n, err := codec.BytesToNumber(c.parameter)
	if err != nil {
		return nil, &InvalidFieldError{Field: KeyParameter, Err: err}
	}
	if _, ok := sleepTypeNames[SleepType(n)]; !ok || n > 0xff {
		return nil, &InvalidFieldError{Field: KeyParameter, Reason: fmt.Sprintf("unknown sleep mode %d", n)}
	}
	c.mode, c.hasMode = SleepType(n), true
	return c, nil
}

// numberRange describes a single number parameter. Values are scaled
// by perUnit between external units (e.g. ms) and the wire units.
type numberRange struct {
	label    string
	min, max uint64
	perUnit  uint64
	millis   bool
}

var numberRanges = map[CommandName]numberRange{
	NameNodeDiscoveryTimeout: {label: "timeout", min: 0x20, max: 0xff, perUnit: 100, millis: true},
	NameSleepPeriod:          {label: "period", min: 0x20, max: 0xaf0, perUnit: 10, millis: true},
	NameNumberOfSleepPeriods: {label: "periods", min: 1, max: 0xffff, perUnit: 1},
	NameTimeBeforeSleep:      {label: "time", min: 1, max: 0xfffe, perUnit: 1, millis: true},
	NameWakeHostTimer:        {label: "time", min: 0, max: 0xffff, perUnit: 1, millis: true},
}

// NumberCommand sets or reads a single ranged number: NT, SP, SN, ST, WH.
type NumberCommand struct {
	BaseCommand

	units    uint64
	hasUnits bool
}

func newNumberCommand(name CommandName, value uint64, opts []CommandOption) (*NumberCommand, error) {
	rng := numberRanges[name]
	units := value / rng.perUnit
	if units < rng.min || units > rng.max {
		unit := ""
		if rng.millis {
			unit = "ms"
		}
		return nil, parameterErrorf(name, "%s %d%s is not in allowed range [%d%s, %d%s]",
			rng.label, value, unit, rng.min*rng.perUnit, unit, rng.max*rng.perUnit, unit)
	}
	c := &NumberCommand{BaseCommand: newOutbound(name, opts), units: units, hasUnits: true}
	c.setParameter(codec.NumberToBytes(units, 1))
	return c, nil
}

func millisOf(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	return uint64(d / time.Millisecond)
}

// NewNodeDiscoveryTimeout creates a request setting how long modules take
// to answer node discovery, rounded down to 100ms.
func NewNodeDiscoveryTimeout(d time.Duration, opts ...CommandOption) (*NumberCommand, error) {
	return newNumberCommand(NameNodeDiscoveryTimeout, millisOf(d), opts)
}

// NewSleepPeriod creates a request setting how long a cyclic sleeper
// sleeps at a time, rounded down to 10ms.
func NewSleepPeriod(d time.Duration, opts ...CommandOption) (*NumberCommand, error) {
	return newNumberCommand(NameSleepPeriod, millisOf(d), opts)
}

// NewNumberOfSleepPeriods creates a request setting how many sleep periods
// pass before the host is woken.
func NewNumberOfSleepPeriods(n uint64, opts ...CommandOption) (*NumberCommand, error) {
	return newNumberCommand(NameNumberOfSleepPeriods, n, opts)
}

// NewTimeBeforeSleep creates a request setting the idle time before sleep.
func NewTimeBeforeSleep(d time.Duration, opts ...CommandOption) (*NumberCommand, error) {
	return newNumberCommand(NameTimeBeforeSleep, millisOf(d), opts)
}

// NewWakeHostTimer creates a request setting how long a woken module waits
// for the host before sleeping again.
func NewWakeHostTimer(d time.Duration, opts ...CommandOption) (*NumberCommand, error) {
	return newNumberCommand(NameWakeHostTimer, millisOf(d), opts)
}

// Value returns the number in external units.
func (c *NumberCommand) Value() (uint64, bool) {
	return c.units * numberRanges[c.name].perUnit, c.hasUnits
}

// Duration returns the value as a duration for time valued commands.
func (c *NumberCommand) Duration() (time.Duration, bool) {
	if !numberRanges[c.name].millis {
		return 0, false
	}
	v, ok := c.Value()
	return time.Duration(v) * time.Millisecond, ok
}

// String implements Frame.
func (c *NumberCommand) String() string {
	var v namedValues
	if d, ok := c.Duration(); ok {
		v.add(numberRanges[c.name].label, d)
	} else if n, ok := c.Value(); ok {
		v.add(numberRanges[c.name].label, n)
	}
	return c.format(&v)
}

func decodeNumberCommand(base BaseCommand) (Command, error) {
	c := &NumberCommand{BaseCommand: base}
	if !c.hasParameter {
		return c, nil
	}
	units, err := codec.BytesToNumber(c.parameter)
	if err != nil {
		return nil, &InvalidFieldError{Field: KeyParameter, Err: err}
	}
	c.units, c.hasUnits = units, true
	return c, nil
}

func init() {
	Commands.MustPut(NameSleepMode, decodeSleepMode)
	mustRegisterCommands(decodeNumberCommand,
		NameNodeDiscoveryTimeout, NameSleepPeriod, NameNumberOfSleepPeriods,
		NameTimeBeforeSleep, NameWakeHostTimer)
}

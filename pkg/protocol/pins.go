package protocol

import (
	"fmt"
	"strconv"
)

// Pin names a module pin. Several names may share a physical pin.
type Pin string

// Module pins.
const (
	PinDIO0  Pin = "DIO0"
	PinDIO1  Pin = "DIO1"
	PinDIO2  Pin = "DIO2"
	PinDIO3  Pin = "DIO3"
	PinDIO4  Pin = "DIO4"
	PinDIO5  Pin = "DIO5"
	PinDIO6  Pin = "DIO6"
	PinDIO7  Pin = "DIO7"
	PinDIO8  Pin = "DIO8"
	PinDIO9  Pin = "DIO9"
	PinDIO10 Pin = "DIO10"
	PinDIO11 Pin = "DIO11"
	PinDIO12 Pin = "DIO12"

	PinAD0 Pin = "AD0"
	PinAD1 Pin = "AD1"
	PinAD2 Pin = "AD2"
	PinAD3 Pin = "AD3"

	PinVCC     Pin = "VCC"
	PinDOUT    Pin = "DOUT"
	PinDIN     Pin = "DIN"
	PinConfig  Pin = "CONFIG"
	PinReset   Pin = "RESET"
	PinRSSI    Pin = "RSSI"
	PinPWM     Pin = "PWM"
	PinDTR     Pin = "DTR"
	PinSleepRQ Pin = "SLEEP_RQ"
	PinGND     Pin = "GND"
	PinCTS     Pin = "CTS"
	PinOn      Pin = "ON"
	PinSleep   Pin = "SLEEP"
	PinVRef    Pin = "VREF"
	PinAssoc   Pin = "ASSOC"
	PinRTS     Pin = "RTS"
	PinComm    Pin = "COMM"
)

// pin 8 is reserved.
var pinNumbers = map[Pin]int{
	PinDIO0:  20,
	PinDIO1:  19,
	PinDIO2:  18,
	PinDIO3:  17,
	PinDIO4:  11,
	PinDIO5:  15,
	PinDIO6:  16,
	PinDIO7:  12,
	PinDIO8:  9,
	PinDIO9:  13,
	PinDIO10: 6,
	PinDIO11: 7,
	PinDIO12: 4,

	PinAD0: 20,
	PinAD1: 19,
	PinAD2: 18,
	PinAD3: 17,

	PinVCC:     1,
	PinDOUT:    2,
	PinDIN:     3,
	PinConfig:  3,
	PinReset:   5,
	PinRSSI:    6,
	PinPWM:     6,
	PinDTR:     9,
	PinSleepRQ: 9,
	PinGND:     10,
	PinCTS:     12,
	PinOn:      13,
	PinSleep:   13,
	PinVRef:    14,
	PinAssoc:   15,
	PinRTS:     16,
	PinComm:    20,
}

// pinsByNumber holds the preferred name of each physical pin.
var pinsByNumber = map[int]Pin{}

func init() {
	for i := 0; i <= 12; i++ {
		p := Pin("DIO" + strconv.Itoa(i))
		pinsByNumber[pinNumbers[p]] = p
	}
	for _, p := range []Pin{PinVCC, PinDOUT, PinDIN, PinReset, PinGND, PinVRef} {
		pinsByNumber[pinNumbers[p]] = p
	}
}

// Number returns the physical pin number.
func (p Pin) Number() (int, bool) {
	n, ok := pinNumbers[p]
	return n, ok
}

// PinByNumber returns the preferred name of a physical pin.
func PinByNumber(n int) (Pin, bool) {
	p, ok := pinsByNumber[n]
	return p, ok
}

// analogVCCIndex is the analog channel reporting the supply voltage.
const analogVCCIndex = 7

// DigitalPin returns the pin of a digital channel index.
func DigitalPin(index int) (Pin, error) {
	p := Pin("DIO" + strconv.Itoa(index))
	if _, ok := pinNumbers[p]; !ok {
		return "", fmt.Errorf("no digital channel %d", index)
	}
	return p, nil
}

// AnalogPin returns the pin of an analog channel index.
func AnalogPin(index int) (Pin, error) {
	if index == analogVCCIndex {
		return PinVCC, nil
	}
	p := Pin("AD" + strconv.Itoa(index))
	if _, ok := pinNumbers[p]; !ok {
		return "", fmt.Errorf("no analog channel %d", index)
	}
	return p, nil
}

// Sample is one IO reading.
type Sample struct {
	Pin    Pin
	Analog bool
	// Volts is set for analog samples.
	Volts float64
	// High is set for digital samples.
	High bool
}

// String implements fmt.Stringer.
func (s Sample) String() string {
	if s.Analog {
		return fmt.Sprintf("%s=%.3fV", s.Pin, s.Volts)
	}
	return fmt.Sprintf("%s=%v", s.Pin, s.High)
}

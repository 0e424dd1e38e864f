package stream

import (
	"errors"
	"strings"

	"go.bug.st/serial/enumerator"
)

// ExcludeDevices are substrings of port names never offered as candidates.
var ExcludeDevices = []string{"Bluetooth", "-COM"}

// ErrNoCandidates indicates no usable serial port was found.
var ErrNoCandidates = errors.New("no candidates for serial devices found")

// PortInfo describes a serial port.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID, PID     string
	SerialNumber string
}

// FilterCandidates drops ports whose name contains any of exclude.
func FilterCandidates(ports []PortInfo, exclude []string) []PortInfo {
	var candidates []PortInfo
	for _, p := range ports {
		excluded := false
		for _, e := range exclude {
			if strings.Contains(p.Name, e) {
				excluded = true
				break
			}
		}
		if !excluded {
			candidates = append(candidates, p)
		}
	}
	return candidates
}

// SerialCandidates lists serial ports a coordinator may be attached to.
func SerialCandidates() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	ports := make([]PortInfo, len(details))
	for n, d := range details {
		ports[n] = PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
		}
	}
	candidates := FilterCandidates(ports, ExcludeDevices)
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	return candidates, nil
}

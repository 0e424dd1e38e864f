package protocol

import (
	"bytes"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/xh.go/pkg/codec"
)

// DeviceRole is the role of a module in the network.
type DeviceRole byte

// Device roles.
const (
	RoleCoordinator DeviceRole = iota
	RoleRouter
	RoleEndDevice
)

var roleNames = [...]string{
	RoleCoordinator: "COORDINATOR",
	RoleRouter:      "ROUTER",
	RoleEndDevice:   "END_DEVICE",
}

// ParseDeviceRole validates a raw role index.
func ParseDeviceRole(n uint64) (DeviceRole, error) {
	if n >= uint64(len(roleNames)) {
		return 0, fmt.Errorf("unknown device role %d", n)
	}
	return DeviceRole(n), nil
}

// String implements fmt.Stringer.
func (r DeviceRole) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("ROLE(%d)", byte(r))
}

// NodeInfo is the identity of a module as reported by discovery.
type NodeInfo struct {
	ShortAddr      uint16
	Serial         uint64
	Name           string
	ParentAddr     uint16
	Role           DeviceRole
	Status         byte
	ProfileID      uint16
	ManufacturerID uint16
}

func (n *NodeInfo) describe(v *namedValues) {
	v.add("addr", n.ShortAddr).
		add("serial", n.Serial).
		add("NI", n.Name).
		add("parentAddr", n.ParentAddr).
		add("deviceType", n.Role).
		add("status", n.Status).
		add("profileId", n.ProfileID).
		add("manufacturerId", n.ManufacturerID)
}

// String implements fmt.Stringer.
func (n *NodeInfo) String() string {
	var v namedValues
	n.describe(&v)
	return "NodeInfo" + v.String()
}

// Record encodes n in the node discovery record layout parsed by
// ParseNodeInfo.
func (n *NodeInfo) Record() []byte {
	b := make([]byte, 0, 20+len(n.Name))
	b = append(b, codec.NumberToBytes(uint64(n.ShortAddr), 2)...)
	b = append(b, codec.NumberToSerialBytes(n.Serial)...)
	b = append(b, n.Name...)
	b = append(b, 0)
	b = append(b, codec.NumberToBytes(uint64(n.ParentAddr), 2)...)
	b = append(b, byte(n.Role), n.Status)
	b = append(b, codec.NumberToBytes(uint64(n.ProfileID), 2)...)
	return append(b, codec.NumberToBytes(uint64(n.ManufacturerID), 2)...)
}

// recordReader consumes a binary record left to right.
type recordReader struct {
	buf []byte
	off int
	err error
}

func (r *recordReader) take(field string, size int) []byte {
	if r.err != nil {
		return nil
	}
	if have := len(r.buf) - r.off; have < size {
		r.err = &TruncatedError{Field: field, Need: size, Have: have}
		return nil
	}
	b := r.buf[r.off : r.off+size]
	r.off += size
	return b
}

func (r *recordReader) number(field string, size int) uint64 {
	b := r.take(field, size)
	if r.err != nil {
		return 0
	}
	n, _ := codec.BytesToNumber(b)
	return n
}

func (r *recordReader) cstring(field string) string {
	if r.err != nil {
		return ""
	}
	rest := r.buf[r.off:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		r.err = &TruncatedError{Field: field, Need: len(rest) + 1, Have: len(rest)}
		return ""
	}
	r.off += end + 1
	return string(rest[:end])
}

// ParseNodeInfo decodes the parameter of a node discovery response.
// Example: 1234 0013a200 408cca0e "Node1" 00 0000 01 00 c105 101e
func ParseNodeInfo(b []byte) (*NodeInfo, error) {
	r := &recordReader{buf: b}
	info := &NodeInfo{}
	info.ShortAddr = uint16(r.number("short address", 2))
	high := r.number("serial high", 4)
	low := r.number("serial low", 4)
	info.Serial = codec.BuildSerial(uint32(high), uint32(low))
	info.Name = r.cstring("node identifier")
	info.ParentAddr = uint16(r.number("parent address", 2))
	role := r.number("device type", 1)
	info.Status = byte(r.number("status", 1))
	info.ProfileID = uint16(r.number("profile id", 2))
	info.ManufacturerID = uint16(r.number("manufacturer id", 2))
	if r.err != nil {
		return nil, r.err
	}
	var err error
	if info.Role, err = ParseDeviceRole(role); err != nil {
		return nil, err
	}
	if extra := len(b) - r.off; extra > 0 {
		glog.V(2).Infof("node info %q: ignored %d trailing bytes %x", info.Name, extra, b[r.off:])
	}
	return info, nil
}

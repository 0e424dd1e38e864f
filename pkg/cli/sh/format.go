package sh

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/xh.go/pkg/plugins"
	"github.com/robotalks/xh.go/pkg/protocol"
)

// FormatSerial prints a serial number the way it is labelled on modules.
func FormatSerial(serial uint64) string {
	return fmt.Sprintf("%016X", serial)
}

// ParseSerial parses a hex serial number, with or without 0x.
func ParseSerial(s string) (uint64, error) {
	n, err := strconv.ParseUint(trimHex(s), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid serial %q", s)
	}
	return n, nil
}

// ParseHexBytes parses a hex parameter; an odd digit count is left padded.
func ParseHexBytes(s string) ([]byte, error) {
	s = trimHex(s)
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex parameter %q", s)
	}
	return b, nil
}

// ParseHexNumber parses a hex number of any width.
func ParseHexNumber(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(trimHex(s), 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex number %q", s)
	}
	return n, nil
}

// ParseWindow parses a duration like 2s or a plain number of seconds.
func ParseWindow(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("invalid timeout %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func trimHex(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

// NodeView is the printed form of a node.
type NodeView struct {
	Serial    string `json:"serial"`
	ShortAddr string `json:"short_addr,omitempty"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role,omitempty"`
	LastSeen  string `json:"last_seen,omitempty"`
}

// String implements fmt.Stringer.
func (v NodeView) String() string {
	s := v.Serial
	if v.ShortAddr != "" {
		s += " " + v.ShortAddr
	}
	if v.Name != "" {
		s += fmt.Sprintf(" %q", v.Name)
	}
	if v.Role != "" {
		s += " " + v.Role
	}
	if v.LastSeen != "" {
		s += " seen " + v.LastSeen
	}
	return s
}

// ViewOfInfo converts a discovered node.
func ViewOfInfo(info protocol.NodeInfo) NodeView {
	return NodeView{
		Serial:    FormatSerial(info.Serial),
		ShortAddr: fmt.Sprintf("%04X", info.ShortAddr),
		Name:      info.Name,
		Role:      info.Role.String(),
	}
}

// ViewOfNode converts a presence directory entry.
func ViewOfNode(n plugins.Node) NodeView {
	v := NodeView{Serial: FormatSerial(n.Serial)}
	if n.Info != nil {
		v = ViewOfInfo(*n.Info)
	}
	if !n.LastSeen.IsZero() {
		v.LastSeen = n.LastSeen.Format(time.RFC3339)
	}
	return v
}

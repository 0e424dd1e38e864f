package config

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/robotalks/xh.go/pkg/setup"
)

// NetworkEntry is a network used before. LinkKey is hex, empty for an
// unencrypted network.
type NetworkEntry struct {
	PanID   string `toml:"pan_id"`
	LinkKey string `toml:"link_key,omitempty"`
}

// EntryOf converts network parameters into a NetworkEntry.
func EntryOf(p setup.NetworkParams) NetworkEntry {
	entry := NetworkEntry{PanID: fmt.Sprintf("%04X", p.PanID)}
	if p.Encrypted() {
		entry.LinkKey = fmt.Sprintf("%032X", p.LinkKey)
	}
	return entry
}

// Params parses the entry.
func (e NetworkEntry) Params() (setup.NetworkParams, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(e.PanID, "0x"), 16, 16)
	if err != nil {
		return setup.NetworkParams{}, fmt.Errorf("network pan_id %q: %w", e.PanID, err)
	}
	p := setup.NetworkParams{PanID: uint16(id)}
	if e.LinkKey != "" {
		key, ok := new(big.Int).SetString(strings.TrimPrefix(e.LinkKey, "0x"), 16)
		if !ok {
			return setup.NetworkParams{}, fmt.Errorf("network link_key %q is not hex", e.LinkKey)
		}
		p.LinkKey = key
	}
	return p, p.Validate()
}

// AddNetwork remembers network parameters unless already known. It
// reports whether the history changed.
func (c *Config) AddNetwork(p setup.NetworkParams) bool {
	for _, known := range c.NetworkHistory() {
		if known.Equal(p) {
			return false
		}
	}
	c.Networks = append(c.Networks, EntryOf(p))
	return true
}

// NetworkHistory returns the valid remembered network parameters.
func (c *Config) NetworkHistory() []setup.NetworkParams {
	history := make([]setup.NetworkParams, 0, len(c.Networks))
	for _, entry := range c.Networks {
		if p, err := entry.Params(); err == nil {
			history = append(history, p)
		}
	}
	return history
}

// Package config holds the host settings: where the coordinator is
// attached, the MQTT bridge, and the history of network parameters. It
// is seeded from the environment, overridden by a TOML file and then by
// command line flags.
package config

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"

	"github.com/robotalks/xh.go/pkg/synchronous"
)

// DefaultFileName is the config file under the home directory.
const DefaultFileName = ".xh.toml"

// Config is the host configuration.
type Config struct {
	// Path is the TOML file backing the config.
	Path string
	// Transport is the URL of the gateway link, see OpenPort.
	Transport string
	// Baud is the serial baud rate when the transport URL has none.
	Baud int
	// BridgeURL is the MQTT broker frames are republished to, if set.
	BridgeURL string
	// ClientID identifies the host towards MQTT brokers.
	ClientID string
	// Timeout bounds every synchronous request.
	Timeout time.Duration
	// Networks lists network parameters used before, oldest first.
	Networks []NetworkEntry
}

type fileConfig struct {
	Transport string         `toml:"transport,omitempty"`
	Baud      int            `toml:"baud,omitempty"`
	Bridge    string         `toml:"bridge,omitempty"`
	ClientID  string         `toml:"client_id,omitempty"`
	Timeout   string         `toml:"timeout,omitempty"`
	Networks  []NetworkEntry `toml:"network,omitempty"`
}

var defaultConfig = Config{
	Transport: "serial://",
	Timeout:   synchronous.DefaultTimeout,
}

func init() {
	if home, err := os.UserHomeDir(); err == nil {
		defaultConfig.Path = filepath.Join(home, DefaultFileName)
	}
	if val := os.Getenv("XH_CONFIG"); val != "" {
		defaultConfig.Path = val
	}
	if val := os.Getenv("XH_TRANSPORT"); val != "" {
		defaultConfig.Transport = val
	}
	if val := os.Getenv("XH_BRIDGE"); val != "" {
		defaultConfig.BridgeURL = val
	}
	if val := os.Getenv("XH_CLIENT_ID"); val != "" {
		defaultConfig.ClientID = val
	}
}

// flagValues are applied over the file so flags win.
var flagValues struct {
	transport, bridge, clientID string
	baud                        int
	timeout                     time.Duration
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Path, "config", defaultConfig.Path, "Config file.")
	flag.StringVar(&flagValues.transport, "transport", "", "Gateway URL: fake:, serial:///dev/ttyUSB0?baud=9600, tcp://host:port, mqtt://host:port/prefix/, ws://host:port/path.")
	flag.StringVar(&flagValues.bridge, "bridge", "", "MQTT URL to republish frames to.")
	flag.StringVar(&flagValues.clientID, "client-id", "", "MQTT client id, defaults to the machine id.")
	flag.IntVar(&flagValues.baud, "baud", 0, "Serial baud rate.")
	flag.DurationVar(&flagValues.timeout, "timeout", 0, "Timeout of synchronous requests.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Networks = append([]NetworkEntry(nil), defaultConfig.Networks...)
	return &conf
}

// Load creates a Config from the defaults, the file at Default().Path when
// it exists, and the command line flags.
func Load() (*Config, error) {
	conf := NewConfig()
	if conf.Path != "" {
		if err := conf.LoadFile(conf.Path); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}
	conf.applyFlags()
	return conf, nil
}

func (c *Config) applyFlags() {
	if flagValues.transport != "" {
		c.Transport = flagValues.transport
	}
	if flagValues.bridge != "" {
		c.BridgeURL = flagValues.bridge
	}
	if flagValues.clientID != "" {
		c.ClientID = flagValues.clientID
	}
	if flagValues.baud > 0 {
		c.Baud = flagValues.baud
	}
	if flagValues.timeout > 0 {
		c.Timeout = flagValues.timeout
	}
}

// LoadFile merges settings defined in a TOML file.
func (c *Config) LoadFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("load config %s: %w", path, err)
	}
	c.Path = path
	if meta.IsDefined("transport") {
		c.Transport = strings.TrimSpace(raw.Transport)
	}
	if meta.IsDefined("baud") {
		c.Baud = raw.Baud
	}
	if meta.IsDefined("bridge") {
		c.BridgeURL = strings.TrimSpace(raw.Bridge)
	}
	if meta.IsDefined("client_id") {
		c.ClientID = strings.TrimSpace(raw.ClientID)
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return fmt.Errorf("parse timeout: %w", err)
		}
		c.Timeout = d
	}
	if meta.IsDefined("network") {
		for _, entry := range raw.Networks {
			if _, err := entry.Params(); err != nil {
				return err
			}
		}
		c.Networks = raw.Networks
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		glog.Warningf("config %s: unknown keys %v", path, undecoded)
	}
	return nil
}

// Save writes the config to Path.
func (c *Config) Save() error {
	if c.Path == "" {
		return fmt.Errorf("config has no path")
	}
	raw := fileConfig{
		Transport: c.Transport,
		Baud:      c.Baud,
		Bridge:    c.BridgeURL,
		ClientID:  c.ClientID,
		Networks:  c.Networks,
	}
	if c.Timeout > 0 && c.Timeout != synchronous.DefaultTimeout {
		raw.Timeout = c.Timeout.String()
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return err
	}
	if err := os.WriteFile(c.Path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	glog.V(2).Infof("saved config %s", c.Path)
	return nil
}

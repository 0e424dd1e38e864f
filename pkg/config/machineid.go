package config

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// appID scopes the protected machine id to this program.
const appID = "xh"

// MachineID retrieves an ID identifying the machine without exposing the
// raw machine id.
func MachineID() string {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		glog.Warningf("machine id: %v", err)
		return ""
	}
	return id
}

// MQTTClientID returns ClientID, defaulting to an id derived from the
// machine id.
func (c *Config) MQTTClientID() string {
	if c.ClientID != "" {
		return c.ClientID
	}
	if id := MachineID(); id != "" {
		if len(id) > 16 {
			id = id[:16]
		}
		return appID + "-" + id
	}
	return appID
}

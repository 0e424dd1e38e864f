package protocol

import "github.com/robotalks/xh.go/pkg/codec"

// Network parameter widths.
const (
	PanIDBits   = 14
	LinkKeyBits = 128
)

// EncryptionEnable turns network encryption on or off.
type EncryptionEnable struct {
	BaseCommand

	enabled    bool
	hasEnabled bool
}

// NewEncryptionEnable creates a request setting encryption.
func NewEncryptionEnable(enabled bool, opts ...CommandOption) *EncryptionEnable {
	c := &EncryptionEnable{BaseCommand: newOutbound(NameEncryptionEnable, opts)}
	c.setParameter(codec.BoolToBytes(enabled))
	c.enabled, c.hasEnabled = enabled, true
	return c
}

// Enabled returns the encryption setting.
func (c *EncryptionEnable) Enabled() (bool, bool) { return c.enabled, c.hasEnabled }

// String implements Frame.
func (c *EncryptionEnable) String() string {
	var v namedValues
	if c.hasEnabled {
		v.add("enabled", c.enabled)
	}
	return c.format(&v)
}

func decodeEncryptionEnable(base BaseCommand) (Command, error) {
	c := &EncryptionEnable{BaseCommand: base}
	if !c.hasParameter {
		return c, nil
	}
	enabled, err := codec.BytesToBool(c.parameter)
	if err != nil {
		return nil, &InvalidFieldError{Field: KeyParameter, Err: err}
	}
	c.enabled, c.hasEnabled = enabled, true
	return c, nil
}

// Write stores the current configuration in non-volatile memory.
type Write struct {
	BaseCommand
}

// NewWrite creates a write request.
func NewWrite(opts ...CommandOption) *Write {
	return &Write{BaseCommand: newOutbound(NameWrite, opts)}
}

func decodeWrite(base BaseCommand) (Command, error) {
	return &Write{BaseCommand: base}, nil
}

func init() {
	Commands.MustPut(NameEncryptionEnable, decodeEncryptionEnable)
	Commands.MustPut(NameWrite, decodeWrite)
}

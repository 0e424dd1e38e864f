package protocol

import (
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/xh.go/pkg/codec"
)

// CommandName is the two-character AT command mnemonic.
type CommandName string

// Known command names.
const (
	NameInputVolts             CommandName = "%V"
	NameVoltageSupplyThreshold CommandName = "V+"
	NameD0                     CommandName = "D0"
	NameD1                     CommandName = "D1"
	NameD2                     CommandName = "D2"
	NameD3                     CommandName = "D3"
	NameD4                     CommandName = "D4"
	NameD5                     CommandName = "D5"
	NameD6                     CommandName = "D6"
	NameD7                     CommandName = "D7"
	NameEncryptionEnable       CommandName = "EE"
	NamePanID                  CommandName = "ID"
	NameSampleRate             CommandName = "IR"
	NameInputSample            CommandName = "IS"
	NameLinkKey                CommandName = "KY"
	NameNetworkAddress         CommandName = "MY"
	NameNodeDiscover           CommandName = "ND"
	NameNodeIdentifier         CommandName = "NI"
	NameNodeDiscoveryTimeout   CommandName = "NT"
	NameP0                     CommandName = "P0"
	NameP1                     CommandName = "P1"
	NameP2                     CommandName = "P2"
	NamePullUpResistor         CommandName = "PR"
	NameSerialHigh             CommandName = "SH"
	NameSerialLow              CommandName = "SL"
	NameSleepMode              CommandName = "SM"
	NameNumberOfSleepPeriods   CommandName = "SN"
	NameSleepPeriod            CommandName = "SP"
	NameTimeBeforeSleep        CommandName = "ST"
	NameWakeHostTimer          CommandName = "WH"
	NameWrite                  CommandName = "WR"
)

var commandNames = map[CommandName]bool{
	NameInputVolts: true, NameVoltageSupplyThreshold: true,
	NameD0: true, NameD1: true, NameD2: true, NameD3: true,
	NameD4: true, NameD5: true, NameD6: true, NameD7: true,
	NameEncryptionEnable: true, NamePanID: true, NameSampleRate: true,
	NameInputSample: true, NameLinkKey: true, NameNetworkAddress: true,
	NameNodeDiscover: true, NameNodeIdentifier: true, NameNodeDiscoveryTimeout: true,
	NameP0: true, NameP1: true, NameP2: true, NamePullUpResistor: true,
	NameSerialHigh: true, NameSerialLow: true, NameSleepMode: true,
	NameNumberOfSleepPeriods: true, NameSleepPeriod: true,
	NameTimeBeforeSleep: true, NameWakeHostTimer: true, NameWrite: true,
}

// Valid checks if the name is in the enumeration.
func (n CommandName) Valid() bool {
	return commandNames[n]
}

// ParseCommandName validates a command name.
func ParseCommandName(s string) (CommandName, error) {
	if name := CommandName(s); name.Valid() {
		return name, nil
	}
	return "", &UnknownCommandError{Name: s}
}

// wellKnownNumeric are commands whose parameter is known to be a number.
var wellKnownNumeric = map[CommandName]bool{
	NameInputVolts:           true,
	NamePanID:                true,
	NameNetworkAddress:       true,
	NameNodeDiscoveryTimeout: true,
	NameSerialHigh:           true,
	NameSerialLow:            true,
}

// Status is the status code of a command response.
type Status byte

// Response status codes.
const (
	StatusOK Status = iota
	StatusErr
	StatusInvalidCommand
	StatusInvalidParameter
	StatusTransmitFailure
)

var statusNames = [...]string{
	StatusOK:               "OK",
	StatusErr:              "ERROR",
	StatusInvalidCommand:   "INVALID_COMMAND",
	StatusInvalidParameter: "INVALID_PARAMETER",
	StatusTransmitFailure:  "TRANSMIT_FAILURE",
}

// ParseStatus validates a raw status code.
func ParseStatus(n uint64) (Status, error) {
	if n >= uint64(len(statusNames)) {
		return 0, fmt.Errorf("unknown status %d", n)
	}
	return Status(n), nil
}

// String implements fmt.Stringer.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("STATUS(%d)", byte(s))
}

// RemoteSource identifies the module which answered a remote command.
type RemoteSource struct {
	ShortAddr uint16
	Serial    uint64
}

// Command is a Frame representing a named request or its response.
type Command interface {
	Frame
	ID() uint32
	Name() CommandName
	Status() (Status, bool)
	Parameter() []byte
	Destination() (uint64, bool)
	Source() (RemoteSource, bool)
	Request() (*Request, error)
}

type requestCounter struct {
	last uint32
}

func (c *requestCounter) next() uint32 {
	for {
		if id := atomic.AddUint32(&c.last, 1); id != 0 {
			return id
		}
	}
}

var requestIDs requestCounter

// BaseCommand holds the fields common to all commands.
// Specialized commands embed it.
type BaseCommand struct {
	FrameHeader

	id           uint32
	name         CommandName
	response     bool
	status       Status
	hasStatus    bool
	parameter    []byte
	hasParameter bool
	dest         uint64
	hasDest      bool
	source       RemoteSource
	hasSource    bool
}

// CommandOption customizes an outbound command.
type CommandOption func(*BaseCommand)

// WithDestination directs the command to a remote module.
func WithDestination(serial uint64) CommandOption {
	return func(c *BaseCommand) {
		c.dest, c.hasDest = serial, true
	}
}

// WithNumber sets the parameter to a packed number.
func WithNumber(n uint64) CommandOption {
	return WithBytes(codec.NumberToBytes(n, 1))
}

// WithBigNumber sets the parameter to a packed number of at least minWidth bytes.
func WithBigNumber(n *big.Int, minWidth int) CommandOption {
	return WithBytes(codec.BigToBytes(n, minWidth))
}

// WithBytes sets the raw parameter.
func WithBytes(b []byte) CommandOption {
	return func(c *BaseCommand) {
		c.setParameter(b)
	}
}

func newOutbound(name CommandName, opts []CommandOption) BaseCommand {
	c := BaseCommand{
		FrameHeader: FrameHeader{Type: FrameTypeAT},
		id:          requestIDs.next(),
		name:        name,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.hasDest {
		c.Type = FrameTypeRemoteAT
	}
	return c
}

func (c *BaseCommand) setParameter(b []byte) {
	c.parameter = append([]byte(nil), b...)
	c.hasParameter = true
}

// ID implements Command.
func (c *BaseCommand) ID() uint32 { return c.id }

// Name implements Command.
func (c *BaseCommand) Name() CommandName { return c.name }

// IsResponse tells whether the command was decoded from the wire.
func (c *BaseCommand) IsResponse() bool { return c.response }

// Status implements Command.
func (c *BaseCommand) Status() (Status, bool) { return c.status, c.hasStatus }

// Parameter implements Command.
func (c *BaseCommand) Parameter() []byte {
	if !c.hasParameter {
		return nil
	}
	return append([]byte(nil), c.parameter...)
}

// Destination implements Command.
func (c *BaseCommand) Destination() (uint64, bool) { return c.dest, c.hasDest }

// Source implements Command.
func (c *BaseCommand) Source() (RemoteSource, bool) { return c.source, c.hasSource }

// Request implements Command.
func (c *BaseCommand) Request() (*Request, error) {
	if c.response {
		return nil, ErrNotOutbound
	}
	req := &Request{
		Command: string(c.name),
		FrameID: codec.FormatHexID(c.id),
		Remote:  c.hasDest,
	}
	if c.hasParameter {
		req.Parameter = c.Parameter()
	}
	if c.hasDest {
		req.Destination = c.dest
	}
	return req, nil
}

// String implements Frame.
func (c *BaseCommand) String() string {
	var v namedValues
	if c.hasParameter {
		v.add("parameter", c.parameter)
	}
	return c.format(&v)
}

func (c *BaseCommand) format(v *namedValues) string {
	s := fmt.Sprintf("#%x %s", c.id, c.name)
	if c.hasStatus {
		s += " (" + c.status.String() + ")"
	}
	if c.hasDest {
		s += fmt.Sprintf(" to=0x%016x", c.dest)
	}
	if c.hasSource {
		s += fmt.Sprintf(" from=0x%016x", c.source.Serial)
	}
	v.options(c.Options)
	return s + v.String()
}

// GenericCommand is a command without specialized parameter structure.
// Its parameter is read as a number on a best-effort basis.
type GenericCommand struct {
	BaseCommand

	number    uint64
	hasNumber bool
	guessed   bool
}

// NewCommand creates an outbound command with the next request id.
func NewCommand(name CommandName, opts ...CommandOption) (*GenericCommand, error) {
	if !name.Valid() {
		return nil, &UnknownCommandError{Name: string(name)}
	}
	c := &GenericCommand{BaseCommand: newOutbound(name, opts)}
	if c.hasParameter {
		c.number, c.hasNumber = bestEffortNumber(c.parameter)
	}
	return c, nil
}

// Number returns the parameter read as a number.
func (c *GenericCommand) Number() (uint64, bool) { return c.number, c.hasNumber }

// NumberGuessed tells whether the parameter was read as a number
// without the command being known to carry one.
func (c *GenericCommand) NumberGuessed() bool { return c.guessed }

// String implements Frame.
func (c *GenericCommand) String() string {
	var v namedValues
	if c.hasNumber {
		v.add("parameter", c.number)
	} else if c.hasParameter {
		v.add("parameter", c.parameter)
	}
	return c.format(&v)
}

func bestEffortNumber(b []byte) (uint64, bool) {
	n, err := codec.BytesToNumber(b)
	return n, err == nil
}

func decodeGeneric(base BaseCommand) (Command, error) {
	c := &GenericCommand{BaseCommand: base}
	if !c.hasParameter {
		return c, nil
	}
	n, err := codec.BytesToNumber(c.parameter)
	if err != nil {
		glog.Warningf("command %s: parameter %x kept raw: %v", c.name, c.parameter, err)
		return c, nil
	}
	c.number, c.hasNumber = n, true
	if !wellKnownNumeric[c.name] {
		c.guessed = true
		glog.Warningf("uncertain conversion of parameter %x to number 0x%x for command %s", c.parameter, n, c.name)
	}
	return c, nil
}

// CheckStatus returns a StatusError if the response carries a non-OK status.
func CheckStatus(c Command) error {
	if status, ok := c.Status(); ok && status != StatusOK {
		return &StatusError{Command: c.Name(), ID: c.ID(), Status: status}
	}
	return nil
}

// Request is an encoded outbound command.
type Request struct {
	Command     string
	FrameID     string
	Parameter   []byte
	Destination uint64
	Remote      bool
}

// Send delivers the request to the matching entry point of s.
func (r *Request) Send(s Sender) error {
	if r.Remote {
		return s.SendRemote(r.Command, r.FrameID, r.Parameter, r.Destination)
	}
	return s.SendLocal(r.Command, r.FrameID, r.Parameter)
}

// Sender is the outbound side of the transport.
type Sender interface {
	SendLocal(command, frameID string, parameter []byte) error
	SendRemote(command, frameID string, parameter []byte, dest uint64) error
}

// Send encodes and sends a command.
func Send(s Sender, c Command) error {
	req, err := c.Request()
	if err != nil {
		return err
	}
	glog.V(2).Infof("sending %s", c)
	return req.Send(s)
}

func decodeCommand(t FrameType) DecodeFunc {
	return func(fm FieldMap, used KeySet) (Frame, error) {
		r := newFieldReader(fm, used)
		base := BaseCommand{FrameHeader: r.header(t), response: true}
		frameID := r.text(KeyFrameID)
		name := r.text(KeyCommand)
		status, hasStatus := r.optionalNumber(KeyStatus)
		if param, ok := r.optionalBytes(KeyParameter); ok {
			base.setParameter(param)
		}
		if t == FrameTypeRemoteATResponse {
			base.source.ShortAddr = uint16(r.number(KeySourceAddr))
			base.source.Serial = r.number(KeySourceAddrLong)
			base.hasSource = true
		}
		if r.err != nil {
			return nil, r.err
		}

		var err error
		if base.id, err = codec.ParseHexID(frameID); err != nil {
			return nil, &InvalidFieldError{Field: KeyFrameID, Err: err}
		}
		if base.name, err = ParseCommandName(name); err != nil {
			return nil, &InvalidFieldError{Field: KeyCommand, Err: err}
		}
		if hasStatus {
			if base.status, err = ParseStatus(status); err != nil {
				return nil, &InvalidFieldError{Field: KeyStatus, Err: err}
			}
			base.hasStatus = true
		}

		decode := Commands.Get(base.name)
		if decode == nil {
			decode = decodeGeneric
		}
		return decode(base)
	}
}

func init() {
	Frames.MustPut(FrameTypeATResponse, decodeCommand(FrameTypeATResponse))
	Frames.MustPut(FrameTypeRemoteATResponse, decodeCommand(FrameTypeRemoteATResponse))
}

// Package sh is the interactive and one-shot command shell talking to the
// coordinator.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/xh.go/pkg/config"
	"github.com/robotalks/xh.go/pkg/protocol"
	"github.com/robotalks/xh.go/pkg/setup"
	"github.com/robotalks/xh.go/pkg/transport/stream"
	"github.com/robotalks/xh.go/pkg/transport/wire"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Config *config.Config
	Radio  *Radio
}

const (
	shellKey = "$shell"
	prompt   = "xh > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ATCmd,
		&SerialCmd,
		&NetworkCmd,
		&FramesCmd,
		&NodesCmd,
		&PortsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// EvalOnly tells whether -e was given.
func EvalOnly() bool {
	return evalOnly
}

// New creates a new shell.
func New(conf *config.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Connect opens the radio unless already open.
func (s *Shell) Connect() error {
	if s.Radio != nil {
		return nil
	}
	r, err := OpenRadio(s.Config)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(r.Runner.Context, 5*time.Second)
	defer cancel()
	if err = r.Activate(ctx); err != nil {
		glog.Warningf("activate presence: %v", err)
	}
	s.Radio = r
	return nil
}

// Close closes the radio.
func (s *Shell) Close() error {
	if s.Radio == nil {
		return nil
	}
	err := s.Radio.Close()
	s.Radio = nil
	return err
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if err := ShellFrom(c).Connect(); err != nil {
			c.Err(err)
			return
		}
		fn(c)
	}
}

func (s *Shell) context() context.Context {
	if s.Radio != nil {
		return s.Radio.Runner.Context
	}
	return context.Background()
}

// Discover lists the nodes answering discovery within window; a window
// <= 0 is computed from NT and SP.
func (s *Shell) Discover(window time.Duration) ([]NodeView, error) {
	nodes, err := setup.DiscoverNodes(s.context(), s.Radio.Correlator, window)
	views := make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, ViewOfInfo(n))
	}
	return views, err
}

// AT sends an AT command: [-r SERIAL] NAME [HEX-PARAMETER].
func (s *Shell) AT(args []string) (protocol.Command, error) {
	var opts []protocol.CommandOption
	if len(args) >= 2 && args[0] == "-r" {
		serial, err := ParseSerial(args[1])
		if err != nil {
			return nil, err
		}
		opts = append(opts, protocol.WithDestination(serial))
		args = args[2:]
	}
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("usage: at [-r SERIAL] NAME [HEX-PARAMETER]")
	}
	name, err := protocol.ParseCommandName(args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 2 {
		param, err := ParseHexBytes(args[1])
		if err != nil {
			return nil, err
		}
		opts = append(opts, protocol.WithBytes(param))
	}
	return setup.Query(s.context(), s.Radio.Correlator, name, opts...)
}

// LocalSerial reads the serial of the local module.
func (s *Shell) LocalSerial() (uint64, error) {
	return setup.LocalSerial(s.context(), s.Radio.Correlator)
}

// SetNetwork writes network parameters and remembers them in the config.
func (s *Shell) SetNetwork(p setup.NetworkParams) error {
	if err := setup.SetNetworkParams(s.context(), s.Radio.Correlator, p); err != nil {
		return err
	}
	if s.Config.AddNetwork(p) {
		if err := s.Config.Save(); err != nil {
			glog.Warningf("save network history: %v", err)
		}
	}
	return nil
}

// Frames returns up to n most recent frames, all when n <= 0.
func (s *Shell) Frames(n int) []*wire.FrameSummary {
	records := s.Radio.Frames.Records(n)
	summaries := make([]*wire.FrameSummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, wire.NewFrameSummary(r.Frame, r.ReceivedAt))
	}
	return summaries
}

// Nodes returns the presence directory.
func (s *Shell) Nodes() []NodeView {
	nodes := s.Radio.Presence.Nodes()
	views := make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, ViewOfNode(n))
	}
	return views
}

// Ports lists serial port candidates.
func Ports() ([]stream.PortInfo, error) {
	return stream.SerialCandidates()
}

// Print prints v as JSON or with its String form.
func (s *Shell) Print(c *ishell.Context, v interface{}) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	switch val := v.(type) {
	case []NodeView:
		if len(val) == 0 {
			c.Println("No nodes")
		}
		for _, n := range val {
			c.Println(n.String())
		}
	case []*wire.FrameSummary:
		for _, f := range val {
			c.Println(time.Unix(0, f.ReceivedAtNs).Format("15:04:05.000"), f.Description)
		}
	case fmt.Stringer:
		c.Println(val.String())
	default:
		c.Println(v)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) error {
	defer s.Close()
	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if s.Interactive {
		s.Shell.Run()
		return nil
	}
	return fmt.Errorf("command expected")
}

package sh

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/xh.go/pkg/setup"
)

var (
	// DiscoverCmd lists the nodes answering node discovery.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "[TIMEOUT]",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			var window time.Duration
			if len(c.Args) > 0 {
				var err error
				if window, err = ParseWindow(c.Args[0]); err != nil {
					c.Err(err)
					return
				}
			}
			nodes, err := s.Discover(window)
			if err != nil {
				c.Err(err)
				return
			}
			s.Print(c, nodes)
		}),
	}

	// ATCmd sends a raw AT command.
	ATCmd = ishell.Cmd{
		Name: "at",
		Help: "[-r SERIAL] NAME [HEX-PARAMETER]",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			resp, err := s.AT(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				s.Print(c, map[string]interface{}{
					"command":   string(resp.Name()),
					"parameter": fmt.Sprintf("%X", resp.Parameter()),
					"frame":     resp.String(),
				})
				return
			}
			s.Print(c, resp)
		}),
	}

	// SerialCmd prints the serial of the local module.
	SerialCmd = ishell.Cmd{
		Name: "serial",
		Help: "",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			serial, err := s.LocalSerial()
			if err != nil {
				c.Err(err)
				return
			}
			s.Print(c, FormatSerial(serial))
		}),
	}

	// NetworkCmd lists, generates or sets network parameters.
	NetworkCmd = ishell.Cmd{
		Name: "network",
		Help: "[generate [encrypt] | set PANID [LINKKEY]]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) == 0 {
				history := s.Config.NetworkHistory()
				if !s.OutputJSON && len(history) == 0 {
					c.Println("No network information in config.")
					return
				}
				items := make([]string, 0, len(history))
				for _, p := range history {
					items = append(items, p.String())
				}
				if s.OutputJSON {
					s.Print(c, items)
					return
				}
				for _, item := range items {
					c.Println(item)
				}
				return
			}
			p, err := networkParamsFromArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if err = s.Connect(); err != nil {
				c.Err(err)
				return
			}
			if err = s.SetNetwork(p); err != nil {
				c.Err(err)
				return
			}
			s.Print(c, p)
		},
	}

	// FramesCmd prints the latest received frames.
	FramesCmd = ishell.Cmd{
		Name:    "frames",
		Aliases: []string{"f"},
		Help:    "[COUNT]",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			n := 20
			if len(c.Args) > 0 {
				var err error
				if n, err = strconv.Atoi(c.Args[0]); err != nil {
					c.Err(fmt.Errorf("invalid COUNT: %v", err))
					return
				}
			}
			s.Print(c, s.Frames(n))
		}),
	}

	// NodesCmd prints the presence directory.
	NodesCmd = ishell.Cmd{
		Name:    "nodes",
		Aliases: []string{"n"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			s.Print(c, s.Nodes())
		}),
	}

	// PortsCmd lists serial port candidates.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ports, err := Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				s.Print(c, ports)
				return
			}
			for _, p := range ports {
				line := p.Name
				if p.IsUSB {
					line += fmt.Sprintf(" USB %s:%s %s", p.VID, p.PID, p.SerialNumber)
				}
				c.Println(line)
			}
		},
	}
)

func networkParamsFromArgs(args []string) (setup.NetworkParams, error) {
	switch args[0] {
	case "generate":
		encrypt := len(args) > 1 && args[1] == "encrypt"
		return setup.GenerateNetworkParams(encrypt)
	case "set":
		if len(args) < 2 || len(args) > 3 {
			return setup.NetworkParams{}, fmt.Errorf("usage: network set PANID [LINKKEY]")
		}
		id, err := strconv.ParseUint(trimHex(args[1]), 16, 16)
		if err != nil {
			return setup.NetworkParams{}, fmt.Errorf("invalid PANID %q", args[1])
		}
		p := setup.NetworkParams{PanID: uint16(id)}
		if len(args) == 3 {
			if p.LinkKey, err = ParseHexNumber(args[2]); err != nil {
				return setup.NetworkParams{}, err
			}
		}
		return p, p.Validate()
	}
	return setup.NetworkParams{}, fmt.Errorf("unknown network action %q", args[0])
}

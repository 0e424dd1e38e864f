// Package setup provisions the local coordinator and discovers the
// modules around it, on top of the synchronous correlator.
package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/xh.go/pkg/codec"
	"github.com/robotalks/xh.go/pkg/protocol"
)

// Requester sends commands and waits for their responses.
// synchronous.Correlator implements it.
type Requester interface {
	SendAndWait(ctx context.Context, cmd protocol.Command, timeout time.Duration) (protocol.Command, error)
	SendAndAccumulate(ctx context.Context, cmd protocol.Command, window time.Duration) ([]protocol.Command, error)
}

// Query sends a parameterless command and returns its response, failing
// on a non-OK status.
func Query(ctx context.Context, r Requester, name protocol.CommandName, opts ...protocol.CommandOption) (protocol.Command, error) {
	cmd, err := protocol.NewCommand(name, opts...)
	if err != nil {
		return nil, err
	}
	return exchange(ctx, r, cmd)
}

func exchange(ctx context.Context, r Requester, cmd protocol.Command) (protocol.Command, error) {
	resp, err := r.SendAndWait(ctx, cmd, 0)
	if err != nil {
		return nil, err
	}
	if err = protocol.CheckStatus(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func queryNumber(ctx context.Context, r Requester, name protocol.CommandName) (uint64, error) {
	resp, err := Query(ctx, r, name)
	if err != nil {
		return 0, err
	}
	n, err := codec.BytesToNumber(resp.Parameter())
	if err != nil {
		return 0, fmt.Errorf("%s response: %w", name, err)
	}
	return n, nil
}

// LocalSerial reads the serial number of the local module from SH and SL.
func LocalSerial(ctx context.Context, r Requester) (uint64, error) {
	high, err := queryNumber(ctx, r, protocol.NameSerialHigh)
	if err != nil {
		return 0, err
	}
	low, err := queryNumber(ctx, r, protocol.NameSerialLow)
	if err != nil {
		return 0, err
	}
	serial := codec.BuildSerial(uint32(high), uint32(low))
	glog.V(2).Infof("local serial 0x%016x", serial)
	return serial, nil
}

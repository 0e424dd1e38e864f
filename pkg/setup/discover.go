package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/xh.go/pkg/protocol"
)

// DefaultSleepPeriod is the factory SP value. Discovery waits for
// sleeping modules only when SP differs from it.
const DefaultSleepPeriod = 320 * time.Millisecond

// DiscoveryWindow reads NT and SP from the local module and returns how
// long node discovery takes to collect every answer.
func DiscoveryWindow(ctx context.Context, r Requester) (time.Duration, error) {
	timeout, err := queryDuration(ctx, r, protocol.NameNodeDiscoveryTimeout)
	if err != nil {
		return 0, err
	}
	sleep, err := queryDuration(ctx, r, protocol.NameSleepPeriod)
	if err != nil {
		return 0, err
	}
	if sleep != DefaultSleepPeriod {
		glog.Infof("will wait an extra %s for sleeping devices", sleep)
		timeout += sleep
	}
	return timeout, nil
}

func queryDuration(ctx context.Context, r Requester, name protocol.CommandName) (time.Duration, error) {
	resp, err := Query(ctx, r, name)
	if err != nil {
		return 0, err
	}
	num, ok := resp.(*protocol.NumberCommand)
	if !ok {
		return 0, fmt.Errorf("%s response: unexpected %T", name, resp)
	}
	d, ok := num.Duration()
	if !ok {
		return 0, fmt.Errorf("%s response: no value", name)
	}
	return d, nil
}

// DiscoverNodes broadcasts ND and collects the node records answered
// within window. A window <= 0 is computed with DiscoveryWindow.
func DiscoverNodes(ctx context.Context, r Requester, window time.Duration) ([]protocol.NodeInfo, error) {
	if window <= 0 {
		var err error
		if window, err = DiscoveryWindow(ctx, r); err != nil {
			return nil, err
		}
	}
	responses, err := r.SendAndAccumulate(ctx, protocol.NewNodeDiscover(), window)
	nodes := make([]protocol.NodeInfo, 0, len(responses))
	for _, resp := range responses {
		if statusErr := protocol.CheckStatus(resp); statusErr != nil {
			glog.Warningf("node discover: %v", statusErr)
			continue
		}
		nd, ok := resp.(*protocol.NodeDiscover)
		if !ok {
			continue
		}
		if info, ok := nd.Node(); ok {
			nodes = append(nodes, info)
		}
	}
	return nodes, err
}

package sh

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/xh.go/pkg/bus"
	"github.com/robotalks/xh.go/pkg/config"
	fx "github.com/robotalks/xh.go/pkg/framework"
	"github.com/robotalks/xh.go/pkg/plugins"
	"github.com/robotalks/xh.go/pkg/synchronous"
	"github.com/robotalks/xh.go/pkg/transport"
	"github.com/robotalks/xh.go/pkg/transport/mqtt"
)

// Radio is a running connection to the coordinator with the built-in
// subscribers attached.
type Radio struct {
	Bus        *bus.Bus
	Link       *transport.Link
	Correlator *synchronous.Correlator
	Frames     *plugins.FrameLogger
	Presence   *plugins.Presence
	Runner     *fx.Runner
}

// OpenRadio opens the configured transport and starts the link, plus the
// MQTT bridge when configured.
func OpenRadio(conf *config.Config) (*Radio, error) {
	runner := fx.NewRunner()
	port, err := conf.OpenPort(runner.Context)
	if err != nil {
		runner.Stop()
		return nil, err
	}
	r := &Radio{
		Bus:      bus.New(),
		Frames:   plugins.NewFrameLogger(),
		Presence: plugins.NewPresence(),
		Runner:   runner,
	}
	r.Bus.Subscribe(r.Frames.Name(), r.Frames)
	r.Bus.Subscribe(r.Presence.Name(), r.Presence)
	r.Link = transport.NewLink(port, r.Bus)
	r.Correlator = synchronous.New(r.Bus, r.Link)
	r.Correlator.Timeout = conf.Timeout
	runner.Go(r.Link)

	if conf.BridgeURL != "" {
		q, err := mqtt.NewQueueFromURL(conf.BridgeURL, conf.MQTTClientID())
		if err != nil {
			r.Close()
			return nil, err
		}
		runner.Go(mqtt.NewBridge(q, r.Bus))
	}
	return r, nil
}

// Activate starts the subscribers which query the radio.
func (r *Radio) Activate(ctx context.Context) error {
	return r.Presence.Activate(ctx, r.Correlator, r.Link)
}

// Close stops the link and bridge.
func (r *Radio) Close() error {
	r.Runner.Stop()
	err := r.Runner.Wait()
	r.Correlator.Close()
	if err != nil {
		glog.Errorf("radio stopped: %v", err)
	}
	return err
}

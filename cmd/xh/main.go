package main

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/xh.go/pkg/cli/sh"
	"github.com/robotalks/xh.go/pkg/config"
)

//go-build: CGO_ENABLED=0

func init() {
	config.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := config.Load()
	if err != nil {
		glog.Exitf("config: %v", err)
	}
	s := sh.New(conf)
	if sh.EvalOnly() && flag.NArg() == 0 && conf.BridgeURL != "" {
		bridge(s)
		return
	}
	if err := s.Run(flag.Args()...); err != nil {
		glog.Exit(err)
	}
}

// bridge republishes frames until stopped by a signal.
func bridge(s *sh.Shell) {
	if err := s.Connect(); err != nil {
		glog.Exitf("connect: %v", err)
	}
	runner := s.Radio.Runner.HandleSignals()
	glog.Infof("bridging frames to %s", s.Config.BridgeURL)
	<-runner.Context.Done()
	if err := s.Close(); err != nil {
		glog.Exit(err)
	}
}

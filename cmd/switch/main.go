package main

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import (
	"context"
	"fmt"
	"os"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"github.com/canonical/netdevlab/internal/cliconfig"
	"github.com/canonical/netdevlab/internal/device"
	"github.com/canonical/netdevlab/internal/ethernet"
	"github.com/canonical/netdevlab/internal/harness"
	"github.com/canonical/netdevlab/internal/logging"
	"github.com/canonical/netdevlab/internal/metrics"
	"github.com/canonical/netdevlab/internal/switchengine"
)

func main() {
	var logLevel, metricsAddr string

	root := &cobra.Command{
		Use:   "switch ethNAME...",
		Short: "Run an Ethernet learning-bridge device",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args, logLevel, metricsAddr)
		},
	}
	root.Flags().StringVar(&logLevel, "log-level", "info", "diagnostic log level (debug, info, warn, error)")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (empty disables)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(argv []string, logLevel, metricsAddr string) error {
	logging.SetLevel(logLevel)
	log := logging.New("switch")

	specs := make([]cliconfig.Spec, len(argv))
	for i, arg := range argv {
		s, err := cliconfig.Parse(arg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		specs[i] = s
	}

	dev := device.New(cliconfig.Names(specs))
	dev.MACTable = device.NewMACTable(device.MACTableCapacity)

	m := metrics.New("switch")
	eng := switchengine.New(dev, log, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if metricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, metricsAddr); err != nil {
				log.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	h := harness.New(os.Stdin, os.Stdout)
	emit := func(ifcNum uint16, frame []byte) {
		if err := h.Emit(ifcNum, frame); err != nil {
			log.Error().Err(err).Msg("emit failed")
		}
	}

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Debug().Err(err).Msg("sd_notify unavailable")
	}

	return h.Loop(
		func(ifcNum uint16, frame []byte) {
			eng.HandleFrame(ifcNum, frame, switchengine.Emit(emit))
		},
		func(line string) {
			log.Warn().Str("line", line).Msg("switch accepts no control commands")
		},
		func(ifcNum uint16, mac ethernet.MAC) {
			dev.SetInterfaceMAC(ifcNum, mac)
		},
	)
}

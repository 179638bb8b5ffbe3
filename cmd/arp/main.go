package main

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/canonical/netdevlab/internal/arpengine"
	"github.com/canonical/netdevlab/internal/cliconfig"
	"github.com/canonical/netdevlab/internal/controlcmd"
	"github.com/canonical/netdevlab/internal/device"
	"github.com/canonical/netdevlab/internal/ethernet"
	"github.com/canonical/netdevlab/internal/harness"
	"github.com/canonical/netdevlab/internal/logging"
	"github.com/canonical/netdevlab/internal/metrics"
)

func main() {
	var logLevel, metricsAddr string

	root := &cobra.Command{
		Use:   "arp ethNAME[IPV4:<ip>/<prefixlen>]...",
		Short: "Run a standalone ARP cache/resolver device",
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
	log := logging.New("arp")

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
	dev.ARPCache = device.NewARPCache(device.ToolARPCacheCapacity)
	for i, s := range specs {
		if err := cliconfig.ApplyIPv4(dev.Interface(uint16(i+1)), s); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	m := metrics.New("arp")
	eng := arpengine.New(dev, log, m)

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
			eng.HandleFrame(ifcNum, frame, arpengine.Emit(emit))
		},
		func(line string) {
			handleControl(eng, line, log, emit)
		},
		func(ifcNum uint16, mac ethernet.MAC) {
			dev.SetInterfaceMAC(ifcNum, mac)
		},
	)
}

// handleControl dispatches one operator command line per spec.md §4.5.3's
// "arp" family. Invalid syntax is logged to the diagnostic channel and has
// no other effect.
func handleControl(eng *arpengine.Engine, line string, log zerolog.Logger, emit arpengine.Emit) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "arp" {
		log.Warn().Str("line", line).Msg("unrecognised command")
		return
	}

	cmd, err := controlcmd.ParseARP(fields)
	if err != nil {
		log.Warn().Err(err).Str("line", line).Msg("invalid arp command")
		return
	}

	if !cmd.HasQuery {
		eng.PrintCache(os.Stdout)
		return
	}
	if err := eng.Resolve(cmd.IP, cmd.Iface, os.Stdout, emit); err != nil {
		log.Warn().Err(err).Str("line", line).Msg("arp command failed")
	}
}

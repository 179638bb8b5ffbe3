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
	"github.com/canonical/netdevlab/internal/router"
)

func main() {
	var logLevel, metricsAddr string

	root := &cobra.Command{
		Use:   "router ethNAME[IPV4:<ip>/<prefixlen>]...",
		Short: "Run an IPv4 routing device",
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
	log := logging.New("router")

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
	dev.ARPCache = device.NewARPCache(device.RouterARPCacheCapacity)
	dev.RouteTable = device.NewRouteTable()
	for i, s := range specs {
		ifc := dev.Interface(uint16(i + 1))
		if err := cliconfig.ApplyIPv4(ifc, s); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		network := ethernet.IPv4Addr{
			ifc.IP[0] & ifc.Netmask[0],
			ifc.IP[1] & ifc.Netmask[1],
			ifc.IP[2] & ifc.Netmask[2],
			ifc.IP[3] & ifc.Netmask[3],
		}
		if err := dev.RouteTable.Add(device.RouteEntry{
			Network: network,
			Netmask: ifc.Netmask,
			IfcNum:  ifc.Num,
		}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	m := metrics.New("router")
	eng := router.New(dev, log, m)

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
			eng.HandleFrame(ifcNum, frame, router.Emit(emit))
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
// "arp" and "route" families. Invalid syntax is logged to the diagnostic
// channel and has no other effect.
func handleControl(eng *router.Engine, line string, log zerolog.Logger, emit router.Emit) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "arp":
		cmd, err := controlcmd.ParseARP(fields)
		if err != nil {
			log.Warn().Err(err).Str("line", line).Msg("invalid arp command")
			return
		}
		if !cmd.HasQuery {
			eng.ARP.PrintCache(os.Stdout)
			return
		}
		if err := eng.ARP.Resolve(cmd.IP, cmd.Iface, os.Stdout, arpengine.Emit(emit)); err != nil {
			log.Warn().Err(err).Str("line", line).Msg("arp command failed")
		}
	case "route":
		cmd, err := controlcmd.ParseRoute(fields)
		if err != nil {
			log.Warn().Err(err).Str("line", line).Msg("invalid route command")
			return
		}
		switch cmd.Op {
		case "list":
			eng.PrintRoutes(os.Stdout)
		case "add":
			if err := eng.AddRoute(cmd.Network, cmd.Netmask, cmd.NextHop, cmd.Iface); err != nil {
				log.Warn().Err(err).Str("line", line).Msg("route add failed")
			}
		case "del":
			if err := eng.DelRoute(cmd.Network, cmd.Netmask, cmd.NextHop, cmd.Iface); err != nil {
				log.Warn().Err(err).Str("line", line).Msg("route del failed")
			}
		}
	default:
		log.Warn().Str("line", line).Msg("unrecognised command")
	}
}

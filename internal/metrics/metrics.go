package metrics

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the counters and gauges every engine publishes. All of
// its metrics are created by New; a zero Registry holds nil metrics.
type Registry struct {
	Frames        *prometheus.CounterVec
	ARPCacheEvent *prometheus.CounterVec
	Fragments     prometheus.Counter
	ICMPEmitted   *prometheus.CounterVec

	MACTableSize prometheus.Gauge
	ARPCacheSize prometheus.Gauge
	RoutesTotal  prometheus.Gauge

	reg *prometheus.Registry
}

// New registers and returns a fresh set of metrics for one engine instance.
func New(engine string) *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		Frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netdevlab",
			Subsystem: engine,
			Name:      "frames_total",
			Help:      "Frames processed, partitioned by outcome.",
		}, []string{"action"}),
		ARPCacheEvent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netdevlab",
			Subsystem: engine,
			Name:      "arp_cache_events_total",
			Help:      "ARP cache lookups, partitioned by result.",
		}, []string{"result"}),
		Fragments: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "netdevlab",
			Subsystem: engine,
			Name:      "fragments_emitted_total",
			Help:      "IPv4 fragments emitted by the router engine.",
		}),
		ICMPEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netdevlab",
			Subsystem: engine,
			Name:      "icmp_emitted_total",
			Help:      "ICMP error messages emitted, partitioned by type/code.",
		}, []string{"type_code"}),
		MACTableSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "netdevlab",
			Subsystem: engine,
			Name:      "mac_table_size",
			Help:      "Current number of learned MAC table entries.",
		}),
		ARPCacheSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "netdevlab",
			Subsystem: engine,
			Name:      "arp_cache_size",
			Help:      "Current number of cached ARP entries.",
		}),
		RoutesTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "netdevlab",
			Subsystem: engine,
			Name:      "routes_total",
			Help:      "Current number of routing table entries.",
		}),
	}
}

// Serve starts a /metrics HTTP listener on addr until ctx is cancelled. It
// runs on its own goroutine, independent of the single-threaded engine
// loop, and only ever reads already-published metric values.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

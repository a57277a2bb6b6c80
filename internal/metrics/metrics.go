// internal/metrics/metrics.go
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const prefix = "gated_"

// Metrics holds every instrument the controller touches.
type Metrics struct {
	registry *prometheus.Registry

	Ticks             prometheus.Counter
	StatusPublishes   prometheus.Counter
	PublishFailures   prometheus.Counter
	ReconnectAttempts prometheus.Counter
	Connected         prometheus.Gauge

	CommandsAccepted prometheus.Counter
	CommandsRejected prometheus.Counter

	BarrierOpens *prometheus.CounterVec

	SlotsOccupied  prometheus.Gauge
	SlotsAvailable prometheus.Gauge

	ScansGranted prometheus.Counter
	ScansDenied  prometheus.Counter
}

// New creates and registers all instruments on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "ticks_total",
			Help: "Control loop ticks executed.",
		}),
		StatusPublishes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "status_publishes_total",
			Help: "Slot status messages published.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "publish_failures_total",
			Help: "Outbound publishes that failed or timed out.",
		}),
		ReconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "reconnect_attempts_total",
			Help: "Broker connect attempts.",
		}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "broker_connected",
			Help: "1 while the broker connection is up.",
		}),
		CommandsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "commands_accepted_total",
			Help: "Inbound commands dispatched to a barrier.",
		}),
		CommandsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "commands_rejected_total",
			Help: "Inbound commands discarded as invalid.",
		}),
		BarrierOpens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "barrier_opens_total",
			Help: "Barrier open actuations.",
		}, []string{"barrier"}),
		SlotsOccupied: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "slots_occupied",
			Help: "Virtual slots currently occupied.",
		}),
		SlotsAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "slots_available",
			Help: "Virtual slots currently available.",
		}),
		ScansGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "scans_granted_total",
			Help: "Credential scans validated successfully.",
		}),
		ScansDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "scans_denied_total",
			Help: "Credential scans denied or failed.",
		}),
	}

	reg.MustRegister(
		m.Ticks,
		m.StatusPublishes,
		m.PublishFailures,
		m.ReconnectAttempts,
		m.Connected,
		m.CommandsAccepted,
		m.CommandsRejected,
		m.BarrierOpens,
		m.SlotsOccupied,
		m.SlotsAvailable,
		m.ScansGranted,
		m.ScansDenied,
	)

	return m
}

// Serve exposes the registry on addr until the context is canceled.
// An empty addr disables the listener.
func (m *Metrics) Serve(ctx context.Context, addr, path string, log *zap.Logger) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		log.Info("metrics listener started",
			zap.String("addr", addr),
			zap.String("path", path))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics listener failed", zap.Error(err))
		}
	}()
}

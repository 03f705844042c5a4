// Package prommetrics exports virtualmidi port metrics to Prometheus.
package prommetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaban/virtualmidi"
)

const namespace = "virtualmidi"

// Hook implements virtualmidi.MetricsHook.
type Hook struct {
	portsOpen      prometheus.Gauge
	portsCreated   *prometheus.CounterVec
	createFailures *prometheus.CounterVec
	messagesIn     *prometheus.CounterVec
	bytesIn        *prometheus.CounterVec
	deliveries     *prometheus.CounterVec
	dropped        *prometheus.CounterVec
	messagesOut    *prometheus.CounterVec
	bytesOut       *prometheus.CounterVec
	sendFailures   *prometheus.CounterVec
	asyncErrors    prometheus.Counter
}

var _ virtualmidi.MetricsHook = (*Hook)(nil)

// New creates a Hook and registers its collectors with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Hook, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	port := []string{"port"}
	h := &Hook{
		portsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "ports_open",
			Help: "Virtual ports currently open.",
		}),
		portsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ports_created_total",
			Help: "Virtual ports created.",
		}, port),
		createFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "port_create_failures_total",
			Help: "Virtual port creations refused by the driver.",
		}, port),
		messagesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_received_total",
			Help: "Inbound messages processed.",
		}, port),
		bytesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "bytes_received_total",
			Help: "Inbound bytes processed.",
		}, port),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "deliveries_total",
			Help: "Inbound messages handed to inputs, counted per input.",
		}, port),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_dropped_total",
			Help: "Inbound messages discarded because their port was closing.",
		}, port),
		messagesOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_sent_total",
			Help: "Outbound messages accepted by the driver.",
		}, port),
		bytesOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "bytes_sent_total",
			Help: "Outbound bytes accepted by the driver.",
		}, port),
		sendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "send_failures_total",
			Help: "Outbound messages rejected by the driver.",
		}, port),
		asyncErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "async_errors_total",
			Help: "Errors reported to the registry's error handler.",
		}),
	}
	for _, c := range []prometheus.Collector{
		h.portsOpen, h.portsCreated, h.createFailures, h.messagesIn, h.bytesIn,
		h.deliveries, h.dropped, h.messagesOut, h.bytesOut, h.sendFailures,
		h.asyncErrors,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hook) OnPortCreated(name string) {
	h.portsOpen.Inc()
	h.portsCreated.WithLabelValues(name).Inc()
}

func (h *Hook) OnPortCreateFailed(name string, _ error) {
	h.createFailures.WithLabelValues(name).Inc()
}

func (h *Hook) OnPortClosed(string) {
	h.portsOpen.Dec()
}

func (h *Hook) OnMessageDelivered(name string, size, listeners int) {
	h.messagesIn.WithLabelValues(name).Inc()
	h.bytesIn.WithLabelValues(name).Add(float64(size))
	h.deliveries.WithLabelValues(name).Add(float64(listeners))
}

func (h *Hook) OnMessageDropped(name string) {
	h.dropped.WithLabelValues(name).Inc()
}

func (h *Hook) OnSend(name string, size int, err error) {
	if err != nil {
		h.sendFailures.WithLabelValues(name).Inc()
		return
	}
	h.messagesOut.WithLabelValues(name).Inc()
	h.bytesOut.WithLabelValues(name).Add(float64(size))
}

// ObserveError counts an error handed to a virtualmidi.ErrorHandler. It fits
// the callback of virtualmidi.NewLoggingErrorHandler.
func (h *Hook) ObserveError(error) {
	h.asyncErrors.Inc()
}

// Package metrics exports tracker counters to Prometheus.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samiam2013/skywatch/common/gps"
)

// Collector implements gps.Observer.
type Collector struct {
	gatherer prometheus.Gatherer

	Sentences    *prometheus.CounterVec
	InView       prometheus.Gauge
	Uploads      *prometheus.CounterVec
	BaudRate     prometheus.Gauge
	BaudDetected prometheus.Gauge
}

// New registers the collectors on reg, or the default registry when nil.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		gatherer: gatherer,
		Sentences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skywatch_sentences_total",
			Help: "Assembled NMEA sentences, labeled by how they were consumed.",
		}, []string{"kind"}),
		InView: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "skywatch_satellites_in_view",
			Help: "Satellite count of the current GSV broadcast group.",
		}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skywatch_uploads_total",
			Help: "Fix uploads, labeled by result.",
		}, []string{"result"}),
		BaudRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "skywatch_baud_rate",
			Help: "Baud rate the receiver link runs at.",
		}),
		BaudDetected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "skywatch_baud_auto_detected",
			Help: "1 when the baud rate was detected, 0 when it is the fallback.",
		}),
	}
	for name, col := range map[string]prometheus.Collector{
		"skywatch_sentences_total":    c.Sentences,
		"skywatch_satellites_in_view": c.InView,
		"skywatch_uploads_total":      c.Uploads,
		"skywatch_baud_rate":          c.BaudRate,
		"skywatch_baud_auto_detected": c.BaudDetected,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	return c, nil
}

func (c *Collector) SentenceSeen(gsv, fix bool) {
	if c == nil {
		return
	}
	kind := "other"
	switch {
	case gsv:
		kind = "gsv"
	case fix:
		kind = "fix"
	}
	c.Sentences.WithLabelValues(kind).Inc()
}

func (c *Collector) SatellitesInView(n int) {
	if c == nil {
		return
	}
	c.InView.Set(float64(n))
}

func (c *Collector) UploadDone(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.Uploads.WithLabelValues("error").Inc()
		return
	}
	c.Uploads.WithLabelValues("ok").Inc()
}

func (c *Collector) SetProbeOutcome(o gps.Outcome) {
	if c == nil {
		return
	}
	c.BaudRate.Set(float64(o.Rate))
	if o.AutoDetected {
		c.BaudDetected.Set(1)
	} else {
		c.BaudDetected.Set(0)
	}
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

var _ gps.Observer = (*Collector)(nil)

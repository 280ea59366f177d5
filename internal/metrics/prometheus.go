package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/drakos74/mnist-pipeline/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mnist"

// Prometheus tracks the pipeline stages on its own registry.
type Prometheus struct {
	registry *prometheus.Registry
	Stages   *prometheus.HistogramVec
	Samples  *prometheus.CounterVec
	Accuracy *prometheus.GaugeVec
}

func NewPrometheusMetrics() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		Stages: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "duration of the pipeline stages",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 12),
			}, []string{"pipeline", "stage"}),
		Samples: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "samples_total",
				Help:      "samples processed by the pipeline stages",
			}, []string{"pipeline", "stage"}),
		Accuracy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "accuracy",
				Help:      "accuracy of the last classification run",
			}, []string{"model"}),
	}
	p.registry.MustRegister(p.Stages, p.Samples, p.Accuracy)
	return p
}

// Observe records a completed stage.
func (p *Prometheus) Observe(pipeline, stage string, start time.Time, samples int) {
	p.Stages.WithLabelValues(pipeline, stage).Observe(time.Since(start).Seconds())
	p.Samples.WithLabelValues(pipeline, stage).Add(float64(samples))
}

// Score records the accuracy of a classifier.
func (p *Prometheus) Score(model string, accuracy float64) {
	p.Accuracy.WithLabelValues(model).Set(accuracy)
}

// Registry exposes the registry the metrics are registered with.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registered metrics.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics on /metrics until the context is cancelled.
func (p *Prometheus) Serve(ctx context.Context, port int) error {
	return server.NewServer("metrics", port).
		Add(server.Live()).
		Handle("/metrics", p.Handler()).
		Run(ctx)
}

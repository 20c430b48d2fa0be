package metrics

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Provider owns the OpenTelemetry MeterProvider and its dedicated
// Prometheus registry, and exposes the HTTP handler for /metrics.
type Provider struct {
	registry      *promclient.Registry
	meterProvider *sdkmetric.MeterProvider
}

// NewProvider wires an OTel meter through the Prometheus exporter bridge
// into a fresh registry, scoped to this process only (no pushgateway, no
// remote-write). Returns (nil, nil) when cfg.Enabled is false, matching the
// reference observability manager's convention of a nil Metrics meaning
// "disabled" rather than a separate feature-flagged no-op type at this
// layer (Recorder/NoOpRecorder cover that one level up).
func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	cfg.SetDefaults()

	registry := promclient.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	return &Provider{registry: registry, meterProvider: mp}, nil
}

// Handler serves the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	if p == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics not enabled"))
		})
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and releases the underlying meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}

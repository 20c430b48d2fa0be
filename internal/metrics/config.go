// Package metrics implements the process-wide counters, histograms, and
// trace spans of §4.16: one OpenTelemetry meter bridged into a dedicated
// Prometheus registry for `/metrics`, and one OpenTelemetry tracer emitting
// spans per turn/iteration/LLM-call/tool-execution.
package metrics

// Config tunes metrics collection and tracing.
type Config struct {
	// Enabled turns on metrics collection. Default: false.
	Enabled bool `yaml:"enabled,omitempty"`

	// Namespace prefixes every metric name. Default: "sovereign_agent".
	Namespace string `yaml:"namespace,omitempty"`

	// ServiceName identifies this process in trace spans.
	// Default: "sovereign-agent".
	ServiceName string `yaml:"service_name,omitempty"`

	// TracingEnabled turns on span emission independent of Enabled, so a
	// deployment can run metrics without tracing or vice versa.
	TracingEnabled bool `yaml:"tracing_enabled,omitempty"`
}

// SetDefaults fills zero-valued fields with their documented defaults.
func (c *Config) SetDefaults() {
	if c.Namespace == "" {
		c.Namespace = "sovereign_agent"
	}
	if c.ServiceName == "" {
		c.ServiceName = "sovereign-agent"
	}
}

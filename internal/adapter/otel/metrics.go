package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "promptdesk"

// Metrics holds all PromptDesk metric instruments.
type Metrics struct {
	TenantsCreated       metric.Int64Counter
	UsersCreated         metric.Int64Counter
	CapacityRejections   metric.Int64Counter
	AuthzDenied          metric.Int64Counter
	StateChanges         metric.Int64Counter
	ValidationFailures   metric.Int64Counter
	ValidationAdvisories metric.Int64Counter
	Renders              metric.Int64Counter
	RenderFailures       metric.Int64Counter
	ExecutionLatency     metric.Float64Histogram
	ExecutionCost        metric.Float64Histogram
}

// NewMetrics creates all metric instruments from the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFrom(otel.GetMeterProvider())
}

// NewMetricsFrom creates all metric instruments from mp.
func NewMetricsFrom(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.TenantsCreated, "promptdesk.tenants.created", "Number of tenants created"},
		{&m.UsersCreated, "promptdesk.users.created", "Number of users created"},
		{&m.CapacityRejections, "promptdesk.users.capacity_rejections", "User creations rejected because the tenant was full"},
		{&m.AuthzDenied, "promptdesk.authz.denied", "Actions denied by role"},
		{&m.StateChanges, "promptdesk.state_changes", "Active/inactive transitions of tenants and users"},
		{&m.ValidationFailures, "promptdesk.templates.validation_failures", "Template saves blocked by a hard validation failure"},
		{&m.ValidationAdvisories, "promptdesk.templates.advisories", "Advisories raised during template validation"},
		{&m.Renders, "promptdesk.templates.renders", "Successful template renders"},
		{&m.RenderFailures, "promptdesk.templates.render_failures", "Renders that failed on a missing variable"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
	}

	m.ExecutionLatency, err = meter.Float64Histogram("promptdesk.execution.latency_ms",
		metric.WithDescription("Recorded AI execution latency in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	m.ExecutionCost, err = meter.Float64Histogram("promptdesk.execution.cost_usd",
		metric.WithDescription("Recorded AI execution cost in USD"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Package observability provides a metrics extension for Recur that records
// lifecycle event counts via a pluggable MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/recur/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnPlanCreated          = (*MetricsExtension)(nil)
	_ plugin.OnPlanArchived         = (*MetricsExtension)(nil)
	_ plugin.OnSubscribed           = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCanceled = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionPaused   = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionResumed  = (*MetricsExtension)(nil)
	_ plugin.OnPaymentProcessed     = (*MetricsExtension)(nil)
	_ plugin.OnPaymentFailed        = (*MetricsExtension)(nil)
	_ plugin.OnSweepCompleted       = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Recur plugin to automatically track billing metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Plan metrics
	PlanCreated  Counter
	PlanArchived Counter

	// Subscription metrics
	Subscribed           Counter
	SubscriptionCanceled Counter
	SubscriptionPaused   Counter
	SubscriptionResumed  Counter

	// Payment metrics
	PaymentProcessed Counter
	PaymentFailed    Counter

	// Sweep metrics
	SweepProcessed Counter
	SweepFailed    Counter
	SweepLatency   Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Plan metrics
		PlanCreated:  factory.Counter("recur.plan.created"),
		PlanArchived: factory.Counter("recur.plan.archived"),

		// Subscription metrics
		Subscribed:           factory.Counter("recur.subscription.created"),
		SubscriptionCanceled: factory.Counter("recur.subscription.canceled"),
		SubscriptionPaused:   factory.Counter("recur.subscription.paused"),
		SubscriptionResumed:  factory.Counter("recur.subscription.resumed"),

		// Payment metrics
		PaymentProcessed: factory.Counter("recur.payment.processed"),
		PaymentFailed:    factory.Counter("recur.payment.failed"),

		// Sweep metrics
		SweepProcessed: factory.Counter("recur.sweep.processed"),
		SweepFailed:    factory.Counter("recur.sweep.failed"),
		SweepLatency:   factory.Histogram("recur.sweep.latency_ms"),

		// Error metrics
		StoreErrors:  factory.Counter("recur.store.errors"),
		PluginErrors: factory.Counter("recur.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Plan lifecycle hooks
// ──────────────────────────────────────────────────

// OnPlanCreated implements plugin.OnPlanCreated.
func (m *MetricsExtension) OnPlanCreated(_ context.Context, _ interface{}) error {
	m.PlanCreated.Inc()
	return nil
}

// OnPlanArchived implements plugin.OnPlanArchived.
func (m *MetricsExtension) OnPlanArchived(_ context.Context, _ string) error {
	m.PlanArchived.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscribed implements plugin.OnSubscribed.
func (m *MetricsExtension) OnSubscribed(_ context.Context, _ interface{}) error {
	m.Subscribed.Inc()
	return nil
}

// OnSubscriptionCanceled implements plugin.OnSubscriptionCanceled.
func (m *MetricsExtension) OnSubscriptionCanceled(_ context.Context, _ interface{}) error {
	m.SubscriptionCanceled.Inc()
	return nil
}

// OnSubscriptionPaused implements plugin.OnSubscriptionPaused.
func (m *MetricsExtension) OnSubscriptionPaused(_ context.Context, _ interface{}) error {
	m.SubscriptionPaused.Inc()
	return nil
}

// OnSubscriptionResumed implements plugin.OnSubscriptionResumed.
func (m *MetricsExtension) OnSubscriptionResumed(_ context.Context, _ interface{}) error {
	m.SubscriptionResumed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentProcessed implements plugin.OnPaymentProcessed.
func (m *MetricsExtension) OnPaymentProcessed(_ context.Context, _ interface{}) error {
	m.PaymentProcessed.Inc()
	return nil
}

// OnPaymentFailed implements plugin.OnPaymentFailed.
func (m *MetricsExtension) OnPaymentFailed(_ context.Context, _ string, _ error) error {
	m.PaymentFailed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Biller hooks
// ──────────────────────────────────────────────────

// OnSweepCompleted implements plugin.OnSweepCompleted.
func (m *MetricsExtension) OnSweepCompleted(_ context.Context, processed, failed int, elapsed time.Duration) error {
	m.SweepProcessed.Add(float64(processed))
	m.SweepFailed.Add(float64(failed))
	m.SweepLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// Package plugin provides an extensible plugin system for Recur.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Plan lifecycle hooks
// ──────────────────────────────────────────────────

// OnPlanCreated is called when a new plan is registered.
type OnPlanCreated interface {
	Plugin
	OnPlanCreated(ctx context.Context, plan interface{}) error
}

// OnPlanArchived is called when a plan is archived.
type OnPlanArchived interface {
	Plugin
	OnPlanArchived(ctx context.Context, planAddress string) error
}

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscribed is called when a new subscription is created and the
// first charge has settled.
type OnSubscribed interface {
	Plugin
	OnSubscribed(ctx context.Context, sub interface{}) error
}

// OnSubscriptionCanceled is called when a subscription is canceled.
type OnSubscriptionCanceled interface {
	Plugin
	OnSubscriptionCanceled(ctx context.Context, sub interface{}) error
}

// OnSubscriptionPaused is called when a subscription is paused.
type OnSubscriptionPaused interface {
	Plugin
	OnSubscriptionPaused(ctx context.Context, sub interface{}) error
}

// OnSubscriptionResumed is called when a subscription is resumed.
type OnSubscriptionResumed interface {
	Plugin
	OnSubscriptionResumed(ctx context.Context, sub interface{}) error
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentProcessed is called after a recurring charge settles and
// the billing schedule has advanced.
type OnPaymentProcessed interface {
	Plugin
	OnPaymentProcessed(ctx context.Context, payment interface{}) error
}

// OnPaymentFailed is called when a charge attempt fails.
type OnPaymentFailed interface {
	Plugin
	OnPaymentFailed(ctx context.Context, subAddress string, err error) error
}

// ──────────────────────────────────────────────────
// Biller hooks
// ──────────────────────────────────────────────────

// OnSweepCompleted is called after each background billing sweep.
type OnSweepCompleted interface {
	Plugin
	OnSweepCompleted(ctx context.Context, processed, failed int, elapsed time.Duration) error
}

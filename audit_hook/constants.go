package audithook

// Action constants for audit events.
const (
	// Plan actions
	ActionPlanCreated  = "plan.created"
	ActionPlanArchived = "plan.archived"

	// Subscription actions
	ActionSubscribed           = "subscription.created"
	ActionSubscriptionCanceled = "subscription.canceled"
	ActionSubscriptionPaused   = "subscription.paused"
	ActionSubscriptionResumed  = "subscription.resumed"

	// Payment actions
	ActionPaymentProcessed = "payment.processed"
	ActionPaymentFailed    = "payment.failed"

	// Biller actions
	ActionSweepCompleted = "sweep.completed"
)

// Resource constants for audit events.
const (
	ResourcePlan         = "plan"
	ResourceSubscription = "subscription"
	ResourcePayment      = "payment"
	ResourceBiller       = "biller"
)

// Category constants for audit events.
const (
	CategoryBilling      = "billing"
	CategorySubscription = "subscription"
	CategoryPayment      = "payment"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)

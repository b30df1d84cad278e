package recur

import (
	"context"
	"time"
)

// billWorker is the background sweeper. It charges every due active
// subscription each interval, routing from the recorded funding
// account to the plan's settlement account. A subscription that fails
// stays due and is retried on the next sweep; no retry state is kept.
func (e *Engine) billWorker(ctx context.Context) {
	defer e.wg.Done()

	// First sweep runs immediately so a restart doesn't wait a full
	// interval to pick up overdue charges.
	e.sweep(ctx)

	ticker := time.NewTicker(e.billInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.sweep(ctx)
		}
	}
}

// sweep charges one batch of due subscriptions.
func (e *Engine) sweep(ctx context.Context) {
	start := time.Now()

	due, err := e.store.ListDueSubscriptions(ctx, e.clock.Now(), e.billBatch)
	if err != nil {
		e.logger.Error("failed to list due subscriptions", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	e.logger.Info("billing sweep started", "due", len(due))

	var processed, failed int
	for _, sub := range due {
		p, err := e.store.GetPlan(ctx, sub.PlanAddress)
		if err != nil {
			failed++
			e.logger.Error("sweep: plan lookup failed",
				"subscription", sub.Address,
				"plan", sub.PlanAddress,
				"error", err,
			)
			continue
		}

		if err := e.ProcessPayment(ctx, sub.Address, sub.FundingAccount, p.SettlementAccount); err != nil {
			failed++
			e.logger.Warn("sweep: charge failed",
				"subscription", sub.Address,
				"error", err,
			)
			continue
		}
		processed++
	}

	elapsed := time.Since(start)
	e.plugins.EmitSweepCompleted(ctx, processed, failed, elapsed)

	e.logger.Info("billing sweep completed",
		"processed", processed,
		"failed", failed,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

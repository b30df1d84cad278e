package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Recur store (SQLite).
var Migrations = migrate.NewGroup("recur")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_recur_plans",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS recur_plans (
    address            TEXT PRIMARY KEY,
    merchant           TEXT NOT NULL DEFAULT '',
    key                TEXT NOT NULL DEFAULT '',
    name               TEXT NOT NULL DEFAULT '',
    description        TEXT NOT NULL DEFAULT '',
    price_amount       INTEGER NOT NULL DEFAULT 0,
    price_denom        TEXT NOT NULL DEFAULT '',
    frequency_seconds  INTEGER NOT NULL DEFAULT 0,
    settlement_account TEXT NOT NULL DEFAULT '',
    status             TEXT NOT NULL DEFAULT 'active',
    metadata           TEXT NOT NULL DEFAULT '{}',
    created_at         TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at         TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_recur_plans_merchant ON recur_plans (merchant);
CREATE UNIQUE INDEX IF NOT EXISTS idx_recur_plans_merchant_key ON recur_plans (merchant, key);
CREATE INDEX IF NOT EXISTS idx_recur_plans_status ON recur_plans (merchant, status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS recur_plans`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_recur_subscriptions",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS recur_subscriptions (
    address           TEXT PRIMARY KEY,
    subscriber        TEXT NOT NULL DEFAULT '',
    plan_address      TEXT NOT NULL DEFAULT '',
    funding_account   TEXT NOT NULL DEFAULT '',
    status            TEXT NOT NULL DEFAULT 'active',
    start_time        TEXT NOT NULL DEFAULT (datetime('now')),
    next_billing_time TEXT NOT NULL DEFAULT (datetime('now')),
    paused_at         TEXT,
    canceled_at       TEXT,
    resumed_at        TEXT,
    created_at        TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at        TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_recur_subs_subscriber ON recur_subscriptions (subscriber);
CREATE INDEX IF NOT EXISTS idx_recur_subs_plan ON recur_subscriptions (plan_address);
CREATE INDEX IF NOT EXISTS idx_recur_subs_due ON recur_subscriptions (status, next_billing_time);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS recur_subscriptions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_recur_payments",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS recur_payments (
    id                   TEXT PRIMARY KEY,
    subscription_address TEXT NOT NULL DEFAULT '',
    amount_units         INTEGER NOT NULL DEFAULT 0,
    amount_denom         TEXT NOT NULL DEFAULT '',
    kind                 TEXT NOT NULL DEFAULT '',
    status               TEXT NOT NULL DEFAULT '',
    reason               TEXT NOT NULL DEFAULT '',
    paid_at              TEXT NOT NULL DEFAULT (datetime('now')),
    created_at           TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at           TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_recur_payments_sub ON recur_payments (subscription_address, paid_at);
CREATE INDEX IF NOT EXISTS idx_recur_payments_status ON recur_payments (subscription_address, status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS recur_payments`)
				return err
			},
		},
	)
}

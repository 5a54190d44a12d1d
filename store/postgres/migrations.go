package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Vault store.
var Migrations = migrate.NewGroup("vault")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_vault_state",
			Version: "20250201000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vault_state (
    id                        TEXT PRIMARY KEY,
    denom                     TEXT NOT NULL DEFAULT '',
    treasury                  TEXT NOT NULL DEFAULT '',
    custody_venue             TEXT NOT NULL DEFAULT '',
    total_deposited           TEXT NOT NULL DEFAULT '0',
    total_withdrawn           TEXT NOT NULL DEFAULT '0',
    accumulated_yield         TEXT NOT NULL DEFAULT '0',
    total_shares              TEXT NOT NULL DEFAULT '0',
    head                      BIGINT NOT NULL DEFAULT 0,
    next_seq                  BIGINT NOT NULL DEFAULT 0,
    pending_withdrawal_shares TEXT NOT NULL DEFAULT '0',
    buffer_balance            TEXT NOT NULL DEFAULT '0',
    price_hwm                 TEXT NOT NULL DEFAULT '0',
    last_yield_report         TIMESTAMPTZ,
    params                    JSONB NOT NULL DEFAULT '{}',
    created_at                TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at                TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vault_state`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vault_accounts",
			Version: "20250201000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vault_accounts (
    address    TEXT PRIMARY KEY,
    shares     TEXT NOT NULL DEFAULT '0',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vault_accounts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vault_withdrawals",
			Version: "20250201000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vault_withdrawals (
    seq          BIGINT PRIMARY KEY,
    id           TEXT NOT NULL DEFAULT '',
    requester    TEXT NOT NULL DEFAULT '',
    shares       TEXT NOT NULL DEFAULT '0',
    status       TEXT NOT NULL DEFAULT 'pending',
    requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    resolved_at  TIMESTAMPTZ,
    paid_out     TEXT NOT NULL DEFAULT '0',
    forced       BOOLEAN NOT NULL DEFAULT FALSE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vault_withdrawals_requester ON vault_withdrawals (requester, status);
CREATE INDEX IF NOT EXISTS idx_vault_withdrawals_status ON vault_withdrawals (status, seq);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vault_withdrawals`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vault_param_changes",
			Version: "20250201000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vault_param_changes (
    id          TEXT PRIMARY KEY,
    kind        TEXT NOT NULL DEFAULT '',
    value       TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT 'queued',
    queued_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    eta         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    resolved_at TIMESTAMPTZ,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vault_param_changes_status ON vault_param_changes (status, queued_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vault_param_changes`)
				return err
			},
		},
	)
}

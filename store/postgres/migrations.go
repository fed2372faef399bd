package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the invoice ledger store.
var Migrations = migrate.NewGroup("ledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_ledger_companies",
			Version: "20240601000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ledger_companies (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    vat_number  TEXT NOT NULL DEFAULT '',
    address     TEXT NOT NULL DEFAULT '',
    email       TEXT NOT NULL DEFAULT '',
    phone       TEXT NOT NULL DEFAULT '',
    logo_path   TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS ledger_companies`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_ledger_customers",
			Version: "20240601000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ledger_customers (
    id          TEXT PRIMARY KEY,
    company_id  TEXT NOT NULL REFERENCES ledger_companies (id) ON DELETE CASCADE,
    name        TEXT NOT NULL,
    vat_number  TEXT NOT NULL DEFAULT '',
    address     TEXT NOT NULL DEFAULT '',
    email       TEXT NOT NULL DEFAULT '',
    phone       TEXT NOT NULL DEFAULT '',
    notes       TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_ledger_customers_company_name ON ledger_customers (company_id, name);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS ledger_customers`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_ledger_invoices",
			Version: "20240601000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ledger_invoices (
    id              TEXT PRIMARY KEY,
    company_id      TEXT NOT NULL REFERENCES ledger_companies (id) ON DELETE CASCADE,
    customer_id     TEXT NOT NULL REFERENCES ledger_customers (id) ON DELETE RESTRICT,
    invoice_number  TEXT NOT NULL,
    status          TEXT NOT NULL DEFAULT 'draft',
    issue_date      DATE NOT NULL,
    due_date        DATE NOT NULL,
    currency        TEXT NOT NULL DEFAULT 'eur',
    tax_rate        NUMERIC(5,2) NOT NULL DEFAULT 0,
    subtotal        BIGINT NOT NULL DEFAULT 0,
    tax_amount      BIGINT NOT NULL DEFAULT 0,
    total           BIGINT NOT NULL DEFAULT 0,
    notes           TEXT NOT NULL DEFAULT '',
    document_path   TEXT NOT NULL DEFAULT '',
    items           JSONB NOT NULL DEFAULT '[]',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT uq_ledger_invoices_number UNIQUE (company_id, invoice_number),
    CONSTRAINT ck_ledger_invoices_status CHECK (status IN ('draft', 'sent', 'paid', 'overdue', 'cancelled'))
);

CREATE INDEX IF NOT EXISTS idx_ledger_invoices_company_created ON ledger_invoices (company_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_ledger_invoices_company_status ON ledger_invoices (company_id, status);
CREATE INDEX IF NOT EXISTS idx_ledger_invoices_customer ON ledger_invoices (company_id, customer_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS ledger_invoices`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_ledger_invoice_sequences",
			Version: "20240601000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ledger_invoice_sequences (
    company_id  TEXT PRIMARY KEY REFERENCES ledger_companies (id) ON DELETE CASCADE,
    last_value  BIGINT NOT NULL DEFAULT 0
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS ledger_invoice_sequences`)
				return err
			},
		},
	)
}

package postgres

import (
	"context"
	"fmt"
)

// schema creates the four dataset tables. Monetary columns are DECIMAL and
// scanned as strings into shopspring decimals.
const schema = `
CREATE TABLE IF NOT EXISTS plan_entries (
	id UUID PRIMARY KEY,
	month DATE NOT NULL,
	bucket TEXT NOT NULL,
	planned_amount DECIMAL NOT NULL,
	fx_rate DECIMAL NOT NULL
);

CREATE TABLE IF NOT EXISTS bucket_allocations (
	id UUID PRIMARY KEY,
	bucket TEXT NOT NULL,
	instrument_code TEXT NOT NULL,
	weight_percent DECIMAL NOT NULL,
	fair_value DECIMAL NOT NULL,
	margin_tier1 DECIMAL NOT NULL DEFAULT 0,
	margin_tier2 DECIMAL NOT NULL DEFAULT 0,
	margin_tier3 DECIMAL NOT NULL DEFAULT 0,
	margin_tier4 DECIMAL NOT NULL DEFAULT 0,
	margin_tier5 DECIMAL NOT NULL DEFAULT 0,
	tier_weight1 DECIMAL NOT NULL DEFAULT 0,
	tier_weight2 DECIMAL NOT NULL DEFAULT 0,
	tier_weight3 DECIMAL NOT NULL DEFAULT 0,
	tier_weight4 DECIMAL NOT NULL DEFAULT 0,
	tier_weight5 DECIMAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS stock_transactions (
	id UUID PRIMARY KEY,
	date DATE NOT NULL,
	action TEXT NOT NULL,
	bucket TEXT NOT NULL,
	instrument_code TEXT NOT NULL,
	quantity DECIMAL NOT NULL,
	price DECIMAL NOT NULL,
	fee DECIMAL NOT NULL DEFAULT 0,
	tax DECIMAL NOT NULL DEFAULT 0,
	purpose TEXT NOT NULL DEFAULT '',
	note TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS option_positions (
	id UUID PRIMARY KEY,
	trade_date DATE NOT NULL,
	underlying TEXT NOT NULL,
	strike DECIMAL NOT NULL DEFAULT 0,
	expiry DATE NOT NULL,
	opt_right TEXT NOT NULL,
	direction TEXT NOT NULL,
	contracts BIGINT NOT NULL,
	premium DECIMAL NOT NULL DEFAULT 0,
	fee DECIMAL NOT NULL DEFAULT 0,
	margin DECIMAL NOT NULL DEFAULT 0,
	funding_source TEXT NOT NULL DEFAULT '',
	strategy_note TEXT NOT NULL DEFAULT ''
);
`

// EnsureSchema creates the dataset tables if they do not exist yet
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

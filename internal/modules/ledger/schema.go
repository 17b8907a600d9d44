package ledger

// Schema defines the trades table. Applied at startup; idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	user_id TEXT,
	user_email TEXT NOT NULL,
	trade_type TEXT NOT NULL,
	level TEXT NOT NULL,
	matrix TEXT NOT NULL,
	buying_power TEXT,
	sell_put REAL NOT NULL,
	buy_put REAL NOT NULL,
	sell_call REAL NOT NULL,
	buy_call REAL NOT NULL,
	contract_quantity INTEGER NOT NULL CHECK(contract_quantity >= 1),
	entry_premium REAL NOT NULL CHECK(entry_premium > 0),
	fees REAL NOT NULL DEFAULT 0,
	status TEXT NOT NULL CHECK(status IN ('OPEN', 'CLOSED')),
	trade_date INTEGER NOT NULL,
	entry_date INTEGER NOT NULL,
	exit_date INTEGER,
	exit_premium REAL,
	spx_close_price REAL,
	pnl REAL,
	is_max_profit INTEGER NOT NULL DEFAULT 0,
	series_id TEXT,
	notes TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_user_email ON trades(user_email);
CREATE INDEX IF NOT EXISTS idx_trades_series_id ON trades(series_id);
CREATE INDEX IF NOT EXISTS idx_trades_trade_date ON trades(trade_date);
`

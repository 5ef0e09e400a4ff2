package store

// schema is the full DDL, applied on every open. Statements are idempotent
// so an existing database passes through unchanged.
//
// Write order inside a block commit follows the reference order blocks ->
// transactions -> receipts/logs -> metrics/event_counts/enriched. The
// append-style tables (logs and the enriched tables) carry surrogate keys;
// their rows for a block are cleared before re-insert so replay after a
// rewind or crash is idempotent. Surrogate log ids are therefore not stable
// across rewinds; (tx_hash, log_index) is the semantic identity.
const schema = `
CREATE TABLE IF NOT EXISTS blocks (
	number       INTEGER PRIMARY KEY,
	hash         TEXT NOT NULL,
	parent_hash  TEXT NOT NULL,
	timestamp    INTEGER NOT NULL,
	gas_used     INTEGER NOT NULL,
	gas_limit    INTEGER NOT NULL,
	base_fee     TEXT,
	reorged      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transactions (
	hash                TEXT PRIMARY KEY,
	block_number        INTEGER NOT NULL,
	from_address        TEXT NOT NULL,
	to_address          TEXT,
	value               TEXT NOT NULL,
	input               BLOB,
	gas_price           TEXT,
	max_fee_per_gas     TEXT,
	max_priority_fee    TEXT,
	gas_used            INTEGER NOT NULL DEFAULT 0,
	effective_gas_price TEXT,
	tx_type             TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_block ON transactions(block_number);

CREATE TABLE IF NOT EXISTS receipts (
	tx_hash             TEXT PRIMARY KEY,
	block_number        INTEGER NOT NULL,
	status              INTEGER NOT NULL,
	gas_used            INTEGER NOT NULL,
	log_count           INTEGER NOT NULL,
	contract_address    TEXT,
	effective_gas_price TEXT
);
CREATE INDEX IF NOT EXISTS idx_receipts_block ON receipts(block_number);

CREATE TABLE IF NOT EXISTS logs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	tx_hash      TEXT NOT NULL,
	block_number INTEGER NOT NULL,
	log_index    INTEGER NOT NULL,
	address      TEXT NOT NULL,
	topic0       TEXT,
	topic1       TEXT,
	topic2       TEXT,
	topic3       TEXT,
	data         BLOB
);
CREATE INDEX IF NOT EXISTS idx_logs_block ON logs(block_number);
CREATE INDEX IF NOT EXISTS idx_logs_address ON logs(address);

CREATE TABLE IF NOT EXISTS block_metrics (
	block_number      INTEGER PRIMARY KEY,
	tx_count          INTEGER NOT NULL,
	log_count         INTEGER NOT NULL,
	total_gas_used    INTEGER NOT NULL,
	avg_gas_per_tx    INTEGER NOT NULL,
	top_contracts     TEXT NOT NULL,
	unique_senders    INTEGER NOT NULL,
	unique_receivers  INTEGER NOT NULL,
	avg_gas_price     TEXT NOT NULL,
	avg_priority_fee  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_counts (
	block_number INTEGER NOT NULL,
	event_kind   TEXT NOT NULL,
	count        INTEGER NOT NULL,
	PRIMARY KEY (block_number, event_kind)
);

CREATE TABLE IF NOT EXISTS token_transfers (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	tx_hash      TEXT NOT NULL,
	block_number INTEGER NOT NULL,
	log_index    INTEGER NOT NULL,
	token        TEXT NOT NULL,
	from_address TEXT NOT NULL,
	to_address   TEXT NOT NULL,
	amount       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_token_transfers_block ON token_transfers(block_number);

CREATE TABLE IF NOT EXISTS nft_transfers (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	tx_hash      TEXT NOT NULL,
	block_number INTEGER NOT NULL,
	log_index    INTEGER NOT NULL,
	collection   TEXT NOT NULL,
	from_address TEXT NOT NULL,
	to_address   TEXT NOT NULL,
	token_id     TEXT NOT NULL,
	amount       TEXT NOT NULL,
	standard     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nft_transfers_block ON nft_transfers(block_number);

CREATE TABLE IF NOT EXISTS dex_swaps (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	tx_hash      TEXT NOT NULL,
	block_number INTEGER NOT NULL,
	log_index    INTEGER NOT NULL,
	pool         TEXT NOT NULL,
	dex_name     TEXT NOT NULL,
	sender       TEXT NOT NULL,
	recipient    TEXT NOT NULL,
	amount0_in   TEXT NOT NULL,
	amount1_in   TEXT NOT NULL,
	amount0_out  TEXT NOT NULL,
	amount1_out  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dex_swaps_block ON dex_swaps(block_number);
CREATE INDEX IF NOT EXISTS idx_dex_swaps_pool ON dex_swaps(pool);

CREATE TABLE IF NOT EXISTS contract_deployments (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	tx_hash          TEXT NOT NULL,
	block_number     INTEGER NOT NULL,
	deployer         TEXT NOT NULL,
	contract_address TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_deployments_block ON contract_deployments(block_number);

CREATE TABLE IF NOT EXISTS checkpoint (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	block_number INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pool_dex_cache (
	pool_address    TEXT PRIMARY KEY,
	dex_name        TEXT NOT NULL,
	factory_address TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS contract_labels (
	address  TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	category TEXT NOT NULL,
	protocol TEXT NOT NULL
);
`

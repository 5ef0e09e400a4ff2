// Package store is the SQLite gateway for the ingester: schema, prepared
// statements, the atomic per-block commit, checkpoint I/O, the reorg
// rewind, the pool-DEX cache, and the contract-label seed.
//
// The store is a single writer. Readers (the stats report) rely on WAL-mode
// concurrency.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/baseindex/baseindex/events"
)

// ErrNoCheckpoint is returned when no checkpoint row exists yet.
var ErrNoCheckpoint = errors.New("store: no checkpoint")

// ErrBlockNotFound is returned when a block number is not persisted.
var ErrBlockNotFound = errors.New("store: block not found")

// Store wraps the SQLite handle and the prepared per-block statements.
type Store struct {
	db    *sql.DB
	stmts stmts
}

// stmts holds the statements on the per-block hot path, prepared once.
type stmts struct {
	insertBlock    *sql.Stmt
	insertTx       *sql.Stmt
	insertReceipt  *sql.Stmt
	insertLog      *sql.Stmt
	insertMetrics  *sql.Stmt
	insertCount    *sql.Stmt
	insertTransfer *sql.Stmt
	insertNFT      *sql.Stmt
	insertSwap     *sql.Stmt
	insertDeploy   *sql.Stmt
}

// Open opens (creating if needed) the database at path, applies the schema
// and prepares the hot-path statements. WAL journaling and a busy timeout
// are set through the DSN.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
	}
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	return open(dsn)
}

// OpenInMemory opens a private in-memory database, used by tests.
func OpenInMemory() (*Store, error) {
	return open("file::memory:?_pragma=busy_timeout(5000)")
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	// One connection: the ingester is the single writer, and a second
	// pooled connection would see a different :memory: database in tests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	s := &Store{db: db}
	if err := s.prepare(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) prepare() error {
	prep := func(dst **sql.Stmt, q string) error {
		stmt, err := s.db.Prepare(q)
		if err != nil {
			return fmt.Errorf("store: prepare %q: %w", q[:24], err)
		}
		*dst = stmt
		return nil
	}

	for _, p := range []struct {
		dst **sql.Stmt
		q   string
	}{
		{&s.stmts.insertBlock, `INSERT OR REPLACE INTO blocks
			(number, hash, parent_hash, timestamp, gas_used, gas_limit, base_fee, reorged)
			VALUES (?, ?, ?, ?, ?, ?, ?, 0)`},
		{&s.stmts.insertTx, `INSERT OR REPLACE INTO transactions
			(hash, block_number, from_address, to_address, value, input, gas_price,
			 max_fee_per_gas, max_priority_fee, gas_used, effective_gas_price, tx_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`},
		{&s.stmts.insertReceipt, `INSERT OR REPLACE INTO receipts
			(tx_hash, block_number, status, gas_used, log_count, contract_address, effective_gas_price)
			VALUES (?, ?, ?, ?, ?, ?, ?)`},
		{&s.stmts.insertLog, `INSERT INTO logs
			(tx_hash, block_number, log_index, address, topic0, topic1, topic2, topic3, data)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`},
		{&s.stmts.insertMetrics, `INSERT OR REPLACE INTO block_metrics
			(block_number, tx_count, log_count, total_gas_used, avg_gas_per_tx,
			 top_contracts, unique_senders, unique_receivers, avg_gas_price, avg_priority_fee)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`},
		{&s.stmts.insertCount, `INSERT OR REPLACE INTO event_counts
			(block_number, event_kind, count) VALUES (?, ?, ?)`},
		{&s.stmts.insertTransfer, `INSERT INTO token_transfers
			(tx_hash, block_number, log_index, token, from_address, to_address, amount)
			VALUES (?, ?, ?, ?, ?, ?, ?)`},
		{&s.stmts.insertNFT, `INSERT INTO nft_transfers
			(tx_hash, block_number, log_index, collection, from_address, to_address,
			 token_id, amount, standard)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`},
		{&s.stmts.insertSwap, `INSERT INTO dex_swaps
			(tx_hash, block_number, log_index, pool, dex_name, sender, recipient,
			 amount0_in, amount1_in, amount0_out, amount1_out)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`},
		{&s.stmts.insertDeploy, `INSERT INTO contract_deployments
			(tx_hash, block_number, deployer, contract_address)
			VALUES (?, ?, ?, ?)`},
	} {
		if err := prep(p.dst, p.q); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// appendTables are the tables with surrogate keys; rows for a block are
// cleared before re-insert and cascaded on rewind.
var appendTables = []string{
	"logs",
	"token_transfers",
	"nft_transfers",
	"dex_swaps",
	"contract_deployments",
}

// dependentTables is everything keyed by block number that a rewind
// removes. Blocks themselves are flagged, not deleted.
var dependentTables = append([]string{
	"transactions",
	"receipts",
	"block_metrics",
	"event_counts",
}, appendTables...)

// CommitBlock writes the entire snapshot under one transaction. Re-running
// a snapshot for the same block produces exactly that snapshot's state: every
// dependent table is cleared for the block first, so rows from a prior commit
// (a replaced post-reorg block may carry different transactions) cannot
// survive alongside the new ones.
func (s *Store) CommitBlock(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	n := snap.Block.Number
	for _, table := range dependentTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE block_number = ?", n); err != nil {
			return fmt.Errorf("store: clear %s: %w", table, err)
		}
	}

	b := snap.Block
	if _, err := tx.StmtContext(ctx, s.stmts.insertBlock).ExecContext(ctx,
		b.Number, b.Hash, b.ParentHash, b.Timestamp, b.GasUsed, b.GasLimit, b.BaseFee); err != nil {
		return fmt.Errorf("store: insert block %d: %w", n, err)
	}

	for i := range snap.Txs {
		t := &snap.Txs[i]
		if _, err := tx.StmtContext(ctx, s.stmts.insertTx).ExecContext(ctx,
			t.Hash, t.BlockNumber, t.From, t.To, t.Value, t.Input, t.GasPrice,
			t.MaxFeePerGas, t.MaxPriorityFee, t.GasUsed, t.EffectiveGasPrice, t.TypeTag); err != nil {
			return fmt.Errorf("store: insert tx %s: %w", t.Hash, err)
		}
	}

	for i := range snap.Receipts {
		r := &snap.Receipts[i]
		if _, err := tx.StmtContext(ctx, s.stmts.insertReceipt).ExecContext(ctx,
			r.TxHash, r.BlockNumber, r.Status, r.GasUsed, r.LogCount,
			r.ContractAddress, r.EffectiveGasPrice); err != nil {
			return fmt.Errorf("store: insert receipt %s: %w", r.TxHash, err)
		}
	}

	for i := range snap.Logs {
		l := &snap.Logs[i]
		if _, err := tx.StmtContext(ctx, s.stmts.insertLog).ExecContext(ctx,
			l.TxHash, l.BlockNumber, l.LogIndex, l.Address,
			l.Topics[0], l.Topics[1], l.Topics[2], l.Topics[3], l.Data); err != nil {
			return fmt.Errorf("store: insert log %d/%d: %w", l.BlockNumber, l.LogIndex, err)
		}
	}

	m := snap.Metrics
	if _, err := tx.StmtContext(ctx, s.stmts.insertMetrics).ExecContext(ctx,
		m.BlockNumber, m.TxCount, m.LogCount, m.TotalGasUsed, m.AvgGasPerTx,
		m.TopContracts, m.UniqueSenders, m.UniqueReceivers, m.AvgGasPrice, m.AvgPriorityFee); err != nil {
		return fmt.Errorf("store: insert metrics %d: %w", n, err)
	}

	// Deterministic insert order for the kind counts.
	kinds := make([]string, 0, len(snap.EventCounts))
	for k := range snap.EventCounts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		if _, err := tx.StmtContext(ctx, s.stmts.insertCount).ExecContext(ctx,
			n, k, snap.EventCounts[events.Kind(k)]); err != nil {
			return fmt.Errorf("store: insert event count %s: %w", k, err)
		}
	}

	for i := range snap.TokenTransfers {
		r := &snap.TokenTransfers[i]
		if _, err := tx.StmtContext(ctx, s.stmts.insertTransfer).ExecContext(ctx,
			r.TxHash, r.BlockNumber, r.LogIndex, r.Token, r.From, r.To, r.Amount); err != nil {
			return fmt.Errorf("store: insert token transfer: %w", err)
		}
	}
	for i := range snap.NFTTransfers {
		r := &snap.NFTTransfers[i]
		if _, err := tx.StmtContext(ctx, s.stmts.insertNFT).ExecContext(ctx,
			r.TxHash, r.BlockNumber, r.LogIndex, r.Collection, r.From, r.To,
			r.TokenID, r.Amount, r.Standard); err != nil {
			return fmt.Errorf("store: insert nft transfer: %w", err)
		}
	}
	for i := range snap.DexSwaps {
		r := &snap.DexSwaps[i]
		if _, err := tx.StmtContext(ctx, s.stmts.insertSwap).ExecContext(ctx,
			r.TxHash, r.BlockNumber, r.LogIndex, r.Pool, r.DexName, r.Sender, r.Recipient,
			r.Amount0In, r.Amount1In, r.Amount0Out, r.Amount1Out); err != nil {
			return fmt.Errorf("store: insert swap: %w", err)
		}
	}
	for i := range snap.Deployments {
		r := &snap.Deployments[i]
		if _, err := tx.StmtContext(ctx, s.stmts.insertDeploy).ExecContext(ctx,
			r.TxHash, r.BlockNumber, r.Deployer, r.ContractAddress); err != nil {
			return fmt.Errorf("store: insert deployment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit block %d: %w", n, err)
	}
	return nil
}

// Checkpoint returns the highest fully committed block number.
func (s *Store) Checkpoint(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.db.QueryRowContext(ctx, "SELECT block_number FROM checkpoint WHERE id = 1").Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNoCheckpoint
	}
	if err != nil {
		return 0, fmt.Errorf("store: read checkpoint: %w", err)
	}
	return n, nil
}

// SetCheckpoint records n as the highest fully committed block number.
func (s *Store) SetCheckpoint(ctx context.Context, n uint64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO checkpoint (id, block_number) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET block_number = excluded.block_number", n)
	if err != nil {
		return fmt.Errorf("store: set checkpoint: %w", err)
	}
	return nil
}

// BlockByNumber returns the stored block row at n, including its reorged
// flag. ErrBlockNotFound when absent.
func (s *Store) BlockByNumber(ctx context.Context, n uint64) (*BlockRow, error) {
	var b BlockRow
	var reorged int
	err := s.db.QueryRowContext(ctx,
		"SELECT number, hash, parent_hash, timestamp, gas_used, gas_limit, base_fee, reorged FROM blocks WHERE number = ?", n).
		Scan(&b.Number, &b.Hash, &b.ParentHash, &b.Timestamp, &b.GasUsed, &b.GasLimit, &b.BaseFee, &reorged)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: read block %d: %w", n, err)
	}
	b.Reorged = reorged != 0
	return &b, nil
}

// MarkReorged flags all blocks with number >= from as reorged, leaving the
// rows in place so the reorged region stays observable.
func (s *Store) MarkReorged(ctx context.Context, from uint64) error {
	_, err := s.db.ExecContext(ctx, "UPDATE blocks SET reorged = 1 WHERE number >= ?", from)
	if err != nil {
		return fmt.Errorf("store: mark reorged from %d: %w", from, err)
	}
	return nil
}

// Rewind deletes every dependent row with block_number >= from inside one
// transaction. Blocks are not deleted; see MarkReorged.
func (s *Store) Rewind(ctx context.Context, from uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin rewind: %w", err)
	}
	defer tx.Rollback()

	if err := rewindIn(ctx, tx, from); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit rewind to %d: %w", from, err)
	}
	return nil
}

// RewindTo performs the full rewind protocol atomically: flag blocks >=
// from as reorged, delete their dependent rows, and move the checkpoint to
// from-1. A crash cannot leave the protocol half-applied.
func (s *Store) RewindTo(ctx context.Context, from uint64) error {
	if from == 0 {
		return errors.New("store: cannot rewind to block 0")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin rewind: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE blocks SET reorged = 1 WHERE number >= ?", from); err != nil {
		return fmt.Errorf("store: mark reorged from %d: %w", from, err)
	}
	if err := rewindIn(ctx, tx, from); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO checkpoint (id, block_number) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET block_number = excluded.block_number",
		from-1); err != nil {
		return fmt.Errorf("store: rewind checkpoint: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit rewind to %d: %w", from, err)
	}
	return nil
}

func rewindIn(ctx context.Context, tx *sql.Tx, from uint64) error {
	for _, table := range dependentTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE block_number >= ?", from); err != nil {
			return fmt.Errorf("store: rewind %s: %w", table, err)
		}
	}
	return nil
}

// PoolDex returns the cached DEX name and factory for a pool address, with
// ok=false on a miss.
func (s *Store) PoolDex(ctx context.Context, pool string) (dexName, factory string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx,
		"SELECT dex_name, factory_address FROM pool_dex_cache WHERE pool_address = ?", pool).
		Scan(&dexName, &factory)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("store: read pool cache: %w", err)
	}
	return dexName, factory, true, nil
}

// PutPoolDex upserts a pool resolution. Duplicate probes racing to insert
// are harmless.
func (s *Store) PutPoolDex(ctx context.Context, pool, dexName, factory string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO pool_dex_cache (pool_address, dex_name, factory_address) VALUES (?, ?, ?)",
		pool, dexName, factory)
	if err != nil {
		return fmt.Errorf("store: put pool cache: %w", err)
	}
	return nil
}

// LoadPoolCache returns the whole durable pool cache, used to warm the
// resolver's in-memory cache once at startup.
func (s *Store) LoadPoolCache(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT pool_address, dex_name FROM pool_dex_cache")
	if err != nil {
		return nil, fmt.Errorf("store: load pool cache: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var pool, name string
		if err := rows.Scan(&pool, &name); err != nil {
			return nil, fmt.Errorf("store: scan pool cache: %w", err)
		}
		out[pool] = name
	}
	return out, rows.Err()
}

// SeedLabels inserts the static contract labels, ignoring rows already
// present.
func (s *Store) SeedLabels(ctx context.Context, labels []Label) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, l := range labels {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO contract_labels (address, name, category, protocol) VALUES (?, ?, ?, ?)",
			l.Address, l.Name, l.Category, l.Protocol); err != nil {
			return fmt.Errorf("store: seed label %s: %w", l.Address, err)
		}
	}
	return tx.Commit()
}

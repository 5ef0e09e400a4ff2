package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// KindCount is an event kind with its occurrence count.
type KindCount struct {
	Kind  string
	Count int64
}

// NamedCount pairs a display name (a DEX family, or a label/address) with
// a count.
type NamedCount struct {
	Name  string
	Count int64
}

// WindowStats aggregates the last N committed blocks for the stats report.
type WindowStats struct {
	FromBlock    uint64
	ToBlock      uint64
	Blocks       int64
	Txs          int64
	Logs         int64
	TotalGasUsed int64
	Transfers    int64
	NFTTransfers int64
	Swaps        int64
	Deployments  int64
	EventKinds   []KindCount  // descending by count
	TopContracts []NamedCount // labelled address or raw address, descending
	SwapsByDex   []NamedCount // descending by count
}

// Window computes read-only aggregates over the trailing window of
// non-reorged blocks ending at the checkpoint.
func (s *Store) Window(ctx context.Context, window uint64) (*WindowStats, error) {
	to, err := s.Checkpoint(ctx)
	if err != nil {
		return nil, err
	}
	from := uint64(0)
	if to >= window {
		from = to - window + 1
	}

	ws := &WindowStats{FromBlock: from, ToBlock: to}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(gas_used), 0)
		FROM blocks WHERE number BETWEEN ? AND ? AND reorged = 0`, from, to).
		Scan(&ws.Blocks, &ws.TotalGasUsed)
	if err != nil {
		return nil, fmt.Errorf("store: window blocks: %w", err)
	}

	counts := []struct {
		dst   *int64
		table string
	}{
		{&ws.Txs, "transactions"},
		{&ws.Logs, "logs"},
		{&ws.Transfers, "token_transfers"},
		{&ws.NFTTransfers, "nft_transfers"},
		{&ws.Swaps, "dex_swaps"},
		{&ws.Deployments, "contract_deployments"},
	}
	for _, c := range counts {
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM "+c.table+" WHERE block_number BETWEEN ? AND ?", from, to).Scan(c.dst)
		if err != nil {
			return nil, fmt.Errorf("store: window %s: %w", c.table, err)
		}
	}

	ws.EventKinds, err = s.namedCounts(ctx, `
		SELECT event_kind, SUM(count) AS c FROM event_counts
		WHERE block_number BETWEEN ? AND ?
		GROUP BY event_kind ORDER BY c DESC, event_kind`, from, to)
	if err != nil {
		return nil, err
	}

	top, err := s.named(ctx, `
		SELECT COALESCE(cl.name, l.address) AS who, COUNT(*) AS c
		FROM logs l LEFT JOIN contract_labels cl ON cl.address = l.address
		WHERE l.block_number BETWEEN ? AND ?
		GROUP BY who ORDER BY c DESC, who LIMIT 10`, from, to)
	if err != nil {
		return nil, err
	}
	ws.TopContracts = top

	ws.SwapsByDex, err = s.named(ctx, `
		SELECT dex_name, COUNT(*) AS c FROM dex_swaps
		WHERE block_number BETWEEN ? AND ?
		GROUP BY dex_name ORDER BY c DESC, dex_name`, from, to)
	if err != nil {
		return nil, err
	}

	return ws, nil
}

func (s *Store) namedCounts(ctx context.Context, q string, args ...any) ([]KindCount, error) {
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []KindCount
	for rows.Next() {
		var kc KindCount
		if err := rows.Scan(&kc.Kind, &kc.Count); err != nil {
			return nil, fmt.Errorf("store: scan kind count: %w", err)
		}
		out = append(out, kc)
	}
	return out, rows.Err()
}

func (s *Store) named(ctx context.Context, q string, args ...any) ([]NamedCount, error) {
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NamedCount
	for rows.Next() {
		var nc NamedCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, fmt.Errorf("store: scan named count: %w", err)
		}
		out = append(out, nc)
	}
	return out, rows.Err()
}

func (s *Store) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	return rows, nil
}

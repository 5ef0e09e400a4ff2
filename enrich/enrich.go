// Package enrich turns one fetched block and its receipts into the full
// set of rows the store commits atomically: raw rows, per-block metrics,
// event-kind counts, and decoded transfer/swap/deployment rows. Decoding is
// best-effort: a log whose payload does not match its signature still
// counts under its kind but produces no enriched row.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/baseindex/baseindex/chain"
	"github.com/baseindex/baseindex/dex"
	"github.com/baseindex/baseindex/events"
	"github.com/baseindex/baseindex/log"
	"github.com/baseindex/baseindex/store"
)

// topContractsLimit caps the per-block top-contracts ranking.
const topContractsLimit = 10

// PoolResolver maps swap-emitting pool addresses to DEX names. Lookup is
// cache-only; Queue schedules an async probe for misses.
type PoolResolver interface {
	Lookup(ctx context.Context, pool common.Address) (string, bool)
	Queue(pool common.Address, topic0 common.Hash)
}

// Enricher builds store snapshots from fetched chain data.
type Enricher struct {
	resolver PoolResolver
	log      *log.Logger
}

// New creates an Enricher over the given pool resolver.
func New(resolver PoolResolver, logger *log.Logger) *Enricher {
	return &Enricher{resolver: resolver, log: logger.Module("enrich")}
}

// Snapshot derives every persisted row for one block. Receipts may arrive
// in any order; they are matched to transactions by hash, and a
// transaction without a receipt is an error.
func (e *Enricher) Snapshot(ctx context.Context, block *chain.Block, receipts []chain.Receipt) (*store.Snapshot, error) {
	byHash := make(map[common.Hash]*chain.Receipt, len(receipts))
	for i := range receipts {
		byHash[receipts[i].TxHash] = &receipts[i]
	}

	number := uint64(block.Number)
	snap := &store.Snapshot{
		Block:       blockRow(block),
		EventCounts: make(map[events.Kind]int),
	}

	agg := newAggregator()
	for i := range block.Transactions {
		tx := &block.Transactions[i]
		rcpt, ok := byHash[tx.Hash]
		if !ok {
			return nil, fmt.Errorf("enrich: block %d: no receipt for tx %s", number, tx.Hash.Hex())
		}

		snap.Txs = append(snap.Txs, txRow(tx, rcpt, number))
		snap.Receipts = append(snap.Receipts, receiptRow(rcpt, number))
		snap.EventCounts[events.Kind(events.ClassifyTx(tx))]++
		agg.observeTx(tx, rcpt)

		if tx.IsCreation() && rcpt.ContractAddress != nil {
			snap.Deployments = append(snap.Deployments, store.DeploymentRow{
				TxHash:          tx.Hash.Hex(),
				BlockNumber:     number,
				Deployer:        chain.LowerHex(tx.From),
				ContractAddress: chain.LowerHex(*rcpt.ContractAddress),
			})
		}

		for j := range rcpt.Logs {
			l := &rcpt.Logs[j]
			snap.Logs = append(snap.Logs, logRow(l, number))
			agg.observeLog(l)
			e.enrichLog(ctx, snap, l, number)
		}
	}

	snap.Metrics = agg.metrics(number, len(snap.Txs), len(snap.Logs), uint64(block.GasUsed))
	return snap, nil
}

// enrichLog classifies one log, counts its kind, and appends the decoded
// row when the kind has one.
func (e *Enricher) enrichLog(ctx context.Context, snap *store.Snapshot, l *chain.Log, number uint64) {
	kind := events.ClassifyLog(l)
	snap.EventCounts[kind]++

	switch kind {
	case events.KindERC20Transfer:
		t, ok := events.DecodeERC20Transfer(l)
		if !ok {
			e.dropLog(l, kind)
			return
		}
		snap.TokenTransfers = append(snap.TokenTransfers, store.TokenTransferRow{
			TxHash:      l.TxHash.Hex(),
			BlockNumber: number,
			LogIndex:    uint64(l.Index),
			Token:       chain.LowerHex(l.Address),
			From:        chain.LowerHex(t.From),
			To:          chain.LowerHex(t.To),
			Amount:      t.Amount.Dec(),
		})

	case events.KindERC721Transfer:
		t, ok := events.DecodeERC721Transfer(l)
		if !ok {
			e.dropLog(l, kind)
			return
		}
		snap.NFTTransfers = append(snap.NFTTransfers, nftRow(l, number, t))

	case events.KindERC1155Transfer:
		t, ok := events.DecodeERC1155Single(l)
		if !ok {
			// TransferBatch carries dynamic arrays; counted, not decoded.
			return
		}
		snap.NFTTransfers = append(snap.NFTTransfers, nftRow(l, number, t))

	case events.KindDexSwapV2, events.KindDexSwapAero:
		s, ok := events.DecodeSwapV2(l)
		if !ok {
			e.dropLog(l, kind)
			return
		}
		row := e.swapRow(ctx, l, number)
		row.Sender = chain.LowerHex(s.Sender)
		row.Recipient = chain.LowerHex(s.Recipient)
		row.Amount0In = s.Amount0In.Dec()
		row.Amount1In = s.Amount1In.Dec()
		row.Amount0Out = s.Amount0Out.Dec()
		row.Amount1Out = s.Amount1Out.Dec()
		snap.DexSwaps = append(snap.DexSwaps, row)

	case events.KindDexSwapV3:
		s, ok := events.DecodeSwapV3(l)
		if !ok {
			e.dropLog(l, kind)
			return
		}
		row := e.swapRow(ctx, l, number)
		row.Sender = chain.LowerHex(s.Sender)
		row.Recipient = chain.LowerHex(s.Recipient)
		row.Amount0In, row.Amount0Out = splitSigned(s.Amount0)
		row.Amount1In, row.Amount1Out = splitSigned(s.Amount1)
		snap.DexSwaps = append(snap.DexSwaps, row)

	case events.KindDexSwapCurve:
		s, ok := events.DecodeCurveExchange(l)
		if !ok {
			e.dropLog(l, kind)
			return
		}
		row := e.swapRow(ctx, l, number)
		row.Sender = chain.LowerHex(s.Buyer)
		row.Recipient = chain.LowerHex(s.Buyer)
		row.Amount0In, row.Amount1In = "0", "0"
		row.Amount0Out, row.Amount1Out = "0", "0"
		if s.SoldID == 0 {
			row.Amount0In = s.TokensSold.Dec()
		} else {
			row.Amount1In = s.TokensSold.Dec()
		}
		if s.BoughtID == 0 {
			row.Amount0Out = s.TokensBought.Dec()
		} else {
			row.Amount1Out = s.TokensBought.Dec()
		}
		snap.DexSwaps = append(snap.DexSwaps, row)
	}
}

// swapRow starts a swap row with identity fields and the resolved DEX
// name, falling back to a signature-derived name and queueing a probe when
// the pool is not cached yet.
func (e *Enricher) swapRow(ctx context.Context, l *chain.Log, number uint64) store.DexSwapRow {
	name, ok := e.resolver.Lookup(ctx, l.Address)
	if !ok {
		name = dex.FallbackName(l.Topic0())
		e.resolver.Queue(l.Address, l.Topic0())
	}
	return store.DexSwapRow{
		TxHash:      l.TxHash.Hex(),
		BlockNumber: number,
		LogIndex:    uint64(l.Index),
		Pool:        chain.LowerHex(l.Address),
		DexName:     name,
	}
}

// dropLog records a log whose payload did not match its classified
// signature. The kind count already includes it.
func (e *Enricher) dropLog(l *chain.Log, kind events.Kind) {
	e.log.Warn("undecodable log",
		"kind", kind, "tx", l.TxHash.Hex(), "index", uint64(l.Index))
}

// splitSigned maps one signed V3 amount onto the (in, out) column pair:
// positive flows into the pool, negative out of it.
func splitSigned(v *big.Int) (in, out string) {
	switch v.Sign() {
	case 1:
		return v.String(), "0"
	case -1:
		return "0", new(big.Int).Neg(v).String()
	default:
		return "0", "0"
	}
}

func blockRow(b *chain.Block) store.BlockRow {
	row := store.BlockRow{
		Number:     uint64(b.Number),
		Hash:       b.Hash.Hex(),
		ParentHash: b.ParentHash.Hex(),
		Timestamp:  uint64(b.Timestamp),
		GasUsed:    uint64(b.GasUsed),
		GasLimit:   uint64(b.GasLimit),
	}
	if b.BaseFee != nil {
		fee := chain.DecimalOrZero(b.BaseFee)
		row.BaseFee = &fee
	}
	return row
}

func txRow(tx *chain.Transaction, rcpt *chain.Receipt, number uint64) store.TxRow {
	row := store.TxRow{
		Hash:        tx.Hash.Hex(),
		BlockNumber: number,
		From:        chain.LowerHex(tx.From),
		Value:       chain.DecimalOrZero(tx.Value),
		Input:       tx.Input,
		GasUsed:     uint64(rcpt.GasUsed),
		TypeTag:     tx.TypeTag(),
	}
	if tx.To != nil {
		to := chain.LowerHex(*tx.To)
		row.To = &to
	}
	row.GasPrice = decimalPtr(tx.GasPrice)
	row.MaxFeePerGas = decimalPtr(tx.MaxFeePerGas)
	row.MaxPriorityFee = decimalPtr(tx.MaxPriorityFeePerGas)
	row.EffectiveGasPrice = decimalPtr(rcpt.EffectiveGasPrice)
	return row
}

func receiptRow(rcpt *chain.Receipt, number uint64) store.ReceiptRow {
	row := store.ReceiptRow{
		TxHash:            rcpt.TxHash.Hex(),
		BlockNumber:       number,
		Status:            uint64(rcpt.Status),
		GasUsed:           uint64(rcpt.GasUsed),
		LogCount:          len(rcpt.Logs),
		EffectiveGasPrice: decimalPtr(rcpt.EffectiveGasPrice),
	}
	if rcpt.ContractAddress != nil {
		addr := chain.LowerHex(*rcpt.ContractAddress)
		row.ContractAddress = &addr
	}
	return row
}

func logRow(l *chain.Log, number uint64) store.LogRow {
	row := store.LogRow{
		TxHash:      l.TxHash.Hex(),
		BlockNumber: number,
		LogIndex:    uint64(l.Index),
		Address:     chain.LowerHex(l.Address),
		Data:        l.Data,
	}
	for i, t := range l.Topics {
		if i >= len(row.Topics) {
			break
		}
		hex := t.Hex()
		row.Topics[i] = &hex
	}
	return row
}

func nftRow(l *chain.Log, number uint64, t events.NFTTransfer) store.NFTTransferRow {
	return store.NFTTransferRow{
		TxHash:      l.TxHash.Hex(),
		BlockNumber: number,
		LogIndex:    uint64(l.Index),
		Collection:  chain.LowerHex(l.Address),
		From:        chain.LowerHex(t.From),
		To:          chain.LowerHex(t.To),
		TokenID:     t.TokenID.Dec(),
		Amount:      t.Amount.Dec(),
		Standard:    t.Standard,
	}
}

func decimalPtr(v *hexutil.Big) *string {
	if v == nil {
		return nil
	}
	s := chain.DecimalOrZero(v)
	return &s
}

// aggregator accumulates the per-block analytics that land on the
// block_metrics row.
type aggregator struct {
	senders       map[common.Address]struct{}
	receivers     map[common.Address]struct{}
	logsByAddress map[common.Address]int

	gasPriceSum   *big.Int
	gasPriceCount int64
	prioritySum   *big.Int
	priorityCount int64
}

func newAggregator() *aggregator {
	return &aggregator{
		senders:       make(map[common.Address]struct{}),
		receivers:     make(map[common.Address]struct{}),
		logsByAddress: make(map[common.Address]int),
		gasPriceSum:   new(big.Int),
		prioritySum:   new(big.Int),
	}
}

func (a *aggregator) observeTx(tx *chain.Transaction, rcpt *chain.Receipt) {
	a.senders[tx.From] = struct{}{}
	if tx.To != nil {
		a.receivers[*tx.To] = struct{}{}
	}
	if rcpt.EffectiveGasPrice != nil {
		a.gasPriceSum.Add(a.gasPriceSum, (*big.Int)(rcpt.EffectiveGasPrice))
		a.gasPriceCount++
	}
	if tx.MaxPriorityFeePerGas != nil {
		a.prioritySum.Add(a.prioritySum, (*big.Int)(tx.MaxPriorityFeePerGas))
		a.priorityCount++
	}
}

func (a *aggregator) observeLog(l *chain.Log) {
	a.logsByAddress[l.Address]++
}

func (a *aggregator) metrics(number uint64, txCount, logCount int, totalGas uint64) store.MetricsRow {
	row := store.MetricsRow{
		BlockNumber:     number,
		TxCount:         txCount,
		LogCount:        logCount,
		TotalGasUsed:    totalGas,
		TopContracts:    a.topContracts(),
		UniqueSenders:   len(a.senders),
		UniqueReceivers: len(a.receivers),
		AvgGasPrice:     avg(a.gasPriceSum, a.gasPriceCount),
		AvgPriorityFee:  avg(a.prioritySum, a.priorityCount),
	}
	if txCount > 0 {
		row.AvgGasPerTx = totalGas / uint64(txCount)
	}
	return row
}

// contractCount is one entry of the top-contracts JSON array.
type contractCount struct {
	Address string `json:"address"`
	Count   int    `json:"count"`
}

// topContracts ranks log-emitting contracts by count, ties broken by
// address so the JSON is deterministic, truncated to the top ten.
func (a *aggregator) topContracts() string {
	ranked := make([]contractCount, 0, len(a.logsByAddress))
	for addr, count := range a.logsByAddress {
		ranked = append(ranked, contractCount{Address: chain.LowerHex(addr), Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Address < ranked[j].Address
	})
	if len(ranked) > topContractsLimit {
		ranked = ranked[:topContractsLimit]
	}
	out, err := json.Marshal(ranked)
	if err != nil {
		return "[]"
	}
	return string(out)
}

// avg integer-divides a big sum by its count, "0" when nothing was
// observed.
func avg(sum *big.Int, count int64) string {
	if count == 0 {
		return "0"
	}
	return new(big.Int).Div(sum, big.NewInt(count)).String()
}

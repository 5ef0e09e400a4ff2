package store

import "github.com/baseindex/baseindex/events"

// BlockRow is the anchor entity for a block.
type BlockRow struct {
	Number     uint64
	Hash       string
	ParentHash string
	Timestamp  uint64
	GasUsed    uint64
	GasLimit   uint64
	BaseFee    *string // decimal string; nil pre-1559
	Reorged    bool
}

// TxRow is a persisted transaction, merged with the receipt-derived gas
// fields.
type TxRow struct {
	Hash              string
	BlockNumber       uint64
	From              string
	To                *string // nil for contract creations
	Value             string  // decimal string
	Input             []byte
	GasPrice          *string
	MaxFeePerGas      *string
	MaxPriorityFee    *string
	GasUsed           uint64
	EffectiveGasPrice *string
	TypeTag           string
}

// ReceiptRow is a persisted receipt, 1:1 with its transaction.
type ReceiptRow struct {
	TxHash            string
	BlockNumber       uint64
	Status            uint64
	GasUsed           uint64
	LogCount          int
	ContractAddress   *string
	EffectiveGasPrice *string
}

// LogRow is a persisted raw log. Topics beyond topic0 are nil when the
// event indexes fewer parameters.
type LogRow struct {
	TxHash      string
	BlockNumber uint64
	LogIndex    uint64
	Address     string
	Topics      [4]*string
	Data        []byte
}

// MetricsRow aggregates per-block analytics.
type MetricsRow struct {
	BlockNumber     uint64
	TxCount         int
	LogCount        int
	TotalGasUsed    uint64
	AvgGasPerTx     uint64
	TopContracts    string // JSON array of {address, count}, descending
	UniqueSenders   int
	UniqueReceivers int
	AvgGasPrice     string // decimal string
	AvgPriorityFee  string // decimal string
}

// TokenTransferRow is an enriched ERC-20 transfer.
type TokenTransferRow struct {
	TxHash      string
	BlockNumber uint64
	LogIndex    uint64
	Token       string
	From        string
	To          string
	Amount      string
}

// NFTTransferRow is an enriched ERC-721/1155 transfer.
type NFTTransferRow struct {
	TxHash      string
	BlockNumber uint64
	LogIndex    uint64
	Collection  string
	From        string
	To          string
	TokenID     string
	Amount      string
	Standard    string
}

// DexSwapRow is an enriched swap with per-token in/out amounts as decimal
// strings.
type DexSwapRow struct {
	TxHash      string
	BlockNumber uint64
	LogIndex    uint64
	Pool        string
	DexName     string
	Sender      string
	Recipient   string
	Amount0In   string
	Amount1In   string
	Amount0Out  string
	Amount1Out  string
}

// DeploymentRow records a contract creation, tx-scoped rather than
// log-scoped.
type DeploymentRow struct {
	TxHash          string
	BlockNumber     uint64
	Deployer        string
	ContractAddress string
}

// Label is a static contract annotation seeded at startup.
type Label struct {
	Address  string
	Name     string
	Category string
	Protocol string
}

// Snapshot is everything CommitBlock persists for one block in a single
// transaction.
type Snapshot struct {
	Block          BlockRow
	Txs            []TxRow
	Receipts       []ReceiptRow
	Logs           []LogRow
	Metrics        MetricsRow
	EventCounts    map[events.Kind]int
	TokenTransfers []TokenTransferRow
	NFTTransfers   []NFTTransferRow
	DexSwaps       []DexSwapRow
	Deployments    []DeploymentRow
}

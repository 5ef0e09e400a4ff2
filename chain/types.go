// Package chain defines the concrete JSON-RPC wire records the ingester
// consumes: blocks with full transactions, receipts, and logs. Hex
// quantities decode through go-ethereum's hexutil types so 256-bit values
// never lose precision, and addresses normalize to lower-case hex for
// storage.
package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Transaction type tags persisted with each transaction.
const (
	TxTagLegacy  = "legacy"
	TxTagEIP2930 = "eip2930"
	TxTagEIP1559 = "eip1559"
	TxTagDeposit = "deposit" // OP Stack type 0x7e deposit transaction
)

// depositTxType is the OP Stack deposit transaction envelope type. Every
// Base block carries at least one such transaction (the L1 attributes
// deposit).
const depositTxType = 0x7e

// Block is the eth_getBlockByNumber(number, true) payload, narrowed to the
// fields the ingester persists.
type Block struct {
	Number       hexutil.Uint64 `json:"number"`
	Hash         common.Hash    `json:"hash"`
	ParentHash   common.Hash    `json:"parentHash"`
	Timestamp    hexutil.Uint64 `json:"timestamp"`
	GasUsed      hexutil.Uint64 `json:"gasUsed"`
	GasLimit     hexutil.Uint64 `json:"gasLimit"`
	BaseFee      *hexutil.Big   `json:"baseFeePerGas"`
	Transactions []Transaction  `json:"transactions"`
}

// Transaction is a full transaction object as embedded in a block payload.
type Transaction struct {
	Hash                 common.Hash     `json:"hash"`
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to"`
	Value                *hexutil.Big    `json:"value"`
	Input                hexutil.Bytes   `json:"input"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas"`
	Type                 hexutil.Uint64  `json:"type"`
}

// Receipt is the eth_getTransactionReceipt / eth_getBlockReceipts payload.
type Receipt struct {
	TxHash            common.Hash     `json:"transactionHash"`
	BlockNumber       hexutil.Uint64  `json:"blockNumber"`
	Status            hexutil.Uint64  `json:"status"`
	GasUsed           hexutil.Uint64  `json:"gasUsed"`
	EffectiveGasPrice *hexutil.Big    `json:"effectiveGasPrice"`
	ContractAddress   *common.Address `json:"contractAddress"`
	Logs              []Log           `json:"logs"`
}

// Log is a single receipt log entry.
type Log struct {
	Address     common.Address `json:"address"`
	Topics      []common.Hash  `json:"topics"`
	Data        hexutil.Bytes  `json:"data"`
	Index       hexutil.Uint64 `json:"logIndex"`
	TxHash      common.Hash    `json:"transactionHash"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
}

// IsCreation reports whether the transaction deploys a contract.
func (tx *Transaction) IsCreation() bool {
	return tx.To == nil
}

// TypeTag returns the textual transaction type tag stored with the row.
func (tx *Transaction) TypeTag() string {
	switch uint64(tx.Type) {
	case 1:
		return TxTagEIP2930
	case 2:
		return TxTagEIP1559
	case depositTxType:
		return TxTagDeposit
	default:
		return TxTagLegacy
	}
}

// Topic0 returns the event signature topic, or the zero hash for anonymous
// logs.
func (l *Log) Topic0() common.Hash {
	if len(l.Topics) == 0 {
		return common.Hash{}
	}
	return l.Topics[0]
}

// LowerHex renders an address as 0x-prefixed lower-case hex, the canonical
// form for every persisted address.
func LowerHex(a common.Address) string {
	return strings.ToLower(a.Hex())
}

// LowerHexPtr is LowerHex for optional addresses; nil renders as the empty
// string.
func LowerHexPtr(a *common.Address) string {
	if a == nil {
		return ""
	}
	return LowerHex(*a)
}

// BigOrZero unwraps an optional hex quantity, treating nil as zero.
func BigOrZero(v *hexutil.Big) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return (*big.Int)(v)
}

// DecimalOrZero renders an optional hex quantity as a decimal string,
// treating nil as "0". Amounts persist as decimal strings to keep full
// 256-bit range.
func DecimalOrZero(v *hexutil.Big) string {
	return BigOrZero(v).String()
}

package events

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/baseindex/baseindex/chain"
)

// Classify maps a log's (topic0, topicCount) to its kind. topicCount is the
// number of non-null topics including topic0 itself.
//
// The ERC-20 and ERC-721 Transfer events share a topic0; an ERC-721
// transfer indexes all three parameters, so exactly four topics means
// ERC-721 and anything else means ERC-20.
func Classify(topic0 common.Hash, topicCount int) Kind {
	kind := Lookup(topic0)
	if kind == KindERC20Transfer && topicCount == 4 {
		return KindERC721Transfer
	}
	return kind
}

// ClassifyLog classifies a wire log.
func ClassifyLog(l *chain.Log) Kind {
	return Classify(l.Topic0(), len(l.Topics))
}

// ClassifyTx assigns exactly one kind to a transaction: a creation has no
// recipient, a plain ETH transfer carries value and no calldata, and
// everything else is a contract call.
func ClassifyTx(tx *chain.Transaction) TxKind {
	if tx.IsCreation() {
		return TxContractCreation
	}
	if chain.BigOrZero(tx.Value).Sign() > 0 && len(tx.Input) == 0 {
		return TxEthTransfer
	}
	return TxContractCall
}

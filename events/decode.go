package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/baseindex/baseindex/chain"
)

// NFT standards recorded on nft_transfers rows.
const (
	StandardERC721  = "ERC721"
	StandardERC1155 = "ERC1155"
)

// Transfer is a decoded ERC-20 Transfer event.
type Transfer struct {
	From   common.Address
	To     common.Address
	Amount *uint256.Int
}

// NFTTransfer is a decoded ERC-721 Transfer or ERC-1155 TransferSingle
// event.
type NFTTransfer struct {
	From     common.Address
	To       common.Address
	Operator common.Address // ERC-1155 only; zero for ERC-721
	TokenID  *uint256.Int
	Amount   *uint256.Int
	Standard string
}

// SwapV2 is a decoded V2-style Swap with four packed unsigned amounts.
// The aero/solidly Swap shares this layout with a different topic0.
type SwapV2 struct {
	Sender     common.Address
	Recipient  common.Address
	Amount0In  *uint256.Int
	Amount1In  *uint256.Int
	Amount0Out *uint256.Int
	Amount1Out *uint256.Int
}

// SwapV3 is a decoded V3/CL-style Swap. Amount0 and Amount1 are signed:
// a negative amount flows out of the pool.
type SwapV3 struct {
	Sender       common.Address
	Recipient    common.Address
	Amount0      *big.Int
	Amount1      *big.Int
	SqrtPriceX96 *uint256.Int
	Liquidity    *uint256.Int
	Tick         int32
}

// CurveExchange is a decoded Curve TokenExchange event. Coin indices are
// pool-local; index 0 maps to the token0 slot of the swap row.
type CurveExchange struct {
	Buyer        common.Address
	SoldID       int64
	TokensSold   *uint256.Int
	BoughtID     int64
	TokensBought *uint256.Int
}

// wordSize is the width of one ABI-encoded slot.
const wordSize = 32

// word returns slot i of ABI-encoded data and whether it is fully present.
func word(data []byte, i int) ([]byte, bool) {
	if len(data) < (i+1)*wordSize {
		return nil, false
	}
	return data[i*wordSize : (i+1)*wordSize], true
}

// topicAddress extracts the address packed into the low 20 bytes of an
// indexed topic.
func topicAddress(t common.Hash) common.Address {
	return common.BytesToAddress(t[12:])
}

// uintWord decodes slot i as an unsigned 256-bit integer.
func uintWord(data []byte, i int) (*uint256.Int, bool) {
	w, ok := word(data, i)
	if !ok {
		return nil, false
	}
	return new(uint256.Int).SetBytes(w), true
}

// intWord decodes slot i as a signed 256-bit integer via two's complement.
// A magnitude of 2^255 has no positive counterpart within int256 and is
// rejected as malformed.
func intWord(data []byte, i int) (*big.Int, bool) {
	w, ok := word(data, i)
	if !ok {
		return nil, false
	}
	v := new(big.Int).SetBytes(w)
	if v.Bit(255) == 1 {
		v.Sub(v, twoPow256)
		if v.Cmp(negTwoPow255) == 0 {
			return nil, false
		}
	}
	return v, true
}

var (
	twoPow255    = new(big.Int).Lsh(big.NewInt(1), 255)
	twoPow256    = new(big.Int).Lsh(big.NewInt(1), 256)
	negTwoPow255 = new(big.Int).Neg(twoPow255)
)

// DecodeERC20Transfer decodes Transfer(address indexed, address indexed,
// uint256). It requires exactly three topics and one data slot.
func DecodeERC20Transfer(l *chain.Log) (Transfer, bool) {
	if len(l.Topics) != 3 {
		return Transfer{}, false
	}
	amount, ok := uintWord(l.Data, 0)
	if !ok {
		return Transfer{}, false
	}
	return Transfer{
		From:   topicAddress(l.Topics[1]),
		To:     topicAddress(l.Topics[2]),
		Amount: amount,
	}, true
}

// DecodeERC721Transfer decodes Transfer(address indexed, address indexed,
// uint256 indexed). All parameters are indexed; amount is fixed at one.
func DecodeERC721Transfer(l *chain.Log) (NFTTransfer, bool) {
	if len(l.Topics) != 4 {
		return NFTTransfer{}, false
	}
	return NFTTransfer{
		From:     topicAddress(l.Topics[1]),
		To:       topicAddress(l.Topics[2]),
		TokenID:  new(uint256.Int).SetBytes(l.Topics[3][:]),
		Amount:   uint256.NewInt(1),
		Standard: StandardERC721,
	}, true
}

// DecodeERC1155Single decodes TransferSingle(address indexed operator,
// address indexed from, address indexed to, uint256 id, uint256 value).
// TransferBatch shares the topic shape but packs dynamic arrays whose
// leading words are offsets, not values, so the decode is gated on the
// TransferSingle topic0; batch logs produce counts only, no enriched row.
func DecodeERC1155Single(l *chain.Log) (NFTTransfer, bool) {
	if len(l.Topics) != 4 || l.Topics[0] != TopicTransferSingle {
		return NFTTransfer{}, false
	}
	tokenID, ok := uintWord(l.Data, 0)
	if !ok {
		return NFTTransfer{}, false
	}
	amount, ok := uintWord(l.Data, 1)
	if !ok {
		return NFTTransfer{}, false
	}
	return NFTTransfer{
		Operator: topicAddress(l.Topics[1]),
		From:     topicAddress(l.Topics[2]),
		To:       topicAddress(l.Topics[3]),
		TokenID:  tokenID,
		Amount:   amount,
		Standard: StandardERC1155,
	}, true
}

// DecodeSwapV2 decodes Swap(address indexed sender, uint256 amount0In,
// uint256 amount1In, uint256 amount0Out, uint256 amount1Out, address
// indexed to). The aero/solidly variant shares the layout.
func DecodeSwapV2(l *chain.Log) (SwapV2, bool) {
	if len(l.Topics) != 3 {
		return SwapV2{}, false
	}
	var amounts [4]*uint256.Int
	for i := range amounts {
		v, ok := uintWord(l.Data, i)
		if !ok {
			return SwapV2{}, false
		}
		amounts[i] = v
	}
	return SwapV2{
		Sender:     topicAddress(l.Topics[1]),
		Recipient:  topicAddress(l.Topics[2]),
		Amount0In:  amounts[0],
		Amount1In:  amounts[1],
		Amount0Out: amounts[2],
		Amount1Out: amounts[3],
	}, true
}

// DecodeCurveExchange decodes TokenExchange(address indexed buyer, int128
// sold_id, uint256 tokens_sold, int128 bought_id, uint256 tokens_bought).
func DecodeCurveExchange(l *chain.Log) (CurveExchange, bool) {
	if len(l.Topics) != 2 {
		return CurveExchange{}, false
	}
	soldID, ok := intWord(l.Data, 0)
	if !ok {
		return CurveExchange{}, false
	}
	tokensSold, ok := uintWord(l.Data, 1)
	if !ok {
		return CurveExchange{}, false
	}
	boughtID, ok := intWord(l.Data, 2)
	if !ok {
		return CurveExchange{}, false
	}
	tokensBought, ok := uintWord(l.Data, 3)
	if !ok {
		return CurveExchange{}, false
	}
	// The uint256 TokenExchange variant could carry ids beyond int64;
	// real pools index a handful of coins, so anything larger is
	// malformed rather than truncatable.
	if !soldID.IsInt64() || !boughtID.IsInt64() {
		return CurveExchange{}, false
	}
	return CurveExchange{
		Buyer:        topicAddress(l.Topics[1]),
		SoldID:       soldID.Int64(),
		TokensSold:   tokensSold,
		BoughtID:     boughtID.Int64(),
		TokensBought: tokensBought,
	}, true
}

// DecodeSwapV3 decodes Swap(address indexed sender, address indexed
// recipient, int256 amount0, int256 amount1, uint160 sqrtPriceX96, uint128
// liquidity, int24 tick). CL variants append protocol-fee slots which this
// decoder ignores.
func DecodeSwapV3(l *chain.Log) (SwapV3, bool) {
	if len(l.Topics) != 3 {
		return SwapV3{}, false
	}
	amount0, ok := intWord(l.Data, 0)
	if !ok {
		return SwapV3{}, false
	}
	amount1, ok := intWord(l.Data, 1)
	if !ok {
		return SwapV3{}, false
	}
	sqrtPrice, ok := uintWord(l.Data, 2)
	if !ok {
		return SwapV3{}, false
	}
	liquidity, ok := uintWord(l.Data, 3)
	if !ok {
		return SwapV3{}, false
	}
	tick, ok := intWord(l.Data, 4)
	if !ok {
		return SwapV3{}, false
	}
	return SwapV3{
		Sender:       topicAddress(l.Topics[1]),
		Recipient:    topicAddress(l.Topics[2]),
		Amount0:      amount0,
		Amount1:      amount1,
		SqrtPriceX96: sqrtPrice,
		Liquidity:    liquidity,
		Tick:         int32(tick.Int64()),
	}, true
}

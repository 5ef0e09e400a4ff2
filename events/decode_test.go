package events

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/baseindex/baseindex/chain"
)

var (
	addrA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	addrB = common.HexToAddress("0x2222222222222222222222222222222222222222")
	addrC = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

// addrTopic packs an address into an indexed topic.
func addrTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

// packWords ABI-encodes each 32-byte word in sequence.
func packWords(words ...[]byte) []byte {
	out := make([]byte, 0, len(words)*32)
	for _, w := range words {
		var slot [32]byte
		copy(slot[32-len(w):], w)
		out = append(out, slot[:]...)
	}
	return out
}

// uintBytes renders an unsigned big value for packing.
func uintBytes(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}

// intBytes renders a signed value as 256-bit two's complement.
func intBytes(v *big.Int) []byte {
	w := new(big.Int).Set(v)
	if w.Sign() < 0 {
		w.Add(w, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	var slot [32]byte
	w.FillBytes(slot[:])
	return slot[:]
}

func TestDecodeERC20TransferRoundTrip(t *testing.T) {
	// Full 256-bit amount survives the round trip.
	amount := new(uint256.Int).Lsh(uint256.NewInt(1), 255)
	l := &chain.Log{
		Topics: []common.Hash{TopicTransfer, addrTopic(addrA), addrTopic(addrB)},
		Data:   packWords(uintBytes(amount)),
	}

	got, ok := DecodeERC20Transfer(l)
	if !ok {
		t.Fatal("decode failed")
	}
	if got.From != addrA || got.To != addrB {
		t.Errorf("addresses = %s -> %s", got.From, got.To)
	}
	if !got.Amount.Eq(amount) {
		t.Errorf("amount = %s, want %s", got.Amount, amount)
	}
}

func TestDecodeERC20TransferShortData(t *testing.T) {
	l := &chain.Log{
		Topics: []common.Hash{TopicTransfer, addrTopic(addrA), addrTopic(addrB)},
		Data:   []byte{0x01, 0x02},
	}
	if _, ok := DecodeERC20Transfer(l); ok {
		t.Fatal("short data must fail to decode")
	}
}

func TestDecodeERC721Transfer(t *testing.T) {
	tokenID := uint256.NewInt(7777)
	l := &chain.Log{
		Topics: []common.Hash{
			TopicTransfer, addrTopic(addrA), addrTopic(addrB),
			common.BytesToHash(uintBytes(tokenID)),
		},
	}

	got, ok := DecodeERC721Transfer(l)
	if !ok {
		t.Fatal("decode failed")
	}
	if !got.TokenID.Eq(tokenID) {
		t.Errorf("tokenID = %s, want %s", got.TokenID, tokenID)
	}
	if !got.Amount.Eq(uint256.NewInt(1)) {
		t.Errorf("amount = %s, want 1", got.Amount)
	}
	if got.Standard != StandardERC721 {
		t.Errorf("standard = %q", got.Standard)
	}
}

func TestDecodeERC1155Single(t *testing.T) {
	tokenID := uint256.NewInt(5)
	amount := uint256.NewInt(300)
	l := &chain.Log{
		Topics: []common.Hash{
			Topic("TransferSingle(address,address,address,uint256,uint256)"),
			addrTopic(addrC), addrTopic(addrA), addrTopic(addrB),
		},
		Data: packWords(uintBytes(tokenID), uintBytes(amount)),
	}

	got, ok := DecodeERC1155Single(l)
	if !ok {
		t.Fatal("decode failed")
	}
	if got.Operator != addrC || got.From != addrA || got.To != addrB {
		t.Errorf("parties = op %s, %s -> %s", got.Operator, got.From, got.To)
	}
	if !got.TokenID.Eq(tokenID) || !got.Amount.Eq(amount) {
		t.Errorf("tokenID/amount = %s/%s", got.TokenID, got.Amount)
	}
	if got.Standard != StandardERC1155 {
		t.Errorf("standard = %q", got.Standard)
	}

	// One missing data word fails.
	l.Data = packWords(uintBytes(tokenID))
	if _, ok := DecodeERC1155Single(l); ok {
		t.Fatal("short data must fail to decode")
	}
}

func TestDecodeSwapV2RoundTrip(t *testing.T) {
	in0 := uint256.NewInt(1000)
	out1 := uint256.NewInt(997)
	l := &chain.Log{
		Topics: []common.Hash{TopicSwapV2, addrTopic(addrA), addrTopic(addrB)},
		Data: packWords(
			uintBytes(in0), uintBytes(uint256.NewInt(0)),
			uintBytes(uint256.NewInt(0)), uintBytes(out1),
		),
	}

	got, ok := DecodeSwapV2(l)
	if !ok {
		t.Fatal("decode failed")
	}
	if !got.Amount0In.Eq(in0) || !got.Amount1Out.Eq(out1) {
		t.Errorf("amounts = %s in, %s out", got.Amount0In, got.Amount1Out)
	}
	if got.Amount1In.Sign() != 0 || got.Amount0Out.Sign() != 0 {
		t.Error("zero legs should decode as zero")
	}
}

func TestDecodeERC1155BatchRejected(t *testing.T) {
	// A canonical TransferBatch payload: two array-offset words followed
	// by length-prefixed ids and values. Its leading words would decode as
	// plausible-looking tokenID/amount if the topic gate were missing.
	l := &chain.Log{
		Topics: []common.Hash{
			TopicTransferBatch,
			addrTopic(addrC), addrTopic(addrA), addrTopic(addrB),
		},
		Data: packWords(
			uintBytes(uint256.NewInt(64)),  // offset of ids
			uintBytes(uint256.NewInt(160)), // offset of values
			uintBytes(uint256.NewInt(1)),   // len(ids)
			uintBytes(uint256.NewInt(777)),
			uintBytes(uint256.NewInt(1)), // len(values)
			uintBytes(uint256.NewInt(5)),
		),
	}
	if _, ok := DecodeERC1155Single(l); ok {
		t.Fatal("batch transfer must not decode as a single transfer")
	}
}

func TestDecodeCurveExchangeRejectsHugeCoinID(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 64)
	l := &chain.Log{
		Topics: []common.Hash{TopicCurveExchange, addrTopic(addrA)},
		Data: packWords(
			intBytes(huge),
			uintBytes(uint256.NewInt(500)),
			intBytes(big.NewInt(0)),
			uintBytes(uint256.NewInt(495)),
		),
	}
	if _, ok := DecodeCurveExchange(l); ok {
		t.Fatal("coin id beyond int64 must fail to decode")
	}
}

func TestDecodeCurveExchange(t *testing.T) {
	l := &chain.Log{
		Topics: []common.Hash{TopicCurveExchange, addrTopic(addrA)},
		Data: packWords(
			intBytes(big.NewInt(1)),
			uintBytes(uint256.NewInt(500)),
			intBytes(big.NewInt(0)),
			uintBytes(uint256.NewInt(495)),
		),
	}

	got, ok := DecodeCurveExchange(l)
	if !ok {
		t.Fatal("decode failed")
	}
	if got.Buyer != addrA {
		t.Errorf("buyer = %s, want %s", got.Buyer, addrA)
	}
	if got.SoldID != 1 || got.BoughtID != 0 {
		t.Errorf("coin ids = %d/%d, want 1/0", got.SoldID, got.BoughtID)
	}
	if !got.TokensSold.Eq(uint256.NewInt(500)) || !got.TokensBought.Eq(uint256.NewInt(495)) {
		t.Errorf("amounts = %s/%s", got.TokensSold, got.TokensBought)
	}

	// A V2-shaped topic list must not decode as a curve exchange.
	l.Topics = append(l.Topics, addrTopic(addrB))
	if _, ok := DecodeCurveExchange(l); ok {
		t.Fatal("three topics must fail to decode")
	}
}

func TestDecodeSwapV3SignedAmounts(t *testing.T) {
	amount0 := big.NewInt(5_000_000)
	amount1 := big.NewInt(-4_990_000)
	sqrtPrice := uint256.NewInt(1 << 40)
	liquidity := uint256.NewInt(12345678)
	tick := big.NewInt(-887220)

	l := &chain.Log{
		Topics: []common.Hash{TopicSwapV3, addrTopic(addrA), addrTopic(addrB)},
		Data: packWords(
			intBytes(amount0), intBytes(amount1),
			uintBytes(sqrtPrice), uintBytes(liquidity), intBytes(tick),
		),
	}

	got, ok := DecodeSwapV3(l)
	if !ok {
		t.Fatal("decode failed")
	}
	if got.Amount0.Cmp(amount0) != 0 {
		t.Errorf("amount0 = %s, want %s", got.Amount0, amount0)
	}
	if got.Amount1.Cmp(amount1) != 0 {
		t.Errorf("amount1 = %s, want %s", got.Amount1, amount1)
	}
	if got.Tick != -887220 {
		t.Errorf("tick = %d, want -887220", got.Tick)
	}
	if !got.SqrtPriceX96.Eq(sqrtPrice) || !got.Liquidity.Eq(liquidity) {
		t.Errorf("sqrtPrice/liquidity = %s/%s", got.SqrtPriceX96, got.Liquidity)
	}
}

func TestDecodeSwapV3RejectsMinInt256(t *testing.T) {
	// -2^255 has no representable magnitude; the decoder treats it as
	// malformed rather than persisting a bogus amount.
	min := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
	l := &chain.Log{
		Topics: []common.Hash{TopicSwapV3, addrTopic(addrA), addrTopic(addrB)},
		Data: packWords(
			intBytes(min), intBytes(big.NewInt(1)),
			uintBytes(uint256.NewInt(1)), uintBytes(uint256.NewInt(1)),
			intBytes(big.NewInt(0)),
		),
	}
	if _, ok := DecodeSwapV3(l); ok {
		t.Fatal("min int256 amount must fail to decode")
	}
}

func TestDecodeSwapV3ShortData(t *testing.T) {
	l := &chain.Log{
		Topics: []common.Hash{TopicSwapV3, addrTopic(addrA), addrTopic(addrB)},
		Data:   packWords(intBytes(big.NewInt(1)), intBytes(big.NewInt(2))),
	}
	if _, ok := DecodeSwapV3(l); ok {
		t.Fatal("truncated data must fail to decode")
	}
}

func TestDecodeSwapV3AcceptsCLTrailingWords(t *testing.T) {
	// CL pools append protocol-fee words; the decoder reads the leading
	// five slots and ignores the rest.
	l := &chain.Log{
		Topics: []common.Hash{TopicSwapCL, addrTopic(addrA), addrTopic(addrB)},
		Data: packWords(
			intBytes(big.NewInt(10)), intBytes(big.NewInt(-9)),
			uintBytes(uint256.NewInt(1)), uintBytes(uint256.NewInt(2)),
			intBytes(big.NewInt(3)),
			uintBytes(uint256.NewInt(0)), uintBytes(uint256.NewInt(0)),
		),
	}
	got, ok := DecodeSwapV3(l)
	if !ok {
		t.Fatal("decode failed")
	}
	if got.Amount1.Cmp(big.NewInt(-9)) != 0 {
		t.Errorf("amount1 = %s, want -9", got.Amount1)
	}
}

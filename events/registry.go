package events

import (
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// signature pairs a canonical Solidity event signature with the kind its
// topic0 classifies to. The Transfer signature is shared by ERC-20 and
// ERC-721; the classifier disambiguates by topic count (see Classify).
type signature struct {
	text string
	kind Kind
}

// canonicalSignatures is the curated signature set. Topic0 hashes are
// computed once at package initialization.
var canonicalSignatures = []signature{
	// Token standards. ERC-20 and ERC-721 share the Transfer and Approval
	// signatures; the ERC-20 kind here is the topic-count-3 default.
	{"Transfer(address,address,uint256)", KindERC20Transfer},
	{"Approval(address,address,uint256)", KindApproval},
	{"ApprovalForAll(address,address,bool)", KindApproval},
	{"TransferSingle(address,address,address,uint256,uint256)", KindERC1155Transfer},
	{"TransferBatch(address,address,address,uint256[],uint256[])", KindERC1155Transfer},

	// DEX swaps.
	{"Swap(address,uint256,uint256,uint256,uint256,address)", KindDexSwapV2},
	{"Swap(address,address,int256,int256,uint160,uint128,int24)", KindDexSwapV3},
	{"Swap(address,address,uint256,uint256,uint256,uint256)", KindDexSwapAero},
	{"TokenExchange(address,int128,uint256,int128,uint256)", KindDexSwapCurve},
	{"TokenExchange(address,uint256,uint256,uint256,uint256)", KindDexSwapCurve},
	{"TokenExchangeUnderlying(address,int128,uint256,int128,uint256)", KindDexSwapCurve},

	// Liquidity lifecycle, V2 and V3 pool variants plus the position
	// manager events.
	{"Mint(address,uint256,uint256)", KindLiquidityAdd},
	{"Mint(address,address,int24,int24,uint128,uint256,uint256)", KindLiquidityAdd},
	{"Burn(address,uint256,uint256,address)", KindLiquidityRemove},
	{"Burn(address,int24,int24,uint128,uint256,uint256)", KindLiquidityRemove},
	{"Collect(address,address,int24,int24,uint128,uint128)", KindLiquidityCollect},
	{"Collect(uint256,address,uint256,uint256)", KindLiquidityCollect},
	{"IncreaseLiquidity(uint256,uint128,uint256,uint256)", KindNFTPositionMint},
	{"DecreaseLiquidity(uint256,uint128,uint256,uint256)", KindNFTPositionBurn},
	{"Sync(uint112,uint112)", KindPoolSync},
	{"PairCreated(address,address,address,uint256)", KindPoolCreated},
	{"PoolCreated(address,address,uint24,int24,address)", KindPoolCreated},

	// WETH wrap/unwrap.
	{"Deposit(address,uint256)", KindWETHWrap},
	{"Withdrawal(address,uint256)", KindWETHUnwrap},

	// Account abstraction.
	{"UserOperationEvent(bytes32,address,address,uint256,bool,uint256,uint256)", KindUserOperation},

	// Flash loans: Aave pool and V3 pool flash.
	{"FlashLoan(address,address,address,uint256,uint8,uint256,uint16)", KindFlashLoan},
	{"Flash(address,address,uint256,uint256,uint256,uint256)", KindFlashLoan},

	// Gauges, rewards and voting (ve(3,3) ecosystem).
	{"Deposit(address,uint256,uint256)", KindGaugeDeposit},
	{"Withdraw(address,uint256,uint256)", KindGaugeWithdraw},
	{"ClaimRewards(address,address,address,uint256)", KindRewardClaim},
	{"RewardPaid(address,uint256)", KindRewardClaim},
	{"Voted(address,address,uint256,uint256,uint256,uint256)", KindVote},
	{"Abstained(address,address,uint256,uint256,uint256,uint256)", KindVote},

	// Administrative.
	{"OwnershipTransferred(address,address)", KindOwnershipChange},
	{"Upgraded(address)", KindContractUpgrade},
	{"AdminChanged(address,address)", KindContractUpgrade},
	{"BeaconUpgraded(address)", KindContractUpgrade},

	// OP Stack bridge, L2 side.
	{"SentMessage(address,address,bytes,uint256,uint256)", KindBridgeSend},
	{"MessagePassed(uint256,address,address,uint256,uint256,bytes,bytes32)", KindBridgeSend},
	{"ETHBridgeInitiated(address,address,uint256,bytes)", KindBridgeSend},
	{"ERC20BridgeInitiated(address,address,address,address,uint256,bytes)", KindBridgeSend},
	{"RelayedMessage(bytes32)", KindBridgeReceive},
	{"ETHBridgeFinalized(address,address,uint256,bytes)", KindBridgeReceive},
	{"ERC20BridgeFinalized(address,address,address,address,uint256,bytes)", KindBridgeReceive},

	// Lending (Aave-style).
	{"Supply(address,address,address,uint256,uint16)", KindLendingSupply},
	{"Withdraw(address,address,address,uint256)", KindLendingWithdraw},
	{"Borrow(address,address,address,uint256,uint8,uint256,uint16)", KindLendingBorrow},
	{"Repay(address,address,address,uint256,bool)", KindLendingRepay},
	{"LiquidationCall(address,address,address,uint256,uint256,address,bool)", KindLendingLiquidation},

	// Oracles, multisigs, protocol fees.
	{"AnswerUpdated(int256,uint256,uint256)", KindOracleUpdate},
	{"ExecutionSuccess(bytes32,uint256)", KindMultisigExec},
	{"ExecutionFailure(bytes32,uint256)", KindMultisigExec},
	{"CollectProtocol(address,address,uint128,uint128)", KindProtocolFees},

	// Governance.
	{"ProposalCreated(uint256,address,address[],uint256[],string[],bytes[],uint256,uint256,string)", KindGovernance},
	{"VoteCast(address,uint256,uint8,uint256,string)", KindGovernance},
	{"ProposalExecuted(uint256)", KindGovernance},

	// Staking.
	{"Staked(address,uint256)", KindStaking},
	{"Unstaked(address,uint256)", KindStaking},
	{"Withdrawn(address,uint256)", KindStaking},
}

// observedTopics holds topic0 values seen on Base whose full signature text
// is not canonical (pool implementations that extend a standard event).
// They are declared by literal hex rather than computed.
var observedTopics = map[string]Kind{
	// CL pool swap with trailing protocol-fee fields
	// Swap(address,address,int256,int256,uint160,uint128,int24,uint128,uint128).
	// Decodes like the V3 swap for the leading fields.
	"0x19b47279256b2a23a1665c810c8d55a1758940ee09377d4f8d26497a3577dc83": KindDexSwapV3,
}

// TopicSwapCL is the observed CL-pool swap topic. The resolver's
// signature-based fallback maps it to the Aerodrome CL family.
var TopicSwapCL = common.HexToHash("0x19b47279256b2a23a1665c810c8d55a1758940ee09377d4f8d26497a3577dc83")

// Well-known topic0 hashes, exported for the resolver fallback and tests.
var (
	TopicTransfer       = Topic("Transfer(address,address,uint256)")
	TopicTransferSingle = Topic("TransferSingle(address,address,address,uint256,uint256)")
	TopicTransferBatch  = Topic("TransferBatch(address,address,address,uint256[],uint256[])")
	TopicSwapV2         = Topic("Swap(address,uint256,uint256,uint256,uint256,address)")
	TopicSwapV3         = Topic("Swap(address,address,int256,int256,uint160,uint128,int24)")
	TopicSwapAero       = Topic("Swap(address,address,uint256,uint256,uint256,uint256)")
	TopicCurveExchange  = Topic("TokenExchange(address,int128,uint256,int128,uint256)")
)

// registry maps topic0 to kind. Keys are lower-case hex so lookups are
// case-insensitive; it is built once and never mutated afterwards.
var registry = buildRegistry()

func buildRegistry() map[string]Kind {
	m := make(map[string]Kind, len(canonicalSignatures)+len(observedTopics))
	for _, s := range canonicalSignatures {
		m[Topic(s.text).Hex()] = s.kind
	}
	for topic, kind := range observedTopics {
		m[common.HexToHash(topic).Hex()] = kind
	}
	return m
}

// Topic computes the keccak-256 topic0 hash of a canonical event signature.
func Topic(sig string) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	var out common.Hash
	h.Sum(out[:0])
	return out
}

// Lookup returns the kind registered for a topic0 hash, or KindOther.
func Lookup(topic0 common.Hash) Kind {
	if k, ok := registry[topic0.Hex()]; ok {
		return k
	}
	return KindOther
}

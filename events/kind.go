// Package events classifies and decodes Base log events. It owns the
// canonical event-signature registry, the (topic0, topicCount) classifier,
// and the bit-level decoders for the transfer and swap kinds the enricher
// persists as enriched rows.
package events

// Kind is the semantic classification of a log event. The set is closed:
// anything the registry does not recognize classifies as KindOther.
type Kind string

// Log event kinds.
const (
	KindERC20Transfer      Kind = "erc20_transfer"
	KindERC721Transfer     Kind = "erc721_transfer"
	KindERC1155Transfer    Kind = "erc1155_transfer"
	KindDexSwapV2          Kind = "dex_swap_v2"
	KindDexSwapV3          Kind = "dex_swap_v3"
	KindDexSwapAero        Kind = "dex_swap_aero"
	KindDexSwapCurve       Kind = "dex_swap_curve"
	KindLiquidityAdd       Kind = "liquidity_add"
	KindLiquidityRemove    Kind = "liquidity_remove"
	KindLiquidityCollect   Kind = "liquidity_collect"
	KindPoolSync           Kind = "pool_sync"
	KindPoolCreated        Kind = "pool_created"
	KindApproval           Kind = "approval"
	KindWETHWrap           Kind = "weth_wrap"
	KindWETHUnwrap         Kind = "weth_unwrap"
	KindUserOperation      Kind = "user_operation"
	KindFlashLoan          Kind = "flash_loan"
	KindRewardClaim        Kind = "reward_claim"
	KindGaugeDeposit       Kind = "gauge_deposit"
	KindGaugeWithdraw      Kind = "gauge_withdraw"
	KindVote               Kind = "vote"
	KindOwnershipChange    Kind = "ownership_change"
	KindContractUpgrade    Kind = "contract_upgrade"
	KindBridgeSend         Kind = "bridge_send"
	KindBridgeReceive      Kind = "bridge_receive"
	KindLendingSupply      Kind = "lending_supply"
	KindLendingWithdraw    Kind = "lending_withdraw"
	KindLendingBorrow      Kind = "lending_borrow"
	KindLendingRepay       Kind = "lending_repay"
	KindLendingLiquidation Kind = "lending_liquidation"
	KindOracleUpdate       Kind = "oracle_update"
	KindMultisigExec       Kind = "multisig_exec"
	KindProtocolFees       Kind = "protocol_fees"
	KindGovernance         Kind = "governance"
	KindStaking            Kind = "staking"
	KindNFTPositionMint    Kind = "nft_position_mint"
	KindNFTPositionBurn    Kind = "nft_position_burn"
	KindOther              Kind = "other"
)

// TxKind is the semantic classification of a transaction. Exactly one kind
// applies to any transaction.
type TxKind string

// Transaction kinds.
const (
	TxContractCreation TxKind = "contract_creation"
	TxEthTransfer      TxKind = "eth_transfer"
	TxContractCall     TxKind = "contract_call"
)

// SwapKinds lists the kinds that represent a DEX swap and therefore feed
// the pool resolver and the dex_swaps table.
var SwapKinds = map[Kind]bool{
	KindDexSwapV2:    true,
	KindDexSwapV3:    true,
	KindDexSwapAero:  true,
	KindDexSwapCurve: true,
}

// IsSwap reports whether the kind is one of the DEX swap variants.
func (k Kind) IsSwap() bool {
	return SwapKinds[k]
}

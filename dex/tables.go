package dex

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/baseindex/baseindex/events"
)

// DEX family names. Pools resolve to one of these, an Unknown(<factory>)
// name, or a signature-based fallback.
const (
	NameUniswapV2   = "Uniswap V2"
	NameUniswapV3   = "Uniswap V3"
	NameUniswapV4   = "Uniswap V4"
	NameAerodromeV2 = "Aerodrome V2"
	NameAerodromeCL = "Aerodrome CL"
	NameSushiSwapV2 = "SushiSwap V2"
	NameSushiSwapV3 = "SushiSwap V3"
	NamePancakeV2   = "PancakeSwap V2"
	NamePancakeV3   = "PancakeSwap V3"
	NameBaseSwap    = "BaseSwap"
	NameAlienBase   = "AlienBase"
	NameCurve       = "Curve"
	NameUnknown     = "Unknown DEX"
)

// factoryToDex maps Base mainnet factory addresses to DEX family names.
var factoryToDex = map[common.Address]string{
	common.HexToAddress("0x33128a8fC17869897dcE68Ed026d694621f6FDfD"): NameUniswapV3,
	common.HexToAddress("0x8909Dc15e40173Ff4699343b6eB8132c65e18eC6"): NameUniswapV2,
	common.HexToAddress("0x420DD381b31aEf6683db6B902084cB0FFECe40Da"): NameAerodromeV2,
	common.HexToAddress("0x5e7BB104d84c7CB9B682AaC2F3d509f5F406809A"): NameAerodromeCL,
	common.HexToAddress("0x71524B4f93c58fcbF659783284E38825f0622859"): NameSushiSwapV2,
	common.HexToAddress("0xc35DADB65012eC5796536bD9864eD8773aBc74C4"): NameSushiSwapV3,
	common.HexToAddress("0x02a84c1b3BBD7401a5f7fa98a384EBC70bB5749E"): NamePancakeV2,
	common.HexToAddress("0x0BFbCF9fa4f9C56B0F40a671Ad40E0805A091865"): NamePancakeV3,
	common.HexToAddress("0xFDa619b6d20975be80A10332cD39b9a4b0FAa8BB"): NameBaseSwap,
	common.HexToAddress("0x3E84D913803b02A4a7f027165E8cA42C14C0FdE7"): NameAlienBase,
}

// singletons are non-factory swap venues that resolve directly by the
// emitting address.
var singletons = map[common.Address]string{
	// Uniswap V4 PoolManager: every V4 pool emits from this one address.
	common.HexToAddress("0x498581fF718922c3f8e6A244956aF099B2652b2b"): NameUniswapV4,
}

// curvePools is the curated set of Curve pools on Base; Curve pools expose
// no factory() view, so they resolve by address.
var curvePools = map[common.Address]bool{
	common.HexToAddress("0x6e53131F68a034873b6bFA15502aF094Ef0c5854"): true, // tricrypto
	common.HexToAddress("0xf6C5F01C7F3148891ad0e19DF78743D31E390D1f"): true, // 4pool
	common.HexToAddress("0x9AaF9D97b00fe4B435c3b3e0D4f3C7C22B4f1EE7"): true, // crvUSD/USDC
}

// FallbackName picks a family from the swap signature when no cache entry
// or factory resolution exists yet.
func FallbackName(topic0 common.Hash) string {
	switch topic0 {
	case events.TopicCurveExchange:
		return NameCurve
	case events.TopicSwapCL:
		return NameAerodromeCL
	default:
		return NameUnknown
	}
}

package store

// SeedLabelSet is the curated Base mainnet label set inserted at startup.
// Addresses are lower-case hex, matching every other persisted address.
var SeedLabelSet = []Label{
	// OP Stack predeploys.
	{"0x4200000000000000000000000000000000000006", "WETH", "token", "Canonical"},
	{"0x4200000000000000000000000000000000000007", "L2CrossDomainMessenger", "bridge", "OP Stack"},
	{"0x4200000000000000000000000000000000000010", "L2StandardBridge", "bridge", "OP Stack"},
	{"0x4200000000000000000000000000000000000016", "L2ToL1MessagePasser", "bridge", "OP Stack"},
	{"0x420000000000000000000000000000000000000f", "GasPriceOracle", "system", "OP Stack"},

	// Major tokens.
	{"0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", "USDC", "token", "Circle"},
	{"0x50c5725949a6f0c72e6c4a641f24049a917db0cb", "DAI", "token", "MakerDAO"},
	{"0x2ae3f1ec7f1f5012cfeab0185bfc7aa3cf0dec22", "cbETH", "token", "Coinbase"},
	{"0xd9aaec86b65d86f6a7b5b1b0c42ffa531710b6ca", "USDbC", "token", "Circle"},
	{"0x940181a94a35a4569e4529a3cdfb74e38fd98631", "AERO", "token", "Aerodrome"},

	// DEX infrastructure.
	{"0x33128a8fc17869897dce68ed026d694621f6fdfd", "UniswapV3Factory", "dex", "Uniswap V3"},
	{"0x8909dc15e40173ff4699343b6eb8132c65e18ec6", "UniswapV2Factory", "dex", "Uniswap V2"},
	{"0x3fc91a3afd70395cd496c647d5a6cc9d4b2b7fad", "UniversalRouter", "dex", "Uniswap"},
	{"0x498581ff718922c3f8e6a244956af099b2652b2b", "PoolManager", "dex", "Uniswap V4"},
	{"0x420dd381b31aef6683db6b902084cb0ffece40da", "AerodromePoolFactory", "dex", "Aerodrome V2"},
	{"0x5e7bb104d84c7cb9b682aac2f3d509f5f406809a", "AerodromeCLFactory", "dex", "Aerodrome CL"},
	{"0xcf77a3ba9a5ca399b7c97c74d54e5b1beb874e43", "AerodromeRouter", "dex", "Aerodrome"},

	// Account abstraction.
	{"0x5ff137d4b0fdcd49dca30c7cf57e578a026d2789", "EntryPoint v0.6", "aa", "ERC-4337"},
	{"0x0000000071727de22e5e9d8baf0edac6f37da032", "EntryPoint v0.7", "aa", "ERC-4337"},
}

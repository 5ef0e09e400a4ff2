package stats

import (
	"strings"
	"testing"

	"github.com/baseindex/baseindex/store"
)

func TestRender(t *testing.T) {
	ws := &store.WindowStats{
		FromBlock: 97, ToBlock: 100, Blocks: 4,
		Txs: 40, Logs: 200, TotalGasUsed: 840000,
		Transfers: 30, NFTTransfers: 2, Swaps: 12, Deployments: 1,
		EventKinds: []store.KindCount{
			{Kind: "erc20_transfer", Count: 30},
			{Kind: "dex_swap_v3", Count: 12},
		},
		TopContracts: []store.NamedCount{
			{Name: "WETH", Count: 80},
			{Name: "0x3333333333333333333333333333333333333333", Count: 20},
		},
		SwapsByDex: []store.NamedCount{
			{Name: "Uniswap V3", Count: 9},
			{Name: "Aerodrome V2", Count: 3},
		},
	}

	var sb strings.Builder
	if err := Render(&sb, ws); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"blocks 97-100 (4 indexed)",
		"transactions",
		"erc20_transfer",
		"dex_swap_v3",
		"WETH",
		"Uniswap V3",
		"Aerodrome V2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// Ranked sections preserve store ordering.
	if strings.Index(out, "Uniswap V3") > strings.Index(out, "Aerodrome V2") {
		t.Errorf("dex ranking out of order:\n%s", out)
	}
}

func TestRenderEmptyWindow(t *testing.T) {
	var sb strings.Builder
	if err := Render(&sb, &store.WindowStats{FromBlock: 0, ToBlock: 0}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := sb.String()
	if strings.Contains(out, "event kinds") {
		t.Errorf("empty window printed sections:\n%s", out)
	}
}

// Package stats renders the trailing-window aggregates as a plain-text
// report for the stats command.
package stats

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/baseindex/baseindex/store"
)

// Render writes the report for one window to w.
func Render(w io.Writer, ws *store.WindowStats) error {
	fmt.Fprintf(w, "blocks %d-%d (%d indexed)\n\n", ws.FromBlock, ws.ToBlock, ws.Blocks)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "transactions\t%d\n", ws.Txs)
	fmt.Fprintf(tw, "logs\t%d\n", ws.Logs)
	fmt.Fprintf(tw, "gas used\t%d\n", ws.TotalGasUsed)
	fmt.Fprintf(tw, "token transfers\t%d\n", ws.Transfers)
	fmt.Fprintf(tw, "nft transfers\t%d\n", ws.NFTTransfers)
	fmt.Fprintf(tw, "dex swaps\t%d\n", ws.Swaps)
	fmt.Fprintf(tw, "deployments\t%d\n", ws.Deployments)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(ws.EventKinds) > 0 {
		fmt.Fprintf(w, "\nevent kinds\n")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, kc := range ws.EventKinds {
			fmt.Fprintf(tw, "  %s\t%d\n", kc.Kind, kc.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(ws.TopContracts) > 0 {
		fmt.Fprintf(w, "\ntop contracts by logs\n")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, nc := range ws.TopContracts {
			fmt.Fprintf(tw, "  %s\t%d\n", nc.Name, nc.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(ws.SwapsByDex) > 0 {
		fmt.Fprintf(w, "\nswaps by dex\n")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, nc := range ws.SwapsByDex {
			fmt.Fprintf(tw, "  %s\t%d\n", nc.Name, nc.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/chidi150c/backtrader/internal/broker"
)

// printReport renders a one-shot end-of-run summary: account totals and the
// per-instrument trade ledger (open and closed trades), in the corpus's
// console-table style.
func printReport(bro *broker.Broker, dataRef string) {
	fmt.Printf("\nfinal cash: $%.2f   final value: $%.2f\n", bro.GetCash(), bro.GetValue())

	trades := bro.Trades(dataRef)
	if len(trades) == 0 {
		fmt.Println("no trades recorded")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Data", "Size", "Entry", "PnL", "PnL (net)", "Status")

	for i, t := range trades {
		table.Append(
			fmt.Sprintf("%d", i+1),
			t.DataRef,
			fmt.Sprintf("%.4f", t.Size),
			fmt.Sprintf("%.4f", t.EntryPrice),
			fmt.Sprintf("%.4f", t.PnL),
			fmt.Sprintf("%.4f", t.PnLComm),
			t.Status.String(),
		)
	}

	table.Render()
}

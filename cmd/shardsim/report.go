package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/shardnet/shardsim/model"
	"github.com/shardnet/shardsim/params"
)

// printReport renders the end-of-run per-shard table with a totals footer and
// a one-line verdict.
func printReport(w io.Writer, reports []model.ShardReport) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"SHARD", "GAS BURNT", "TXS", "EXECUTED", "FORWARDED", "BUFFERED GAS", "BACKLOG GAS", "IN CONG", "OUT CONG"})

	var burnt, txs, executed, forwarded, buffered, backlog uint64
	for _, r := range reports {
		table.Append([]string{
			fmt.Sprintf("%d", r.Shard),
			gasString(r.Stats.GasBurnt),
			fmt.Sprintf("%d", r.Stats.TxAccepted),
			fmt.Sprintf("%d", r.Stats.ReceiptsExecuted),
			fmt.Sprintf("%d", r.Stats.ReceiptsForwarded),
			gasString(r.OutgoingBufferedGas),
			gasString(r.IncomingBacklogGas),
			fmt.Sprintf("%.2f", r.FinalCongestion.IncomingCongestion),
			fmt.Sprintf("%.2f", r.FinalCongestion.OutgoingCongestion),
		})
		burnt += r.Stats.GasBurnt
		txs += r.Stats.TxAccepted
		executed += r.Stats.ReceiptsExecuted
		forwarded += r.Stats.ReceiptsForwarded
		buffered += r.OutgoingBufferedGas
		backlog += r.IncomingBacklogGas
	}
	table.SetFooter([]string{
		"TOTAL",
		gasString(burnt),
		fmt.Sprintf("%d", txs),
		fmt.Sprintf("%d", executed),
		fmt.Sprintf("%d", forwarded),
		gasString(buffered),
		gasString(backlog),
		"", "",
	})
	table.Render()

	congested := 0
	for _, r := range reports {
		if r.FinalCongestion.OutgoingCongestion > params.GlobalStopThreshold {
			congested++
		}
	}
	if congested > 0 {
		color.New(color.FgRed).Fprintf(w, "%d shard(s) ended over the global stop threshold\n", congested)
	} else {
		color.New(color.FgGreen).Fprintln(w, "all shards ended below the global stop threshold")
	}
}

// gasString renders a GGas amount in its largest sensible denomination.
func gasString(gas uint64) string {
	switch {
	case gas >= params.PGas:
		return fmt.Sprintf("%.2f PGas", float64(gas)/float64(params.PGas))
	case gas >= params.TGas:
		return fmt.Sprintf("%.2f TGas", float64(gas)/float64(params.TGas))
	default:
		return fmt.Sprintf("%d GGas", gas)
	}
}

package model

// ShardSummary is the per-shard slice of a block summary. Gas values are for
// the one chunk, not cumulative.
type ShardSummary struct {
	Shard               ShardID `json:"shard"`
	GasBurnt            uint64  `json:"gasBurnt"`
	ReceiptsForwarded   int     `json:"receiptsForwarded"`
	IncomingBacklogGas  uint64  `json:"incomingBacklogGas"`
	IncomingBacklogLen  int     `json:"incomingBacklogLen"`
	OutgoingBufferedGas uint64  `json:"outgoingBufferedGas"`
	OutgoingBufferedLen int     `json:"outgoingBufferedLen"`
	IncomingCongestion  float64 `json:"incomingCongestion"`
	OutgoingCongestion  float64 `json:"outgoingCongestion"`
}

// BlockSummary is the observable outcome of one block across all shards,
// published on the simulator's summary feed after delivery.
type BlockSummary struct {
	Height uint64         `json:"height"`
	Shards []ShardSummary `json:"shards"`
}

func (b *BlockSummary) totalForwarded() int {
	var n int
	for _, s := range b.Shards {
		n += s.ReceiptsForwarded
	}
	return n
}

func (s *Simulator) summarize(cur BlockInfo, burnt []uint64, forwarded []int) *BlockSummary {
	summary := &BlockSummary{Height: s.height}
	for i, shard := range s.shards {
		gas, _, length := s.outgoingTotals(shard)
		info := cur[shard]
		summary.Shards = append(summary.Shards, ShardSummary{
			Shard:               shard,
			GasBurnt:            burnt[i],
			ReceiptsForwarded:   forwarded[i],
			IncomingBacklogGas:  s.incoming[shard].AttachedGas(),
			IncomingBacklogLen:  s.incoming[shard].Len(),
			OutgoingBufferedGas: gas,
			OutgoingBufferedLen: length,
			IncomingCongestion:  info.IncomingCongestion,
			OutgoingCongestion:  info.OutgoingCongestion,
		})
	}
	return summary
}

// ShardReport combines a shard's cumulative stats with its end-of-run queue
// state.
type ShardReport struct {
	Shard               ShardID
	Stats               ShardStats
	IncomingBacklogGas  uint64
	IncomingBacklogLen  int
	OutgoingBufferedGas uint64
	OutgoingBufferedLen int
	FinalCongestion     CongestionInfo
}

// Report returns the end-of-run state of every shard, in shard-id order.
func (s *Simulator) Report() []ShardReport {
	reports := make([]ShardReport, 0, len(s.shards))
	for _, shard := range s.shards {
		gas, _, length := s.outgoingTotals(shard)
		reports = append(reports, ShardReport{
			Shard:               shard,
			Stats:               *s.stats[shard],
			IncomingBacklogGas:  s.incoming[shard].AttachedGas(),
			IncomingBacklogLen:  s.incoming[shard].Len(),
			OutgoingBufferedGas: gas,
			OutgoingBufferedLen: length,
			FinalCongestion:     s.prevInfo[shard],
		})
	}
	return reports
}

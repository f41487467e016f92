package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/metrics"
)

var receiptsForwardedMeter = metrics.NewRegisteredMeter("sim/receipts/forwarded", nil)

type shardGauges struct {
	incomingCongestion metrics.GaugeFloat64
	outgoingCongestion metrics.GaugeFloat64
	incomingBacklogGas metrics.Gauge
	outgoingBufferGas  metrics.Gauge
}

var gaugesByShard = make(map[ShardID]*shardGauges)

func gaugesFor(shard ShardID) *shardGauges {
	if g, ok := gaugesByShard[shard]; ok {
		return g
	}
	prefix := fmt.Sprintf("sim/shard/%d/", shard)
	g := &shardGauges{
		incomingCongestion: metrics.NewRegisteredGaugeFloat64(prefix+"congestion/incoming", nil),
		outgoingCongestion: metrics.NewRegisteredGaugeFloat64(prefix+"congestion/outgoing", nil),
		incomingBacklogGas: metrics.NewRegisteredGauge(prefix+"backlog/gas", nil),
		outgoingBufferGas:  metrics.NewRegisteredGauge(prefix+"buffered/gas", nil),
	}
	gaugesByShard[shard] = g
	return g
}

func (s *Simulator) updateMetrics(summary *BlockSummary) {
	if !metrics.Enabled {
		return
	}
	for _, shard := range summary.Shards {
		g := gaugesFor(shard.Shard)
		g.incomingCongestion.Update(shard.IncomingCongestion)
		g.outgoingCongestion.Update(shard.OutgoingCongestion)
		g.incomingBacklogGas.Update(int64(shard.IncomingBacklogGas))
		g.outgoingBufferGas.Update(int64(shard.OutgoingBufferedGas))
	}
}

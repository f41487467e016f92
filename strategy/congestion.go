package strategy

import (
	"fmt"
	"math"

	"github.com/shardnet/shardsim/model"
	"github.com/shardnet/shardsim/params"
)

// mix linearly blends between x (at a=0) and y (at a=1), rounding to the
// nearest integer. Inputs are already bounded by the callers, so no
// saturation is needed beyond the endpoints.
func mix(x, y uint64, a float64) (uint64, error) {
	if a < 0 || a > 1 || math.IsNaN(a) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCongestion, a)
	}
	return uint64(math.Round(float64(x)*(1-a) + float64(y)*a)), nil
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

// incomingCongestion measures the gas backlog of receipts awaiting local
// execution against the protocol cap.
func (s *Backpressure) incomingCongestion(ctx model.ChunkExecutionContext) float64 {
	backlog := float64(ctx.IncomingReceipts().AttachedGas())
	return clamp01(backlog / float64(params.MaxIncomingCongestionGas))
}

// outgoingCongestion is the load of this shard's outgoing buffers: whichever
// of memory and gas pressure is worse.
func (s *Backpressure) outgoingCongestion(ctx model.ChunkExecutionContext) float64 {
	return math.Max(s.memoryCongestion(ctx), s.gasCongestion(ctx))
}

// memoryCongestion measures the byte footprint of all outgoing buffers
// against the protocol cap.
func (s *Backpressure) memoryCongestion(ctx model.ChunkExecutionContext) float64 {
	var size uint64
	for _, peer := range s.otherShards {
		size += ctx.Queue(s.outgoingQueues[peer]).Size()
	}
	return clamp01(float64(size) / float64(params.MaxOutgoingMemory))
}

// gasCongestion measures the attached gas buffered across all outgoing
// queues against the protocol cap.
func (s *Backpressure) gasCongestion(ctx model.ChunkExecutionContext) float64 {
	var backlog uint64
	for _, peer := range s.otherShards {
		backlog += ctx.Queue(s.outgoingQueues[peer]).AttachedGas()
	}
	return clamp01(float64(backlog) / float64(params.MaxOutgoingCongestionGas))
}

package strategy

import (
	"fmt"

	"github.com/shardnet/shardsim/model"
	"github.com/shardnet/shardsim/params"
)

// Passthrough is the no-control baseline: it admits every pool transaction
// and forwards every produced receipt immediately, bounded only by the chunk
// gas limit. Useful as a comparison run to see what the backpressure
// strategy actually buys.
type Passthrough struct {
	shardID     model.ShardID
	initialized bool
}

// NewPassthrough returns an uninitialized baseline strategy.
func NewPassthrough() *Passthrough {
	return new(Passthrough)
}

// Init binds the strategy to its shard. No queues are registered; nothing is
// ever buffered.
func (s *Passthrough) Init(id model.ShardID, allShards []model.ShardID, factory model.QueueFactory) error {
	for _, shard := range allShards {
		if shard == id {
			s.shardID = id
			s.initialized = true
			return nil
		}
	}
	return fmt.Errorf("%w: own shard %d not in shard set", ErrUnknownShard, id)
}

// ComputeChunk admits, executes and forwards with no throttling beyond the
// chunk gas limit.
func (s *Passthrough) ComputeChunk(ctx model.ChunkExecutionContext) error {
	if !s.initialized {
		return ErrUninitialized
	}
	for ctx.GasBurnt() < ctx.GasLimit() {
		tx := ctx.IncomingTransactions().PopFront()
		if tx == nil {
			break
		}
		for _, r := range ctx.AcceptTransaction(tx) {
			ctx.ForwardReceipt(r)
		}
	}
	for ctx.GasBurnt() < ctx.GasLimit() {
		r := ctx.IncomingReceipts().PopFront()
		if r == nil {
			break
		}
		for _, out := range ctx.ExecuteReceipt(r) {
			ctx.ForwardReceipt(out)
		}
	}
	backlog := float64(ctx.IncomingReceipts().AttachedGas())
	ctx.CurrentBlockInfo()[s.shardID] = model.CongestionInfo{
		IncomingCongestion: clamp01(backlog / float64(params.MaxIncomingCongestionGas)),
	}
	return nil
}

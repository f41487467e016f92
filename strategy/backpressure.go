package strategy

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/log"

	"github.com/shardnet/shardsim/model"
	"github.com/shardnet/shardsim/params"
)

// Backpressure is the buffering congestion strategy. Each chunk it rebuilds
// per-destination send limits from peer-reported incoming congestion, drains
// its outgoing buffers up to those limits, admits pool transactions gated by
// its own backlog and by peer outgoing congestion, executes incoming receipts
// up to the chunk gas limit, and publishes fresh congestion info for the next
// block.
//
// Peer info is always read from the previous block, never the current one, so
// chunk scheduling order within a height cannot influence decisions.
type Backpressure struct {
	shardID     model.ShardID
	allShards   []model.ShardID // ascending
	otherShards []model.ShardID // ascending, self excluded
	initialized bool

	// One buffer queue per peer shard, registered at Init.
	outgoingQueues map[model.ShardID]model.QueueID

	// Remaining per-destination gas budget; rebuilt every chunk, decremented
	// by the attached gas of each receipt actually forwarded.
	outgoingGasLimit map[model.ShardID]uint64
}

// NewBackpressure returns an uninitialized strategy; the host calls Init once
// before the first chunk.
func NewBackpressure() *Backpressure {
	return &Backpressure{
		outgoingQueues:   make(map[model.ShardID]model.QueueID),
		outgoingGasLimit: make(map[model.ShardID]uint64),
	}
}

// Init binds the strategy to its shard and registers one outgoing buffer per
// peer. Queue names are deterministic so trace dumps stay stable across runs.
func (s *Backpressure) Init(id model.ShardID, allShards []model.ShardID, factory model.QueueFactory) error {
	if len(allShards) == 0 {
		return fmt.Errorf("%w: empty shard set", ErrUnknownShard)
	}
	s.shardID = id
	s.allShards = append([]model.ShardID(nil), allShards...)
	sort.Slice(s.allShards, func(i, j int) bool { return s.allShards[i] < s.allShards[j] })
	if !s.knownShard(id) {
		return fmt.Errorf("%w: own shard %d not in shard set", ErrUnknownShard, id)
	}
	for _, shard := range s.allShards {
		if shard == id {
			continue
		}
		s.otherShards = append(s.otherShards, shard)
		name := fmt.Sprintf("outgoing_receipts_%d", shard)
		s.outgoingQueues[shard] = factory.RegisterQueue(id, name)
	}
	s.initialized = true
	return nil
}

// ComputeChunk runs the six-step chunk pipeline. Residual incoming receipts
// simply stay queued for the next chunk, so no explicit step is needed
// between executing receipts and publishing congestion info.
func (s *Backpressure) ComputeChunk(ctx model.ChunkExecutionContext) error {
	if !s.initialized {
		return ErrUninitialized
	}
	if err := s.initSendLimit(ctx); err != nil {
		return err
	}
	if err := s.drainOutgoing(ctx); err != nil {
		return err
	}
	if err := s.admitTransactions(ctx); err != nil {
		return err
	}
	if err := s.executeIncoming(ctx); err != nil {
		return err
	}
	s.publishCongestion(ctx)
	return nil
}

// initSendLimit rebuilds the per-destination gas budget table from the peers'
// previously published incoming congestion. Budget unused in the last chunk
// is discarded, not rolled over.
func (s *Backpressure) initSendLimit(ctx model.ChunkExecutionContext) error {
	s.outgoingGasLimit = make(map[model.ShardID]uint64, len(s.otherShards))
	for _, peer := range s.otherShards {
		info := s.peerInfo(ctx, peer)
		limit, err := mix(params.MaxSendLimit, params.MinSendLimit, info.IncomingCongestion)
		if err != nil {
			return err
		}
		s.outgoingGasLimit[peer] = limit
	}
	return nil
}

// drainOutgoing forwards buffered receipts from previous chunks, per
// destination, until the front receipt would exceed the remaining budget.
// Receipts are indivisible, so a large receipt at the front blocks the queue
// even if later ones would fit.
func (s *Backpressure) drainOutgoing(ctx model.ChunkExecutionContext) error {
	for _, peer := range s.otherShards {
		limit, ok := s.outgoingGasLimit[peer]
		if !ok {
			return fmt.Errorf("%w: %d", ErrMissingSendLimit, peer)
		}
		queue := ctx.Queue(s.outgoingQueues[peer])
		for {
			front := queue.Front()
			if front == nil || front.AttachedGas > limit {
				break
			}
			r := queue.PopFront()
			limit -= r.AttachedGas
			ctx.ForwardReceipt(r)
		}
		s.outgoingGasLimit[peer] = limit
	}
	return nil
}

// admitTransactions converts pool transactions into receipts, bounded by a
// gas ceiling interpolated from the local incoming backlog and guarded by the
// global and per-receiver stop predicates. Note that a tripped filter stop
// ends admission for the whole chunk, not just the offending transaction, and
// that the popped transaction is dropped.
func (s *Backpressure) admitTransactions(ctx model.ChunkExecutionContext) error {
	txLimit, err := mix(params.TxGasCeiling, params.TxGasFloor, s.incomingCongestion(ctx))
	if err != nil {
		return err
	}
	for ctx.GasBurnt() < txLimit {
		tx := ctx.IncomingTransactions().PopFront()
		if tx == nil {
			break
		}
		if s.globalStop(ctx) {
			break
		}
		if s.filterStop(ctx, tx) {
			break
		}
		for _, r := range ctx.AcceptTransaction(tx) {
			if err := s.forwardOrBuffer(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// executeIncoming burns through the incoming receipt backlog up to the chunk
// gas limit. Unlike admission this is never throttled by congestion:
// cross-shard receipts already in flight must make progress.
func (s *Backpressure) executeIncoming(ctx model.ChunkExecutionContext) error {
	for ctx.GasBurnt() < ctx.GasLimit() {
		r := ctx.IncomingReceipts().PopFront()
		if r == nil {
			break
		}
		for _, out := range ctx.ExecuteReceipt(r) {
			if err := s.forwardOrBuffer(ctx, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// publishCongestion stores this shard's congestion snapshot into the current
// block info, computed after all queue mutations of this chunk.
func (s *Backpressure) publishCongestion(ctx model.ChunkExecutionContext) {
	info := model.CongestionInfo{
		IncomingCongestion: s.incomingCongestion(ctx),
		OutgoingCongestion: s.outgoingCongestion(ctx),
	}
	log.Debug("chunk congestion", "shard", s.shardID,
		"incoming", fmt.Sprintf("%.2f", info.IncomingCongestion),
		"outgoing", fmt.Sprintf("%.2f", info.OutgoingCongestion))
	ctx.CurrentBlockInfo()[s.shardID] = info
}

// forwardOrBuffer dispatches one locally produced receipt. Receipts to self
// bypass the limit table entirely; receipts that fit the remaining budget are
// forwarded and debited; the rest are buffered for a later chunk.
func (s *Backpressure) forwardOrBuffer(ctx model.ChunkExecutionContext, r *model.Receipt) error {
	if r.Receiver == s.shardID {
		ctx.ForwardReceipt(r)
		return nil
	}
	limit, ok := s.outgoingGasLimit[r.Receiver]
	if !ok {
		if !s.knownShard(r.Receiver) {
			return fmt.Errorf("%w: %d", ErrUnknownShard, r.Receiver)
		}
		return fmt.Errorf("%w: %d", ErrMissingSendLimit, r.Receiver)
	}
	if r.AttachedGas > limit {
		ctx.Queue(s.outgoingQueues[r.Receiver]).PushBack(r)
		return nil
	}
	s.outgoingGasLimit[r.Receiver] = limit - r.AttachedGas
	ctx.ForwardReceipt(r)
	return nil
}

// globalStop reports whether any shard published outgoing congestion beyond
// the global threshold, in which case no shard admits transactions this
// block.
func (s *Backpressure) globalStop(ctx model.ChunkExecutionContext) bool {
	for _, shard := range s.allShards {
		if s.peerInfo(ctx, shard).OutgoingCongestion > params.GlobalStopThreshold {
			return true
		}
	}
	return false
}

// filterStop reports whether the transaction's receiver shard is too
// congested to take new traffic.
func (s *Backpressure) filterStop(ctx model.ChunkExecutionContext, tx *model.Transaction) bool {
	receiver := ctx.TxReceiver(tx)
	return s.peerInfo(ctx, receiver).OutgoingCongestion > params.FilterStopThreshold
}

// peerInfo reads a shard's snapshot from the previous block. A shard that
// published nothing is treated as uncongested.
func (s *Backpressure) peerInfo(ctx model.ChunkExecutionContext, shard model.ShardID) model.CongestionInfo {
	info, ok := ctx.PrevBlockInfo()[shard]
	if !ok {
		return model.CongestionInfo{}
	}
	return info
}

func (s *Backpressure) knownShard(shard model.ShardID) bool {
	for _, known := range s.allShards {
		if known == shard {
			return true
		}
	}
	return false
}

package model

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"

	"github.com/shardnet/shardsim/params"
)

// Config holds the host parameters of one simulation run.
type Config struct {
	Shards        uint64 `toml:",omitempty"`
	Blocks        uint64 `toml:",omitempty"`
	Seed          int64  `toml:",omitempty"`
	Workload      string `toml:",omitempty"`
	TxPerShard    int    `toml:",omitempty"`
	ChunkGasLimit uint64 `toml:",omitempty"`
}

// DefaultConfig is the default host configuration.
var DefaultConfig = Config{
	Shards:        4,
	Blocks:        100,
	Seed:          42,
	Workload:      "balanced",
	TxPerShard:    10,
	ChunkGasLimit: params.ChunkGasLimit,
}

// Simulator owns the queues, gas metering and receipt delivery of a run. One
// congestion strategy instance exists per shard; the simulator drives them in
// ascending shard-id order, one chunk per shard per block.
type Simulator struct {
	cfg        Config
	shards     []ShardID
	strategies []CongestionStrategy
	workload   Workload

	queues   []*Queue             // all factory-registered queues, by QueueID
	owned    map[ShardID][]*Queue // factory-registered queues grouped by owner
	incoming map[ShardID]*Queue   // per-shard incoming receipt queues

	height    uint64
	prevInfo  BlockInfo
	stats     map[ShardID]*ShardStats
	txCounter uint64
	rcCounter uint64

	feed  event.Feed
	scope event.SubscriptionScope
}

// ShardStats are cumulative per-shard totals over a whole run.
type ShardStats struct {
	GasBurnt          uint64
	TxAccepted        uint64
	ReceiptsExecuted  uint64
	ReceiptsForwarded uint64
}

// New wires up a simulator: it creates one strategy per shard via newStrategy
// and initializes each against the full shard set and the simulator's queue
// factory.
func New(cfg Config, w Workload, newStrategy func() CongestionStrategy) (*Simulator, error) {
	if cfg.Shards == 0 {
		return nil, errors.New("model: shard count must be at least one")
	}
	if cfg.ChunkGasLimit == 0 {
		cfg.ChunkGasLimit = params.ChunkGasLimit
	}
	sim := &Simulator{
		cfg:      cfg,
		workload: w,
		owned:    make(map[ShardID][]*Queue),
		incoming: make(map[ShardID]*Queue),
		prevInfo: make(BlockInfo),
		stats:    make(map[ShardID]*ShardStats),
	}
	for id := uint64(0); id < cfg.Shards; id++ {
		sim.shards = append(sim.shards, ShardID(id))
	}
	for _, shard := range sim.shards {
		sim.incoming[shard] = NewQueue(shard, "incoming_receipts")
		sim.stats[shard] = new(ShardStats)
		strategy := newStrategy()
		if err := strategy.Init(shard, sim.shards, sim); err != nil {
			return nil, fmt.Errorf("model: init strategy for shard %d: %w", shard, err)
		}
		sim.strategies = append(sim.strategies, strategy)
	}
	return sim, nil
}

// RegisterQueue implements QueueFactory.
func (s *Simulator) RegisterQueue(owner ShardID, name string) QueueID {
	q := NewQueue(owner, name)
	id := QueueID(len(s.queues))
	s.queues = append(s.queues, q)
	s.owned[owner] = append(s.owned[owner], q)
	return id
}

// instantiate materializes receipt specs into receipts with fresh ids.
func (s *Simulator) instantiate(specs []ReceiptSpec) []*Receipt {
	receipts := make([]*Receipt, 0, len(specs))
	for _, spec := range specs {
		s.rcCounter++
		receipts = append(receipts, &Receipt{
			ID:           ReceiptID(s.rcCounter),
			Receiver:     spec.Receiver,
			AttachedGas:  spec.AttachedGas,
			ExecutionGas: spec.ExecutionGas,
			Size:         spec.Size,
			Out:          spec.Out,
		})
	}
	return receipts
}

func (s *Simulator) newTransaction(spec TxSpec) *Transaction {
	s.txCounter++
	return &Transaction{
		ID:            TxID(s.txCounter),
		Receiver:      spec.Receiver,
		ConversionGas: spec.ConversionGas,
		Out:           spec.Out,
	}
}

// Height returns the number of blocks processed so far.
func (s *Simulator) Height() uint64 { return s.height }

// RunBlock advances the simulation by one block: every shard computes one
// chunk against the previous block's congestion info, then all forwarded
// receipts are delivered for the next height and the new info map becomes
// the previous one.
func (s *Simulator) RunBlock() (*BlockSummary, error) {
	s.height++
	cur := make(BlockInfo, len(s.shards))
	outboxes := make([][]*Receipt, len(s.shards))
	burnt := make([]uint64, len(s.shards))

	for i, shard := range s.shards {
		txs := new(TxQueue)
		for _, spec := range s.workload.Generate(s.height, shard) {
			txs.PushBack(s.newTransaction(spec))
		}
		ctx := &chunkContext{
			sim:      s,
			shard:    shard,
			gasLimit: s.cfg.ChunkGasLimit,
			incoming: s.incoming[shard],
			txs:      txs,
			prev:     s.prevInfo,
			cur:      cur,
		}
		if err := s.strategies[i].ComputeChunk(ctx); err != nil {
			return nil, fmt.Errorf("model: chunk failed at height %d shard %d: %w", s.height, shard, err)
		}
		outboxes[i] = ctx.outbox
		burnt[i] = ctx.gasBurnt

		stats := s.stats[shard]
		stats.GasBurnt += ctx.gasBurnt
		stats.TxAccepted += ctx.txAccepted
		stats.ReceiptsExecuted += ctx.receiptsExecuted
	}

	// Deliver after every shard has run, so receipts forwarded at this height
	// surface in incoming queues at the next one.
	forwarded := make([]int, len(s.shards))
	for i, shard := range s.shards {
		for _, r := range outboxes[i] {
			dst, ok := s.incoming[r.Receiver]
			if !ok {
				return nil, fmt.Errorf("model: receipt %d forwarded to unknown shard %d", r.ID, r.Receiver)
			}
			dst.PushBack(r)
		}
		forwarded[i] = len(outboxes[i])
		s.stats[shard].ReceiptsForwarded += uint64(len(outboxes[i]))
		receiptsForwardedMeter.Mark(int64(len(outboxes[i])))
	}
	s.prevInfo = cur

	summary := s.summarize(cur, burnt, forwarded)
	s.updateMetrics(summary)
	s.feed.Send(summary)
	return summary, nil
}

// Run drives the configured number of blocks.
func (s *Simulator) Run() error {
	for i := uint64(0); i < s.cfg.Blocks; i++ {
		summary, err := s.RunBlock()
		if err != nil {
			return err
		}
		log.Debug("block complete", "height", summary.Height, "forwarded", summary.totalForwarded())
	}
	return nil
}

// SubscribeSummaries subscribes to per-block summaries. The channel receives
// one summary per completed block.
func (s *Simulator) SubscribeSummaries(ch chan<- *BlockSummary) event.Subscription {
	return s.scope.Track(s.feed.Subscribe(ch))
}

// Close tears down the summary feed.
func (s *Simulator) Close() {
	s.scope.Close()
}

func (s *Simulator) outgoingTotals(shard ShardID) (gas uint64, size uint64, length int) {
	for _, q := range s.owned[shard] {
		gas += q.AttachedGas()
		size += q.Size()
		length += q.Len()
	}
	return gas, size, length
}

package model

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/shardnet/shardsim/params"
)

// Default gas attachments for generated traffic. Receipts attach more gas
// than they burn, as real transactions reserve gas for calls they may not
// make.
const (
	txConversionGas = params.TGas / 4
	receiptBaseGas  = 5 * params.TGas
	receiptGasStep  = params.TGas
	receiptSize     = 1_500
)

// Workload produces the transactions entering each shard's local pool.
// Generate is called once per (height, shard) pair, in ascending height and
// shard order; implementations may rely on that order for reproducible
// randomness.
type Workload interface {
	Generate(height uint64, shard ShardID) []TxSpec
}

// NewWorkload returns the named traffic generator, seeded from the config so
// repeated runs produce identical traffic.
func NewWorkload(cfg Config) (Workload, error) {
	if cfg.Shards == 0 {
		return nil, errors.New("workload needs at least one shard")
	}
	shards := make([]ShardID, cfg.Shards)
	for i := range shards {
		shards[i] = ShardID(i)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	switch cfg.Workload {
	case "balanced":
		return &balancedWorkload{rng: rng, shards: shards, txPerShard: cfg.TxPerShard}, nil
	case "hotspot":
		return &hotspotWorkload{rng: rng, hot: shards[0], txPerShard: cfg.TxPerShard}, nil
	case "crossword":
		if len(shards) < 2 {
			return nil, errors.New("crossword workload needs at least two shards")
		}
		return &crosswordWorkload{rng: rng, shards: shards, txPerShard: cfg.TxPerShard}, nil
	default:
		return nil, fmt.Errorf("unknown workload %q", cfg.Workload)
	}
}

func randomReceipt(rng *rand.Rand, receiver ShardID) ReceiptSpec {
	attached := receiptBaseGas + uint64(rng.Intn(16))*receiptGasStep
	return ReceiptSpec{
		Receiver:     receiver,
		AttachedGas:  attached,
		ExecutionGas: attached / 2,
		Size:         receiptSize,
	}
}

// balancedWorkload sends every shard's transactions to uniformly random
// destinations, self included.
type balancedWorkload struct {
	rng        *rand.Rand
	shards     []ShardID
	txPerShard int
}

func (w *balancedWorkload) Generate(height uint64, shard ShardID) []TxSpec {
	specs := make([]TxSpec, 0, w.txPerShard)
	for i := 0; i < w.txPerShard; i++ {
		dst := w.shards[w.rng.Intn(len(w.shards))]
		specs = append(specs, TxSpec{
			Receiver:      dst,
			ConversionGas: txConversionGas,
			Out:           []ReceiptSpec{randomReceipt(w.rng, dst)},
		})
	}
	return specs
}

// hotspotWorkload aims all traffic at shard 0, the classic congestion
// scenario.
type hotspotWorkload struct {
	rng        *rand.Rand
	hot        ShardID
	txPerShard int
}

func (w *hotspotWorkload) Generate(height uint64, shard ShardID) []TxSpec {
	specs := make([]TxSpec, 0, w.txPerShard)
	for i := 0; i < w.txPerShard; i++ {
		specs = append(specs, TxSpec{
			Receiver:      w.hot,
			ConversionGas: txConversionGas,
			Out:           []ReceiptSpec{randomReceipt(w.rng, w.hot)},
		})
	}
	return specs
}

// crosswordWorkload produces transactions whose receipts hop across shards:
// each accepted transaction starts a two-hop receipt chain around the shard
// ring, so executing one chunk's backlog creates fresh cross-shard traffic.
type crosswordWorkload struct {
	rng        *rand.Rand
	shards     []ShardID
	txPerShard int
}

func (w *crosswordWorkload) Generate(height uint64, shard ShardID) []TxSpec {
	n := uint64(len(w.shards))
	specs := make([]TxSpec, 0, w.txPerShard)
	for i := 0; i < w.txPerShard; i++ {
		first := ShardID((uint64(shard) + 1 + uint64(w.rng.Intn(int(n-1)))) % n)
		second := ShardID((uint64(first) + 1) % n)
		hop := randomReceipt(w.rng, first)
		hop.Out = []ReceiptSpec{randomReceipt(w.rng, second)}
		specs = append(specs, TxSpec{
			Receiver:      first,
			ConversionGas: txConversionGas,
			Out:           []ReceiptSpec{hop},
		})
	}
	return specs
}

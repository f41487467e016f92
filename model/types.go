// Package model implements the host side of the sharded-execution congestion
// simulator: receipt and transaction types, host-owned FIFO queues, the
// per-chunk execution context handed to congestion strategies, and the
// round-robin driver that advances all shards block by block.
package model

// ShardID identifies one shard of the simulated chain. Shards form a small
// fixed set known at construction time and are always iterated in ascending
// id order.
type ShardID uint64

// TxID identifies a pending transaction in the host's store.
type TxID uint64

// ReceiptID identifies a receipt in the host's store.
type ReceiptID uint64

// ReceiptSpec describes a receipt that comes into existence when its parent
// transaction is accepted or its parent receipt is executed. Gas amounts are
// in GGas, sizes in bytes.
type ReceiptSpec struct {
	Receiver     ShardID
	AttachedGas  uint64
	ExecutionGas uint64
	Size         uint64
	Out          []ReceiptSpec
}

// Receipt is a unit of cross-shard or local work with a destination shard and
// an attached gas budget. Executing it burns ExecutionGas and instantiates
// the receipts described by Out.
type Receipt struct {
	ID           ReceiptID
	Receiver     ShardID
	AttachedGas  uint64
	ExecutionGas uint64
	Size         uint64
	Out          []ReceiptSpec
}

// TxSpec describes a transaction entering a shard's local pool. Accepting it
// burns ConversionGas and instantiates the receipts described by Out.
type TxSpec struct {
	Receiver      ShardID
	ConversionGas uint64
	Out           []ReceiptSpec
}

// Transaction is a pool transaction offered to a shard for admission.
type Transaction struct {
	ID            TxID
	Receiver      ShardID
	ConversionGas uint64
	Out           []ReceiptSpec
}

// CongestionInfo is the per-shard congestion snapshot a strategy publishes
// into its chunk's block info for peers to read one block later. Both values
// are clamped to [0,1] before publication.
type CongestionInfo struct {
	IncomingCongestion float64 `json:"incomingCongestion"`
	OutgoingCongestion float64 `json:"outgoingCongestion"`
}

// BlockInfo holds the congestion snapshots published by each shard at one
// block height.
type BlockInfo map[ShardID]CongestionInfo

// QueueFactory registers host-owned receipt queues. Strategies call it once
// per peer shard during Init; the returned handles stay valid for the whole
// run.
type QueueFactory interface {
	RegisterQueue(owner ShardID, name string) QueueID
}

// ChunkExecutionContext is the single interface a congestion strategy
// consumes while computing one chunk. All gas accounting happens behind it:
// AcceptTransaction and ExecuteReceipt debit GasBurnt, ForwardReceipt does
// not.
type ChunkExecutionContext interface {
	// Queue borrows a FIFO previously registered through the queue factory.
	Queue(id QueueID) *Queue
	// ForwardReceipt hands a receipt off for delivery to its receiver shard
	// at the next block height.
	ForwardReceipt(r *Receipt)
	// IncomingReceipts is the merged FIFO of receipts awaiting execution on
	// this shard.
	IncomingReceipts() *Queue
	// IncomingTransactions is the per-chunk FIFO of local pool transactions.
	IncomingTransactions() *TxQueue
	// AcceptTransaction converts a transaction into its initial outgoing
	// receipts, debiting GasBurnt by the conversion cost.
	AcceptTransaction(tx *Transaction) []*Receipt
	// ExecuteReceipt executes a receipt, debiting GasBurnt by its execution
	// cost, and returns the outgoing receipts it produced.
	ExecuteReceipt(r *Receipt) []*Receipt
	// GasBurnt is the cumulative executable gas spent in this chunk.
	GasBurnt() uint64
	// GasLimit is the host-configured executable gas ceiling of one chunk.
	GasLimit() uint64
	// TxReceiver reports the destination shard of a pending transaction.
	TxReceiver(tx *Transaction) ShardID
	// PrevBlockInfo is the congestion info published by every shard at the
	// previous height. Shards that did not publish are absent.
	PrevBlockInfo() BlockInfo
	// CurrentBlockInfo is this height's info map; the strategy writes its own
	// snapshot under its shard id.
	CurrentBlockInfo() BlockInfo
}

// CongestionStrategy decides, for one shard, how much work a chunk admits,
// executes and forwards. Implementations keep per-shard state between chunks
// but share nothing across shards beyond the one-block-delayed block info.
type CongestionStrategy interface {
	Init(id ShardID, allShards []ShardID, factory QueueFactory) error
	ComputeChunk(ctx ChunkExecutionContext) error
}

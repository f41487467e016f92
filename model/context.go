package model

// chunkContext is the host's ChunkExecutionContext implementation, built
// fresh for every (shard, height) pair. Forwarded receipts accumulate in the
// outbox and are delivered by the driver after the whole height completes,
// which keeps shard execution order at one height irrelevant.
type chunkContext struct {
	sim      *Simulator
	shard    ShardID
	gasLimit uint64
	gasBurnt uint64

	incoming *Queue
	txs      *TxQueue
	prev     BlockInfo
	cur      BlockInfo

	outbox []*Receipt

	txAccepted       uint64
	receiptsExecuted uint64
}

func (c *chunkContext) Queue(id QueueID) *Queue {
	return c.sim.queues[id]
}

func (c *chunkContext) ForwardReceipt(r *Receipt) {
	c.outbox = append(c.outbox, r)
}

func (c *chunkContext) IncomingReceipts() *Queue {
	return c.incoming
}

func (c *chunkContext) IncomingTransactions() *TxQueue {
	return c.txs
}

func (c *chunkContext) AcceptTransaction(tx *Transaction) []*Receipt {
	c.gasBurnt += tx.ConversionGas
	c.txAccepted++
	return c.sim.instantiate(tx.Out)
}

func (c *chunkContext) ExecuteReceipt(r *Receipt) []*Receipt {
	c.gasBurnt += r.ExecutionGas
	c.receiptsExecuted++
	return c.sim.instantiate(r.Out)
}

func (c *chunkContext) GasBurnt() uint64 { return c.gasBurnt }

func (c *chunkContext) GasLimit() uint64 { return c.gasLimit }

func (c *chunkContext) TxReceiver(tx *Transaction) ShardID { return tx.Receiver }

func (c *chunkContext) PrevBlockInfo() BlockInfo { return c.prev }

func (c *chunkContext) CurrentBlockInfo() BlockInfo { return c.cur }

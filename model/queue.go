package model

// QueueID is a handle to a host-owned receipt queue.
type QueueID int

// Queue is a strict-FIFO receipt buffer with O(1) cached gas and byte
// totals. Queues are owned by the host; strategies hold only QueueID handles
// and borrow queues through the chunk execution context.
type Queue struct {
	owner ShardID
	name  string

	items       []*Receipt
	attachedGas uint64
	byteSize    uint64
}

// NewQueue creates an empty queue. Hosts own queues; strategies only ever
// hold QueueID handles.
func NewQueue(owner ShardID, name string) *Queue {
	return &Queue{owner: owner, name: name}
}

// Owner returns the shard that registered the queue.
func (q *Queue) Owner() ShardID { return q.owner }

// Name returns the deterministic name the queue was registered under.
func (q *Queue) Name() string { return q.name }

// Len returns the number of buffered receipts.
func (q *Queue) Len() int { return len(q.items) }

// Size returns the total byte size of all buffered receipts.
func (q *Queue) Size() uint64 { return q.byteSize }

// AttachedGas returns the total attached gas of all buffered receipts.
func (q *Queue) AttachedGas() uint64 { return q.attachedGas }

// Front returns the oldest buffered receipt without removing it, or nil when
// the queue is empty.
func (q *Queue) Front() *Receipt {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// PopFront removes and returns the oldest buffered receipt, or nil when the
// queue is empty.
func (q *Queue) PopFront() *Receipt {
	if len(q.items) == 0 {
		return nil
	}
	r := q.items[0]
	q.items = q.items[1:]
	q.attachedGas -= r.AttachedGas
	q.byteSize -= r.Size
	return r
}

// PushBack appends a receipt to the queue.
func (q *Queue) PushBack(r *Receipt) {
	q.items = append(q.items, r)
	q.attachedGas += r.AttachedGas
	q.byteSize += r.Size
}

// TxQueue is the per-chunk FIFO of pool transactions offered to a shard.
type TxQueue struct {
	items []*Transaction
}

// Len returns the number of pending transactions.
func (q *TxQueue) Len() int { return len(q.items) }

// PushBack appends a transaction to the queue.
func (q *TxQueue) PushBack(tx *Transaction) {
	q.items = append(q.items, tx)
}

// PopFront removes and returns the oldest pending transaction, or nil when
// the queue is empty.
func (q *TxQueue) PopFront() *Transaction {
	if len(q.items) == 0 {
		return nil
	}
	tx := q.items[0]
	q.items = q.items[1:]
	return tx
}

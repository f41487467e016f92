package params

const (
	ChunkGasLimit uint64 = 1000 * TGas // Executable gas ceiling of one chunk; overridable per run by the host.

	MaxSendLimit uint64 = 30 * PGas // Per-destination outgoing gas budget when the receiver reports no congestion.
	MinSendLimit uint64 = 0         // Per-destination outgoing gas budget when the receiver is fully congested.

	TxGasCeiling uint64 = 500 * TGas // Transaction admission gas when the local shard has no incoming backlog.
	TxGasFloor   uint64 = 5 * TGas   // Transaction admission gas when the local incoming backlog is at capacity.

	MaxIncomingCongestionGas uint64 = 100 * PGas  // Incoming receipt backlog that counts as fully congested.
	MaxOutgoingCongestionGas uint64 = 100 * PGas  // Buffered outgoing gas that counts as fully congested.
	MaxOutgoingMemory        uint64 = 500_000_000 // Buffered outgoing bytes that count as fully congested.
)

// Admission stop thresholds. Hard cutoffs for now; kept as named constants so
// a smoother slow-down can be tuned in later.
const (
	GlobalStopThreshold float64 = 0.9 // Any shard above this outgoing congestion halts admission everywhere.
	FilterStopThreshold float64 = 0.5 // A receiver above this outgoing congestion rejects new transactions.
)

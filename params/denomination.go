package params

// These are the multipliers for gas denominations. All gas amounts in the
// simulator are carried as uint64 gigagas (GGas).
// Example: a receipt carrying 10 teragas attaches 10 * params.TGas.
const (
	GGas uint64 = 1
	TGas uint64 = 1_000 * GGas
	PGas uint64 = 1_000_000 * GGas
)

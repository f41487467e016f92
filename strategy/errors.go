// Package strategy implements per-shard congestion control for the
// simulator: how much work a chunk admits from the local pool, how much
// buffered cross-shard traffic it forwards, and what congestion signals it
// publishes for its peers.
package strategy

import "errors"

// All strategy errors are fatal: they indicate a violated host/strategy
// interface contract and abort the run.
var (
	ErrUninitialized     = errors.New("strategy: compute chunk before init")
	ErrUnknownShard      = errors.New("strategy: receiver not in shard set")
	ErrMissingSendLimit  = errors.New("strategy: no send limit for shard")
	ErrInvalidCongestion = errors.New("strategy: congestion value outside [0,1]")
)

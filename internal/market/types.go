package market

import (
	"distmarket/internal/fp"

	"github.com/google/uuid"
)

// Phase is the market's lifecycle state: Uninitialized -> Open -> Settled.
type Phase int

const (
	Uninitialized Phase = iota
	Open
	Settled
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "Uninitialized"
	case Open:
		return "Open"
	case Settled:
		return "Settled"
	default:
		return "Unknown"
	}
}

// PositionKind tags a Position as an LP or a Trader holding.
type PositionKind int

const (
	KindLP PositionKind = iota
	KindTrader
)

func (k PositionKind) String() string {
	if k == KindLP {
		return "LP"
	}
	return "Trader"
}

// Position is the tagged-sum record spec.md §3 describes: an LP owns
// a shape, a Trader owns the difference between an old shape and a
// new one. Claim-time payout math dispatches on Kind.
type Position struct {
	ID         uuid.UUID
	Kind       PositionKind
	Mu         fp.Signed
	Sigma      fp.Unsigned
	K          fp.Unsigned
	Collateral fp.Unsigned

	// OldMu, OldSigma are only meaningful for KindTrader: the shape
	// the market had immediately before this trade.
	OldMu    fp.Signed
	OldSigma fp.Unsigned

	Settled bool
}

// LPHolder tracks one liquidity provider's share balance.
type LPHolder struct {
	ID     uuid.UUID
	Shares fp.Unsigned
}

// Snapshot is an immutable value copy of the market's current global
// state, safe to read without coordination — mirrors the teacher's
// pattern of handing observers a value (model.Snapshot) rather than a
// pointer into live state.
type Snapshot struct {
	Mu          fp.Signed
	Sigma       fp.Unsigned
	K           fp.Unsigned
	Backing     fp.Unsigned
	Phase       Phase
	XFinal      fp.Signed
	HasXFinal   bool
	TotalSupply fp.Unsigned
}

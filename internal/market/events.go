package market

import (
	"distmarket/internal/fp"

	"github.com/google/uuid"
)

// EventKind discriminates the events a Market publishes after every
// successful transition.
type EventKind int

const (
	EventInitialized EventKind = iota
	EventLiquidityAdded
	EventTraded
	EventSettled
	EventClaimed
	EventLPSharesClaimed
)

func (k EventKind) String() string {
	switch k {
	case EventInitialized:
		return "Initialized"
	case EventLiquidityAdded:
		return "LiquidityAdded"
	case EventTraded:
		return "Traded"
	case EventSettled:
		return "Settled"
	case EventClaimed:
		return "Claimed"
	case EventLPSharesClaimed:
		return "LPSharesClaimed"
	default:
		return "Unknown"
	}
}

// Event is published on the market's bus after every successful state
// transition; the journal writer and the broadcast hub each consume
// their own subscription without coupling to the market directly.
type Event struct {
	Kind       EventKind
	MarketID   uuid.UUID
	PositionID uuid.UUID // zero value when not applicable
	Snapshot   Snapshot
	Payout     fp.Unsigned // payout for EventClaimed/EventLPSharesClaimed; collateral charged for EventTraded
}

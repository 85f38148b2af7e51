// Package market implements the state machine wrapped around the
// math kernel: initialize -> trade* -> settle -> claim. It is
// single-writer by convention (spec §5): callers must serialize
// mutating calls externally, or rely on Market's own mutex if calling
// through its exported methods directly. Reads via Snapshot are
// lock-free, grounded on the teacher's atomic-pointer publish pattern
// in internal/oi.Engine and internal/orderbook.Book.
package market

import (
	"sync"
	"sync/atomic"

	"distmarket/internal/fp"
	"distmarket/internal/gaussian"
	"distmarket/internal/pricing"
	"distmarket/internal/solver"

	"github.com/google/uuid"
)

// Authority is the opaque identifier settle() checks against, added
// per SPEC_FULL.md to resolve spec.md's open authorization question.
type Authority uuid.UUID

// Market is a single distribution prediction market instance.
type Market struct {
	id        uuid.UUID
	authority Authority

	writeMu sync.Mutex // serializes all mutating transitions

	snapshot atomic.Pointer[Snapshot]

	positions map[uuid.UUID]*Position
	lpHolders map[uuid.UUID]*LPHolder

	bus *eventPublisher
}

// eventPublisher is the minimal interface Market needs from a bus —
// kept narrow so the market package doesn't import internal/bus
// directly and force every caller to wire one up.
type eventPublisher struct {
	publish func(Event)
}

// New creates an uninitialized market. publish may be nil, in which
// case events are simply dropped (useful for tests and pure
// in-process callers that don't need the audit/broadcast path).
func New(id uuid.UUID, publish func(Event)) *Market {
	if publish == nil {
		publish = func(Event) {}
	}
	m := &Market{
		id:        id,
		positions: make(map[uuid.UUID]*Position),
		lpHolders: make(map[uuid.UUID]*LPHolder),
		bus:       &eventPublisher{publish: publish},
	}
	m.snapshot.Store(&Snapshot{Phase: Uninitialized})
	return m
}

// ID returns the market's identity.
func (m *Market) ID() uuid.UUID { return m.id }

// Snapshot returns an immutable value copy of the market's current
// global state. Safe to call concurrently with any writer: it is a
// single atomic pointer load, never blocked by writeMu.
func (m *Market) Snapshot() Snapshot {
	return *m.snapshot.Load()
}

func (m *Market) publishSnapshot(kind EventKind, positionID uuid.UUID, payout fp.Unsigned) {
	m.bus.publish(Event{
		Kind:       kind,
		MarketID:   m.id,
		PositionID: positionID,
		Snapshot:   m.Snapshot(),
		Payout:     payout,
	})
}

// Initialize installs the market's first distribution and LP
// position, minting b0 shares to lpHolder, and opens the market for
// trading.
func (m *Market) Initialize(authority Authority, lpHolder uuid.UUID, mu0 fp.Signed, sigma0, b0, k0 fp.Unsigned) (uuid.UUID, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	cur := m.Snapshot()
	if cur.Phase != Uninitialized {
		return uuid.UUID{}, newErr("Initialize", MarketAlreadyInitialized)
	}

	sigmaMin, err := gaussian.SigmaMin(k0, b0)
	if err != nil {
		return uuid.UUID{}, err
	}
	if sigma0.Cmp(sigmaMin) < 0 {
		return uuid.UUID{}, newErr("Initialize", SigmaBelowMinimum)
	}

	m.authority = authority

	positionID := uuid.New()
	m.positions[positionID] = &Position{
		ID:         positionID,
		Kind:       KindLP,
		Mu:         mu0,
		Sigma:      sigma0,
		K:          k0,
		Collateral: b0,
	}
	m.lpHolders[lpHolder] = &LPHolder{ID: lpHolder, Shares: b0}

	m.snapshot.Store(&Snapshot{
		Mu:          mu0,
		Sigma:       sigma0,
		K:           k0,
		Backing:     b0,
		Phase:       Open,
		TotalSupply: b0,
	})

	m.publishSnapshot(EventInitialized, positionID, fp.Unsigned{})
	return positionID, nil
}

// AddLiquidity grows the market's backing by deltaB, rescales k
// proportionally, mints shares to lpHolder, and issues an LP position
// recording the k delta this contribution bought.
func (m *Market) AddLiquidity(lpHolder uuid.UUID, deltaB fp.Unsigned) (uuid.UUID, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	cur := m.Snapshot()
	if cur.Phase != Open {
		return uuid.UUID{}, newErr("AddLiquidity", MarketNotInitialized)
	}

	newBacking, err := fp.AddUnsigned(cur.Backing, deltaB)
	if err != nil {
		return uuid.UUID{}, err
	}
	// new k = k_old * (b_old+deltaB)/b_old
	ratio, err := fp.DivUnsigned(newBacking, cur.Backing)
	if err != nil {
		return uuid.UUID{}, err
	}
	newK, err := fp.MulUnsigned(cur.K, ratio)
	if err != nil {
		return uuid.UUID{}, err
	}
	sigmaMin, err := gaussian.SigmaMin(newK, newBacking)
	if err != nil {
		return uuid.UUID{}, err
	}
	if cur.Sigma.Cmp(sigmaMin) < 0 {
		return uuid.UUID{}, newErr("AddLiquidity", SigmaBelowMinimum)
	}
	kDelta, err := fp.SubUnsigned(newK, cur.K)
	if err != nil {
		return uuid.UUID{}, err
	}

	mintRatio, err := fp.DivUnsigned(deltaB, cur.Backing)
	if err != nil {
		return uuid.UUID{}, err
	}
	mintedShares, err := fp.MulUnsigned(cur.TotalSupply, mintRatio)
	if err != nil {
		return uuid.UUID{}, err
	}

	holder, ok := m.lpHolders[lpHolder]
	if !ok {
		holder = &LPHolder{ID: lpHolder}
		m.lpHolders[lpHolder] = holder
	}
	newShares, err := fp.AddUnsigned(holder.Shares, mintedShares)
	if err != nil {
		return uuid.UUID{}, err
	}
	holder.Shares = newShares

	positionID := uuid.New()
	m.positions[positionID] = &Position{
		ID:         positionID,
		Kind:       KindLP,
		Mu:         cur.Mu,
		Sigma:      cur.Sigma,
		K:          kDelta,
		Collateral: deltaB,
	}

	newTotalSupply, err := fp.AddUnsigned(cur.TotalSupply, mintedShares)
	if err != nil {
		return uuid.UUID{}, err
	}
	m.snapshot.Store(&Snapshot{
		Mu:          cur.Mu,
		Sigma:       cur.Sigma,
		K:           newK,
		Backing:     newBacking,
		Phase:       Open,
		TotalSupply: newTotalSupply,
	})

	m.publishSnapshot(EventLiquidityAdded, positionID, fp.Unsigned{})
	return positionID, nil
}

// Trade moves the market's current distribution to (muNew, sigmaNew),
// charging the caller the collateral required to cover the worst-case
// payout differential, and issues a Trader position. The returned int
// is the number of damped-Newton iterations the collateral search
// ran, for callers that want to feed it to a metrics collector.
func (m *Market) Trade(muNew fp.Signed, sigmaNew fp.Unsigned, maxCollateral fp.Unsigned) (uuid.UUID, fp.Unsigned, int, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	cur := m.Snapshot()
	if cur.Phase != Open {
		return uuid.UUID{}, fp.Unsigned{}, 0, newErr("Trade", MarketNotInitialized)
	}

	sigmaMin, err := gaussian.SigmaMin(cur.K, cur.Backing)
	if err != nil {
		return uuid.UUID{}, fp.Unsigned{}, 0, err
	}
	if sigmaNew.Cmp(sigmaMin) < 0 {
		return uuid.UUID{}, fp.Unsigned{}, 0, newErr("Trade", SigmaBelowMinimum)
	}

	from := solver.Distribution{Mu: cur.Mu, Sigma: cur.Sigma}
	to := solver.Distribution{Mu: muNew, Sigma: sigmaNew}
	collateral, iterations, err := pricing.RequiredCollateral(from, to, cur.K, muNew)
	if err != nil {
		return uuid.UUID{}, fp.Unsigned{}, 0, err
	}
	if collateral.Cmp(maxCollateral) > 0 {
		return uuid.UUID{}, fp.Unsigned{}, 0, newErr("Trade", InsufficientCollateral)
	}

	positionID := uuid.New()
	m.positions[positionID] = &Position{
		ID:         positionID,
		Kind:       KindTrader,
		Mu:         muNew,
		Sigma:      sigmaNew,
		K:          cur.K,
		Collateral: collateral,
		OldMu:      cur.Mu,
		OldSigma:   cur.Sigma,
	}

	m.snapshot.Store(&Snapshot{
		Mu:          muNew,
		Sigma:       sigmaNew,
		K:           cur.K,
		Backing:     cur.Backing,
		Phase:       Open,
		TotalSupply: cur.TotalSupply,
	})

	m.publishSnapshot(EventTraded, positionID, collateral)
	return positionID, collateral, iterations, nil
}

// Settle freezes the market's realized outcome, transitioning it to
// Settled. Only the configured Authority may call this.
func (m *Market) Settle(authority Authority, xFinal fp.Signed) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	cur := m.Snapshot()
	if cur.Phase == Uninitialized {
		return newErr("Settle", MarketNotInitialized)
	}
	if cur.Phase == Settled {
		return newErr("Settle", MarketAlreadySettled)
	}
	if authority != m.authority {
		return newErr("Settle", NotAuthority)
	}

	m.snapshot.Store(&Snapshot{
		Mu:          cur.Mu,
		Sigma:       cur.Sigma,
		K:           cur.K,
		Backing:     cur.Backing,
		Phase:       Settled,
		XFinal:      xFinal,
		HasXFinal:   true,
		TotalSupply: cur.TotalSupply,
	})

	m.publishSnapshot(EventSettled, uuid.UUID{}, fp.Unsigned{})
	return nil
}

// Claim pays out a single position's realized value and marks it
// settled. LPs are paid f(x_final; their shape); Traders are paid the
// absolute payout differential between their new and old shape, plus
// their posted collateral.
func (m *Market) Claim(positionID uuid.UUID) (fp.Unsigned, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	cur := m.Snapshot()
	if cur.Phase != Settled {
		return fp.Unsigned{}, newErr("Claim", MarketNotSettled)
	}
	pos, ok := m.positions[positionID]
	if !ok {
		return fp.Unsigned{}, newErr("Claim", UnknownPosition)
	}
	if pos.Settled {
		return fp.Unsigned{}, newErr("Claim", PositionAlreadySettled)
	}

	var payout fp.Unsigned
	var err error
	switch pos.Kind {
	case KindLP:
		payout, err = gaussian.F(cur.XFinal, pos.Mu, pos.Sigma, pos.K)
	case KindTrader:
		newVal, ferr := gaussian.F(cur.XFinal, pos.Mu, pos.Sigma, pos.K)
		if ferr != nil {
			err = ferr
			break
		}
		oldVal, ferr := gaussian.F(cur.XFinal, pos.OldMu, pos.OldSigma, pos.K)
		if ferr != nil {
			err = ferr
			break
		}
		diff, serr := fp.SubSigned(newVal.ToSigned(), oldVal.ToSigned())
		if serr != nil {
			err = serr
			break
		}
		payout, err = fp.AddUnsigned(diff.Abs(), pos.Collateral)
	}
	if err != nil {
		return fp.Unsigned{}, err
	}

	pos.Settled = true
	m.publishSnapshot(EventClaimed, positionID, payout)
	return payout, nil
}

// ClaimLPShares pays an LP holder their proportional share of the
// residual backing (what's left after the global shape's own payout)
// and burns their shares.
func (m *Market) ClaimLPShares(holderID uuid.UUID) (fp.Unsigned, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	cur := m.Snapshot()
	if cur.Phase != Settled {
		return fp.Unsigned{}, newErr("ClaimLPShares", MarketNotSettled)
	}
	holder, ok := m.lpHolders[holderID]
	if !ok {
		return fp.Unsigned{}, newErr("ClaimLPShares", UnknownHolder)
	}
	if holder.Shares.IsZero() {
		return fp.Unsigned{}, nil
	}

	globalPayout, err := gaussian.F(cur.XFinal, cur.Mu, cur.Sigma, cur.K)
	if err != nil {
		return fp.Unsigned{}, err
	}
	var residual fp.Unsigned
	if globalPayout.Cmp(cur.Backing) >= 0 {
		residual = fp.ZeroUnsigned()
	} else {
		residual, err = fp.SubUnsigned(cur.Backing, globalPayout)
		if err != nil {
			return fp.Unsigned{}, err
		}
	}

	shareRatio, err := fp.DivUnsigned(holder.Shares, cur.TotalSupply)
	if err != nil {
		return fp.Unsigned{}, err
	}
	payout, err := fp.MulUnsigned(residual, shareRatio)
	if err != nil {
		return fp.Unsigned{}, err
	}

	holder.Shares = fp.ZeroUnsigned()
	m.publishSnapshot(EventLPSharesClaimed, uuid.UUID{}, payout)
	return payout, nil
}

package httpapi

import (
	"encoding/json"
	"net/http"

	"distmarket/internal/fp"
	"distmarket/internal/market"
	"distmarket/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sony/gobreaker"
)

type initializeRequest struct {
	Authority uuid.UUID   `json:"authority"`
	LPHolder  uuid.UUID   `json:"lp_holder"`
	Mu        fp.Signed   `json:"mu"`
	Sigma     fp.Unsigned `json:"sigma"`
	B         fp.Unsigned `json:"b"`
	K         fp.Unsigned `json:"k"`
}

type initializeResponse struct {
	MarketID   uuid.UUID `json:"market_id"`
	PositionID uuid.UUID `json:"position_id"`
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := uuid.New()
	m := market.New(id, s.publish)
	positionID, err := m.Initialize(market.Authority(req.Authority), req.LPHolder, req.Mu, req.Sigma, req.B, req.K)
	if err != nil {
		s.handleMarketError(w, "Initialize", err)
		return
	}

	s.mu.Lock()
	s.markets[id] = m
	s.mu.Unlock()

	metrics.MarketsByPhase.WithLabelValues(id.String(), market.Open.String()).Set(1)
	writeJSON(w, http.StatusCreated, initializeResponse{MarketID: id, PositionID: positionID})
}

type snapshotResponse struct {
	Mu          fp.Signed   `json:"mu"`
	Sigma       fp.Unsigned `json:"sigma"`
	K           fp.Unsigned `json:"k"`
	Backing     fp.Unsigned `json:"backing"`
	Phase       string      `json:"phase"`
	XFinal      fp.Signed   `json:"x_final,omitempty"`
	HasXFinal   bool        `json:"has_x_final"`
	TotalSupply fp.Unsigned `json:"total_supply"`
}

func toSnapshotResponse(snap market.Snapshot) snapshotResponse {
	return snapshotResponse{
		Mu:          snap.Mu,
		Sigma:       snap.Sigma,
		K:           snap.K,
		Backing:     snap.Backing,
		Phase:       snap.Phase.String(),
		XFinal:      snap.XFinal,
		HasXFinal:   snap.HasXFinal,
		TotalSupply: snap.TotalSupply,
	}
}

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	m, ok := s.lookupMarket(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown market")
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(m.Snapshot()))
}

type addLiquidityRequest struct {
	LPHolder uuid.UUID   `json:"lp_holder"`
	DeltaB   fp.Unsigned `json:"delta_b"`
}

type addLiquidityResponse struct {
	PositionID uuid.UUID `json:"position_id"`
}

func (s *Server) handleAddLiquidity(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	m, ok := s.lookupMarket(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown market")
		return
	}

	var req addLiquidityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	positionID, err := m.AddLiquidity(req.LPHolder, req.DeltaB)
	if err != nil {
		s.handleMarketError(w, "AddLiquidity", err)
		return
	}
	writeJSON(w, http.StatusOK, addLiquidityResponse{PositionID: positionID})
}

type tradeRequest struct {
	MuNew         fp.Signed   `json:"mu_new"`
	SigmaNew      fp.Unsigned `json:"sigma_new"`
	MaxCollateral fp.Unsigned `json:"max_collateral"`
}

type tradeResponse struct {
	PositionID uuid.UUID   `json:"position_id"`
	Collateral fp.Unsigned `json:"collateral"`
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	m, ok := s.lookupMarket(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown market")
		return
	}

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	positionID, collateral, iterations, err := m.Trade(req.MuNew, req.SigmaNew, req.MaxCollateral)
	if err != nil {
		var mkErr *market.Error
		if asMarketError(err, &mkErr) {
			metrics.TradesTotal.WithLabelValues(mkErr.Kind.String()).Inc()
		}
		s.handleMarketError(w, "Trade", err)
		return
	}

	metrics.TradesTotal.WithLabelValues("accepted").Inc()
	collateralFloat, _ := collateral.Raw().Float64()
	metrics.CollateralCharged.Observe(collateralFloat / 1e18)
	metrics.SolverIterations.Observe(float64(iterations))
	writeJSON(w, http.StatusOK, tradeResponse{PositionID: positionID, Collateral: collateral})
}

type settleRequest struct {
	Authority uuid.UUID `json:"authority"`
	XFinal    fp.Signed `json:"x_final"`
}

// handleSettle routes through the settle circuit breaker: three
// consecutive failures (e.g. an external settlement oracle feeding
// bad authority tokens) trip it and fail fast for 30s rather than
// hammering a wedged dependency.
func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	m, ok := s.lookupMarket(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown market")
		return
	}

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, err = s.settleCB.Execute(func() (interface{}, error) {
		return nil, m.Settle(market.Authority(req.Authority), req.XFinal)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			writeError(w, http.StatusServiceUnavailable, "settle circuit open")
			return
		}
		s.handleMarketError(w, "Settle", err)
		return
	}

	metrics.MarketsByPhase.WithLabelValues(id.String(), market.Open.String()).Set(0)
	metrics.MarketsByPhase.WithLabelValues(id.String(), market.Settled.String()).Set(1)
	writeJSON(w, http.StatusOK, toSnapshotResponse(m.Snapshot()))
}

type claimResponse struct {
	Payout fp.Unsigned `json:"payout"`
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	positionID, err := uuid.Parse(vars["position"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid position id")
		return
	}
	m, ok := s.lookupMarket(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown market")
		return
	}

	payout, err := m.Claim(positionID)
	if err != nil {
		s.handleMarketError(w, "Claim", err)
		return
	}
	writeJSON(w, http.StatusOK, claimResponse{Payout: payout})
}

type claimLPSharesResponse struct {
	Payout fp.Unsigned `json:"payout"`
}

func (s *Server) handleClaimLPShares(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	holder, err := uuid.Parse(vars["holder"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid holder id")
		return
	}
	m, ok := s.lookupMarket(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown market")
		return
	}

	payout, err := m.ClaimLPShares(holder)
	if err != nil {
		s.handleMarketError(w, "ClaimLPShares", err)
		return
	}
	writeJSON(w, http.StatusOK, claimLPSharesResponse{Payout: payout})
}

func (s *Server) handleMarketError(w http.ResponseWriter, op string, err error) {
	var mkErr *market.Error
	if asMarketError(err, &mkErr) {
		s.log.Warn().Str("op", op).Str("kind", mkErr.Kind.String()).Msg("httpapi: request rejected")
		writeError(w, statusForKind(mkErr.Kind), mkErr.Error())
		return
	}
	// Arithmetic errors are treated as caller bugs per spec.md §7: log
	// with full context and surface as 500, never masked or retried.
	s.log.Error().Str("op", op).Err(err).Msg("httpapi: arithmetic error")
	writeError(w, http.StatusInternalServerError, err.Error())
}

func asMarketError(err error, target **market.Error) bool {
	if me, ok := err.(*market.Error); ok {
		*target = me
		return true
	}
	return false
}

// Package httpapi is the JSON control plane the host binary exposes:
// initialize/add-liquidity/trade/settle/claim, routed with
// gorilla/mux the way the rest of the example pack routes HTTP, with
// a gobreaker circuit breaker guarding the settle path against a
// wedged external settlement oracle.
package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"distmarket/internal/config"
	"distmarket/internal/journal"
	"distmarket/internal/market"
	"distmarket/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Server owns the in-process registry of live markets and wires every
// new market's event stream to the journal and whatever else the
// caller wants to subscribe (the broadcast hub, typically).
type Server struct {
	mu      sync.RWMutex
	markets map[uuid.UUID]*market.Market

	journal  *journal.Writer
	onEvent  func(market.Event) // additional subscriber, e.g. broadcast hub
	log      zerolog.Logger
	settleCB *gobreaker.CircuitBreaker
}

// NewServer builds a Server. onEvent may be nil.
func NewServer(j *journal.Writer, onEvent func(market.Event), log zerolog.Logger) *Server {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "settle",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &Server{
		markets:  make(map[uuid.UUID]*market.Market),
		journal:  j,
		onEvent:  onEvent,
		log:      log,
		settleCB: cb,
	}
}

// Router builds the gorilla/mux route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/markets", s.handleInitialize).Methods(http.MethodPost)
	r.HandleFunc("/markets/{id}", s.handleGetMarket).Methods(http.MethodGet)
	r.HandleFunc("/markets/{id}/liquidity", s.handleAddLiquidity).Methods(http.MethodPost)
	r.HandleFunc("/markets/{id}/trade", s.handleTrade).Methods(http.MethodPost)
	r.HandleFunc("/markets/{id}/settle", s.handleSettle).Methods(http.MethodPost)
	r.HandleFunc("/markets/{id}/claim/{position}", s.handleClaim).Methods(http.MethodPost)
	r.HandleFunc("/markets/{id}/claim_lp_shares/{holder}", s.handleClaimLPShares).Methods(http.MethodPost)
	return r
}

func (s *Server) publish(ev market.Event) {
	if s.journal != nil {
		s.journal.Write(journal.BuildRow(ev, time.Now()))
	}
	if s.onEvent != nil {
		s.onEvent(ev)
	}
}

// Bootstrap creates and initializes a market directly from a config
// template, bypassing the HTTP control plane — used by `serve
// --bootstrap` so an operator doesn't have to call POST /markets
// before the host is otherwise usable.
func (s *Server) Bootstrap(authority market.Authority, lpHolder uuid.UUID, tmpl config.MarketTemplate) (marketID, positionID uuid.UUID, err error) {
	marketID = uuid.New()
	m := market.New(marketID, s.publish)
	positionID, err = m.Initialize(authority, lpHolder, tmpl.Mu, tmpl.Sigma, tmpl.B, tmpl.K)
	if err != nil {
		return uuid.UUID{}, uuid.UUID{}, err
	}

	s.mu.Lock()
	s.markets[marketID] = m
	s.mu.Unlock()

	metrics.MarketsByPhase.WithLabelValues(marketID.String(), market.Open.String()).Set(1)
	return marketID, positionID, nil
}

func (s *Server) lookupMarket(id uuid.UUID) (*market.Market, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.markets[id]
	return m, ok
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusForKind maps a market.Kind validation failure to an HTTP
// status, per SPEC_FULL.md's error-handling section.
func statusForKind(k market.Kind) int {
	switch k {
	case market.SigmaBelowMinimum, market.InsufficientCollateral:
		return http.StatusUnprocessableEntity
	case market.MarketAlreadyInitialized, market.MarketAlreadySettled, market.MarketNotInitialized, market.MarketNotSettled:
		return http.StatusConflict
	case market.NotAuthority:
		return http.StatusForbidden
	case market.UnknownPosition, market.UnknownHolder:
		return http.StatusNotFound
	case market.PositionAlreadySettled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

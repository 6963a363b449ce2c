package query

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"EscrowDesk/internal/asset"
	"EscrowDesk/internal/engine"
	"EscrowDesk/internal/observability"
)

// Service is the HTTP/JSON read surface over the engine. Strictly read-only:
// all state transitions go through the engine API, never through HTTP.
type Service struct {
	eng     *engine.Engine
	log     zerolog.Logger
	metrics *observability.Metrics
}

func NewService(eng *engine.Engine, log zerolog.Logger, metrics *observability.Metrics) *Service {
	return &Service{eng: eng, log: log, metrics: metrics}
}

// Routes returns the read-surface mux.
func (s *Service) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/orders/{id}", s.handleOrder)
	mux.HandleFunc("GET /v1/allowlist", s.handleAllowlist)
	mux.HandleFunc("GET /v1/queue", s.handleQueue)
	mux.HandleFunc("GET /v1/claimable/{principal}", s.handleClaimableAssets)
	mux.HandleFunc("GET /v1/claimable/{principal}/{asset}", s.handleClaimable)
	return mux
}

type orderResponse struct {
	ID           uint64    `json:"id"`
	Maker        uuid.UUID `json:"maker"`
	Counterparty uuid.UUID `json:"counterparty,omitempty"`
	Taker        uuid.UUID `json:"taker,omitempty"`
	SellAsset    asset.ID  `json:"sell_asset"`
	SellAmount   int64     `json:"sell_amount"`
	BuyAsset     asset.ID  `json:"buy_asset"`
	BuyAmount    int64     `json:"buy_amount"`
	CreatedAt    time.Time `json:"created_at"`
	Status       string    `json:"status"`
	FeeAsset     asset.ID  `json:"fee_asset"`
	FeeAmount    int64     `json:"fee_amount"`
}

func (s *Service) handleOrder(w http.ResponseWriter, r *http.Request) {
	defer s.observe("order", time.Now())

	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, "order", http.StatusBadRequest, "invalid order id")
		return
	}

	o, ok := s.eng.Order(id)
	if !ok {
		s.writeError(w, "order", http.StatusNotFound, "order not found")
		return
	}

	s.writeJSON(w, "order", orderResponse{
		ID:           o.ID,
		Maker:        o.Maker,
		Counterparty: o.Counterparty,
		Taker:        o.Taker,
		SellAsset:    o.SellAsset,
		SellAmount:   o.SellAmount,
		BuyAsset:     o.BuyAsset,
		BuyAmount:    o.BuyAmount,
		CreatedAt:    o.CreatedAt,
		Status:       o.Status.String(),
		FeeAsset:     o.FeeAsset,
		FeeAmount:    o.FeeAmount,
	})
}

func (s *Service) handleAllowlist(w http.ResponseWriter, r *http.Request) {
	defer s.observe("allowlist", time.Now())

	s.writeJSON(w, "allowlist", map[string]interface{}{
		"assets": s.eng.Allowlist(),
	})
}

func (s *Service) handleQueue(w http.ResponseWriter, r *http.Request) {
	defer s.observe("queue", time.Now())

	// Cursor and next-sequence let a consumer reconstruct the live window.
	s.writeJSON(w, "queue", map[string]interface{}{
		"cursor":        s.eng.Cursor(),
		"next_sequence": s.eng.NextSequence(),
	})
}

func (s *Service) handleClaimableAssets(w http.ResponseWriter, r *http.Request) {
	defer s.observe("claimable_assets", time.Now())

	principal, err := uuid.Parse(r.PathValue("principal"))
	if err != nil {
		s.writeError(w, "claimable_assets", http.StatusBadRequest, "invalid principal")
		return
	}

	s.writeJSON(w, "claimable_assets", map[string]interface{}{
		"principal": principal,
		"assets":    s.eng.ClaimableAssets(principal),
	})
}

func (s *Service) handleClaimable(w http.ResponseWriter, r *http.Request) {
	defer s.observe("claimable", time.Now())

	principal, err := uuid.Parse(r.PathValue("principal"))
	if err != nil {
		s.writeError(w, "claimable", http.StatusBadRequest, "invalid principal")
		return
	}
	id := asset.ID(r.PathValue("asset"))
	if !id.Valid() {
		s.writeError(w, "claimable", http.StatusBadRequest, "invalid asset")
		return
	}

	s.writeJSON(w, "claimable", map[string]interface{}{
		"principal": principal,
		"asset":     id,
		"amount":    s.eng.Claimable(principal, id),
	})
}

func (s *Service) writeJSON(w http.ResponseWriter, endpoint string, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Str("endpoint", endpoint).Msg("write response failed")
	}
	if s.metrics != nil {
		s.metrics.QueryRequests.WithLabelValues(endpoint, "ok").Inc()
	}
}

func (s *Service) writeError(w http.ResponseWriter, endpoint string, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
	if s.metrics != nil {
		s.metrics.QueryRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	}
}

func (s *Service) observe(endpoint string, start time.Time) {
	if s.metrics != nil {
		s.metrics.QueryDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}

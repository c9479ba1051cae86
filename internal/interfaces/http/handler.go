package httpinterface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/application"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
)

// TradeService is the subset of the negotiation engine served over REST.
type TradeService interface {
	CreateTradeRequest(
		ctx context.Context, listingID, requestingUserID int64, offeredCardIDs []int64,
	) (*domain.Trade, error)
	AcceptTradeRequest(ctx context.Context, tradeID, listingOwnerID int64) (*domain.Trade, error)
	DeclineTradeRequest(ctx context.Context, tradeID, listingOwnerID int64) (*domain.Trade, error)
	GetTradeById(ctx context.Context, tradeID int64) (*domain.Trade, error)
	GetAllTrades(ctx context.Context) ([]domain.Trade, error)
	GetTradesByListingId(ctx context.Context, listingID int64) ([]domain.Trade, error)
	GetTradesByRequestingUserId(ctx context.Context, userID int64) ([]domain.Trade, error)
}

type tradeHandler struct {
	tradeSvc TradeService
}

func (h *tradeHandler) createTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, application.ValidationError("Invalid request body"))
		return
	}

	trade, err := h.tradeSvc.CreateTradeRequest(
		r.Context(), req.ListingID, req.RequestingUserID, req.OfferedCardIDs,
	)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/trades/%d", trade.ID))
	respondJSON(w, http.StatusCreated, newTradeResponse(*trade))
}

func (h *tradeHandler) acceptTrade(w http.ResponseWriter, r *http.Request) {
	h.decideTrade(w, r, h.tradeSvc.AcceptTradeRequest)
}

func (h *tradeHandler) declineTrade(w http.ResponseWriter, r *http.Request) {
	h.decideTrade(w, r, h.tradeSvc.DeclineTradeRequest)
}

func (h *tradeHandler) decideTrade(
	w http.ResponseWriter, r *http.Request,
	decide func(context.Context, int64, int64) (*domain.Trade, error),
) {
	tradeID, err := pathID(r, "tradeId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	listingOwnerID, err := queryID(r, "listingOwnerId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	trade, err := decide(r.Context(), tradeID, listingOwnerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newTradeResponse(*trade))
}

func (h *tradeHandler) getTrade(w http.ResponseWriter, r *http.Request) {
	tradeID, err := pathID(r, "tradeId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	trade, err := h.tradeSvc.GetTradeById(r.Context(), tradeID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newTradeResponse(*trade))
}

func (h *tradeHandler) listTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.tradeSvc.GetAllTrades(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondTrades(w, r, trades)
}

func (h *tradeHandler) listTradesByListing(w http.ResponseWriter, r *http.Request) {
	listingID, err := pathID(r, "listingId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	trades, err := h.tradeSvc.GetTradesByListingId(r.Context(), listingID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondTrades(w, r, trades)
}

func (h *tradeHandler) listTradesByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	trades, err := h.tradeSvc.GetTradesByRequestingUserId(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondTrades(w, r, trades)
}

// respondTrades writes the trades, keeping only those with the status given
// by the optional status query parameter.
func (h *tradeHandler) respondTrades(
	w http.ResponseWriter, r *http.Request, trades []domain.Trade,
) {
	str := r.URL.Query().Get("status")
	if str == "" {
		respondJSON(w, http.StatusOK, tradeList(trades).toResponse())
		return
	}

	status, err := domain.ParseTradeStatus(str)
	if err != nil {
		respondError(w, r, application.ValidationError("Invalid value for status: %s", str))
		return
	}
	filtered := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Status == status {
			filtered = append(filtered, t)
		}
	}
	respondJSON(w, http.StatusOK, tradeList(filtered).toResponse())
}

func health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(r *http.Request, name string) (int64, error) {
	return parseID(name, mux.Vars(r)[name])
}

func queryID(r *http.Request, name string) (int64, error) {
	str := r.URL.Query().Get(name)
	if str == "" {
		return 0, application.ValidationError("Missing required parameter %s", name)
	}
	return parseID(name, str)
}

func parseID(name, str string) (int64, error) {
	id, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, application.ValidationError("Invalid value for %s: %s", name, str)
	}
	return id, nil
}

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Warn("failed to write response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	msg := "An unexpected error occurred"
	switch {
	case errors.Is(err, application.ErrNotFound):
		code = http.StatusNotFound
		msg = err.Error()
	case errors.Is(err, application.ErrValidation),
		errors.Is(err, application.ErrInvalidOperation):
		code = http.StatusBadRequest
		msg = err.Error()
	default:
		log.WithError(err).Errorf("%s %s failed", r.Method, r.URL.Path)
	}

	respondJSON(w, code, errorResponse{
		Status:    code,
		Message:   msg,
		Path:      r.URL.Path,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Package httpapi exposes the auction lifecycle over REST. Caller identity
// comes from the JWT auth middleware; domain guard errors map to stable HTTP
// statuses.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	app "github.com/R3E-Network/auction_house/internal/app"
	"github.com/R3E-Network/auction_house/internal/app/domain/auction"
	"github.com/R3E-Network/auction_house/internal/app/events"
	"github.com/R3E-Network/auction_house/internal/app/metrics"
	auctionssvc "github.com/R3E-Network/auction_house/internal/app/services/auctions"
	"github.com/R3E-Network/auction_house/internal/middleware"
	"github.com/R3E-Network/auction_house/pkg/logger"
)

// Config carries the router's middleware settings.
type Config struct {
	JWTSecret      []byte
	AllowedOrigins []string
	Log            *logger.Logger
}

// handler bundles HTTP endpoints for the auction service.
type handler struct {
	app *app.Application
}

// NewRouter returns the REST API router. /healthz and /metrics are open;
// everything under /v1 requires a bearer token carrying the caller address.
func NewRouter(application *app.Application, cfg Config) http.Handler {
	h := &handler{app: application}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	auth := middleware.NewAuth(cfg.JWTSecret, cfg.Log, nil)
	api := r.PathPrefix("/v1").Subrouter()
	api.Use(auth.Handler)

	api.HandleFunc("/auctions", h.createAuction).Methods(http.MethodPost)
	api.HandleFunc("/auctions", h.listAuctions).Methods(http.MethodGet)
	api.HandleFunc("/auctions/{id}", h.getAuction).Methods(http.MethodGet)
	api.HandleFunc("/auctions/{id}", h.cancelAuction).Methods(http.MethodDelete)
	api.HandleFunc("/auctions/{id}/approval", h.setApproval).Methods(http.MethodPut)
	api.HandleFunc("/auctions/{id}/reserve", h.setReservePrice).Methods(http.MethodPut)
	api.HandleFunc("/auctions/{id}/bids", h.createBid).Methods(http.MethodPost)
	api.HandleFunc("/auctions/{id}/end", h.endAuction).Methods(http.MethodPost)
	api.HandleFunc("/events", h.listEvents).Methods(http.MethodGet)
	api.HandleFunc("/credits/{recipient}", h.listCredits).Methods(http.MethodGet)

	cors := middleware.NewCORS(cfg.AllowedOrigins)
	return metrics.InstrumentHandler(cors.Handler(r))
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auctionResponse is the wire form of an auction. Amounts are decimal strings
// in base units; durations are whole seconds.
type auctionResponse struct {
	ID              uint64 `json:"id"`
	TokenContract   string `json:"token_contract"`
	TokenID         string `json:"token_id"`
	DurationSeconds int64  `json:"duration_seconds"`
	FirstBidTime    string `json:"first_bid_time,omitempty"`
	EndTime         string `json:"end_time,omitempty"`
	ReservePrice    string `json:"reserve_price"`
	Curator         string `json:"curator,omitempty"`
	CuratorFeePct   uint8  `json:"curator_fee_pct"`
	TokenOwner      string `json:"token_owner"`
	FundsRecipient  string `json:"funds_recipient"`
	Currency        string `json:"currency,omitempty"`
	Approved        bool   `json:"approved"`
	Bidder          string `json:"bidder,omitempty"`
	Amount          string `json:"amount"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func toResponse(a auction.Auction) auctionResponse {
	resp := auctionResponse{
		ID:              a.ID,
		TokenContract:   a.TokenContract,
		TokenID:         a.TokenID,
		DurationSeconds: int64(a.Duration / time.Second),
		ReservePrice:    a.ReservePrice.String(),
		Curator:         a.Curator,
		CuratorFeePct:   a.CuratorFeePct,
		TokenOwner:      a.TokenOwner,
		FundsRecipient:  a.FundsRecipient,
		Currency:        a.Currency,
		Approved:        a.Approved,
		Bidder:          a.Bidder,
		Amount:          a.Amount.String(),
		CreatedAt:       a.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:       a.UpdatedAt.Format(time.RFC3339Nano),
	}
	if a.Started() {
		resp.FirstBidTime = a.FirstBidTime.Format(time.RFC3339Nano)
		resp.EndTime = a.EndTime().Format(time.RFC3339Nano)
	}
	return resp
}

func (h *handler) createAuction(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TokenContract   string `json:"token_contract"`
		TokenID         string `json:"token_id"`
		DurationSeconds int64  `json:"duration_seconds"`
		ReservePrice    string `json:"reserve_price"`
		Curator         string `json:"curator"`
		CuratorFeePct   uint8  `json:"curator_fee_pct"`
		FundsRecipient  string `json:"funds_recipient"`
		Currency        string `json:"currency"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	reserve, err := parseAmount(payload.ReservePrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	a, err := h.app.Auctions.CreateAuction(r.Context(), middleware.CallerAddress(r.Context()), auctionssvc.CreateParams{
		TokenContract:  payload.TokenContract,
		TokenID:        payload.TokenID,
		Duration:       time.Duration(payload.DurationSeconds) * time.Second,
		ReservePrice:   reserve,
		Curator:        payload.Curator,
		CuratorFeePct:  payload.CuratorFeePct,
		FundsRecipient: payload.FundsRecipient,
		Currency:       payload.Currency,
	})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(a))
}

func (h *handler) listAuctions(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Auctions.ListAuctions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := make([]auctionResponse, 0, len(list))
	for _, a := range list {
		resp = append(resp, toResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) getAuction(w http.ResponseWriter, r *http.Request) {
	id, ok := auctionID(w, r)
	if !ok {
		return
	}
	a, err := h.app.Auctions.GetAuction(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(a))
}

func (h *handler) setApproval(w http.ResponseWriter, r *http.Request) {
	id, ok := auctionID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Approved bool `json:"approved"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a, err := h.app.Auctions.SetApproval(r.Context(), middleware.CallerAddress(r.Context()), id, payload.Approved)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(a))
}

func (h *handler) setReservePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := auctionID(w, r)
	if !ok {
		return
	}
	var payload struct {
		ReservePrice string `json:"reserve_price"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	reserve, err := parseAmount(payload.ReservePrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a, err := h.app.Auctions.SetReservePrice(r.Context(), middleware.CallerAddress(r.Context()), id, reserve)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(a))
}

func (h *handler) createBid(w http.ResponseWriter, r *http.Request) {
	id, ok := auctionID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Amount string `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAmount(payload.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a, err := h.app.Auctions.CreateBid(r.Context(), middleware.CallerAddress(r.Context()), id, amount)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(a))
}

func (h *handler) endAuction(w http.ResponseWriter, r *http.Request) {
	id, ok := auctionID(w, r)
	if !ok {
		return
	}
	st, err := h.app.Auctions.EndAuction(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"winner":            st.Winner,
		"capability":        string(st.Capability),
		"amount":            st.Amount.String(),
		"curator_fee":       st.CuratorFee.String(),
		"royalty_paid":      st.RoyaltyPaid.String(),
		"royalty_recipient": st.RoyaltyRecipient,
		"owner_profit":      st.OwnerProfit.String(),
	})
}

func (h *handler) cancelAuction(w http.ResponseWriter, r *http.Request) {
	id, ok := auctionID(w, r)
	if !ok {
		return
	}
	if err := h.app.Auctions.CancelAuction(r.Context(), middleware.CallerAddress(r.Context()), id); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	var list []events.Event
	if raw := r.URL.Query().Get("auction_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid auction_id %q", raw))
			return
		}
		list = h.app.Events.RecentByAuction(id, limit)
	} else {
		list = h.app.Events.Recent(limit)
	}
	if list == nil {
		list = []events.Event{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) listCredits(w http.ResponseWriter, r *http.Request) {
	recipient := mux.Vars(r)["recipient"]
	credits, err := h.app.Auctions.ListCredits(r.Context(), recipient)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	type creditResponse struct {
		ID        string `json:"id"`
		AuctionID uint64 `json:"auction_id"`
		Recipient string `json:"recipient"`
		Currency  string `json:"currency,omitempty"`
		Amount    string `json:"amount"`
		Reason    string `json:"reason"`
		CreatedAt string `json:"created_at"`
	}
	resp := make([]creditResponse, 0, len(credits))
	for _, c := range credits {
		resp = append(resp, creditResponse{
			ID:        c.ID,
			AuctionID: c.AuctionID,
			Recipient: c.Recipient,
			Currency:  c.Currency,
			Amount:    c.Amount.String(),
			Reason:    c.Reason,
			CreatedAt: c.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func auctionID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid auction id"))
		return 0, false
	}
	return id, true
}

func parseAmount(raw string) (*big.Int, error) {
	if raw == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return v, nil
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, auction.ErrAuctionNotFound):
		return http.StatusNotFound
	case errors.Is(err, auction.ErrNotAuthorized),
		errors.Is(err, auction.ErrNotCurator),
		errors.Is(err, auction.ErrNotCuratorOrOwner),
		errors.Is(err, auction.ErrNotCuratorOrCreator):
		return http.StatusForbidden
	case errors.Is(err, auction.ErrAuctionAlreadyStarted),
		errors.Is(err, auction.ErrAuctionNotApproved),
		errors.Is(err, auction.ErrAuctionExpired),
		errors.Is(err, auction.ErrAuctionNotStarted),
		errors.Is(err, auction.ErrAuctionNotCompleted):
		return http.StatusConflict
	case errors.Is(err, auction.ErrAssetInterfaceUnsupported),
		errors.Is(err, auction.ErrFeeTooHigh),
		errors.Is(err, auction.ErrInvalidRecipient),
		errors.Is(err, auction.ErrBidBelowReserve),
		errors.Is(err, auction.ErrBidIncrementTooSmall),
		errors.Is(err, auction.ErrBidInvalidForSplit):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

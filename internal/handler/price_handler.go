package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/apperr"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/models"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/service"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

type Handler struct {
	prices      *service.PriceService
	suggestions *service.SuggestionService
	alerts      *service.AlertService
	log         *logrus.Logger
}

func New(prices *service.PriceService, suggestions *service.SuggestionService, alerts *service.AlertService, log *logrus.Logger) *Handler {
	return &Handler{prices: prices, suggestions: suggestions, alerts: alerts, log: log}
}

// Router builds the HTTP routes. Fixed segments are registered before the
// {sku} wildcard so "history" and "sugerir-preco" are not captured as SKUs.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	r.HandleFunc("/prices/sugerir-preco/status/{job_id}", h.getSuggestion).Methods(http.MethodGet)
	r.HandleFunc("/prices/history/{sku}", h.getHistory).Methods(http.MethodGet)
	r.HandleFunc("/prices/{sku}/sugerir-preco", h.requestSuggestion).Methods(http.MethodPost)

	r.HandleFunc("/prices", h.list).Methods(http.MethodGet)
	r.HandleFunc("/prices", h.create).Methods(http.MethodPost)
	r.HandleFunc("/prices/{sku}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/prices/{sku}", h.update).Methods(http.MethodPut)
	r.HandleFunc("/prices/{sku}", h.patch).Methods(http.MethodPatch)
	r.HandleFunc("/prices/{sku}", h.delete).Methods(http.MethodDelete)

	r.HandleFunc("/alerts", h.listAlerts).Methods(http.MethodGet)

	r.Use(WithPrincipal)
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type priceCreateRequest struct {
	SKU string `json:"sku"`
	De  int    `json:"de"`
	Por int    `json:"por"`
}

type priceUpdateRequest struct {
	De  int `json:"de"`
	Por int `json:"por"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	prices, err := h.prices.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Results: prices,
		Meta:    listMeta{Limit: limit, Offset: offset, Count: len(prices)},
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireSellerID(w, r)
	if !ok {
		return
	}
	price, err := h.prices.GetBySellerIDAndSKU(r.Context(), sellerID, mux.Vars(r)["sku"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, price)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireSellerID(w, r)
	if !ok {
		return
	}
	var req priceCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("Corpo da requisição inválido.", "body", nil))
		return
	}
	price, err := h.prices.Create(r.Context(), principalFrom(r), sellerID, req.SKU, req.De, req.Por)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, price)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireSellerID(w, r)
	if !ok {
		return
	}
	var req priceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("Corpo da requisição inválido.", "body", nil))
		return
	}
	price, err := h.prices.Update(r.Context(), principalFrom(r), sellerID, mux.Vars(r)["sku"], req.De, req.Por)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, price)
}

func (h *Handler) patch(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireSellerID(w, r)
	if !ok {
		return
	}
	var req models.PricePatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("Corpo da requisição inválido.", "body", nil))
		return
	}
	price, err := h.prices.Patch(r.Context(), principalFrom(r), sellerID, mux.Vars(r)["sku"], req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, price)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireSellerID(w, r)
	if !ok {
		return
	}
	if err := h.prices.Delete(r.Context(), sellerID, mux.Vars(r)["sku"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireSellerID(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	rows, err := h.prices.History(r.Context(), sellerID, mux.Vars(r)["sku"], limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Results: rows,
		Meta:    listMeta{Limit: limit, Offset: offset, Count: len(rows)},
	})
}

func (h *Handler) requestSuggestion(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireSellerID(w, r)
	if !ok {
		return
	}
	job, err := h.suggestions.RequestSuggestion(r.Context(), sellerID, mux.Vars(r)["sku"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (h *Handler) getSuggestion(w http.ResponseWriter, r *http.Request) {
	result, err := h.suggestions.GetSuggestion(r.Context(), mux.Vars(r)["job_id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireSellerID(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	alerts, err := h.alerts.List(r.Context(), sellerID, r.URL.Query().Get("sku"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Results: alerts,
		Meta:    listMeta{Limit: limit, Offset: offset, Count: len(alerts)},
	})
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

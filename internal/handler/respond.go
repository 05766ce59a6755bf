// Package handler exposes the HTTP surface of the pricing service.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/apperr"
)

// errorResponse is the envelope for every error payload.
type errorResponse struct {
	Slug    string          `json:"slug"`
	Message string          `json:"message"`
	Details []apperr.Detail `json:"details"`
}

// listResponse wraps listing results with pagination metadata.
type listResponse struct {
	Results any      `json:"results"`
	Meta    listMeta `json:"meta"`
}

type listMeta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func messageOf(kind apperr.Kind) string {
	switch kind {
	case apperr.KindValidation:
		return "Erro de validação"
	case apperr.KindNotFound:
		return "Não encontrado"
	case apperr.KindConflict:
		return "Conflito"
	default:
		return "Erro interno do servidor"
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	writeJSON(w, statusOf(kind), errorResponse{
		Slug:    apperr.SlugOf(kind),
		Message: messageOf(kind),
		Details: apperr.DetailsOf(err),
	})
}

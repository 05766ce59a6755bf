package handler

import (
	"context"
	"net/http"

	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/apperr"
	"github.com/projeto-carreira-luizalabs-2025/pc-preco/internal/models"
)

type contextKey int

const principalKey contextKey = iota

// Header names supplied by the gateway in front of this service. Token
// validation happens there; this service only stamps the audit identity.
const (
	headerSellerID   = "seller-id"
	headerUserName   = "x-user-name"
	headerUserServer = "x-user-server"
)

// WithPrincipal stores the authenticated principal from the gateway headers
// on the request context.
func WithPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := models.AuditUser{
			Name:   r.Header.Get(headerUserName),
			Server: r.Header.Get(headerUserServer),
		}
		if principal.Name == "" {
			principal.Name = "anonymous"
		}
		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func principalFrom(r *http.Request) models.AuditUser {
	if p, ok := r.Context().Value(principalKey).(models.AuditUser); ok {
		return p
	}
	return models.AuditUser{Name: "anonymous"}
}

// requireSellerID extracts the mandatory seller-id header, writing the
// structured 400 payload when it is missing.
func requireSellerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sellerID := r.Header.Get(headerSellerID)
	if sellerID == "" {
		writeError(w, apperr.MissingSellerID())
		return "", false
	}
	return sellerID, true
}

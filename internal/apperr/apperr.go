// Package apperr defines the service error taxonomy and the structured
// details surfaced in HTTP error payloads.
package apperr

import (
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies an error for propagation and HTTP mapping.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindConflict
	KindInternal
)

// Detail is one structured error entry: message, where it happened, a stable
// slug, the offending field and free-form context.
type Detail struct {
	Message  string         `json:"message"`
	Location string         `json:"location"`
	Slug     string         `json:"slug"`
	Field    string         `json:"field,omitempty"`
	Ctx      map[string]any `json:"ctx,omitempty"`
}

// Error is the service error type. Cause is only set for internal errors.
type Error struct {
	Kind    Kind
	Details []Detail
	Cause   error
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return "erro interno"
	}
	msgs := make([]string, len(e.Details))
	for i, d := range e.Details {
		msgs[i] = d.Message
	}
	return strings.Join(msgs, "; ")
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is match on kind sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Details == nil && t.Cause == nil
}

// Kind sentinels for errors.Is checks in tests and handlers.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrInternal   = &Error{Kind: KindInternal}
)

// Validation builds a field-level validation error (HTTP 400).
func Validation(message, field string, ctx map[string]any) *Error {
	return &Error{
		Kind: KindValidation,
		Details: []Detail{{
			Message:  message,
			Location: "body",
			Slug:     "preco_invalido",
			Field:    field,
			Ctx:      ctx,
		}},
	}
}

// PriceNotFound reports that no price exists for (seller_id, sku).
func PriceNotFound(sellerID, sku string) *Error {
	return &Error{
		Kind: KindNotFound,
		Details: []Detail{{
			Message:  "Preço para produto não encontrado.",
			Location: "path",
			Slug:     "preco_nao_encontrado",
			Field:    "sku",
			Ctx:      map[string]any{"seller_id": sellerID, "sku": sku},
		}},
	}
}

// HistoryNotFound reports that a SKU has no price history rows.
func HistoryNotFound(sellerID, sku string) *Error {
	return &Error{
		Kind: KindNotFound,
		Details: []Detail{{
			Message:  "Histórico de preço não encontrado.",
			Location: "path",
			Slug:     "historico_nao_encontrado",
			Field:    "sku",
			Ctx:      map[string]any{"seller_id": sellerID, "sku": sku},
		}},
	}
}

// Conflict builds a duplicate/conflict error (HTTP 409).
func Conflict(message, field string, ctx map[string]any) *Error {
	return &Error{
		Kind: KindConflict,
		Details: []Detail{{
			Message:  message,
			Location: "body",
			Slug:     "preco_conflito",
			Field:    field,
			Ctx:      ctx,
		}},
	}
}

// UnknownJob reports a suggestion job id with no cache entry, either never
// created or already expired.
func UnknownJob(jobID string) *Error {
	return &Error{
		Kind: KindValidation,
		Details: []Detail{{
			Message:  "Job de sugestão desconhecido ou expirado.",
			Location: "path",
			Slug:     "sugestao_desconhecida",
			Field:    "job_id",
			Ctx:      map[string]any{"job_id": jobID},
		}},
	}
}

// MissingSellerID reports the absent mandatory seller-id header.
func MissingSellerID() *Error {
	return &Error{
		Kind: KindValidation,
		Details: []Detail{{
			Message:  "Header 'seller-id' obrigatório",
			Location: "header",
			Slug:     "seller_id_obrigatorio",
			Field:    "seller-id",
		}},
	}
}

// Internal wraps an unexpected infrastructure failure (HTTP 500).
func Internal(cause error, msg string, args ...any) *Error {
	return &Error{
		Kind:  KindInternal,
		Cause: errors.Wrapf(cause, msg, args...),
		Details: []Detail{{
			Message:  "Erro interno do servidor.",
			Location: "server",
			Slug:     "erro_interno",
		}},
	}
}

// KindOf extracts the kind of err, defaulting to KindInternal for unknown
// error types.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// DetailsOf extracts structured details, synthesizing a generic internal
// detail for plain errors.
func DetailsOf(err error) []Detail {
	var e *Error
	if errors.As(err, &e) && len(e.Details) > 0 {
		return e.Details
	}
	return []Detail{{Message: "Erro interno do servidor.", Location: "server", Slug: "erro_interno"}}
}

// SlugOf returns the top-level slug for a kind, used in the HTTP envelope.
func SlugOf(kind Kind) string {
	switch kind {
	case KindValidation:
		return "BAD_REQUEST"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

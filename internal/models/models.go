package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// AuditUser identifies the authenticated principal that created or updated a
// record. Stored as a JSON column in pc_preco.
type AuditUser struct {
	Name   string `json:"name"`
	Server string `json:"server"`
}

// Value implements driver.Valuer so sqlx can persist the principal as JSON.
func (u AuditUser) Value() (driver.Value, error) {
	return json.Marshal(u)
}

// Scan implements sql.Scanner for the JSON columns created_by/updated_by.
func (u *AuditUser) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, u)
	case string:
		return json.Unmarshal([]byte(v), u)
	case nil:
		*u = AuditUser{}
		return nil
	default:
		return errors.Errorf("audit user: cannot scan %T", src)
	}
}

// Price is a seller's from/to price pair for a SKU. "De" is the origin price
// and "Por" the sale price, both in integer minor-currency units.
type Price struct {
	ID             int64     `db:"id" json:"id"`
	SellerID       string    `db:"seller_id" json:"seller_id"`
	SKU            string    `db:"sku" json:"sku"`
	De             int       `db:"de" json:"de"`
	Por            int       `db:"por" json:"por"`
	AlertaPendente bool      `db:"alerta_pendente" json:"alerta_pendente"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
	CreatedBy      AuditUser `db:"created_by" json:"created_by"`
	UpdatedBy      AuditUser `db:"updated_by" json:"updated_by"`
}

// PricePatch carries a partial price update. Nil fields keep the stored value.
type PricePatch struct {
	De  *int `json:"de,omitempty"`
	Por *int `json:"por,omitempty"`
}

// PriceHistory is an immutable snapshot of a price, appended once per
// successful mutation and never updated or deleted.
type PriceHistory struct {
	ID           int64     `db:"id" json:"id"`
	SellerID     string    `db:"seller_id" json:"seller_id"`
	SKU          string    `db:"sku" json:"sku"`
	De           int       `db:"de" json:"de"`
	Por          int       `db:"por" json:"por"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`
}

// AlertStatusPending is the status a persisted alert starts with.
const AlertStatusPending = "pendente"

// Alert is a persisted price-anomaly alert (pc_alertas row).
type Alert struct {
	ID        int64     `db:"id" json:"id"`
	SellerID  string    `db:"seller_id" json:"seller_id"`
	SKU       string    `db:"sku" json:"sku"`
	Mensagem  string    `db:"mensagem" json:"mensagem"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AlertMessage is the queue payload produced when a price swing exceeds the
// variation threshold. Ownership transfers to the alert worker once enqueued.
type AlertMessage struct {
	SellerID string `json:"seller_id"`
	SKU      string `json:"sku"`
	Mensagem string `json:"mensagem"`
	Status   string `json:"status"`
}

// HistoryEntry is the compact (de, por) pair embedded in suggestion requests.
type HistoryEntry struct {
	De  int `json:"de"`
	Por int `json:"por"`
}

// SuggestionRequest is the queue payload for an AI price-suggestion job.
type SuggestionRequest struct {
	SellerID string         `json:"seller_id"`
	SKU      string         `json:"sku"`
	History  []HistoryEntry `json:"history"`
	JobID    string         `json:"job_id"`
}

// Suggestion job statuses. There is no failed status: a job whose processing
// fails stays pending until its cache entry expires.
const (
	SuggestionStatusPending = "pending"
	SuggestionStatusDone    = "done"
)

// SuggestionResult is the cached state of a suggestion job, keyed by
// suggestion:{job_id}.
type SuggestionResult struct {
	Status         string  `json:"status"`
	SuggestedPrice *string `json:"suggested_price"`
}

// SuggestionJob is what the API returns right after accepting a job.
type SuggestionJob struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

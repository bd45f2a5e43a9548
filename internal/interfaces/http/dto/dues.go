package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// ObligationRefRequest addresses one obligation in a request body
type ObligationRefRequest struct {
	Kind string `json:"kind" binding:"required,oneof=periodic_charge fine installment"`
	ID   string `json:"id" binding:"required,uuid"`
}

// CreateTransactionRequest submits a payment. ResidentID is only honoured
// for admins; residents always pay for themselves.
type CreateTransactionRequest struct {
	ResidentID  string                 `json:"resident_id" binding:"omitempty,uuid"`
	Amount      decimal.Decimal        `json:"amount"`
	Method      string                 `json:"method" binding:"required,oneof=cash transfer card check"`
	Type        string                 `json:"type" binding:"required,oneof=maintenance fine agreement other"`
	Reference   string                 `json:"reference" binding:"max=100"`
	Notes       string                 `json:"notes" binding:"max=1000"`
	PaidAt      *time.Time             `json:"paid_at"`
	Obligations []ObligationRefRequest `json:"obligations" binding:"dive"`
	EvidenceKey string                 `json:"evidence_key" binding:"max=512"`
}

// ReviewTransactionRequest carries the reviewer's notes on approve or reject
type ReviewTransactionRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

// ListTransactionsRequest filters transaction listings
type ListTransactionsRequest struct {
	ListRequest
	ResidentID string `form:"resident_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=pending processing completed rejected"`
	OrderBy    string `form:"order_by" binding:"omitempty,oneof=paid_at created_at amount"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ListObligationsRequest filters obligation listings
type ListObligationsRequest struct {
	ListRequest
	ResidentID string `form:"resident_id" binding:"omitempty,uuid"`
	UnitID     string `form:"unit_id" binding:"omitempty,uuid"`
	Month      int    `form:"month" binding:"omitempty,min=1,max=12"`
	Year       int    `form:"year" binding:"omitempty,min=2000,max=2100"`
	Status     string `form:"status" binding:"omitempty,oneof=pending overdue processing settled cancelled"`
	Kind       string `form:"kind" binding:"omitempty,oneof=periodic_charge fine installment"`
}

// ScheduledInstallmentRequest is one line of an explicit agreement schedule
type ScheduledInstallmentRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	DueDate string          `json:"due_date" binding:"required,datetime=2006-01-02"`
}

// BuildAgreementRequest asks for a payment agreement over a resident's arrears
type BuildAgreementRequest struct {
	ResidentID           string                        `json:"resident_id" binding:"required,uuid"`
	PeriodsToConsolidate int                           `json:"periods_to_consolidate" binding:"omitempty,max=120"`
	InstallmentCount     int                           `json:"installment_count" binding:"omitempty,max=120"`
	StartDate            string                        `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	SurchargePercent     *decimal.Decimal              `json:"surcharge_percent"`
	Schedule             []ScheduledInstallmentRequest `json:"schedule" binding:"omitempty,dive"`
	Notes                string                        `json:"notes" binding:"max=1000"`
}

// SettleObligationRequest settles one obligation outside a transaction review
type SettleObligationRequest struct {
	Kind          string          `json:"kind" binding:"required,oneof=periodic_charge fine installment"`
	ID            string          `json:"id" binding:"required,uuid"`
	Amount        decimal.Decimal `json:"amount"`
	SettledAt     *time.Time      `json:"settled_at"`
	TransactionID string          `json:"transaction_id" binding:"omitempty,uuid"`
}

// SetObligationStatusRequest moves one obligation through its status machine
type SetObligationStatusRequest struct {
	Kind          string     `json:"kind" binding:"required,oneof=periodic_charge fine installment"`
	Status        string     `json:"status" binding:"required,oneof=pending overdue processing settled cancelled"`
	SettledAt     *time.Time `json:"settled_at"`
	TransactionID string     `json:"transaction_id" binding:"omitempty,uuid"`
}

// IssueFineRequest issues a fine on the resident's current unit
type IssueFineRequest struct {
	ResidentID string          `json:"resident_id" binding:"required,uuid"`
	Reason     string          `json:"reason" binding:"required,max=500"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    string          `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
}

// EnsureChargeRequest asks for the periodic charge of a unit and month
type EnsureChargeRequest struct {
	UnitID string           `json:"unit_id" binding:"required,uuid"`
	Month  int              `json:"month" binding:"required,min=1,max=12"`
	Year   int              `json:"year" binding:"required,min=2000,max=2100"`
	Amount *decimal.Decimal `json:"amount"`
}

// EvidenceUploadRequest asks for a presigned receipt upload URL
type EvidenceUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required,oneof=image/jpeg image/png image/webp application/pdf"`
}

// PaymentCallbackRequest is a gateway notification about one transaction
type PaymentCallbackRequest struct {
	Gateway       string `json:"gateway" binding:"required,max=50"`
	EventID       string `json:"event_id" binding:"required,max=200"`
	TransactionID string `json:"transaction_id" binding:"required,uuid"`
	Outcome       string `json:"outcome" binding:"required,oneof=success failure"`
	Message       string `json:"message" binding:"max=500"`
}

package dues

import (
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransactionInput records a payment against obligations
type CreateTransactionInput struct {
	ResidentID  uuid.UUID
	Amount      decimal.Decimal
	Method      dues.TransactionMethod
	Type        dues.TransactionType
	Reference   string
	Notes       string
	PaidAt      *time.Time
	Obligations []dues.ObligationRef
	EvidenceKey string
}

// BuildAgreementInput asks for a payment agreement over a resident's arrears
type BuildAgreementInput struct {
	ResidentID           uuid.UUID
	PeriodsToConsolidate int
	InstallmentCount     int
	StartDate            time.Time
	// SurchargePercent overrides the fee schedule surcharge when set
	SurchargePercent *decimal.Decimal
	// Schedule replaces the even split when non-empty. No surcharge applies.
	Schedule []dues.ScheduledInstallment
	Notes    string
}

// AgreementResult is the outcome of building an agreement
type AgreementResult struct {
	Agreement        *dues.Agreement           `json:"agreement"`
	InstallmentCount int                       `json:"installment_count"`
	Summary          dues.ConsolidationSummary `json:"summary"`
}

// ObligationQuery filters obligation listings. Period narrows to a month when
// Month is set and to a whole year otherwise.
type ObligationQuery struct {
	ResidentID *uuid.UUID
	UnitID     *uuid.UUID
	Month      int
	Year       int
	Status     dues.ObligationStatus
	Kind       dues.ObligationKind
	Page       int
	PageSize   int
}

func (q ObligationQuery) validate() error {
	if q.Month != 0 && (q.Month < 1 || q.Month > 12) {
		return shared.InvalidArgument("month must be between 1 and 12")
	}
	if q.Month != 0 && q.Year == 0 {
		return shared.InvalidArgument("a month filter requires a year")
	}
	if q.Year < 0 {
		return shared.InvalidArgument("year cannot be negative")
	}
	if q.Status != "" && !q.Status.IsValid() {
		return shared.InvalidArgument("unknown obligation status %q", q.Status)
	}
	if q.Kind != "" && !q.Kind.IsValid() {
		return shared.InvalidArgument("unknown obligation kind %q", q.Kind)
	}
	return nil
}

func (q ObligationQuery) filter() dues.ObligationFilter {
	return dues.ObligationFilter{
		Filter:     shared.Filter{Page: q.Page, PageSize: q.PageSize},
		ResidentID: q.ResidentID,
		UnitID:     q.UnitID,
		Month:      q.Month,
		Year:       q.Year,
		Status:     q.Status,
		Kind:       q.Kind,
	}
}

func (q ObligationQuery) scope() dues.SweepScope {
	return dues.SweepScope{UnitID: q.UnitID, ResidentID: q.ResidentID}
}

// SettledCharge identifies a periodic charge that was just settled
type SettledCharge struct {
	UnitID uuid.UUID
	Period valueobject.Period
}

// StandaloneSettlementInput settles one obligation without going through a
// transaction review.
type StandaloneSettlementInput struct {
	Ref           dues.ObligationRef
	Amount        decimal.Decimal
	SettledAt     *time.Time
	TransactionID *uuid.UUID
}

// SetStatusInput moves one obligation through the status machine
type SetStatusInput struct {
	Ref           dues.ObligationRef
	Status        dues.ObligationStatus
	SettledAt     *time.Time
	TransactionID *uuid.UUID
}

// IssueFineInput issues a fine on the resident's current unit
type IssueFineInput struct {
	ResidentID uuid.UUID
	Reason     string
	Amount     decimal.Decimal
	DueDate    time.Time
}

// EnsureChargeInput asks for the charge of a unit and period to exist.
// A nil Amount uses the current fee schedule.
type EnsureChargeInput struct {
	UnitID uuid.UUID
	Period valueobject.Period
	Amount *decimal.Decimal
}

// EnsureChargeResult reports the stored charge and whether this call created it
type EnsureChargeResult struct {
	Charge  *dues.PeriodicCharge `json:"charge"`
	Created bool                 `json:"created"`
}

// ListTransactionsInput filters transaction listings
type ListTransactionsInput struct {
	ResidentID *uuid.UUID
	Status     dues.TransactionStatus
	Page       int
	PageSize   int
	OrderBy    string
	OrderDir   string
}

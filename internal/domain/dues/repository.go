package dues

import (
	"context"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ObligationCascade holds the set-based updates every obligation table supports.
// Each is a single conditional UPDATE, so repeated calls converge.
type ObligationCascade interface {
	// SettleByTransaction settles every non-cancelled row linked to txID and
	// stamps settled_at only where it is still empty.
	SettleByTransaction(ctx context.Context, txID uuid.UUID, at time.Time) (int64, error)
	// ReleaseByTransaction reverts rows linked to txID that are still
	// processing back to pending and clears their link.
	ReleaseByTransaction(ctx context.Context, txID uuid.UUID) (int64, error)
	// MarkOverdue promotes pending rows in scope whose due date is before now.
	MarkOverdue(ctx context.Context, scope SweepScope, now time.Time) (int64, error)
}

// ObligationLister returns read views for obligation listings
type ObligationLister interface {
	ListObligations(ctx context.Context, filter ObligationFilter) ([]Obligation, error)
}

// PeriodicChargeRepository persists periodic charges
type PeriodicChargeRepository interface {
	ObligationCascade
	ObligationLister
	FindByID(ctx context.Context, id uuid.UUID) (*PeriodicCharge, error)
	FindByUnitAndPeriod(ctx context.Context, unitID uuid.UUID, period valueobject.Period) (*PeriodicCharge, error)
	// FindOrCreate inserts charge unless a row for its (unit, month, year)
	// exists, and returns the stored row with created=true only if this call
	// inserted it.
	FindOrCreate(ctx context.Context, charge *PeriodicCharge) (*PeriodicCharge, bool, error)
	Create(ctx context.Context, charge *PeriodicCharge) error
	Save(ctx context.Context, charge *PeriodicCharge) error
	ListByUnit(ctx context.Context, unitID uuid.UUID) ([]PeriodicCharge, error)
	FindByTransaction(ctx context.Context, txID uuid.UUID) ([]PeriodicCharge, error)
}

// FineRepository persists fines
type FineRepository interface {
	ObligationCascade
	ObligationLister
	FindByID(ctx context.Context, id uuid.UUID) (*Fine, error)
	Create(ctx context.Context, fine *Fine) error
	Save(ctx context.Context, fine *Fine) error
}

// AgreementRepository persists agreements and their installment lines
type AgreementRepository interface {
	ObligationCascade
	ObligationLister
	FindByID(ctx context.Context, id uuid.UUID) (*Agreement, error)
	// Create inserts the agreement together with its lines
	Create(ctx context.Context, agreement *Agreement) error
	// Save updates the agreement row only
	Save(ctx context.Context, agreement *Agreement) error
	FindLineByID(ctx context.Context, id uuid.UUID) (*InstallmentLine, error)
	SaveLine(ctx context.Context, line *InstallmentLine) error
	FindLinesByTransaction(ctx context.Context, txID uuid.UUID) ([]InstallmentLine, error)
}

// TransactionFilter narrows transaction listings
type TransactionFilter struct {
	shared.Filter
	ResidentID *uuid.UUID
	Status     TransactionStatus
}

// TransactionRepository persists payment transactions
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	Create(ctx context.Context, tx *Transaction) error
	// SaveFrom persists tx only if the stored row is still in status from.
	// A lost race surfaces as INVALID_TRANSITION.
	SaveFrom(ctx context.Context, tx *Transaction, from TransactionStatus) error
	List(ctx context.Context, filter TransactionFilter) ([]Transaction, int64, error)
}

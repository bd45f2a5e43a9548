package dues

import (
	"strings"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fine is a penalty issued to a resident for their unit.
type Fine struct {
	shared.BaseEntity
	ObligationState
	ResidentID uuid.UUID       `json:"resident_id"`
	UnitID     uuid.UUID       `json:"unit_id"`
	Reason     string          `json:"reason"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    time.Time       `json:"due_date"`
}

// NewFine creates a pending fine
func NewFine(residentID, unitID uuid.UUID, reason string, amount valueobject.Money, dueDate time.Time) (*Fine, error) {
	if residentID == uuid.Nil || unitID == uuid.Nil {
		return nil, shared.InvalidArgument("fine requires both resident and unit")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.InvalidArgument("fine reason cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.InvalidArgument("fine amount must be positive")
	}
	if dueDate.IsZero() {
		return nil, shared.InvalidArgument("fine due date is required")
	}
	return &Fine{
		BaseEntity:      shared.NewBaseEntity(),
		ObligationState: newPendingState(),
		ResidentID:      residentID,
		UnitID:          unitID,
		Reason:          reason,
		Amount:          amount.Amount(),
		DueDate:         dueDate,
	}, nil
}

// Ref returns the obligation reference
func (f *Fine) Ref() ObligationRef {
	return ObligationRef{Kind: ObligationKindFine, ID: f.ID}
}

// View converts the fine to the generic obligation view
func (f *Fine) View() Obligation {
	residentID, unitID := f.ResidentID, f.UnitID
	return Obligation{
		Ref:           f.Ref(),
		ResidentID:    &residentID,
		UnitID:        &unitID,
		Description:   f.Reason,
		Amount:        f.Amount,
		DueDate:       f.DueDate,
		Status:        f.Status,
		TransactionID: f.TransactionID,
		SettledAt:     f.SettledAt,
	}
}

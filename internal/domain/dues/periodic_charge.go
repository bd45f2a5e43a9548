package dues

import (
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NoteIncludedInAgreement is appended to charges folded into an agreement.
const NoteIncludedInAgreement = "included in payment agreement"

// PeriodicCharge is the monthly maintenance due of a unit. There is at most
// one per (unit, month, year).
type PeriodicCharge struct {
	shared.BaseEntity
	ObligationState
	UnitID  uuid.UUID       `json:"unit_id"`
	Month   int             `json:"month"`
	Year    int             `json:"year"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date"`
	Notes   string          `json:"notes"`
}

// NewPeriodicCharge creates a pending charge for the unit and period.
func NewPeriodicCharge(unitID uuid.UUID, period valueobject.Period, amount valueobject.Money, dueDate time.Time) (*PeriodicCharge, error) {
	if unitID == uuid.Nil {
		return nil, shared.InvalidArgument("periodic charge requires a unit")
	}
	if _, err := valueobject.NewPeriod(period.Month, period.Year); err != nil {
		return nil, shared.InvalidArgument("invalid billing period: %v", err)
	}
	if !amount.IsPositive() {
		return nil, shared.InvalidArgument("periodic charge amount must be positive")
	}
	if dueDate.IsZero() {
		return nil, shared.InvalidArgument("periodic charge due date is required")
	}
	return &PeriodicCharge{
		BaseEntity:      shared.NewBaseEntity(),
		ObligationState: newPendingState(),
		UnitID:          unitID,
		Month:           period.Month,
		Year:            period.Year,
		Amount:          amount.Amount(),
		DueDate:         dueDate,
	}, nil
}

// NewCancelledPeriodicCharge creates a charge that never became payable
// because it was folded into an agreement at creation.
func NewCancelledPeriodicCharge(unitID uuid.UUID, period valueobject.Period, amount valueobject.Money, dueDate time.Time) (*PeriodicCharge, error) {
	c, err := NewPeriodicCharge(unitID, period, amount, dueDate)
	if err != nil {
		return nil, err
	}
	c.Status = ObligationStatusCancelled
	c.Notes = NoteIncludedInAgreement
	return c, nil
}

// Period returns the billing period of the charge
func (c *PeriodicCharge) Period() valueobject.Period {
	return valueobject.Period{Month: c.Month, Year: c.Year}
}

// AmountMoney returns the amount as Money
func (c *PeriodicCharge) AmountMoney() valueobject.Money {
	return valueobject.NewMoney(c.Amount)
}

// FoldIntoAgreement cancels the charge and records why. The amount is kept.
func (c *PeriodicCharge) FoldIntoAgreement() error {
	if err := c.TransitionTo(ObligationStatusCancelled, nil, nil); err != nil {
		return err
	}
	c.Notes = AppendNote(c.Notes, NoteIncludedInAgreement)
	c.Touch()
	return nil
}

// Ref returns the obligation reference
func (c *PeriodicCharge) Ref() ObligationRef {
	return ObligationRef{Kind: ObligationKindPeriodicCharge, ID: c.ID}
}

// View converts the charge to the generic obligation view
func (c *PeriodicCharge) View() Obligation {
	unitID := c.UnitID
	return Obligation{
		Ref:           c.Ref(),
		UnitID:        &unitID,
		Description:   "maintenance " + c.Period().String(),
		Amount:        c.Amount,
		DueDate:       c.DueDate,
		Status:        c.Status,
		TransactionID: c.TransactionID,
		SettledAt:     c.SettledAt,
	}
}

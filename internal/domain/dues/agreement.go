package dues

import (
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgreementStatus is the lifecycle of a payment agreement
type AgreementStatus string

const (
	AgreementStatusActive    AgreementStatus = "active"
	AgreementStatusCompleted AgreementStatus = "completed"
	AgreementStatusCancelled AgreementStatus = "cancelled"
)

// IsValid checks if the status is known
func (s AgreementStatus) IsValid() bool {
	switch s {
	case AgreementStatusActive, AgreementStatusCompleted, AgreementStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of AgreementStatus
func (s AgreementStatus) String() string {
	return string(s)
}

// ScheduledInstallment is one planned line of an agreement
type ScheduledInstallment struct {
	Amount  valueobject.Money `json:"amount"`
	DueDate time.Time         `json:"due_date"`
}

// InstallmentLine is a payable line of an agreement
type InstallmentLine struct {
	shared.BaseEntity
	ObligationState
	AgreementID uuid.UUID       `json:"agreement_id"`
	Sequence    int             `json:"sequence"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"due_date"`
}

// Ref returns the obligation reference
func (l *InstallmentLine) Ref() ObligationRef {
	return ObligationRef{Kind: ObligationKindInstallment, ID: l.ID}
}

// View converts the line to the generic obligation view. residentID is the
// agreement owner.
func (l *InstallmentLine) View(residentID uuid.UUID) Obligation {
	agreementID := l.AgreementID
	return Obligation{
		Ref:           l.Ref(),
		ResidentID:    &residentID,
		AgreementID:   &agreementID,
		Description:   "agreement installment",
		Amount:        l.Amount,
		DueDate:       l.DueDate,
		Status:        l.Status,
		TransactionID: l.TransactionID,
		SettledAt:     l.SettledAt,
	}
}

// Agreement consolidates a resident's arrears into installments.
type Agreement struct {
	shared.BaseAggregateRoot
	ResidentID       uuid.UUID         `json:"resident_id"`
	TotalAmount      decimal.Decimal   `json:"total_amount"`
	InstallmentCount int               `json:"installment_count"`
	StartDate        time.Time         `json:"start_date"`
	Status           AgreementStatus   `json:"status"`
	Notes            string            `json:"notes"`
	Lines            []InstallmentLine `json:"lines"`
}

// NewAgreement creates an active agreement whose total is the sum of the
// scheduled lines.
func NewAgreement(residentID uuid.UUID, startDate time.Time, schedule []ScheduledInstallment, notes string) (*Agreement, error) {
	if residentID == uuid.Nil {
		return nil, shared.InvalidArgument("agreement requires a resident")
	}
	if len(schedule) == 0 {
		return nil, shared.InvalidArgument("agreement requires at least one installment")
	}
	a := &Agreement{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ResidentID:        residentID,
		InstallmentCount:  len(schedule),
		StartDate:         startDate,
		Status:            AgreementStatusActive,
		Notes:             notes,
		Lines:             make([]InstallmentLine, 0, len(schedule)),
	}
	total := valueobject.Zero()
	for i, s := range schedule {
		if !s.Amount.IsPositive() {
			return nil, shared.InvalidArgument("installment %d amount must be positive", i+1)
		}
		if s.DueDate.IsZero() {
			return nil, shared.InvalidArgument("installment %d due date is required", i+1)
		}
		a.Lines = append(a.Lines, InstallmentLine{
			BaseEntity:      shared.NewBaseEntity(),
			ObligationState: newPendingState(),
			AgreementID:     a.ID,
			Sequence:        i + 1,
			Amount:          s.Amount.Amount(),
			DueDate:         s.DueDate,
		})
		total = total.Add(s.Amount)
	}
	a.TotalAmount = total.Amount()
	return a, nil
}

// TotalMoney returns the total as Money
func (a *Agreement) TotalMoney() valueobject.Money {
	return valueobject.NewMoney(a.TotalAmount)
}

// AllSettled reports whether every non-cancelled line is settled.
func (a *Agreement) AllSettled() bool {
	if len(a.Lines) == 0 {
		return false
	}
	for _, l := range a.Lines {
		if l.Status != ObligationStatusSettled && l.Status != ObligationStatusCancelled {
			return false
		}
	}
	return true
}

// Complete marks the agreement completed once every line is settled.
func (a *Agreement) Complete() error {
	if a.Status != AgreementStatusActive {
		return shared.InvalidTransition("agreement is %s, only active agreements can complete", a.Status)
	}
	if !a.AllSettled() {
		return shared.InvalidTransition("agreement still has unsettled installments")
	}
	a.Status = AgreementStatusCompleted
	a.Touch()
	a.IncrementVersion()
	a.AddDomainEvent(NewAgreementCompletedEvent(a))
	return nil
}

// SplitSchedule divides total into n equal lines of round(total/n, 2) due on
// the same day of consecutive months starting at start. The last line absorbs
// the rounding remainder. A total under one cent per line is rejected.
func SplitSchedule(total valueobject.Money, n int, start time.Time) ([]ScheduledInstallment, error) {
	parts, err := total.Split(n)
	if err != nil {
		return nil, shared.InvalidArgument("installment count must be positive")
	}
	if total.LessThan(valueobject.NewMoneyFromCents(int64(n))) {
		return nil, shared.InvalidArgument("total %s is too small for %d installments; each needs at least 0.01", total, n)
	}
	first := valueobject.PeriodOf(start)
	schedule := make([]ScheduledInstallment, n)
	period := first
	for i := 0; i < n; i++ {
		schedule[i] = ScheduledInstallment{
			Amount:  parts[i],
			DueDate: period.DayIn(start.Day(), start.Location()),
		}
		period = period.Next()
	}
	return schedule, nil
}

package dues

import (
	"strings"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObligationStatus is the status shared by periodic charges, fines and
// installment lines.
type ObligationStatus string

const (
	ObligationStatusPending    ObligationStatus = "pending"
	ObligationStatusOverdue    ObligationStatus = "overdue"
	ObligationStatusProcessing ObligationStatus = "processing"
	ObligationStatusSettled    ObligationStatus = "settled"
	ObligationStatusCancelled  ObligationStatus = "cancelled"
)

// IsValid checks if the status is a known ObligationStatus
func (s ObligationStatus) IsValid() bool {
	switch s {
	case ObligationStatusPending, ObligationStatusOverdue, ObligationStatusProcessing,
		ObligationStatusSettled, ObligationStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ObligationStatus
func (s ObligationStatus) String() string {
	return string(s)
}

// IsTerminal returns true for settled and cancelled
func (s ObligationStatus) IsTerminal() bool {
	return s == ObligationStatusSettled || s == ObligationStatusCancelled
}

// IsPayable returns true when the obligation can be linked to a new transaction
func (s ObligationStatus) IsPayable() bool {
	return s == ObligationStatusPending || s == ObligationStatusOverdue
}

var obligationTransitions = map[ObligationStatus][]ObligationStatus{
	ObligationStatusPending: {
		ObligationStatusOverdue, ObligationStatusProcessing,
		ObligationStatusSettled, ObligationStatusCancelled,
	},
	ObligationStatusOverdue: {
		ObligationStatusProcessing, ObligationStatusSettled, ObligationStatusCancelled,
	},
	ObligationStatusProcessing: {
		ObligationStatusPending, ObligationStatusSettled,
	},
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Re-settling a settled obligation is allowed and is a no-op.
func (s ObligationStatus) CanTransitionTo(next ObligationStatus) bool {
	if s == ObligationStatusSettled && next == ObligationStatusSettled {
		return true
	}
	for _, allowed := range obligationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ObligationKind identifies which table an obligation lives in.
type ObligationKind string

const (
	ObligationKindPeriodicCharge ObligationKind = "periodic_charge"
	ObligationKindFine           ObligationKind = "fine"
	ObligationKindInstallment    ObligationKind = "installment"
)

// IsValid checks if the kind is known
func (k ObligationKind) IsValid() bool {
	switch k {
	case ObligationKindPeriodicCharge, ObligationKindFine, ObligationKindInstallment:
		return true
	}
	return false
}

// String returns the string representation of ObligationKind
func (k ObligationKind) String() string {
	return string(k)
}

// ObligationRef addresses one obligation of any kind.
type ObligationRef struct {
	Kind ObligationKind `json:"kind"`
	ID   uuid.UUID      `json:"id"`
}

// Validate checks the reference is well formed
func (r ObligationRef) Validate() error {
	if !r.Kind.IsValid() {
		return shared.InvalidArgument("unknown obligation kind %q", r.Kind)
	}
	if r.ID == uuid.Nil {
		return shared.InvalidArgument("obligation id is required")
	}
	return nil
}

// String formats as kind:id
func (r ObligationRef) String() string {
	return string(r.Kind) + ":" + r.ID.String()
}

// ObligationState carries the status machine shared by every obligation kind.
type ObligationState struct {
	Status        ObligationStatus `json:"status"`
	TransactionID *uuid.UUID       `json:"transaction_id,omitempty"`
	SettledAt     *time.Time       `json:"settled_at,omitempty"`
}

func newPendingState() ObligationState {
	return ObligationState{Status: ObligationStatusPending}
}

// TransitionTo moves the state to next, enforcing the status machine.
// Settling stamps settledAt only if no settlement date exists yet, and
// re-settling a settled obligation changes nothing. A non-nil txID replaces the
// linked transaction.
func (o *ObligationState) TransitionTo(next ObligationStatus, settledAt *time.Time, txID *uuid.UUID) error {
	if !next.IsValid() {
		return shared.InvalidArgument("unknown obligation status %q", next)
	}
	if !o.Status.CanTransitionTo(next) {
		return shared.InvalidTransition("cannot move obligation from %s to %s", o.Status, next)
	}
	if o.Status == ObligationStatusSettled {
		return nil
	}
	switch next {
	case ObligationStatusSettled:
		if o.SettledAt == nil {
			at := time.Now()
			if settledAt != nil {
				at = *settledAt
			}
			o.SettledAt = &at
		}
	case ObligationStatusPending:
		o.TransactionID = nil
	}
	if txID != nil {
		id := *txID
		o.TransactionID = &id
	}
	o.Status = next
	return nil
}

// LinkTransaction moves a payable obligation to processing under txID.
func (o *ObligationState) LinkTransaction(txID uuid.UUID) error {
	if !o.Status.IsPayable() {
		return shared.InvalidTransition("obligation is %s and cannot be paid", o.Status)
	}
	return o.TransitionTo(ObligationStatusProcessing, nil, &txID)
}

// MarkOverdue promotes a pending obligation whose due date passed. It reports
// whether anything changed.
func (o *ObligationState) MarkOverdue(dueDate, now time.Time) bool {
	if o.Status != ObligationStatusPending || !dueDate.Before(now) {
		return false
	}
	o.Status = ObligationStatusOverdue
	return true
}

// AppendNote joins a note onto existing free text.
func AppendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	if strings.TrimSpace(existing) == "" {
		return note
	}
	return existing + "\n" + note
}

// Obligation is a read view over any obligation kind.
type Obligation struct {
	Ref           ObligationRef    `json:"ref"`
	ResidentID    *uuid.UUID       `json:"resident_id,omitempty"`
	UnitID        *uuid.UUID       `json:"unit_id,omitempty"`
	AgreementID   *uuid.UUID       `json:"agreement_id,omitempty"`
	Description   string           `json:"description"`
	Amount        decimal.Decimal  `json:"amount"`
	DueDate       time.Time        `json:"due_date"`
	Status        ObligationStatus `json:"status"`
	TransactionID *uuid.UUID       `json:"transaction_id,omitempty"`
	SettledAt     *time.Time       `json:"settled_at,omitempty"`
}

// ObligationFilter narrows obligation listings.
type ObligationFilter struct {
	shared.Filter
	ResidentID *uuid.UUID
	UnitID     *uuid.UUID
	Month      int
	Year       int
	Status     ObligationStatus
	Kind       ObligationKind
}

// SweepScope restricts an overdue sweep. Both nil means every obligation.
type SweepScope struct {
	UnitID     *uuid.UUID
	ResidentID *uuid.UUID
}

// IsGlobal reports whether the scope covers all obligations.
func (s SweepScope) IsGlobal() bool {
	return s.UnitID == nil && s.ResidentID == nil
}

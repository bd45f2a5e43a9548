package dues

import (
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeTransactionSubmitted = "TransactionSubmitted"
	EventTypeTransactionApproved  = "TransactionApproved"
	EventTypeTransactionRejected  = "TransactionRejected"
	EventTypeAgreementCreated     = "AgreementCreated"
	EventTypeAgreementCompleted   = "AgreementCompleted"
	EventTypeObligationsSwept     = "ObligationsSwept"
)

const (
	aggregateTypeTransaction = "Transaction"
	aggregateTypeAgreement   = "Agreement"
)

// TransactionSubmittedEvent is raised when a payment is recorded
type TransactionSubmittedEvent struct {
	shared.BaseDomainEvent
	ResidentID  uuid.UUID         `json:"resident_id"`
	Amount      decimal.Decimal   `json:"amount"`
	Method      TransactionMethod `json:"method"`
	Status      TransactionStatus `json:"status"`
	Obligations []ObligationRef   `json:"obligations"`
}

// NewTransactionSubmittedEvent creates a TransactionSubmittedEvent
func NewTransactionSubmittedEvent(t *Transaction, refs []ObligationRef) *TransactionSubmittedEvent {
	return &TransactionSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionSubmitted, aggregateTypeTransaction, t.ID),
		ResidentID:      t.ResidentID,
		Amount:          t.Amount,
		Method:          t.Method,
		Status:          t.Status,
		Obligations:     refs,
	}
}

// TransactionApprovedEvent is raised when a transaction completes
type TransactionApprovedEvent struct {
	shared.BaseDomainEvent
	ResidentID uuid.UUID       `json:"resident_id"`
	Amount     decimal.Decimal `json:"amount"`
	Settled    int64           `json:"settled"`
}

// NewTransactionApprovedEvent creates a TransactionApprovedEvent
func NewTransactionApprovedEvent(t *Transaction) *TransactionApprovedEvent {
	return &TransactionApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionApproved, aggregateTypeTransaction, t.ID),
		ResidentID:      t.ResidentID,
		Amount:          t.Amount,
	}
}

// TransactionRejectedEvent is raised when a transaction is rejected
type TransactionRejectedEvent struct {
	shared.BaseDomainEvent
	ResidentID uuid.UUID `json:"resident_id"`
	Released   int64     `json:"released"`
	Notes      string    `json:"notes"`
}

// NewTransactionRejectedEvent creates a TransactionRejectedEvent
func NewTransactionRejectedEvent(t *Transaction) *TransactionRejectedEvent {
	return &TransactionRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionRejected, aggregateTypeTransaction, t.ID),
		ResidentID:      t.ResidentID,
		Notes:           t.Notes,
	}
}

// AgreementCreatedEvent is raised when debt is consolidated into an agreement
type AgreementCreatedEvent struct {
	shared.BaseDomainEvent
	ResidentID       uuid.UUID       `json:"resident_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	InstallmentCount int             `json:"installment_count"`
	StartDate        time.Time       `json:"start_date"`
}

// NewAgreementCreatedEvent creates an AgreementCreatedEvent
func NewAgreementCreatedEvent(a *Agreement) *AgreementCreatedEvent {
	return &AgreementCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeAgreementCreated, aggregateTypeAgreement, a.ID),
		ResidentID:       a.ResidentID,
		TotalAmount:      a.TotalAmount,
		InstallmentCount: a.InstallmentCount,
		StartDate:        a.StartDate,
	}
}

// AgreementCompletedEvent is raised when the last installment settles
type AgreementCompletedEvent struct {
	shared.BaseDomainEvent
	ResidentID uuid.UUID `json:"resident_id"`
}

// NewAgreementCompletedEvent creates an AgreementCompletedEvent
func NewAgreementCompletedEvent(a *Agreement) *AgreementCompletedEvent {
	return &AgreementCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAgreementCompleted, aggregateTypeAgreement, a.ID),
		ResidentID:      a.ResidentID,
	}
}

// ObligationsSweptEvent is raised when a sweep promotes at least one obligation
type ObligationsSweptEvent struct {
	shared.BaseDomainEvent
	Promoted   int64      `json:"promoted"`
	UnitID     *uuid.UUID `json:"unit_id,omitempty"`
	ResidentID *uuid.UUID `json:"resident_id,omitempty"`
}

// NewObligationsSweptEvent creates an ObligationsSweptEvent
func NewObligationsSweptEvent(scope SweepScope, promoted int64) *ObligationsSweptEvent {
	aggID := uuid.Nil
	switch {
	case scope.UnitID != nil:
		aggID = *scope.UnitID
	case scope.ResidentID != nil:
		aggID = *scope.ResidentID
	}
	return &ObligationsSweptEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeObligationsSwept, "Obligation", aggID),
		Promoted:        promoted,
		UnitID:          scope.UnitID,
		ResidentID:      scope.ResidentID,
	}
}

package dues

import (
	"strings"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle of a payment transaction
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusCompleted  TransactionStatus = "completed"
	TransactionStatusRejected   TransactionStatus = "rejected"
)

// IsValid checks if the status is known
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusProcessing,
		TransactionStatusCompleted, TransactionStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of TransactionStatus
func (s TransactionStatus) String() string {
	return string(s)
}

// IsTerminal returns true for completed and rejected
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusRejected
}

// TransactionMethod is how the money was paid
type TransactionMethod string

const (
	TransactionMethodCash     TransactionMethod = "cash"
	TransactionMethodTransfer TransactionMethod = "transfer"
	TransactionMethodCard     TransactionMethod = "card"
	TransactionMethodCheck    TransactionMethod = "check"
)

// IsValid checks if the method is known
func (m TransactionMethod) IsValid() bool {
	switch m {
	case TransactionMethodCash, TransactionMethodTransfer, TransactionMethodCard, TransactionMethodCheck:
		return true
	}
	return false
}

// String returns the string representation of TransactionMethod
func (m TransactionMethod) String() string {
	return string(m)
}

// InitialStatus is pending for gateway-driven card payments and processing for
// methods an operator reviews by hand.
func (m TransactionMethod) InitialStatus() TransactionStatus {
	if m == TransactionMethodCard {
		return TransactionStatusPending
	}
	return TransactionStatusProcessing
}

// TransactionType tags what the payment is for
type TransactionType string

const (
	TransactionTypeMaintenance TransactionType = "maintenance"
	TransactionTypeFine        TransactionType = "fine"
	TransactionTypeAgreement   TransactionType = "agreement"
	TransactionTypeOther       TransactionType = "other"
)

// IsValid checks if the type is known
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeMaintenance, TransactionTypeFine, TransactionTypeAgreement, TransactionTypeOther:
		return true
	}
	return false
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// Transaction is a payment submitted against one or more obligations.
type Transaction struct {
	shared.BaseAggregateRoot
	ResidentID  uuid.UUID         `json:"resident_id"`
	Reference   string            `json:"reference,omitempty"`
	Type        TransactionType   `json:"type"`
	Amount      decimal.Decimal   `json:"amount"`
	Method      TransactionMethod `json:"method"`
	Status      TransactionStatus `json:"status"`
	Notes       string            `json:"notes"`
	PaidAt      time.Time         `json:"paid_at"`
	EvidenceKey string            `json:"evidence_key,omitempty"`
}

// NewTransaction validates and creates a transaction in the method's initial status.
func NewTransaction(residentID uuid.UUID, amount valueobject.Money, method TransactionMethod, txType TransactionType, paidAt time.Time) (*Transaction, error) {
	if residentID == uuid.Nil {
		return nil, shared.InvalidArgument("transaction requires a resident")
	}
	if !amount.IsPositive() {
		return nil, shared.InvalidArgument("transaction amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.InvalidArgument("unknown payment method %q", method)
	}
	if !txType.IsValid() {
		return nil, shared.InvalidArgument("unknown transaction type %q", txType)
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	return &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ResidentID:        residentID,
		Type:              txType,
		Amount:            amount.Amount(),
		Method:            method,
		Status:            method.InitialStatus(),
		PaidAt:            paidAt,
	}, nil
}

// SetReference stores an optional external reference code
func (t *Transaction) SetReference(ref string) {
	t.Reference = strings.TrimSpace(ref)
}

// AmountMoney returns the amount as Money
func (t *Transaction) AmountMoney() valueobject.Money {
	return valueobject.NewMoney(t.Amount)
}

// MarkProcessing moves a pending transaction into review.
func (t *Transaction) MarkProcessing() error {
	if t.Status != TransactionStatusPending {
		return shared.InvalidTransition("transaction %s is %s, only pending transactions can start processing", t.ID, t.Status)
	}
	t.Status = TransactionStatusProcessing
	t.Touch()
	t.IncrementVersion()
	return nil
}

// Approve completes a processing transaction.
func (t *Transaction) Approve(notes string) error {
	if t.Status != TransactionStatusProcessing {
		return shared.InvalidTransition("transaction %s is %s, only processing transactions can be approved", t.ID, t.Status)
	}
	t.Status = TransactionStatusCompleted
	t.Notes = AppendNote(t.Notes, notes)
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTransactionApprovedEvent(t))
	return nil
}

// Reject rejects a processing transaction.
func (t *Transaction) Reject(notes string) error {
	if t.Status != TransactionStatusProcessing {
		return shared.InvalidTransition("transaction %s is %s, only processing transactions can be rejected", t.ID, t.Status)
	}
	t.Status = TransactionStatusRejected
	t.Notes = AppendNote(t.Notes, notes)
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTransactionRejectedEvent(t))
	return nil
}

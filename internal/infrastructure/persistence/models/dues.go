package models

import (
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PeriodicChargeModel is the persistence model for periodic charges.
// (unit_id, month, year) is unique.
type PeriodicChargeModel struct {
	BaseModel
	ObligationColumns
	UnitID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_periodic_charges_unit_period,priority:1"`
	Month   int             `gorm:"not null;uniqueIndex:idx_periodic_charges_unit_period,priority:2"`
	Year    int             `gorm:"not null;uniqueIndex:idx_periodic_charges_unit_period,priority:3"`
	Amount  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DueDate time.Time       `gorm:"not null;index"`
	Notes   string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PeriodicChargeModel) TableName() string {
	return "periodic_charges"
}

// ToDomain converts the model to a domain PeriodicCharge
func (m *PeriodicChargeModel) ToDomain() *dues.PeriodicCharge {
	return &dues.PeriodicCharge{
		BaseEntity:      m.BaseModel.ToDomain(),
		ObligationState: m.ObligationColumns.ToDomain(),
		UnitID:          m.UnitID,
		Month:           m.Month,
		Year:            m.Year,
		Amount:          m.Amount,
		DueDate:         m.DueDate,
		Notes:           m.Notes,
	}
}

// PeriodicChargeModelFromDomain creates a persistence model from a domain PeriodicCharge
func PeriodicChargeModelFromDomain(c *dues.PeriodicCharge) *PeriodicChargeModel {
	m := &PeriodicChargeModel{
		UnitID:  c.UnitID,
		Month:   c.Month,
		Year:    c.Year,
		Amount:  c.Amount,
		DueDate: c.DueDate.UTC(),
		Notes:   c.Notes,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	m.FromDomainObligationState(c.ObligationState)
	return m
}

// FineModel is the persistence model for fines
type FineModel struct {
	BaseModel
	ObligationColumns
	ResidentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	UnitID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Reason     string          `gorm:"type:varchar(500);not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DueDate    time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (FineModel) TableName() string {
	return "fines"
}

// ToDomain converts the model to a domain Fine
func (m *FineModel) ToDomain() *dues.Fine {
	return &dues.Fine{
		BaseEntity:      m.BaseModel.ToDomain(),
		ObligationState: m.ObligationColumns.ToDomain(),
		ResidentID:      m.ResidentID,
		UnitID:          m.UnitID,
		Reason:          m.Reason,
		Amount:          m.Amount,
		DueDate:         m.DueDate,
	}
}

// FineModelFromDomain creates a persistence model from a domain Fine
func FineModelFromDomain(f *dues.Fine) *FineModel {
	m := &FineModel{
		ResidentID: f.ResidentID,
		UnitID:     f.UnitID,
		Reason:     f.Reason,
		Amount:     f.Amount,
		DueDate:    f.DueDate.UTC(),
	}
	m.FromDomainBaseEntity(f.BaseEntity)
	m.FromDomainObligationState(f.ObligationState)
	return m
}

// AgreementModel is the persistence model for the Agreement aggregate root
type AgreementModel struct {
	AggregateModel
	ResidentID       uuid.UUID              `gorm:"type:uuid;not null;index"`
	TotalAmount      decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	InstallmentCount int                    `gorm:"not null"`
	StartDate        time.Time              `gorm:"not null"`
	Status           dues.AgreementStatus   `gorm:"type:varchar(20);not null;default:'active';index"`
	Notes            string                 `gorm:"type:text"`
	Lines            []InstallmentLineModel `gorm:"foreignKey:AgreementID;references:ID"`
}

// TableName returns the table name for GORM
func (AgreementModel) TableName() string {
	return "agreements"
}

// ToDomain converts the model to a domain Agreement, including loaded lines
func (m *AgreementModel) ToDomain() *dues.Agreement {
	a := &dues.Agreement{
		BaseAggregateRoot: m.AggregateModel.ToDomainAggregateRoot(),
		ResidentID:        m.ResidentID,
		TotalAmount:       m.TotalAmount,
		InstallmentCount:  m.InstallmentCount,
		StartDate:         m.StartDate,
		Status:            m.Status,
		Notes:             m.Notes,
		Lines:             make([]dues.InstallmentLine, len(m.Lines)),
	}
	for i := range m.Lines {
		a.Lines[i] = *m.Lines[i].ToDomain()
	}
	return a
}

// AgreementModelFromDomain creates a persistence model from a domain Agreement.
// Lines are included.
func AgreementModelFromDomain(a *dues.Agreement) *AgreementModel {
	m := &AgreementModel{
		ResidentID:       a.ResidentID,
		TotalAmount:      a.TotalAmount,
		InstallmentCount: a.InstallmentCount,
		StartDate:        a.StartDate.UTC(),
		Status:           a.Status,
		Notes:            a.Notes,
		Lines:            make([]InstallmentLineModel, len(a.Lines)),
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	for i := range a.Lines {
		m.Lines[i] = *InstallmentLineModelFromDomain(&a.Lines[i])
	}
	return m
}

// InstallmentLineModel is the persistence model for agreement installment lines
type InstallmentLineModel struct {
	BaseModel
	ObligationColumns
	AgreementID uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_installment_lines_sequence,priority:1"`
	Sequence    int             `gorm:"not null;uniqueIndex:idx_installment_lines_sequence,priority:2"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DueDate     time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (InstallmentLineModel) TableName() string {
	return "installment_lines"
}

// ToDomain converts the model to a domain InstallmentLine
func (m *InstallmentLineModel) ToDomain() *dues.InstallmentLine {
	return &dues.InstallmentLine{
		BaseEntity:      m.BaseModel.ToDomain(),
		ObligationState: m.ObligationColumns.ToDomain(),
		AgreementID:     m.AgreementID,
		Sequence:        m.Sequence,
		Amount:          m.Amount,
		DueDate:         m.DueDate,
	}
}

// InstallmentLineModelFromDomain creates a persistence model from a domain InstallmentLine
func InstallmentLineModelFromDomain(l *dues.InstallmentLine) *InstallmentLineModel {
	m := &InstallmentLineModel{
		AgreementID: l.AgreementID,
		Sequence:    l.Sequence,
		Amount:      l.Amount,
		DueDate:     l.DueDate.UTC(),
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	m.FromDomainObligationState(l.ObligationState)
	return m
}

// TransactionModel is the persistence model for payment transactions
type TransactionModel struct {
	AggregateModel
	ResidentID  uuid.UUID              `gorm:"type:uuid;not null;index"`
	Reference   string                 `gorm:"type:varchar(100);index"`
	Type        dues.TransactionType   `gorm:"type:varchar(20);not null"`
	Amount      decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Method      dues.TransactionMethod `gorm:"type:varchar(20);not null"`
	Status      dues.TransactionStatus `gorm:"type:varchar(20);not null;index"`
	Notes       string                 `gorm:"type:text"`
	PaidAt      time.Time              `gorm:"not null"`
	EvidenceKey string                 `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "payment_transactions"
}

// ToDomain converts the model to a domain Transaction
func (m *TransactionModel) ToDomain() *dues.Transaction {
	return &dues.Transaction{
		BaseAggregateRoot: m.AggregateModel.ToDomainAggregateRoot(),
		ResidentID:        m.ResidentID,
		Reference:         m.Reference,
		Type:              m.Type,
		Amount:            m.Amount,
		Method:            m.Method,
		Status:            m.Status,
		Notes:             m.Notes,
		PaidAt:            m.PaidAt,
		EvidenceKey:       m.EvidenceKey,
	}
}

// TransactionModelFromDomain creates a persistence model from a domain Transaction
func TransactionModelFromDomain(t *dues.Transaction) *TransactionModel {
	m := &TransactionModel{
		ResidentID:  t.ResidentID,
		Reference:   t.Reference,
		Type:        t.Type,
		Amount:      t.Amount,
		Method:      t.Method,
		Status:      t.Status,
		Notes:       t.Notes,
		PaidAt:      t.PaidAt.UTC(),
		EvidenceKey: t.EvidenceKey,
	}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	return m
}

// AllModels lists every model, in dependency order, for AutoMigrate in tests
// and local SQLite runs.
func AllModels() []any {
	return []any{
		&ResidentModel{},
		&BuildingModel{},
		&UnitModel{},
		&PropertyAssignmentModel{},
		&FeeScheduleModel{},
		&PeriodicChargeModel{},
		&FineModel{},
		&AgreementModel{},
		&InstallmentLineModel{},
		&TransactionModel{},
	}
}

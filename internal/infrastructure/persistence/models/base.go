package models

import (
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt.UTC()
	m.UpdatedAt = e.UpdatedAt.UTC()
}

// AggregateModel extends BaseModel with a version counter.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// ToDomainAggregateRoot converts AggregateModel to a domain BaseAggregateRoot
func (m *AggregateModel) ToDomainAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: m.BaseModel.ToDomain(),
		Version:    m.Version,
	}
}

// ObligationColumns are the status-machine columns shared by every obligation table.
type ObligationColumns struct {
	Status        dues.ObligationStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	TransactionID *uuid.UUID            `gorm:"type:uuid;index"`
	SettledAt     *time.Time
}

// ToDomain converts the columns to a domain ObligationState
func (c ObligationColumns) ToDomain() dues.ObligationState {
	return dues.ObligationState{
		Status:        c.Status,
		TransactionID: c.TransactionID,
		SettledAt:     c.SettledAt,
	}
}

// FromDomainObligationState populates the columns from a domain ObligationState
func (c *ObligationColumns) FromDomainObligationState(s dues.ObligationState) {
	c.Status = s.Status
	c.TransactionID = s.TransactionID
	if s.SettledAt != nil {
		at := s.SettledAt.UTC()
		c.SettledAt = &at
	} else {
		c.SettledAt = nil
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

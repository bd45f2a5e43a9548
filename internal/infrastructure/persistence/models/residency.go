package models

import (
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/residency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ResidentModel is the persistence model for residents
type ResidentModel struct {
	BaseModel
	Name         string    `gorm:"type:varchar(200);not null"`
	Email        string    `gorm:"type:varchar(200)"`
	RegisteredAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ResidentModel) TableName() string {
	return "residents"
}

// ToDomain converts the model to a domain Resident
func (m *ResidentModel) ToDomain() *residency.Resident {
	return &residency.Resident{
		BaseEntity:   m.BaseModel.ToDomain(),
		Name:         m.Name,
		Email:        m.Email,
		RegisteredAt: m.RegisteredAt,
	}
}

// ResidentModelFromDomain creates a persistence model from a domain Resident
func ResidentModelFromDomain(r *residency.Resident) *ResidentModel {
	m := &ResidentModel{
		Name:         r.Name,
		Email:        r.Email,
		RegisteredAt: r.RegisteredAt.UTC(),
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}

// BuildingModel is the persistence model for buildings
type BuildingModel struct {
	BaseModel
	Name string `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (BuildingModel) TableName() string {
	return "buildings"
}

// ToDomain converts the model to a domain Building
func (m *BuildingModel) ToDomain() *residency.Building {
	return &residency.Building{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
	}
}

// BuildingModelFromDomain creates a persistence model from a domain Building
func BuildingModelFromDomain(b *residency.Building) *BuildingModel {
	m := &BuildingModel{Name: b.Name}
	m.FromDomainBaseEntity(b.BaseEntity)
	return m
}

// UnitModel is the persistence model for units
type UnitModel struct {
	BaseModel
	BuildingID uuid.UUID `gorm:"type:uuid;not null;index"`
	Label      string    `gorm:"type:varchar(50);not null"`
}

// TableName returns the table name for GORM
func (UnitModel) TableName() string {
	return "units"
}

// ToDomain converts the model to a domain Unit
func (m *UnitModel) ToDomain() *residency.Unit {
	return &residency.Unit{
		BaseEntity: m.BaseModel.ToDomain(),
		BuildingID: m.BuildingID,
		Label:      m.Label,
	}
}

// UnitModelFromDomain creates a persistence model from a domain Unit
func UnitModelFromDomain(u *residency.Unit) *UnitModel {
	m := &UnitModel{
		BuildingID: u.BuildingID,
		Label:      u.Label,
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}

// PropertyAssignmentModel is the persistence model for property assignments
type PropertyAssignmentModel struct {
	BaseModel
	ResidentID uuid.UUID `gorm:"type:uuid;not null;index"`
	UnitID     uuid.UUID `gorm:"type:uuid;not null;index"`
	StartDate  time.Time `gorm:"not null"`
	EndDate    *time.Time
	IsOwner    bool `gorm:"not null;default:false"`
	Active     bool `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PropertyAssignmentModel) TableName() string {
	return "property_assignments"
}

// ToDomain converts the model to a domain PropertyAssignment
func (m *PropertyAssignmentModel) ToDomain() *residency.PropertyAssignment {
	return &residency.PropertyAssignment{
		BaseEntity: m.BaseModel.ToDomain(),
		ResidentID: m.ResidentID,
		UnitID:     m.UnitID,
		StartDate:  m.StartDate,
		EndDate:    m.EndDate,
		IsOwner:    m.IsOwner,
		Active:     m.Active,
	}
}

// PropertyAssignmentModelFromDomain creates a persistence model from a domain PropertyAssignment
func PropertyAssignmentModelFromDomain(a *residency.PropertyAssignment) *PropertyAssignmentModel {
	m := &PropertyAssignmentModel{
		ResidentID: a.ResidentID,
		UnitID:     a.UnitID,
		StartDate:  a.StartDate.UTC(),
		EndDate:    utcPtr(a.EndDate),
		IsOwner:    a.IsOwner,
		Active:     a.Active,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}

// FeeScheduleModel is the persistence model for fee schedules
type FeeScheduleModel struct {
	BaseModel
	BuildingID       *uuid.UUID      `gorm:"type:uuid;index"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	SurchargePercent decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	GraceDay         int             `gorm:"not null"`
	StartsAt         time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (FeeScheduleModel) TableName() string {
	return "fee_schedules"
}

// ToDomain converts the model to a domain FeeSchedule
func (m *FeeScheduleModel) ToDomain() *residency.FeeSchedule {
	return &residency.FeeSchedule{
		BaseEntity:       m.BaseModel.ToDomain(),
		BuildingID:       m.BuildingID,
		Amount:           m.Amount,
		SurchargePercent: m.SurchargePercent,
		GraceDay:         m.GraceDay,
		StartsAt:         m.StartsAt,
	}
}

// FeeScheduleModelFromDomain creates a persistence model from a domain FeeSchedule
func FeeScheduleModelFromDomain(s *residency.FeeSchedule) *FeeScheduleModel {
	m := &FeeScheduleModel{
		BuildingID:       s.BuildingID,
		Amount:           s.Amount,
		SurchargePercent: s.SurchargePercent,
		GraceDay:         s.GraceDay,
		StartsAt:         s.StartsAt.UTC(),
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}

package persistence

import (
	"context"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/residency"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormResidentRepository implements residency.ResidentRepository using GORM
type GormResidentRepository struct {
	db *gorm.DB
}

// NewGormResidentRepository creates a new GormResidentRepository
func NewGormResidentRepository(db *gorm.DB) *GormResidentRepository {
	return &GormResidentRepository{db: db}
}

// FindByID finds a resident by its ID
func (r *GormResidentRepository) FindByID(ctx context.Context, id uuid.UUID) (*residency.Resident, error) {
	var model models.ResidentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, findError("resident", id, err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a resident
func (r *GormResidentRepository) Save(ctx context.Context, resident *residency.Resident) error {
	model := models.ResidentModelFromDomain(resident)
	return storageError("save resident", r.db.WithContext(ctx).Save(model).Error)
}

// GormUnitRepository implements residency.UnitRepository using GORM
type GormUnitRepository struct {
	db *gorm.DB
}

// NewGormUnitRepository creates a new GormUnitRepository
func NewGormUnitRepository(db *gorm.DB) *GormUnitRepository {
	return &GormUnitRepository{db: db}
}

// FindByID finds a unit by its ID
func (r *GormUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*residency.Unit, error) {
	var model models.UnitModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, findError("unit", id, err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a unit
func (r *GormUnitRepository) Save(ctx context.Context, unit *residency.Unit) error {
	model := models.UnitModelFromDomain(unit)
	return storageError("save unit", r.db.WithContext(ctx).Save(model).Error)
}

// SaveBuilding creates or updates a building
func (r *GormUnitRepository) SaveBuilding(ctx context.Context, building *residency.Building) error {
	model := models.BuildingModelFromDomain(building)
	return storageError("save building", r.db.WithContext(ctx).Save(model).Error)
}

// GormPropertyAssignmentRepository implements residency.PropertyAssignmentRepository using GORM
type GormPropertyAssignmentRepository struct {
	db *gorm.DB
}

// NewGormPropertyAssignmentRepository creates a new GormPropertyAssignmentRepository
func NewGormPropertyAssignmentRepository(db *gorm.DB) *GormPropertyAssignmentRepository {
	return &GormPropertyAssignmentRepository{db: db}
}

// FindByResident returns every assignment of the resident, newest first.
func (r *GormPropertyAssignmentRepository) FindByResident(ctx context.Context, residentID uuid.UUID) ([]residency.PropertyAssignment, error) {
	var rows []models.PropertyAssignmentModel
	if err := r.db.WithContext(ctx).
		Where("resident_id = ?", residentID).
		Order("start_date DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, storageError("list property assignments", err)
	}
	assignments := make([]residency.PropertyAssignment, len(rows))
	for i := range rows {
		assignments[i] = *rows[i].ToDomain()
	}
	return assignments, nil
}

// Save creates or updates an assignment
func (r *GormPropertyAssignmentRepository) Save(ctx context.Context, assignment *residency.PropertyAssignment) error {
	model := models.PropertyAssignmentModelFromDomain(assignment)
	return storageError("save property assignment", r.db.WithContext(ctx).Save(model).Error)
}

// GormFeeScheduleRepository implements residency.FeeScheduleRepository using GORM
type GormFeeScheduleRepository struct {
	db *gorm.DB
}

// NewGormFeeScheduleRepository creates a new GormFeeScheduleRepository
func NewGormFeeScheduleRepository(db *gorm.DB) *GormFeeScheduleRepository {
	return &GormFeeScheduleRepository{db: db}
}

// FindCurrent loads the building's schedules together with the global ones
// and picks the current one.
func (r *GormFeeScheduleRepository) FindCurrent(ctx context.Context, buildingID uuid.UUID) (*residency.FeeSchedule, error) {
	var rows []models.FeeScheduleModel
	if err := r.db.WithContext(ctx).
		Order("starts_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, storageError("list fee schedules", err)
	}
	schedules := make([]residency.FeeSchedule, len(rows))
	for i := range rows {
		schedules[i] = *rows[i].ToDomain()
	}
	current := residency.SelectCurrentSchedule(schedules, buildingID)
	if current == nil {
		return nil, shared.NotFound("no fee schedule configured")
	}
	return current, nil
}

// Save creates or updates a fee schedule
func (r *GormFeeScheduleRepository) Save(ctx context.Context, schedule *residency.FeeSchedule) error {
	model := models.FeeScheduleModelFromDomain(schedule)
	return storageError("save fee schedule", r.db.WithContext(ctx).Save(model).Error)
}

var (
	_ residency.ResidentRepository           = (*GormResidentRepository)(nil)
	_ residency.UnitRepository               = (*GormUnitRepository)(nil)
	_ residency.PropertyAssignmentRepository = (*GormPropertyAssignmentRepository)(nil)
	_ residency.FeeScheduleRepository        = (*GormFeeScheduleRepository)(nil)
)

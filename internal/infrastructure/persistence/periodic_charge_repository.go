package persistence

import (
	"context"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPeriodicChargeRepository implements dues.PeriodicChargeRepository using GORM
type GormPeriodicChargeRepository struct {
	db *gorm.DB
}

// NewGormPeriodicChargeRepository creates a new GormPeriodicChargeRepository
func NewGormPeriodicChargeRepository(db *gorm.DB) *GormPeriodicChargeRepository {
	return &GormPeriodicChargeRepository{db: db}
}

// FindByID finds a periodic charge by its ID
func (r *GormPeriodicChargeRepository) FindByID(ctx context.Context, id uuid.UUID) (*dues.PeriodicCharge, error) {
	var model models.PeriodicChargeModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, findError("periodic charge", id, err)
	}
	return model.ToDomain(), nil
}

// FindByUnitAndPeriod finds the charge of a unit for one period
func (r *GormPeriodicChargeRepository) FindByUnitAndPeriod(ctx context.Context, unitID uuid.UUID, period valueobject.Period) (*dues.PeriodicCharge, error) {
	var model models.PeriodicChargeModel
	if err := r.db.WithContext(ctx).
		Where("unit_id = ? AND month = ? AND year = ?", unitID, period.Month, period.Year).
		First(&model).Error; err != nil {
		return nil, findError("periodic charge for period", period, err)
	}
	return model.ToDomain(), nil
}

// FindOrCreate inserts the charge with ON CONFLICT (unit_id, month, year) DO
// NOTHING. When the insert was skipped the stored row is read back.
func (r *GormPeriodicChargeRepository) FindOrCreate(ctx context.Context, charge *dues.PeriodicCharge) (*dues.PeriodicCharge, bool, error) {
	model := models.PeriodicChargeModelFromDomain(charge)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "unit_id"}, {Name: "month"}, {Name: "year"}},
			DoNothing: true,
		}).
		Create(model)
	if res.Error != nil {
		return nil, false, storageError("upsert periodic charge", res.Error)
	}
	if res.RowsAffected > 0 {
		return charge, true, nil
	}
	existing, err := r.FindByUnitAndPeriod(ctx, charge.UnitID, charge.Period())
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Create inserts a new charge. A duplicate period is INVALID_ARGUMENT.
func (r *GormPeriodicChargeRepository) Create(ctx context.Context, charge *dues.PeriodicCharge) error {
	model := models.PeriodicChargeModelFromDomain(charge)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return duplicateError("create periodic charge",
			"a charge for unit "+charge.UnitID.String()+" period "+charge.Period().String()+" already exists", err)
	}
	return nil
}

// Save updates every column of an existing charge
func (r *GormPeriodicChargeRepository) Save(ctx context.Context, charge *dues.PeriodicCharge) error {
	model := models.PeriodicChargeModelFromDomain(charge)
	res := r.db.WithContext(ctx).Model(model).Select("*").Omit("created_at").Updates(model)
	if res.Error != nil {
		return duplicateError("save periodic charge", "periodic charge period already taken", res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.NotFound("periodic charge %s not found", charge.ID)
	}
	return nil
}

// ListByUnit returns every charge of a unit ordered by period
func (r *GormPeriodicChargeRepository) ListByUnit(ctx context.Context, unitID uuid.UUID) ([]dues.PeriodicCharge, error) {
	var rows []models.PeriodicChargeModel
	if err := r.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("year ASC, month ASC").
		Find(&rows).Error; err != nil {
		return nil, storageError("list periodic charges", err)
	}
	return chargesToDomain(rows), nil
}

// FindByTransaction returns the charges linked to a transaction
func (r *GormPeriodicChargeRepository) FindByTransaction(ctx context.Context, txID uuid.UUID) ([]dues.PeriodicCharge, error) {
	var rows []models.PeriodicChargeModel
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", txID).
		Order("year ASC, month ASC").
		Find(&rows).Error; err != nil {
		return nil, storageError("list periodic charges by transaction", err)
	}
	return chargesToDomain(rows), nil
}

// ListObligations returns charge views matching the filter. A resident filter
// covers every unit the resident is assigned to.
func (r *GormPeriodicChargeRepository) ListObligations(ctx context.Context, filter dues.ObligationFilter) ([]dues.Obligation, error) {
	if !wantsKind(filter, dues.ObligationKindPeriodicCharge) {
		return nil, nil
	}
	q := r.db.WithContext(ctx).Model(&models.PeriodicChargeModel{})
	if filter.UnitID != nil {
		q = q.Where("unit_id = ?", *filter.UnitID)
	}
	if filter.ResidentID != nil {
		q = q.Where("unit_id IN (?)", unitsOfResident(r.db, *filter.ResidentID))
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Year > 0 {
		q = q.Where("year = ?", filter.Year)
		if filter.Month > 0 {
			q = q.Where("month = ?", filter.Month)
		}
	}

	var rows []models.PeriodicChargeModel
	if err := q.Order("due_date ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, storageError("list periodic charges", err)
	}
	views := make([]dues.Obligation, len(rows))
	for i := range rows {
		views[i] = rows[i].ToDomain().View()
	}
	return views, nil
}

// SettleByTransaction settles the charges linked to txID
func (r *GormPeriodicChargeRepository) SettleByTransaction(ctx context.Context, txID uuid.UUID, at time.Time) (int64, error) {
	n, err := settleByTransaction(ctx, r.db, &models.PeriodicChargeModel{}, txID, at)
	return n, storageError("settle periodic charges", err)
}

// ReleaseByTransaction reverts processing charges linked to txID
func (r *GormPeriodicChargeRepository) ReleaseByTransaction(ctx context.Context, txID uuid.UUID) (int64, error) {
	n, err := releaseByTransaction(ctx, r.db, &models.PeriodicChargeModel{}, txID)
	return n, storageError("release periodic charges", err)
}

// MarkOverdue promotes pending charges in scope that are past due
func (r *GormPeriodicChargeRepository) MarkOverdue(ctx context.Context, scope dues.SweepScope, now time.Time) (int64, error) {
	n, err := markOverdue(ctx, r.db, &models.PeriodicChargeModel{}, func(q *gorm.DB) *gorm.DB {
		if scope.UnitID != nil {
			q = q.Where("unit_id = ?", *scope.UnitID)
		}
		if scope.ResidentID != nil {
			q = q.Where("unit_id IN (?)", unitsOfResident(r.db, *scope.ResidentID))
		}
		return q
	}, now)
	return n, storageError("sweep periodic charges", err)
}

func chargesToDomain(rows []models.PeriodicChargeModel) []dues.PeriodicCharge {
	charges := make([]dues.PeriodicCharge, len(rows))
	for i := range rows {
		charges[i] = *rows[i].ToDomain()
	}
	return charges
}

var _ dues.PeriodicChargeRepository = (*GormPeriodicChargeRepository)(nil)

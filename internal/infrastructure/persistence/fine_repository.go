package persistence

import (
	"context"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFineRepository implements dues.FineRepository using GORM
type GormFineRepository struct {
	db *gorm.DB
}

// NewGormFineRepository creates a new GormFineRepository
func NewGormFineRepository(db *gorm.DB) *GormFineRepository {
	return &GormFineRepository{db: db}
}

// FindByID finds a fine by its ID
func (r *GormFineRepository) FindByID(ctx context.Context, id uuid.UUID) (*dues.Fine, error) {
	var model models.FineModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, findError("fine", id, err)
	}
	return model.ToDomain(), nil
}

// Create inserts a new fine
func (r *GormFineRepository) Create(ctx context.Context, fine *dues.Fine) error {
	model := models.FineModelFromDomain(fine)
	return storageError("create fine", r.db.WithContext(ctx).Create(model).Error)
}

// Save updates every column of an existing fine
func (r *GormFineRepository) Save(ctx context.Context, fine *dues.Fine) error {
	model := models.FineModelFromDomain(fine)
	res := r.db.WithContext(ctx).Model(model).Select("*").Omit("created_at").Updates(model)
	if res.Error != nil {
		return storageError("save fine", res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.NotFound("fine %s not found", fine.ID)
	}
	return nil
}

// ListObligations returns fine views matching the filter
func (r *GormFineRepository) ListObligations(ctx context.Context, filter dues.ObligationFilter) ([]dues.Obligation, error) {
	if !wantsKind(filter, dues.ObligationKindFine) {
		return nil, nil
	}
	q := r.db.WithContext(ctx).Model(&models.FineModel{})
	if filter.ResidentID != nil {
		q = q.Where("resident_id = ?", *filter.ResidentID)
	}
	if filter.UnitID != nil {
		q = q.Where("unit_id = ?", *filter.UnitID)
	}
	q = filterStatusAndDue(q, filter, "status", "due_date")

	var rows []models.FineModel
	if err := q.Order("due_date ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, storageError("list fines", err)
	}
	views := make([]dues.Obligation, len(rows))
	for i := range rows {
		views[i] = rows[i].ToDomain().View()
	}
	return views, nil
}

// SettleByTransaction settles the fines linked to txID
func (r *GormFineRepository) SettleByTransaction(ctx context.Context, txID uuid.UUID, at time.Time) (int64, error) {
	n, err := settleByTransaction(ctx, r.db, &models.FineModel{}, txID, at)
	return n, storageError("settle fines", err)
}

// ReleaseByTransaction reverts processing fines linked to txID
func (r *GormFineRepository) ReleaseByTransaction(ctx context.Context, txID uuid.UUID) (int64, error) {
	n, err := releaseByTransaction(ctx, r.db, &models.FineModel{}, txID)
	return n, storageError("release fines", err)
}

// MarkOverdue promotes pending fines in scope that are past due
func (r *GormFineRepository) MarkOverdue(ctx context.Context, scope dues.SweepScope, now time.Time) (int64, error) {
	n, err := markOverdue(ctx, r.db, &models.FineModel{}, func(q *gorm.DB) *gorm.DB {
		if scope.UnitID != nil {
			q = q.Where("unit_id = ?", *scope.UnitID)
		}
		if scope.ResidentID != nil {
			q = q.Where("resident_id = ?", *scope.ResidentID)
		}
		return q
	}, now)
	return n, storageError("sweep fines", err)
}

var _ dues.FineRepository = (*GormFineRepository)(nil)

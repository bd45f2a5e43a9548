package persistence

import (
	"context"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAgreementRepository implements dues.AgreementRepository using GORM
type GormAgreementRepository struct {
	db *gorm.DB
}

// NewGormAgreementRepository creates a new GormAgreementRepository
func NewGormAgreementRepository(db *gorm.DB) *GormAgreementRepository {
	return &GormAgreementRepository{db: db}
}

// FindByID finds an agreement with its lines in sequence order
func (r *GormAgreementRepository) FindByID(ctx context.Context, id uuid.UUID) (*dues.Agreement, error) {
	var model models.AgreementModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, findError("agreement", id, err)
	}
	return model.ToDomain(), nil
}

// Create inserts the agreement and its lines
func (r *GormAgreementRepository) Create(ctx context.Context, agreement *dues.Agreement) error {
	model := models.AgreementModelFromDomain(agreement)
	return storageError("create agreement", r.db.WithContext(ctx).Create(model).Error)
}

// Save updates the agreement row. Lines are saved through SaveLine.
func (r *GormAgreementRepository) Save(ctx context.Context, agreement *dues.Agreement) error {
	model := models.AgreementModelFromDomain(agreement)
	model.Lines = nil
	res := r.db.WithContext(ctx).Model(model).
		Select("*").
		Omit(clause.Associations, "created_at").
		Updates(model)
	if res.Error != nil {
		return storageError("save agreement", res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.NotFound("agreement %s not found", agreement.ID)
	}
	return nil
}

// FindLineByID finds an installment line by its ID
func (r *GormAgreementRepository) FindLineByID(ctx context.Context, id uuid.UUID) (*dues.InstallmentLine, error) {
	var model models.InstallmentLineModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, findError("installment line", id, err)
	}
	return model.ToDomain(), nil
}

// SaveLine updates every column of an existing line
func (r *GormAgreementRepository) SaveLine(ctx context.Context, line *dues.InstallmentLine) error {
	model := models.InstallmentLineModelFromDomain(line)
	res := r.db.WithContext(ctx).Model(model).Select("*").Omit("created_at").Updates(model)
	if res.Error != nil {
		return storageError("save installment line", res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.NotFound("installment line %s not found", line.ID)
	}
	return nil
}

// FindLinesByTransaction returns the lines linked to a transaction
func (r *GormAgreementRepository) FindLinesByTransaction(ctx context.Context, txID uuid.UUID) ([]dues.InstallmentLine, error) {
	var rows []models.InstallmentLineModel
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", txID).
		Order("agreement_id ASC, sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, storageError("list installment lines by transaction", err)
	}
	lines := make([]dues.InstallmentLine, len(rows))
	for i := range rows {
		lines[i] = *rows[i].ToDomain()
	}
	return lines, nil
}

// installmentRow is an installment line joined with its agreement owner
type installmentRow struct {
	models.InstallmentLineModel
	ResidentID uuid.UUID
}

// ListObligations returns installment views matching the filter. Lines belong
// to residents, so a unit-only filter matches nothing.
func (r *GormAgreementRepository) ListObligations(ctx context.Context, filter dues.ObligationFilter) ([]dues.Obligation, error) {
	if !wantsKind(filter, dues.ObligationKindInstallment) {
		return nil, nil
	}
	if filter.UnitID != nil && filter.ResidentID == nil {
		return nil, nil
	}
	q := r.db.WithContext(ctx).
		Table("installment_lines").
		Select("installment_lines.*, agreements.resident_id AS resident_id").
		Joins("JOIN agreements ON agreements.id = installment_lines.agreement_id")
	if filter.ResidentID != nil {
		q = q.Where("agreements.resident_id = ?", *filter.ResidentID)
	}
	q = filterStatusAndDue(q, filter, "installment_lines.status", "installment_lines.due_date")

	var rows []installmentRow
	if err := q.Order("installment_lines.due_date ASC, installment_lines.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, storageError("list installment lines", err)
	}
	views := make([]dues.Obligation, len(rows))
	for i := range rows {
		views[i] = rows[i].ToDomain().View(rows[i].ResidentID)
	}
	return views, nil
}

// SettleByTransaction settles the lines linked to txID
func (r *GormAgreementRepository) SettleByTransaction(ctx context.Context, txID uuid.UUID, at time.Time) (int64, error) {
	n, err := settleByTransaction(ctx, r.db, &models.InstallmentLineModel{}, txID, at)
	return n, storageError("settle installment lines", err)
}

// ReleaseByTransaction reverts processing lines linked to txID
func (r *GormAgreementRepository) ReleaseByTransaction(ctx context.Context, txID uuid.UUID) (int64, error) {
	n, err := releaseByTransaction(ctx, r.db, &models.InstallmentLineModel{}, txID)
	return n, storageError("release installment lines", err)
}

// MarkOverdue promotes pending lines in scope that are past due. A unit scope
// covers the agreements of every resident assigned to the unit.
func (r *GormAgreementRepository) MarkOverdue(ctx context.Context, scope dues.SweepScope, now time.Time) (int64, error) {
	n, err := markOverdue(ctx, r.db, &models.InstallmentLineModel{}, func(q *gorm.DB) *gorm.DB {
		if scope.ResidentID != nil {
			q = q.Where("agreement_id IN (?)", agreementsOf(r.db, *scope.ResidentID))
		}
		if scope.UnitID != nil {
			q = q.Where("agreement_id IN (?)", agreementsOf(r.db, residentsOfUnit(r.db, *scope.UnitID)))
		}
		return q
	}, now)
	return n, storageError("sweep installment lines", err)
}

var _ dues.AgreementRepository = (*GormAgreementRepository)(nil)

package persistence

import (
	"context"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTransactionRepository implements dues.TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*dues.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, findError("transaction", id, err)
	}
	return model.ToDomain(), nil
}

// Create inserts a new transaction
func (r *GormTransactionRepository) Create(ctx context.Context, tx *dues.Transaction) error {
	model := models.TransactionModelFromDomain(tx)
	return storageError("create transaction", r.db.WithContext(ctx).Create(model).Error)
}

// SaveFrom updates the transaction only while the stored row is still in
// status from. Two reviewers racing on the same transaction cannot both win.
func (r *GormTransactionRepository) SaveFrom(ctx context.Context, tx *dues.Transaction, from dues.TransactionStatus) error {
	model := models.TransactionModelFromDomain(tx)
	res := r.db.WithContext(ctx).Model(model).
		Where("status = ?", from).
		Select("*").
		Omit("created_at").
		Updates(model)
	if res.Error != nil {
		return storageError("save transaction", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	current, err := r.FindByID(ctx, tx.ID)
	if err != nil {
		return err
	}
	return shared.InvalidTransition("transaction %s is %s, expected %s", tx.ID, current.Status, from)
}

// List returns transactions matching the filter, newest first by default
func (r *GormTransactionRepository) List(ctx context.Context, filter dues.TransactionFilter) ([]dues.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TransactionModel{})
	if filter.ResidentID != nil {
		query = query.Where("resident_id = ?", *filter.ResidentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storageError("count transactions", err)
	}

	orderBy := transactionSort.column(filter.OrderBy)
	orderDir := direction(filter.OrderDir)

	var rows []models.TransactionModel
	if err := query.
		Order(orderBy + " " + orderDir).
		Order("id " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, storageError("list transactions", err)
	}
	transactions := make([]dues.Transaction, len(rows))
	for i := range rows {
		transactions[i] = *rows[i].ToDomain()
	}
	return transactions, total, nil
}

var _ dues.TransactionRepository = (*GormTransactionRepository)(nil)

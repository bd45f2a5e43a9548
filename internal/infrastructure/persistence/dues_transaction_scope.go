package persistence

import (
	"context"

	appdues "github.com/TomasTM302/ARC-entregable-sub001/internal/application/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/residency"
	"gorm.io/gorm"
)

// GormTransactionScope implements appdues.TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction, committing when fn returns
// nil and rolling back otherwise.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appdues.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories binds every repository to one transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Charges() dues.PeriodicChargeRepository {
	return NewGormPeriodicChargeRepository(r.tx)
}

func (r *gormTransactionalRepositories) Fines() dues.FineRepository {
	return NewGormFineRepository(r.tx)
}

func (r *gormTransactionalRepositories) Agreements() dues.AgreementRepository {
	return NewGormAgreementRepository(r.tx)
}

func (r *gormTransactionalRepositories) Transactions() dues.TransactionRepository {
	return NewGormTransactionRepository(r.tx)
}

func (r *gormTransactionalRepositories) Residents() residency.ResidentRepository {
	return NewGormResidentRepository(r.tx)
}

func (r *gormTransactionalRepositories) Units() residency.UnitRepository {
	return NewGormUnitRepository(r.tx)
}

func (r *gormTransactionalRepositories) Assignments() residency.PropertyAssignmentRepository {
	return NewGormPropertyAssignmentRepository(r.tx)
}

func (r *gormTransactionalRepositories) FeeSchedules() residency.FeeScheduleRepository {
	return NewGormFeeScheduleRepository(r.tx)
}

// NewRepositories builds the non-transactional repository set over db.
func NewRepositories(db *gorm.DB) *appdues.Repositories {
	return &appdues.Repositories{
		ChargeRepo:      NewGormPeriodicChargeRepository(db),
		FineRepo:        NewGormFineRepository(db),
		AgreementRepo:   NewGormAgreementRepository(db),
		TransactionRepo: NewGormTransactionRepository(db),
		ResidentRepo:    NewGormResidentRepository(db),
		UnitRepo:        NewGormUnitRepository(db),
		AssignmentRepo:  NewGormPropertyAssignmentRepository(db),
		ScheduleRepo:    NewGormFeeScheduleRepository(db),
	}
}

var (
	_ appdues.TransactionScope          = (*GormTransactionScope)(nil)
	_ appdues.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)

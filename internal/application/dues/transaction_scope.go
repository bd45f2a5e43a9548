package dues

import (
	"context"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/residency"
)

// TransactionScope runs a unit of work against the dues store. Every
// repository handed to fn shares one database transaction, so a returned
// error rolls back all of their writes.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories bound to the current
// transaction.
type TransactionalRepositories interface {
	Charges() dues.PeriodicChargeRepository
	Fines() dues.FineRepository
	Agreements() dues.AgreementRepository
	Transactions() dues.TransactionRepository
	Residents() residency.ResidentRepository
	Units() residency.UnitRepository
	Assignments() residency.PropertyAssignmentRepository
	FeeSchedules() residency.FeeScheduleRepository
}

// Repositories is a plain set of repositories. It serves reads outside a
// transaction and backs NoOpTransactionScope.
type Repositories struct {
	ChargeRepo      dues.PeriodicChargeRepository
	FineRepo        dues.FineRepository
	AgreementRepo   dues.AgreementRepository
	TransactionRepo dues.TransactionRepository
	ResidentRepo    residency.ResidentRepository
	UnitRepo        residency.UnitRepository
	AssignmentRepo  residency.PropertyAssignmentRepository
	ScheduleRepo    residency.FeeScheduleRepository
}

// Charges returns the periodic charge repository
func (r *Repositories) Charges() dues.PeriodicChargeRepository { return r.ChargeRepo }

// Fines returns the fine repository
func (r *Repositories) Fines() dues.FineRepository { return r.FineRepo }

// Agreements returns the agreement repository
func (r *Repositories) Agreements() dues.AgreementRepository { return r.AgreementRepo }

// Transactions returns the transaction repository
func (r *Repositories) Transactions() dues.TransactionRepository { return r.TransactionRepo }

// Residents returns the resident repository
func (r *Repositories) Residents() residency.ResidentRepository { return r.ResidentRepo }

// Units returns the unit repository
func (r *Repositories) Units() residency.UnitRepository { return r.UnitRepo }

// Assignments returns the property assignment repository
func (r *Repositories) Assignments() residency.PropertyAssignmentRepository { return r.AssignmentRepo }

// FeeSchedules returns the fee schedule repository
func (r *Repositories) FeeSchedules() residency.FeeScheduleRepository { return r.ScheduleRepo }

// NoOpTransactionScope runs the function directly against its repositories
// without a database transaction. Useful for tests with in-memory fakes.
type NoOpTransactionScope struct {
	repos *Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over repos.
func NewNoOpTransactionScope(repos *Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*Repositories)(nil)
)

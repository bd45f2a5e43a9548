package dues

import (
	"context"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// obligationRecord is one loaded obligation of any kind with a way to persist
// its state back.
type obligationRecord struct {
	ref   dues.ObligationRef
	state *dues.ObligationState
	// owner is the resident of a fine or an agreement line
	owner *uuid.UUID
	// unit is the unit of a periodic charge
	unit    *uuid.UUID
	amount  decimal.Decimal
	dueDate time.Time
	charge  *dues.PeriodicCharge
	save    func(ctx context.Context) error
	view    func() dues.Obligation
}

// belongsTo reports whether the obligation is the resident's. A periodic
// charge belongs to every resident assigned to its unit.
func (r *obligationRecord) belongsTo(residentID uuid.UUID, units map[uuid.UUID]struct{}) bool {
	if r.owner != nil {
		return *r.owner == residentID
	}
	if r.unit != nil {
		_, ok := units[*r.unit]
		return ok
	}
	return false
}

func loadObligation(ctx context.Context, repos TransactionalRepositories, ref dues.ObligationRef) (*obligationRecord, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	switch ref.Kind {
	case dues.ObligationKindPeriodicCharge:
		c, err := repos.Charges().FindByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return &obligationRecord{
			ref:     ref,
			state:   &c.ObligationState,
			unit:    &c.UnitID,
			amount:  c.Amount,
			dueDate: c.DueDate,
			charge:  c,
			save: func(ctx context.Context) error {
				c.Touch()
				return repos.Charges().Save(ctx, c)
			},
			view: c.View,
		}, nil

	case dues.ObligationKindFine:
		f, err := repos.Fines().FindByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return &obligationRecord{
			ref:     ref,
			state:   &f.ObligationState,
			owner:   &f.ResidentID,
			amount:  f.Amount,
			dueDate: f.DueDate,
			save: func(ctx context.Context) error {
				f.Touch()
				return repos.Fines().Save(ctx, f)
			},
			view: f.View,
		}, nil

	default:
		line, err := repos.Agreements().FindLineByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		agreement, err := repos.Agreements().FindByID(ctx, line.AgreementID)
		if err != nil {
			return nil, err
		}
		owner := agreement.ResidentID
		return &obligationRecord{
			ref:     ref,
			state:   &line.ObligationState,
			owner:   &owner,
			amount:  line.Amount,
			dueDate: line.DueDate,
			save: func(ctx context.Context) error {
				line.Touch()
				return repos.Agreements().SaveLine(ctx, line)
			},
			view: func() dues.Obligation { return line.View(owner) },
		}, nil
	}
}

// residentUnits returns the set of units the resident has been assigned to.
func residentUnits(ctx context.Context, repos TransactionalRepositories, residentID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	assignments, err := repos.Assignments().FindByResident(ctx, residentID)
	if err != nil {
		return nil, err
	}
	units := make(map[uuid.UUID]struct{}, len(assignments))
	for _, a := range assignments {
		units[a.UnitID] = struct{}{}
	}
	return units, nil
}

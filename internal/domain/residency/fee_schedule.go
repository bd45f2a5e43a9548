package residency

import (
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeSchedule sets the monthly maintenance amount for a building. A nil
// BuildingID makes it a global schedule.
type FeeSchedule struct {
	shared.BaseEntity
	BuildingID       *uuid.UUID      `json:"building_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	SurchargePercent decimal.Decimal `json:"surcharge_percent"`
	GraceDay         int             `json:"grace_day"`
	StartsAt         time.Time       `json:"starts_at"`
}

// NewFeeSchedule validates and creates a schedule.
func NewFeeSchedule(buildingID *uuid.UUID, amount, surchargePct decimal.Decimal, graceDay int, startsAt time.Time) (*FeeSchedule, error) {
	if !amount.IsPositive() {
		return nil, shared.InvalidArgument("fee schedule amount must be positive")
	}
	if surchargePct.IsNegative() {
		return nil, shared.InvalidArgument("fee schedule surcharge percent cannot be negative")
	}
	if graceDay < 1 || graceDay > 31 {
		return nil, shared.InvalidArgument("fee schedule grace day must be between 1 and 31")
	}
	return &FeeSchedule{
		BaseEntity:       shared.NewBaseEntity(),
		BuildingID:       buildingID,
		Amount:           amount,
		SurchargePercent: surchargePct,
		GraceDay:         graceDay,
		StartsAt:         startsAt,
	}, nil
}

// AmountMoney returns the monthly amount as Money.
func (s *FeeSchedule) AmountMoney() valueobject.Money {
	return valueobject.NewMoney(s.Amount)
}

// DueDate is the grace day of the period, clamped to the month length.
func (s *FeeSchedule) DueDate(p valueobject.Period, loc *time.Location) time.Time {
	return p.DayIn(s.GraceDay, loc)
}

// SelectCurrentSchedule returns the latest-starting schedule for the building,
// falling back to the latest-starting schedule of any kind. Ties on start date
// go to the later record.
func SelectCurrentSchedule(schedules []FeeSchedule, buildingID uuid.UUID) *FeeSchedule {
	var forBuilding, global *FeeSchedule
	for i := range schedules {
		s := &schedules[i]
		if s.BuildingID != nil && *s.BuildingID == buildingID && laterSchedule(s, forBuilding) {
			forBuilding = s
		}
		if laterSchedule(s, global) {
			global = s
		}
	}
	if forBuilding != nil {
		return forBuilding
	}
	return global
}

func laterSchedule(candidate, current *FeeSchedule) bool {
	if current == nil {
		return true
	}
	if !candidate.StartsAt.Equal(current.StartsAt) {
		return candidate.StartsAt.After(current.StartsAt)
	}
	return candidate.ID.String() > current.ID.String()
}

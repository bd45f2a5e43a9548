package residency

import (
	"context"

	"github.com/google/uuid"
)

// ResidentRepository persists residents
type ResidentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Resident, error)
	Save(ctx context.Context, resident *Resident) error
}

// UnitRepository persists buildings and units
type UnitRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Unit, error)
	Save(ctx context.Context, unit *Unit) error
	SaveBuilding(ctx context.Context, building *Building) error
}

// PropertyAssignmentRepository persists resident/unit assignments
type PropertyAssignmentRepository interface {
	FindByResident(ctx context.Context, residentID uuid.UUID) ([]PropertyAssignment, error)
	Save(ctx context.Context, assignment *PropertyAssignment) error
}

// FeeScheduleRepository persists fee schedules
type FeeScheduleRepository interface {
	// FindCurrent returns the latest-starting schedule for the building, or the
	// globally latest one when the building has none.
	FindCurrent(ctx context.Context, buildingID uuid.UUID) (*FeeSchedule, error)
	Save(ctx context.Context, schedule *FeeSchedule) error
}

package residency

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// Building groups units under one fee schedule.
type Building struct {
	shared.BaseEntity
	Name string `json:"name"`
}

// Unit is a billable dwelling. Periodic charges are raised per unit.
type Unit struct {
	shared.BaseEntity
	BuildingID uuid.UUID `json:"building_id"`
	Label      string    `json:"label"`
}

// NewUnit creates a unit within a building.
func NewUnit(buildingID uuid.UUID, label string) (*Unit, error) {
	if buildingID == uuid.Nil {
		return nil, shared.InvalidArgument("unit building is required")
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, shared.InvalidArgument("unit label cannot be empty")
	}
	return &Unit{
		BaseEntity: shared.NewBaseEntity(),
		BuildingID: buildingID,
		Label:      label,
	}, nil
}

// PropertyAssignment links a resident to a unit for a date range.
type PropertyAssignment struct {
	shared.BaseEntity
	ResidentID uuid.UUID  `json:"resident_id"`
	UnitID     uuid.UUID  `json:"unit_id"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	IsOwner    bool       `json:"is_owner"`
	Active     bool       `json:"active"`
}

// NewPropertyAssignment creates an active assignment starting at start.
func NewPropertyAssignment(residentID, unitID uuid.UUID, start time.Time, owner bool) (*PropertyAssignment, error) {
	if residentID == uuid.Nil || unitID == uuid.Nil {
		return nil, shared.InvalidArgument("assignment requires both resident and unit")
	}
	return &PropertyAssignment{
		BaseEntity: shared.NewBaseEntity(),
		ResidentID: residentID,
		UnitID:     unitID,
		StartDate:  start,
		IsOwner:    owner,
		Active:     true,
	}, nil
}

// IsCurrent reports whether the assignment is flagged active and has not ended at now.
func (a *PropertyAssignment) IsCurrent(now time.Time) bool {
	if !a.Active {
		return false
	}
	return a.EndDate == nil || a.EndDate.After(now)
}

// End closes the assignment.
func (a *PropertyAssignment) End(at time.Time) {
	a.EndDate = &at
	a.Active = false
	a.Touch()
}

// ResolveCurrentAssignment picks the authoritative assignment for billing.
// Ranking: current > owner > latest start date > latest record id.
// Returns nil when the list is empty.
func ResolveCurrentAssignment(assignments []PropertyAssignment, now time.Time) *PropertyAssignment {
	if len(assignments) == 0 {
		return nil
	}
	ranked := make([]PropertyAssignment, len(assignments))
	copy(ranked, assignments)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if ac, bc := a.IsCurrent(now), b.IsCurrent(now); ac != bc {
			return ac
		}
		if a.IsOwner != b.IsOwner {
			return a.IsOwner
		}
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.After(b.StartDate)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) > 0
	})
	return &ranked[0]
}

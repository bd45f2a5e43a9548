package residency

import (
	"strings"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
)

// Resident is a person who lives in or owns a unit of the complex.
type Resident struct {
	shared.BaseEntity
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// NewResident creates a resident registered at the given time.
func NewResident(name, email string, registeredAt time.Time) (*Resident, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.InvalidArgument("resident name cannot be empty")
	}
	if registeredAt.IsZero() {
		return nil, shared.InvalidArgument("resident registration date is required")
	}
	return &Resident{
		BaseEntity:   shared.NewBaseEntity(),
		Name:         name,
		Email:        strings.TrimSpace(email),
		RegisteredAt: registeredAt,
	}, nil
}

// FirstBillingPeriod is the month the resident started owing dues.
func (r *Resident) FirstBillingPeriod() valueobject.Period {
	return valueobject.PeriodOf(r.RegisteredAt)
}

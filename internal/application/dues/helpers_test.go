package dues_test

import (
	"context"
	"sync"
	"testing"
	"time"

	appdues "github.com/TomasTM302/ARC-entregable-sub001/internal/application/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/residency"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/persistence"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixedNow is the clock of every service test: mid June 2024.
var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// fixture is a migrated in-memory database with one building, one unit, one
// resident assigned to it and a 500.00 fee schedule with a 10% surcharge and
// grace day 10.
type fixture struct {
	t         *testing.T
	ctx       context.Context
	db        *gorm.DB
	repos     *appdues.Repositories
	cfg       appdues.ServiceConfig
	publisher *recordingPublisher
	building  *residency.Building
	unit      *residency.Unit
	resident  *residency.Resident
	schedule  *residency.FeeSchedule
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func newFixture(t *testing.T, registeredAt time.Time) *fixture {
	t.Helper()
	db := openTestDB(t)
	repos := persistence.NewRepositories(db)
	publisher := &recordingPublisher{}
	f := &fixture{
		t:         t,
		ctx:       context.Background(),
		db:        db,
		repos:     repos,
		publisher: publisher,
		cfg: appdues.ServiceConfig{
			Scope:          persistence.NewGormTransactionScope(db),
			Repos:          repos,
			EventPublisher: publisher,
			Logger:         zap.NewNop(),
			Location:       time.UTC,
			Now:            func() time.Time { return fixedNow },
		},
	}

	f.building = &residency.Building{BaseEntity: shared.NewBaseEntity(), Name: "Tower A"}
	require.NoError(t, repos.UnitRepo.SaveBuilding(f.ctx, f.building))

	unit, err := residency.NewUnit(f.building.ID, "A-101")
	require.NoError(t, err)
	require.NoError(t, repos.UnitRepo.Save(f.ctx, unit))
	f.unit = unit

	f.resident = f.addResident("Ana Torres", registeredAt, unit)

	buildingID := f.building.ID
	schedule, err := residency.NewFeeSchedule(&buildingID,
		decimal.NewFromInt(500), decimal.NewFromInt(10), 10,
		time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, repos.ScheduleRepo.Save(f.ctx, schedule))
	f.schedule = schedule
	return f
}

func (f *fixture) addResident(name string, registeredAt time.Time, unit *residency.Unit) *residency.Resident {
	f.t.Helper()
	resident, err := residency.NewResident(name, "", registeredAt)
	require.NoError(f.t, err)
	require.NoError(f.t, f.repos.ResidentRepo.Save(f.ctx, resident))
	if unit != nil {
		assignment, err := residency.NewPropertyAssignment(resident.ID, unit.ID, registeredAt, true)
		require.NoError(f.t, err)
		require.NoError(f.t, f.repos.AssignmentRepo.Save(f.ctx, assignment))
	}
	return resident
}

func (f *fixture) addCharge(month, year int, amount int64, status dues.ObligationStatus) *dues.PeriodicCharge {
	f.t.Helper()
	period := valueobject.Period{Month: month, Year: year}
	charge, err := dues.NewPeriodicCharge(f.unit.ID, period, valueobject.NewMoneyFromCents(amount*100), f.schedule.DueDate(period, time.UTC))
	require.NoError(f.t, err)
	charge.Status = status
	if status == dues.ObligationStatusSettled {
		at := charge.DueDate
		charge.SettledAt = &at
	}
	require.NoError(f.t, f.repos.ChargeRepo.Create(f.ctx, charge))
	return charge
}

func (f *fixture) addFine(amount int64, due time.Time) *dues.Fine {
	f.t.Helper()
	fine, err := dues.NewFine(f.resident.ID, f.unit.ID, "noise complaint", valueobject.NewMoneyFromCents(amount*100), due)
	require.NoError(f.t, err)
	require.NoError(f.t, f.repos.FineRepo.Create(f.ctx, fine))
	return fine
}

func (f *fixture) reloadCharge(id uuid.UUID) *dues.PeriodicCharge {
	f.t.Helper()
	charge, err := f.repos.ChargeRepo.FindByID(f.ctx, id)
	require.NoError(f.t, err)
	return charge
}

func (f *fixture) reloadFine(id uuid.UUID) *dues.Fine {
	f.t.Helper()
	fine, err := f.repos.FineRepo.FindByID(f.ctx, id)
	require.NoError(f.t, err)
	return fine
}

func (f *fixture) chargeFor(month, year int) (*dues.PeriodicCharge, error) {
	return f.repos.ChargeRepo.FindByUnitAndPeriod(f.ctx, f.unit.ID, valueobject.Period{Month: month, Year: year})
}

func amountOf(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

package persistence

import (
	"context"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The three obligation tables share the status columns, so the set-based
// cascades are written once against a model and a scope function.

type scopeFunc func(db *gorm.DB) *gorm.DB

var settledOrCancelled = []dues.ObligationStatus{
	dues.ObligationStatusCancelled,
	dues.ObligationStatusSettled,
}

func settleByTransaction(ctx context.Context, db *gorm.DB, model any, txID uuid.UUID, at time.Time) (int64, error) {
	at = at.UTC()
	res := db.WithContext(ctx).Model(model).
		Where("transaction_id = ? AND status NOT IN ?", txID, settledOrCancelled).
		Updates(map[string]any{
			"status":     dues.ObligationStatusSettled,
			"settled_at": gorm.Expr("COALESCE(settled_at, ?)", at),
			"updated_at": at,
		})
	return res.RowsAffected, res.Error
}

func releaseByTransaction(ctx context.Context, db *gorm.DB, model any, txID uuid.UUID) (int64, error) {
	res := db.WithContext(ctx).Model(model).
		Where("transaction_id = ? AND status = ?", txID, dues.ObligationStatusProcessing).
		Updates(map[string]any{
			"status":         dues.ObligationStatusPending,
			"transaction_id": nil,
			"updated_at":     time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func markOverdue(ctx context.Context, db *gorm.DB, model any, scope scopeFunc, now time.Time) (int64, error) {
	now = now.UTC()
	q := db.WithContext(ctx).Model(model).
		Where("status = ? AND due_date < ?", dues.ObligationStatusPending, now)
	if scope != nil {
		q = scope(q)
	}
	res := q.Updates(map[string]any{
		"status":     dues.ObligationStatusOverdue,
		"updated_at": now,
	})
	return res.RowsAffected, res.Error
}

// unitsOfResident selects every unit the resident has been assigned to.
func unitsOfResident(db *gorm.DB, residentID uuid.UUID) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.PropertyAssignmentModel{}).
		Select("unit_id").
		Where("resident_id = ?", residentID)
}

// residentsOfUnit selects every resident ever assigned to the unit.
func residentsOfUnit(db *gorm.DB, unitID uuid.UUID) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.PropertyAssignmentModel{}).
		Select("resident_id").
		Where("unit_id = ?", unitID)
}

// agreementsOf selects the ids of agreements owned by residents, which is a
// subquery or a single resident id.
func agreementsOf(db *gorm.DB, residents any) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.AgreementModel{}).
		Select("id").
		Where("resident_id IN (?)", residents)
}

// periodBounds returns the [from, to) due-date range for a month/year filter.
// A year without a month covers the whole year.
func periodBounds(month, year int) (time.Time, time.Time, bool) {
	if year <= 0 {
		return time.Time{}, time.Time{}, false
	}
	if month >= 1 && month <= 12 {
		from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0), true
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0), true
}

// filterStatusAndDue applies the status filter and the due-date period range.
func filterStatusAndDue(q *gorm.DB, filter dues.ObligationFilter, statusCol, dueCol string) *gorm.DB {
	if filter.Status != "" {
		q = q.Where(statusCol+" = ?", filter.Status)
	}
	if from, to, ok := periodBounds(filter.Month, filter.Year); ok {
		q = q.Where(dueCol+" >= ? AND "+dueCol+" < ?", from, to)
	}
	return q
}

func wantsKind(filter dues.ObligationFilter, kind dues.ObligationKind) bool {
	return filter.Kind == "" || filter.Kind == kind
}

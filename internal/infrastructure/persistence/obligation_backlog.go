package persistence

import (
	"context"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/persistence/models"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/telemetry"
	"gorm.io/gorm"
)

// ObligationBacklog counts open obligations per kind and status for the
// dues_open_obligations gauge.
type ObligationBacklog struct {
	db *gorm.DB
}

// NewObligationBacklog creates a new ObligationBacklog
func NewObligationBacklog(db *gorm.DB) *ObligationBacklog {
	return &ObligationBacklog{db: db}
}

var openStatuses = []dues.ObligationStatus{
	dues.ObligationStatusPending,
	dues.ObligationStatusOverdue,
	dues.ObligationStatusProcessing,
}

type statusCount struct {
	Status string
	Count  int64
}

// CountOpenObligations groups pending, overdue and processing rows of every
// obligation table by status.
func (b *ObligationBacklog) CountOpenObligations(ctx context.Context) (map[string]map[string]int64, error) {
	tables := []struct {
		kind  dues.ObligationKind
		model any
	}{
		{dues.ObligationKindPeriodicCharge, &models.PeriodicChargeModel{}},
		{dues.ObligationKindFine, &models.FineModel{}},
		{dues.ObligationKindInstallment, &models.InstallmentLineModel{}},
	}

	out := make(map[string]map[string]int64, len(tables))
	for _, t := range tables {
		var rows []statusCount
		if err := b.db.WithContext(ctx).Model(t.model).
			Select("status, COUNT(*) AS count").
			Where("status IN ?", openStatuses).
			Group("status").
			Scan(&rows).Error; err != nil {
			return nil, storageError("count open "+t.kind.String()+" obligations", err)
		}
		byStatus := make(map[string]int64, len(openStatuses))
		for _, s := range openStatuses {
			byStatus[s.String()] = 0
		}
		for _, r := range rows {
			byStatus[r.Status] = r.Count
		}
		out[t.kind.String()] = byStatus
	}
	return out, nil
}

var _ telemetry.ObligationBacklogProvider = (*ObligationBacklog)(nil)

package dues

import (
	"sort"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ExpectedPeriods lists every billing period from the registration month
// through the month of now, inclusive.
func ExpectedPeriods(registeredAt, now time.Time) []valueobject.Period {
	return valueobject.PeriodOf(registeredAt).Range(valueobject.PeriodOf(now))
}

// ChargePartition groups a unit's existing charges for consolidation.
type ChargePartition struct {
	Paid  []PeriodicCharge
	Open  []PeriodicCharge // pending or overdue, oldest period first
	Other []PeriodicCharge
}

// PartitionCharges splits charges into paid, open and other.
func PartitionCharges(charges []PeriodicCharge) ChargePartition {
	var p ChargePartition
	for _, c := range charges {
		switch {
		case c.Status == ObligationStatusSettled:
			p.Paid = append(p.Paid, c)
		case c.Status.IsPayable():
			p.Open = append(p.Open, c)
		default:
			p.Other = append(p.Other, c)
		}
	}
	sort.SliceStable(p.Open, func(i, j int) bool {
		pi, pj := p.Open[i].Period(), p.Open[j].Period()
		if pi != pj {
			return pi.Before(pj)
		}
		return p.Open[i].DueDate.Before(p.Open[j].DueDate)
	})
	return p
}

// MissingPeriods returns the expected periods with no charge row at all, in
// order.
func MissingPeriods(expected []valueobject.Period, charges []PeriodicCharge) []valueobject.Period {
	have := make(map[valueobject.Period]struct{}, len(charges))
	for _, c := range charges {
		have[c.Period()] = struct{}{}
	}
	var missing []valueobject.Period
	for _, p := range expected {
		if _, ok := have[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

// ConsolidationSelection is what an agreement will fold in.
type ConsolidationSelection struct {
	Existing []PeriodicCharge
	Missing  []valueobject.Period
}

// Count returns the number of selected periods
func (s ConsolidationSelection) Count() int {
	return len(s.Existing) + len(s.Missing)
}

// SelectForConsolidation drains open charges oldest first, then fills the
// remainder from missing periods earliest first, up to count.
func SelectForConsolidation(charges []PeriodicCharge, expected []valueobject.Period, count int) ConsolidationSelection {
	var sel ConsolidationSelection
	if count <= 0 {
		return sel
	}
	for _, c := range PartitionCharges(charges).Open {
		if sel.Count() == count {
			return sel
		}
		sel.Existing = append(sel.Existing, c)
	}
	for _, p := range MissingPeriods(expected, charges) {
		if sel.Count() == count {
			return sel
		}
		sel.Missing = append(sel.Missing, p)
	}
	return sel
}

// ConsolidationSummary reports how an agreement was priced.
type ConsolidationSummary struct {
	Base              valueobject.Money `json:"base"`
	Surcharge         valueobject.Money `json:"surcharge"`
	Total             valueobject.Money `json:"total"`
	CancelledExisting int               `json:"cancelled_existing"`
	CreatedCancelled  int               `json:"created_cancelled"`
}

// PricingInput describes how to turn a consolidated base into installments.
type PricingInput struct {
	Base             valueobject.Money
	SurchargePercent *decimal.Decimal
	Explicit         []ScheduledInstallment
	InstallmentCount int
	StartDate        time.Time
}

// PriceAgreement computes the installment schedule, surcharge and total.
// An explicit schedule is taken as-is with no surcharge. Otherwise the
// surcharge is round(base*pct/100, 2) and the total is split evenly.
func PriceAgreement(in PricingInput) ([]ScheduledInstallment, valueobject.Money, valueobject.Money, error) {
	if len(in.Explicit) > 0 {
		total := valueobject.Zero()
		for i, line := range in.Explicit {
			if !line.Amount.IsPositive() {
				return nil, valueobject.Money{}, valueobject.Money{}, shared.InvalidArgument("scheduled installment %d amount must be positive", i+1)
			}
			total = total.Add(line.Amount)
		}
		return in.Explicit, valueobject.Zero(), total, nil
	}

	surcharge := valueobject.Zero()
	if in.SurchargePercent != nil {
		if in.SurchargePercent.IsNegative() {
			return nil, valueobject.Money{}, valueobject.Money{}, shared.InvalidArgument("surcharge percent cannot be negative")
		}
		surcharge = in.Base.Percent(*in.SurchargePercent)
	}
	total := in.Base.Add(surcharge)
	schedule, err := SplitSchedule(total, in.InstallmentCount, in.StartDate)
	if err != nil {
		return nil, valueobject.Money{}, valueobject.Money{}, err
	}
	return schedule, surcharge, total, nil
}

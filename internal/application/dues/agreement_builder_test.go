package dues_test

import (
	"errors"
	"testing"
	"time"

	appdues "github.com/TomasTM302/ARC-entregable-sub001/internal/application/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var april2024 = time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

func TestAgreementBuilder_ConsolidatesMissingPeriodsWithSurcharge(t *testing.T) {
	f := newFixture(t, april2024)
	builder := appdues.NewAgreementBuilder(f.cfg)

	result, err := builder.Build(f.ctx, appdues.BuildAgreementInput{
		ResidentID:           f.resident.ID,
		PeriodsToConsolidate: 3,
		InstallmentCount:     2,
		StartDate:            time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.True(t, result.Summary.Base.Amount().Equal(amountOf("1500")))
	assert.True(t, result.Summary.Surcharge.Amount().Equal(amountOf("150")))
	assert.True(t, result.Summary.Total.Amount().Equal(amountOf("1650")))
	assert.Equal(t, 0, result.Summary.CancelledExisting)
	assert.Equal(t, 3, result.Summary.CreatedCancelled)
	assert.Equal(t, 2, result.InstallmentCount)

	stored, err := f.repos.AgreementRepo.FindByID(f.ctx, result.Agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, dues.AgreementStatusActive, stored.Status)
	assert.True(t, stored.TotalAmount.Equal(amountOf("1650")))
	require.Len(t, stored.Lines, 2)
	for i, line := range stored.Lines {
		assert.Equal(t, i+1, line.Sequence)
		assert.True(t, line.Amount.Equal(amountOf("825")), "line %d amount %s", i+1, line.Amount)
		assert.Equal(t, dues.ObligationStatusPending, line.Status)
	}
	assert.Equal(t, time.August, stored.Lines[1].DueDate.Month())

	for _, month := range []int{4, 5, 6} {
		charge, err := f.chargeFor(month, 2024)
		require.NoError(t, err)
		assert.Equal(t, dues.ObligationStatusCancelled, charge.Status)
		assert.Equal(t, dues.NoteIncludedInAgreement, charge.Notes)
		assert.True(t, charge.Amount.Equal(amountOf("500")))
		assert.Equal(t, 10, charge.DueDate.Day())
	}

	assert.Equal(t, []string{dues.EventTypeAgreementCreated}, f.publisher.types())
}

func TestAgreementBuilder_DrainsOpenChargesBeforeMissingPeriods(t *testing.T) {
	f := newFixture(t, april2024)
	settled := f.addCharge(4, 2024, 500, dues.ObligationStatusSettled)
	overdue := f.addCharge(5, 2024, 450, dues.ObligationStatusOverdue)

	result, err := appdues.NewAgreementBuilder(f.cfg).Build(f.ctx, appdues.BuildAgreementInput{
		ResidentID:           f.resident.ID,
		PeriodsToConsolidate: 2,
		InstallmentCount:     3,
		StartDate:            time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		SurchargePercent:     ptrDecimal(decimal.Zero),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.CancelledExisting)
	assert.Equal(t, 1, result.Summary.CreatedCancelled)
	assert.True(t, result.Summary.Base.Amount().Equal(amountOf("950")))
	assert.True(t, result.Summary.Surcharge.IsZero())

	// 950 / 3 = 316.67, the last line absorbs the remainder
	lines := result.Agreement.Lines
	require.Len(t, lines, 3)
	assert.True(t, lines[0].Amount.Equal(amountOf("316.67")))
	assert.True(t, lines[1].Amount.Equal(amountOf("316.67")))
	assert.True(t, lines[2].Amount.Equal(amountOf("316.66")))

	assert.Equal(t, dues.ObligationStatusSettled, f.reloadCharge(settled.ID).Status)
	folded := f.reloadCharge(overdue.ID)
	assert.Equal(t, dues.ObligationStatusCancelled, folded.Status)
	assert.True(t, folded.Amount.Equal(amountOf("450")))

	june, err := f.chargeFor(6, 2024)
	require.NoError(t, err)
	assert.Equal(t, dues.ObligationStatusCancelled, june.Status)
}

func TestAgreementBuilder_ExplicitScheduleHasNoSurcharge(t *testing.T) {
	f := newFixture(t, time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC))

	schedule := []dues.ScheduledInstallment{
		{Amount: valueobject.NewMoneyFromCents(70000), DueDate: time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)},
		{Amount: valueobject.NewMoneyFromCents(30000), DueDate: time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC)},
	}
	result, err := appdues.NewAgreementBuilder(f.cfg).Build(f.ctx, appdues.BuildAgreementInput{
		ResidentID:           f.resident.ID,
		PeriodsToConsolidate: 2,
		InstallmentCount:     2,
		Schedule:             schedule,
	})
	require.NoError(t, err)

	assert.True(t, result.Summary.Surcharge.IsZero())
	assert.True(t, result.Summary.Total.Amount().Equal(amountOf("1000")))
	assert.True(t, result.Agreement.TotalAmount.Equal(amountOf("1000")))
	assert.True(t, result.Agreement.StartDate.Equal(schedule[0].DueDate))
}

func TestAgreementBuilder_Validation(t *testing.T) {
	f := newFixture(t, april2024)
	builder := appdues.NewAgreementBuilder(f.cfg)
	start := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   appdues.BuildAgreementInput
	}{
		{"zero periods", appdues.BuildAgreementInput{ResidentID: f.resident.ID, InstallmentCount: 2, StartDate: start}},
		{"zero installments", appdues.BuildAgreementInput{ResidentID: f.resident.ID, PeriodsToConsolidate: 2, StartDate: start}},
		{"negative surcharge", appdues.BuildAgreementInput{
			ResidentID: f.resident.ID, PeriodsToConsolidate: 2, InstallmentCount: 2, StartDate: start,
			SurchargePercent: ptrDecimal(decimal.NewFromInt(-5)),
		}},
		{"schedule length mismatch", appdues.BuildAgreementInput{
			ResidentID: f.resident.ID, PeriodsToConsolidate: 2, InstallmentCount: 3,
			Schedule: []dues.ScheduledInstallment{{Amount: valueobject.NewMoneyFromCents(100), DueDate: start}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := builder.Build(f.ctx, tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.PeriodicChargeModel{}).Count(&count).Error)
	assert.Zero(t, count, "validation failures must not write")
}

func TestAgreementBuilder_ResidentWithoutProperty(t *testing.T) {
	f := newFixture(t, april2024)
	homeless := f.addResident("Luis Paz", april2024, nil)

	_, err := appdues.NewAgreementBuilder(f.cfg).Build(f.ctx, appdues.BuildAgreementInput{
		ResidentID:           homeless.ID,
		PeriodsToConsolidate: 1,
		InstallmentCount:     1,
		StartDate:            fixedNow,
	})
	require.Error(t, err)
	assert.Equal(t, shared.CodePropertyNotFound, shared.CodeOf(err))
	assert.Contains(t, err.Error(), "no active property for resident "+homeless.ID.String())
}

func TestAgreementBuilder_NothingToConsolidate(t *testing.T) {
	f := newFixture(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	f.addCharge(6, 2024, 500, dues.ObligationStatusSettled)

	_, err := appdues.NewAgreementBuilder(f.cfg).Build(f.ctx, appdues.BuildAgreementInput{
		ResidentID:           f.resident.ID,
		PeriodsToConsolidate: 1,
		InstallmentCount:     1,
		StartDate:            fixedNow,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "no periods available to consolidate")

	var agreements int64
	require.NoError(t, f.db.Model(&models.AgreementModel{}).Count(&agreements).Error)
	assert.Zero(t, agreements)
}

func ptrDecimal(d decimal.Decimal) *decimal.Decimal {
	return &d
}

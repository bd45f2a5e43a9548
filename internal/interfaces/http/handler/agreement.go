package handler

import (
	appdues "github.com/TomasTM302/ARC-entregable-sub001/internal/application/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AgreementHandler builds and reads payment agreements
type AgreementHandler struct {
	BaseHandler
	builder     *appdues.AgreementBuilder
	obligations *appdues.ObligationService
}

// NewAgreementHandler creates a new AgreementHandler
func NewAgreementHandler(base BaseHandler, builder *appdues.AgreementBuilder, obligations *appdues.ObligationService) *AgreementHandler {
	return &AgreementHandler{BaseHandler: base, builder: builder, obligations: obligations}
}

// Build consolidates a resident's arrears into an installment plan.
// POST /agreements
func (h *AgreementHandler) Build(c *gin.Context) {
	var req dto.BuildAgreementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	start, err := h.ParseDate(req.StartDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	schedule := make([]dues.ScheduledInstallment, 0, len(req.Schedule))
	for _, line := range req.Schedule {
		due, err := h.ParseDate(line.DueDate)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		schedule = append(schedule, dues.ScheduledInstallment{Amount: valueobject.NewMoney(line.Amount), DueDate: due})
	}

	res, err := h.builder.Build(c.Request.Context(), appdues.BuildAgreementInput{
		ResidentID:           uuid.MustParse(req.ResidentID),
		PeriodsToConsolidate: req.PeriodsToConsolidate,
		InstallmentCount:     req.InstallmentCount,
		StartDate:            start,
		SurchargePercent:     req.SurchargePercent,
		Schedule:             schedule,
		Notes:                req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}

// Get returns an agreement with its installment lines.
// GET /agreements/:id
func (h *AgreementHandler) Get(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	agreement, err := h.obligations.GetAgreement(c.Request.Context(), id)
	if err == nil {
		err = ensureOwner(c, agreement.ResidentID)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, agreement)
}

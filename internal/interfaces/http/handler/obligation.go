package handler

import (
	appdues "github.com/TomasTM302/ARC-entregable-sub001/internal/application/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ObligationHandler exposes the obligation store to residents and operators
type ObligationHandler struct {
	BaseHandler
	obligations *appdues.ObligationService
}

// NewObligationHandler creates a new ObligationHandler
func NewObligationHandler(base BaseHandler, obligations *appdues.ObligationService) *ObligationHandler {
	return &ObligationHandler{BaseHandler: base, obligations: obligations}
}

// List returns obligations of every kind, ordered by due date. Overdue
// promotion runs first so statuses are current.
// GET /obligations
func (h *ObligationHandler) List(c *gin.Context) {
	var req dto.ListObligationsRequest
	if !h.BindQuery(c, &req) {
		return
	}
	residentID, err := h.callerResident(c, req.ResidentID, false)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, err := h.obligations.ListObligations(c.Request.Context(), appdues.ObligationQuery{
		ResidentID: residentID,
		UnitID:     parseOptionalUUID(req.UnitID),
		Month:      req.Month,
		Year:       req.Year,
		Status:     dues.ObligationStatus(req.Status),
		Kind:       dues.ObligationKind(req.Kind),
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Settle settles one obligation directly, without a transaction review.
// POST /obligations/settle
func (h *ObligationHandler) Settle(c *gin.Context) {
	var req dto.SettleObligationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ob, err := h.obligations.RecordStandaloneSettlement(c.Request.Context(), appdues.StandaloneSettlementInput{
		Ref:           dues.ObligationRef{Kind: dues.ObligationKind(req.Kind), ID: uuid.MustParse(req.ID)},
		Amount:        req.Amount,
		SettledAt:     req.SettledAt,
		TransactionID: parseOptionalUUID(req.TransactionID),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ob)
}

// SetStatus moves one obligation through its status machine.
// PATCH /obligations/:id/status
func (h *ObligationHandler) SetStatus(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SetObligationStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ob, err := h.obligations.SetStatus(c.Request.Context(), appdues.SetStatusInput{
		Ref:           dues.ObligationRef{Kind: dues.ObligationKind(req.Kind), ID: id},
		Status:        dues.ObligationStatus(req.Status),
		SettledAt:     req.SettledAt,
		TransactionID: parseOptionalUUID(req.TransactionID),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ob)
}

// IssueFine issues a fine on the resident's current unit.
// POST /fines
func (h *ObligationHandler) IssueFine(c *gin.Context) {
	var req dto.IssueFineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	due, err := h.ParseDate(req.DueDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	fine, err := h.obligations.IssueFine(c.Request.Context(), appdues.IssueFineInput{
		ResidentID: uuid.MustParse(req.ResidentID),
		Reason:     req.Reason,
		Amount:     req.Amount,
		DueDate:    due,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, fine)
}

// EnsureCharge creates the periodic charge of a unit and month unless it
// already exists. The response says which happened.
// POST /periodic-charges/ensure
func (h *ObligationHandler) EnsureCharge(c *gin.Context) {
	var req dto.EnsureChargeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	period, err := valueobject.NewPeriod(req.Month, req.Year)
	if err != nil {
		h.HandleError(c, shared.InvalidArgument("%v", err))
		return
	}
	res, err := h.obligations.EnsureCharge(c.Request.Context(), appdues.EnsureChargeInput{
		UnitID: uuid.MustParse(req.UnitID),
		Period: period,
		Amount: req.Amount,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if res.Created {
		h.Created(c, res)
		return
	}
	h.Success(c, res)
}

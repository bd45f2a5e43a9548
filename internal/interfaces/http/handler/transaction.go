package handler

import (
	"context"

	appdues "github.com/TomasTM302/ARC-entregable-sub001/internal/application/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/interfaces/http/dto"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles payment submission, review and receipt evidence
type TransactionHandler struct {
	BaseHandler
	reconciler  *appdues.TransactionReconciler
	obligations *appdues.ObligationService
	evidence    *appdues.EvidenceService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(base BaseHandler, reconciler *appdues.TransactionReconciler,
	obligations *appdues.ObligationService, evidence *appdues.EvidenceService) *TransactionHandler {
	return &TransactionHandler{
		BaseHandler: base,
		reconciler:  reconciler,
		obligations: obligations,
		evidence:    evidence,
	}
}

// Create records a payment against obligations.
// POST /transactions
func (h *TransactionHandler) Create(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	residentID, err := h.callerResident(c, req.ResidentID, true)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	refs := make([]dues.ObligationRef, 0, len(req.Obligations))
	for _, r := range req.Obligations {
		refs = append(refs, dues.ObligationRef{Kind: dues.ObligationKind(r.Kind), ID: uuid.MustParse(r.ID)})
	}

	tx, err := h.reconciler.Create(c.Request.Context(), appdues.CreateTransactionInput{
		ResidentID:  *residentID,
		Amount:      req.Amount,
		Method:      dues.TransactionMethod(req.Method),
		Type:        dues.TransactionType(req.Type),
		Reference:   req.Reference,
		Notes:       req.Notes,
		PaidAt:      req.PaidAt,
		Obligations: refs,
		EvidenceKey: req.EvidenceKey,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// Get returns one transaction.
// GET /transactions/:id
func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	tx, err := h.obligations.GetTransaction(c.Request.Context(), id)
	if err == nil {
		err = ensureOwner(c, tx.ResidentID)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// List pages through transactions. Residents only see their own.
// GET /transactions
func (h *TransactionHandler) List(c *gin.Context) {
	var req dto.ListTransactionsRequest
	if !h.BindQuery(c, &req) {
		return
	}
	residentID, err := h.callerResident(c, req.ResidentID, false)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, err := h.obligations.ListTransactions(c.Request.Context(), appdues.ListTransactionsInput{
		ResidentID: residentID,
		Status:     dues.TransactionStatus(req.Status),
		Page:       req.Page,
		PageSize:   req.PageSize,
		OrderBy:    req.OrderBy,
		OrderDir:   req.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// MarkProcessing moves a pending transaction into review.
// POST /transactions/:id/processing
func (h *TransactionHandler) MarkProcessing(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	tx, err := h.reconciler.MarkProcessing(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// Approve completes a transaction and settles its obligations.
// POST /transactions/:id/approve
func (h *TransactionHandler) Approve(c *gin.Context) {
	h.review(c, h.reconciler.Approve)
}

// Reject rejects a transaction and releases its obligations.
// POST /transactions/:id/reject
func (h *TransactionHandler) Reject(c *gin.Context) {
	h.review(c, h.reconciler.Reject)
}

func (h *TransactionHandler) review(c *gin.Context, apply func(ctx context.Context, id uuid.UUID, notes string) (*dues.Transaction, error)) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ReviewTransactionRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	tx, err := apply(c.Request.Context(), id, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// RequestEvidenceUpload issues a presigned URL for a receipt upload. The
// returned key goes into evidence_key when the transaction is created.
// POST /transactions/evidence-url
func (h *TransactionHandler) RequestEvidenceUpload(c *gin.Context) {
	var req dto.EvidenceUploadRequest
	if !h.BindJSON(c, &req) {
		return
	}
	residentID, ok := middleware.GetResidentID(c)
	if !ok {
		h.HandleError(c, shared.ErrUnauthorized)
		return
	}
	url, err := h.evidence.RequestUpload(c.Request.Context(), residentID, req.FileName, req.ContentType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, url)
}

// GetEvidence issues a presigned download URL for the transaction receipt.
// GET /transactions/:id/evidence
func (h *TransactionHandler) GetEvidence(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	tx, err := h.obligations.GetTransaction(c.Request.Context(), id)
	if err == nil {
		err = ensureOwner(c, tx.ResidentID)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	url, err := h.evidence.DownloadURL(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, url)
}

package handler

import (
	"crypto/subtle"

	appdues "github.com/TomasTM302/ARC-entregable-sub001/internal/application/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CallbackTokenHeader carries the shared secret on gateway callbacks
const CallbackTokenHeader = "X-Callback-Token"

// PaymentCallbackHandler handles payment gateway notifications. Gateways do
// not hold resident tokens; they authenticate with a shared secret instead.
type PaymentCallbackHandler struct {
	BaseHandler
	callbacks *appdues.PaymentCallbackService
	secret    string
}

// NewPaymentCallbackHandler creates a new PaymentCallbackHandler. An empty
// secret accepts every callback.
func NewPaymentCallbackHandler(base BaseHandler, callbacks *appdues.PaymentCallbackService, secret string) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{BaseHandler: base, callbacks: callbacks, secret: secret}
}

// Handle applies a gateway outcome to its transaction. Redelivered events
// answer 200 with already_processed set.
// POST /payments/callback
func (h *PaymentCallbackHandler) Handle(c *gin.Context) {
	if h.secret != "" &&
		subtle.ConstantTimeCompare([]byte(c.GetHeader(CallbackTokenHeader)), []byte(h.secret)) != 1 {
		h.Error(c, shared.CodeUnauthorized, "invalid callback token")
		return
	}

	var req dto.PaymentCallbackRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.callbacks.Handle(c.Request.Context(), appdues.PaymentCallbackInput{
		Gateway:       req.Gateway,
		EventID:       req.EventID,
		TransactionID: uuid.MustParse(req.TransactionID),
		Outcome:       appdues.GatewayOutcome(req.Outcome),
		Message:       req.Message,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

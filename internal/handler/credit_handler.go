package handler

import (
	"errors"
	"net/http"

	apperrors "quickchat/internal/errors"
	"quickchat/internal/middleware"
	"quickchat/internal/models"
	"quickchat/internal/service"
	"quickchat/pkg/response"

	"github.com/gin-gonic/gin"
)

// maxWebhookBodyBytes matches the payload limit Stripe documents for webhooks.
const maxWebhookBodyBytes = 65536

// CreditHandler handles plans, purchases and payment webhooks.
type CreditHandler struct {
	service service.CreditServicer
}

// NewCreditHandler creates a new CreditHandler.
func NewCreditHandler(service service.CreditServicer) *CreditHandler {
	return &CreditHandler{service: service}
}

// ListPlans godoc
// @Summary      List plans
// @Description  Credit plans available for purchase
// @Tags         credit
// @Produce      json
// @Success      200  {object}  response.Response{data=[]models.Plan}
// @Failure      401  {object}  response.Response
// @Security     BearerAuth
// @Router       /credit/plan [get]
func (h *CreditHandler) ListPlans(c *gin.Context) {
	response.Success(c, h.service.ListPlans())
}

// Purchase godoc
// @Summary      Purchase plan
// @Description  Create a pending transaction and return the hosted checkout URL
// @Tags         credit
// @Accept       json
// @Produce      json
// @Param        request  body      models.PurchaseRequest  true  "Plan to buy"
// @Success      200      {object}  response.Response{data=models.PurchaseResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      502      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Security     BearerAuth
// @Router       /credit/purchase [post]
func (h *CreditHandler) Purchase(c *gin.Context) {
	var req models.PurchaseRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Purchase(c.Request.Context(), middleware.GetUserID(c), &req, c.GetHeader("Origin"))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidPlan):
			response.NotFound(c, err.Error())
		case errors.Is(err, apperrors.ErrPaymentProviderFailure):
			response.BadGateway(c, apperrors.ErrPaymentProviderFailure.Error())
		default:
			_ = c.Error(err)
			response.InternalError(c)
		}
		return
	}

	response.Success(c, result)
}

// ListTransactions godoc
// @Summary      List transactions
// @Description  The user's purchases, newest first
// @Tags         credit
// @Produce      json
// @Success      200  {object}  response.Response{data=[]models.Transaction}
// @Failure      401  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Security     BearerAuth
// @Router       /credit/transactions [get]
func (h *CreditHandler) ListTransactions(c *gin.Context) {
	txns, err := h.service.ListTransactions(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	response.Success(c, txns)
}

// StripeWebhook godoc
// @Summary      Stripe webhook
// @Description  Verify a signed Stripe event and queue credit fulfilment for paid checkouts
// @Tags         credit
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header    string  true  "Stripe signature"
// @Success      200               {object}  response.Response
// @Failure      400               {object}  response.Response
// @Failure      503               {object}  response.Response
// @Failure      500               {object}  response.Response
// @Router       /stripe [post]
func (h *CreditHandler) StripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "unable to read request body")
		return
	}

	if err := h.service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidWebhookSignature):
			response.BadRequest(c, apperrors.ErrInvalidWebhookSignature.Error())
		case errors.Is(err, apperrors.ErrFulfillmentUnavailable):
			response.ServiceUnavailable(c, apperrors.ErrFulfillmentUnavailable.Error())
		default:
			_ = c.Error(err)
			response.InternalError(c)
		}
		return
	}

	response.Success(c, gin.H{"received": true})
}

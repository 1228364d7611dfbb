package handler

import (
	"errors"

	apperrors "quickchat/internal/errors"
	"quickchat/internal/middleware"
	"quickchat/internal/models"
	"quickchat/internal/service"
	"quickchat/pkg/response"

	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader lets a client retry a send without being charged twice.
const IdempotencyKeyHeader = "Idempotency-Key"

// maxIdempotencyKeyLength bounds the header so it can be used in a cache key.
const maxIdempotencyKeyLength = 128

// MessageHandler handles HTTP requests for metered AI messages.
type MessageHandler struct {
	service     service.MessageServicer
	suggestions service.SuggestionServicer
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(service service.MessageServicer, suggestions service.SuggestionServicer) *MessageHandler {
	return &MessageHandler{service: service, suggestions: suggestions}
}

// SendText godoc
// @Summary      Send text message
// @Description  Ask the AI for a text reply. Costs 1 credit, refunded when the provider fails.
// @Tags         message
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string                     false  "Replays the stored reply instead of charging again"
// @Param        request          body      models.TextMessageRequest  true   "Prompt"
// @Success      200              {object}  response.Response{data=models.SendMessageResponse}
// @Failure      400              {object}  response.Response
// @Failure      401              {object}  response.Response
// @Failure      402              {object}  response.Response
// @Failure      404              {object}  response.Response
// @Failure      409              {object}  response.Response
// @Failure      502              {object}  response.Response
// @Failure      500              {object}  response.Response
// @Security     BearerAuth
// @Router       /message/text [post]
func (h *MessageHandler) SendText(c *gin.Context) {
	var req models.TextMessageRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	result, err := h.service.SendText(c.Request.Context(), middleware.GetUserID(c), &req, key)
	if err != nil {
		writeSendError(c, err)
		return
	}

	response.Success(c, result)
}

// SendImage godoc
// @Summary      Send image message
// @Description  Generate an image from the prompt. Costs 2 credits, refunded when generation fails.
// @Tags         message
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string                      false  "Replays the stored reply instead of charging again"
// @Param        request          body      models.ImageMessageRequest  true   "Prompt and publish flag"
// @Success      200              {object}  response.Response{data=models.SendMessageResponse}
// @Failure      400              {object}  response.Response
// @Failure      401              {object}  response.Response
// @Failure      402              {object}  response.Response
// @Failure      404              {object}  response.Response
// @Failure      409              {object}  response.Response
// @Failure      502              {object}  response.Response
// @Failure      500              {object}  response.Response
// @Security     BearerAuth
// @Router       /message/image [post]
func (h *MessageHandler) SendImage(c *gin.Context) {
	var req models.ImageMessageRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	result, err := h.service.SendImage(c.Request.Context(), middleware.GetUserID(c), &req, key)
	if err != nil {
		writeSendError(c, err)
		return
	}

	response.Success(c, result)
}

// Suggestions godoc
// @Summary      Prompt suggestions
// @Description  Match the query against canned prompt templates. An empty query returns all of them.
// @Tags         message
// @Produce      json
// @Param        q    query     string  false  "Partial prompt"
// @Success      200  {object}  response.Response{data=[]models.PromptTemplate}
// @Failure      401  {object}  response.Response
// @Security     BearerAuth
// @Router       /message/suggestions [get]
func (h *MessageHandler) Suggestions(c *gin.Context) {
	response.Success(c, h.suggestions.Suggest(c.Query("q")))
}

// idempotencyKey reads the optional Idempotency-Key header. It writes a 400
// and returns false when the header is too long.
func idempotencyKey(c *gin.Context) (string, bool) {
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		response.BadRequest(c, "Idempotency-Key must be at most 128 characters")
		return "", false
	}
	return key, true
}

func writeSendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidChatID):
		response.BadRequest(c, err.Error())
	case errors.Is(err, apperrors.ErrInsufficientCredits):
		response.PaymentRequired(c, err.Error())
	case errors.Is(err, apperrors.ErrChatNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, apperrors.ErrRequestInProgress):
		response.Conflict(c, err.Error())
	case errors.Is(err, apperrors.ErrUpstreamFailure):
		response.BadGateway(c, apperrors.ErrUpstreamFailure.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

package handler

import (
	"errors"

	apperrors "quickchat/internal/errors"
	"quickchat/internal/middleware"
	"quickchat/internal/models"
	"quickchat/internal/service"
	"quickchat/pkg/response"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatHandler handles HTTP requests for chat operations.
type ChatHandler struct {
	service service.ChatServicer
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(service service.ChatServicer) *ChatHandler {
	return &ChatHandler{service: service}
}

// CreateChat godoc
// @Summary      Create chat
// @Description  Open a new empty chat owned by the authenticated user
// @Tags         chat
// @Produce      json
// @Success      201  {object}  response.Response{data=models.Chat}
// @Failure      401  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Security     BearerAuth
// @Router       /chat/create [post]
func (h *ChatHandler) CreateChat(c *gin.Context) {
	chat, err := h.service.CreateChat(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	response.Created(c, chat)
}

// ListChats godoc
// @Summary      List chats
// @Description  List the user's chats, most recently updated first
// @Tags         chat
// @Produce      json
// @Success      200  {object}  response.Response{data=[]models.Chat}
// @Failure      401  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Security     BearerAuth
// @Router       /chat/get [get]
func (h *ChatHandler) ListChats(c *gin.Context) {
	chats, err := h.service.ListChats(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	response.Success(c, chats)
}

// GetChat godoc
// @Summary      Get chat
// @Description  Return one chat with its messages
// @Tags         chat
// @Produce      json
// @Param        id   path      string  true  "Chat ID"
// @Success      200  {object}  response.Response{data=models.Chat}
// @Failure      400  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Security     BearerAuth
// @Router       /chat/{id} [get]
func (h *ChatHandler) GetChat(c *gin.Context) {
	chatID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.BadRequest(c, apperrors.ErrInvalidChatID.Error())
		return
	}

	chat, err := h.service.GetChat(c.Request.Context(), chatID, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrChatNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	response.Success(c, chat)
}

// DeleteChat godoc
// @Summary      Delete chat
// @Description  Delete one of the user's chats
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request  body      models.DeleteChatRequest  true  "Chat to delete"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Security     BearerAuth
// @Router       /chat/delete [post]
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	var req models.DeleteChatRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	chatID, err := primitive.ObjectIDFromHex(req.ChatID)
	if err != nil {
		response.BadRequest(c, apperrors.ErrInvalidChatID.Error())
		return
	}

	if err := h.service.DeleteChat(c.Request.Context(), chatID, middleware.GetUserID(c)); err != nil {
		if errors.Is(err, apperrors.ErrChatNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	response.Message(c, "chat deleted")
}

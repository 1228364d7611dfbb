package handler

import (
	"errors"

	apperrors "quickchat/internal/errors"
	"quickchat/internal/middleware"
	"quickchat/internal/service"
	"quickchat/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	service service.UserServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service service.UserServicer) *UserHandler {
	return &UserHandler{service: service}
}

// GetUserData godoc
// @Summary      Current user
// @Description  Return the authenticated user's profile and credit balance
// @Tags         user
// @Produce      json
// @Success      200  {object}  response.Response{data=models.User}
// @Failure      401  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Security     BearerAuth
// @Router       /user/data [get]
func (h *UserHandler) GetUserData(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	response.Success(c, user)
}

// GetPublishedImages godoc
// @Summary      Community images
// @Description  List images users chose to publish, newest first
// @Tags         user
// @Produce      json
// @Success      200  {object}  response.Response{data=[]models.PublishedImage}
// @Failure      500  {object}  response.Response
// @Router       /user/published-images [get]
func (h *UserHandler) GetPublishedImages(c *gin.Context) {
	images, err := h.service.PublishedImages(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	response.Success(c, images)
}

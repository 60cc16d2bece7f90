package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

type UserHandler struct {
	useCase domain.UserUseCase
	log     *logrus.Logger
}

func NewUserHandler(uc domain.UserUseCase, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *UserHandler) RegisterRoutes(router gin.IRouter) {
	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.POST("", h.UpsertUser)
	}
}

type upsertUserRequest struct {
	ID                 *string   `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	FavoriteCategories *[]string `json:"favoriteCategories"`
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.useCase.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Errorf("Failed to list users: %v", err)
		HandleError(c, err)
		return
	}
	ListSuccessResponse(c, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id := c.Param("id")
	user, err := h.useCase.GetUserByID(c.Request.Context(), id)
	if err != nil {
		h.log.Warnf("Failed to get user %s: %v", id, err)
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, user)
}

func (h *UserHandler) UpsertUser(c *gin.Context) {
	var req upsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Failed to bind JSON for upsert user: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	user, err := h.useCase.UpsertUser(c.Request.Context(), domain.UpsertUserInput{
		ID:                 req.ID,
		Name:               req.Name,
		Email:              req.Email,
		FavoriteCategories: req.FavoriteCategories,
	})
	if err != nil {
		h.log.Warnf("Failed to upsert user %s: %v", req.Email, err)
		HandleError(c, err)
		return
	}
	h.log.Infof("User %s saved", user.ID)
	SuccessResponse(c, http.StatusCreated, user)
}

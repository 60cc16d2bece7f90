package delivery

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

type RecommendationHandler struct {
	useCase domain.RecommendationUseCase
	log     *logrus.Logger
}

func NewRecommendationHandler(uc domain.RecommendationUseCase, logger *logrus.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *RecommendationHandler) RegisterRoutes(router gin.IRouter) {
	recommendations := router.Group("/recommendations")
	{
		recommendations.GET("", h.GetRecommendations)
		recommendations.GET("/related/:productId", h.GetRelated)
	}
}

type recommendationContext struct {
	UserID    *string `json:"userId"`
	ProductID *string `json:"productId"`
}

type recommendationResponse struct {
	Data    []domain.Product      `json:"data"`
	Context recommendationContext `json:"context"`
}

type relatedResponse struct {
	Data []domain.Product `json:"data"`
	Base *domain.Product  `json:"base"`
}

// parseLimit returns 0 for a missing or malformed limit, which selects the default.
func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return limit
}

func optionalQuery(c *gin.Context, key string) *string {
	if value, ok := c.GetQuery(key); ok && value != "" {
		return &value
	}
	return nil
}

func (h *RecommendationHandler) GetRecommendations(c *gin.Context) {
	query := domain.RecommendationQuery{
		UserID:    c.Query("userId"),
		ProductID: c.Query("productId"),
		Limit:     parseLimit(c),
	}
	products, err := h.useCase.GetRecommendations(c.Request.Context(), query)
	if err != nil {
		h.log.Errorf("Failed to compute recommendations %+v: %v", query, err)
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, recommendationResponse{
		Data: products,
		Context: recommendationContext{
			UserID:    optionalQuery(c, "userId"),
			ProductID: optionalQuery(c, "productId"),
		},
	})
}

func (h *RecommendationHandler) GetRelated(c *gin.Context) {
	productID := c.Param("productId")
	base, products, err := h.useCase.Related(c.Request.Context(), productID, parseLimit(c))
	if err != nil {
		h.log.Warnf("Failed to compute related products for %s: %v", productID, err)
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, relatedResponse{Data: products, Base: base})
}

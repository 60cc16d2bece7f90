package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

type ProductHandler struct {
	useCase domain.CatalogUseCase
	log     *logrus.Logger
}

func NewProductHandler(uc domain.CatalogUseCase, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *ProductHandler) RegisterRoutes(router gin.IRouter) {
	products := router.Group("/products")
	{
		products.GET("", h.SearchProducts)
		products.GET("/:id", h.GetProduct)
	}
}

func (h *ProductHandler) SearchProducts(c *gin.Context) {
	filter := domain.ProductFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
	}
	products, err := h.useCase.SearchProducts(c.Request.Context(), filter)
	if err != nil {
		h.log.Errorf("Failed to search products %+v: %v", filter, err)
		HandleError(c, err)
		return
	}
	ListSuccessResponse(c, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	product, err := h.useCase.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.log.Warnf("Failed to get product %s: %v", id, err)
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, product)
}

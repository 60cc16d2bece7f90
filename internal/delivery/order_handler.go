package delivery

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

type OrderHandler struct {
	useCase domain.OrderUseCase
	log     *logrus.Logger
}

func NewOrderHandler(uc domain.OrderUseCase, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *OrderHandler) RegisterRoutes(router gin.IRouter) {
	orders := router.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrderByID)
		orders.PATCH("/:id/status", h.UpdateOrderStatus)
	}
}

type createOrderRequest struct {
	UserID *string `json:"userId"`
	Items  []struct {
		ProductID string `json:"productId"`
		Quantity  *int   `json:"quantity"`
	} `json:"items"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID        string             `json:"id"`
	UserID    *string            `json:"userId"`
	Status    domain.OrderStatus `json:"status"`
	Items     []domain.OrderItem `json:"items"`
	CreatedAt time.Time          `json:"createdAt"`
	Total     decimal.Decimal    `json:"total"`
}

func newOrderResponse(o *domain.Order) orderResponse {
	items := o.Items
	if items == nil {
		items = []domain.OrderItem{}
	}
	return orderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		Status:    o.Status,
		Items:     items,
		CreatedAt: o.CreatedAt,
		Total:     o.Total(),
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Failed to bind JSON for create order: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	input := domain.CreateOrderInput{}
	if req.UserID != nil && strings.TrimSpace(*req.UserID) != "" {
		input.UserID = req.UserID
	}
	for _, item := range req.Items {
		quantity := 1
		if item.Quantity != nil {
			quantity = *item.Quantity
		}
		input.Items = append(input.Items, domain.CreateOrderItemInput{ProductID: item.ProductID, Quantity: quantity})
	}

	order, err := h.useCase.CreateOrder(c.Request.Context(), input)
	if err != nil {
		h.log.Warnf("Failed to create order: %v", err)
		HandleError(c, err)
		return
	}
	h.log.Infof("Order %s created successfully", order.ID)
	SuccessResponse(c, http.StatusCreated, newOrderResponse(order))
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	id := c.Param("id")
	order, err := h.useCase.GetOrderByID(c.Request.Context(), id)
	if err != nil {
		h.log.Warnf("Failed to get order %s: %v", id, err)
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, newOrderResponse(order))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.useCase.ListOrders(c.Request.Context())
	if err != nil {
		h.log.Errorf("Failed to list orders: %v", err)
		HandleError(c, err)
		return
	}
	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, newOrderResponse(&orders[i]))
	}
	ListSuccessResponse(c, resp)
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id := c.Param("id")
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		h.log.Warnf("Missing status for order %s", id)
		ErrorResponse(c, http.StatusBadRequest, "status is required")
		return
	}

	order, err := h.useCase.UpdateOrderStatus(c.Request.Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		h.log.Warnf("Failed to update order %s to %s: %v", id, req.Status, err)
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, newOrderResponse(order))
}

package delivery

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

func init() {
	// prices go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type ListResponse struct {
	Data interface{} `json:"data"`
}

type ErrorBody struct {
	Error string `json:"error"`
}

func SuccessResponse(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

func ListSuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, ListResponse{Data: data})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, ErrorBody{Error: message})
}

// HandleError writes err with the status its kind maps to.
func HandleError(c *gin.Context, err error) {
	ErrorResponse(c, mapErrorToStatus(err), err.Error())
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

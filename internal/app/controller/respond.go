package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

// parseIDParam reads a positive numeric path parameter, answering 400 itself
// when it is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid id parameter", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// respondBindError answers a request body that could not be bound.
func respondBindError(c *gin.Context, err error) {
	middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
		"error": err.Error(),
	})
	if fields := apperrors.FieldErrors(err); fields != nil {
		apperrors.RespondWithValidationError(c, fields)
		return
	}
	apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
}

// respondServiceError maps service errors onto the HTTP taxonomy. Unknown
// errors are logged and answered with an opaque 500.
func respondServiceError(c *gin.Context, err error, operation string) {
	log := middleware.GetLoggerFromContext(c)

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		log.Warn("Validation failed", map[string]interface{}{"operation": operation, "fields": verr.Fields})
		apperrors.RespondWithValidationError(c, verr.Fields)
		return
	}

	var unavailable *service.ProductUnavailableError
	if errors.As(err, &unavailable) {
		log.Warn("Product unavailable", map[string]interface{}{
			"operation":  operation,
			"product_id": unavailable.ProductID,
			"reason":     unavailable.Reason,
		})
		apperrors.RespondWithProductUnavailable(c, unavailable.ProductID, unavailable.Error())
		return
	}

	var transition *service.InvalidTransitionError
	if errors.As(err, &transition) {
		log.Warn("Invalid status transition", map[string]interface{}{
			"from": transition.From,
			"to":   transition.To,
		})
		apperrors.Conflict(c, apperrors.OrderInvalidTransition, transition.Error())
		return
	}

	status, code, message := classify(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed", err, map[string]interface{}{"operation": operation})
		apperrors.ParseAndRespond(c, status, err, operation)
		return
	}

	log.Warn(message, map[string]interface{}{"operation": operation})
	apperrors.RespondWithError(c, status, code, message)
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		return http.StatusNotFound, apperrors.ProductNotFound, "Product not found"
	case errors.Is(err, service.ErrCartItemNotFound):
		return http.StatusNotFound, apperrors.CartItemNotFound, "Cart item not found"
	case errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound, apperrors.OrderNotFound, "Order not found"
	case errors.Is(err, service.ErrCustomerNotFound):
		return http.StatusNotFound, apperrors.CustomerNotFound, "Customer not found"
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusBadRequest, apperrors.ProductInsufficientStock, "Not enough stock for the requested quantity"
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusBadRequest, apperrors.CartEmpty, "The cart is empty"
	case errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest, apperrors.OrderInvalidStatus, "Unknown order status"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, apperrors.CustomerEmailExists, "This email is already registered"
	case errors.Is(err, service.ErrAlreadySubscribed):
		return http.StatusConflict, apperrors.NewsletterSubscribed, "This email is already subscribed"
	}
	return http.StatusInternalServerError, apperrors.InternalServerError, ""
}

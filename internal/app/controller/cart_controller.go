package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  *int `json:"quantity"` // defaults to 1
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// owner returns the session key; RequireSession guarantees it on cart routes.
func owner(c *gin.Context) (string, bool) {
	ownerKey, ok := middleware.GetOwnerKey(c)
	if !ok {
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.SessionRequired, "A session id is required")
	}
	return ownerKey, ok
}

// GetCart returns the cart joined with live product data
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	ownerKey, ok := owner(c)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.GetCart(c.Request.Context(), ownerKey)
	if err != nil {
		respondServiceError(c, err, "get cart")
		return
	}

	c.JSON(http.StatusOK, cart)
}

// AddToCart adds a product or raises the quantity of its existing line
// POST /api/v1/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	ownerKey, ok := owner(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	line, err := ctrl.cartService.AddItem(c.Request.Context(), ownerKey, req.ProductID, quantity)
	if err != nil {
		respondServiceError(c, err, "add to cart")
		return
	}

	log.Info("Cart item added", map[string]interface{}{
		"product_id": req.ProductID,
		"quantity":   line.Quantity,
	})

	c.JSON(http.StatusCreated, gin.H{
		"item": line,
	})
}

// UpdateCartItem sets a line's quantity; zero or less removes it
// PATCH /api/v1/cart/:id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	ownerKey, ok := owner(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	line, removed, err := ctrl.cartService.SetQuantity(c.Request.Context(), ownerKey, id, *req.Quantity)
	if err != nil {
		respondServiceError(c, err, "update cart item")
		return
	}
	if removed {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item": line,
	})
}

// RemoveCartItem
// DELETE /api/v1/cart/:id
func (ctrl *CartController) RemoveCartItem(c *gin.Context) {
	ownerKey, ok := owner(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.cartService.RemoveItem(c.Request.Context(), ownerKey, id); err != nil {
		respondServiceError(c, err, "remove cart item")
		return
	}

	c.Status(http.StatusNoContent)
}

// ClearCart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	ownerKey, ok := owner(c)
	if !ok {
		return
	}

	if err := ctrl.cartService.ClearCart(c.Request.Context(), ownerKey); err != nil {
		respondServiceError(c, err, "clear cart")
		return
	}

	c.Status(http.StatusNoContent)
}

package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type CustomerController struct {
	customerService service.CustomerService
	orderService    service.OrderService
}

func NewCustomerController(customerService service.CustomerService, orderService service.OrderService) *CustomerController {
	return &CustomerController{
		customerService: customerService,
		orderService:    orderService,
	}
}

type RegisterCustomerRequest struct {
	Name    string        `json:"name"`
	Email   string        `json:"email"`
	Phone   string        `json:"phone"`
	Address model.Address `json:"address"`
}

// RegisterCustomer
// POST /api/v1/customers
func (ctrl *CustomerController) RegisterCustomer(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	customer, err := ctrl.customerService.Register(c.Request.Context(), service.RegisterCustomerInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		respondServiceError(c, err, "register customer")
		return
	}

	log.Info("Customer registered", map[string]interface{}{
		"customer_id": customer.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"customer": customer,
	})
}

// GetCustomer
// GET /api/v1/customers/:id
func (ctrl *CustomerController) GetCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	customer, err := ctrl.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "get customer")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer": customer,
	})
}

// GetCustomerOrders lists a customer's orders, newest first
// GET /api/v1/customers/:id/orders
func (ctrl *CustomerController) GetCustomerOrders(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	orders, err := ctrl.orderService.ListCustomerOrders(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "list customer orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

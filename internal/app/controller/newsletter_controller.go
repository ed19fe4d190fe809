package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type NewsletterController struct {
	newsletterService service.NewsletterService
}

func NewNewsletterController(newsletterService service.NewsletterService) *NewsletterController {
	return &NewsletterController{
		newsletterService: newsletterService,
	}
}

type SubscribeRequest struct {
	Email string `json:"email"`
}

// Subscribe
// POST /api/v1/newsletter
func (ctrl *NewsletterController) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	subscriber, err := ctrl.newsletterService.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		respondServiceError(c, err, "subscribe")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Newsletter subscription added", map[string]interface{}{
		"subscriber_id": subscriber.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"subscriber": subscriber,
	})
}

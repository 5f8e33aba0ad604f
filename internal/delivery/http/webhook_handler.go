package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mshra/Multi-Vendor-Service/internal/domain"
	"github.com/mshra/Multi-Vendor-Service/internal/usecase"
)

// WebhookHandler receives async vendors' result callbacks.
type WebhookHandler struct {
	completeUC *usecase.CompleteJobUsecase
	logger     *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(completeUC *usecase.CompleteJobUsecase, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		completeUC: completeUC,
		logger:     logger,
	}
}

// Receive handles POST /api/v1/vendor-webhook/:vendor
func (h *WebhookHandler) Receive(c *gin.Context) {
	var req domain.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid webhook payload: " + err.Error(),
		})
		return
	}

	vendorID := c.Param("vendor")

	if err := h.completeUC.Execute(c.Request.Context(), &req); err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			// The vendor should not blindly retry an unknown id.
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		h.logger.Error("Webhook processing failed",
			zap.Error(err),
			zap.String("request_id", req.RequestID.String()),
			zap.String("vendor", vendorID),
		)
		// Persistence failure: the vendor is expected to retry its callback.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

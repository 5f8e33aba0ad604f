// Command mockvendor emulates the two vendor styles for local development and
// load testing: the sync endpoint answers with the result inline, the async
// endpoint acknowledges and calls the service webhook back after a short
// random delay.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type jobPayload struct {
	RequestID string          `json:"request_id"`
	Vendor    string          `json:"vendor"`
	JobData   json.RawMessage `json:"job_data"`
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	viper.AutomaticEnv()
	viper.SetDefault("MOCK_VENDOR_PORT", 8001)
	viper.SetDefault("APP_WEBHOOK_URL", "http://localhost:8080/api/v1/vendor-webhook/async")

	port := viper.GetInt("MOCK_VENDOR_PORT")
	webhookURL := viper.GetString("APP_WEBHOOK_URL")

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/vendor/sync", func(c *gin.Context) {
		var payload jobPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"request_id": payload.RequestID,
			"final_data": payload.JobData,
		})
	})

	router.POST("/vendor/async", func(c *gin.Context) {
		var payload jobPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		go callbackLater(payload, webhookURL, logger)

		c.JSON(http.StatusAccepted, gin.H{"message": "Accepted"})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ping": "pong"})
	})

	logger.Info("Mock vendor listening", zap.Int("port", port))
	if err := router.Run(fmt.Sprintf(":%d", port)); err != nil {
		logger.Fatal("Mock vendor failed", zap.Error(err))
	}
}

// callbackLater posts the final result to the service webhook after a random
// delay, imitating a real async vendor's turnaround.
func callbackLater(payload jobPayload, webhookURL string, logger *zap.Logger) {
	delay := 500*time.Millisecond + time.Duration(rand.Int64N(int64(time.Second)))
	time.Sleep(delay)

	body, err := json.Marshal(map[string]any{
		"request_id": payload.RequestID,
		"final_data": payload.JobData,
	})
	if err != nil {
		logger.Error("Failed to marshal callback", zap.Error(err))
		return
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Error("Webhook callback failed",
			zap.Error(err),
			zap.String("request_id", payload.RequestID),
		)
		return
	}
	defer resp.Body.Close()

	logger.Info("Webhook callback delivered",
		zap.String("request_id", payload.RequestID),
		zap.Int("status_code", resp.StatusCode),
	)
}

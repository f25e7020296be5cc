package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/price-standard/price-service/internal/storage"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status" jsonschema:"required"`
	Storage string `json:"storage" jsonschema:"required"`
}

// HealthCheck handles the health check endpoint
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status: "ok",
	}

	if outputStore != nil {
		if _, err := outputStore.List(c.Request.Context(), storage.OutputsPrefix); err != nil {
			response.Status = "degraded"
			response.Storage = "unavailable"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response.Storage = "available"
	} else {
		response.Storage = "not configured"
	}

	c.JSON(http.StatusOK, response)
}

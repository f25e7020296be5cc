package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/price-standard/price-service/internal/middleware"
	"github.com/price-standard/price-service/internal/pipeline"
	"github.com/price-standard/price-service/internal/storage"
	"github.com/price-standard/price-service/internal/types"
)

// ============================================================================
// Price List Processing Endpoints
// ============================================================================

// Form fields accepted by ProcessPriceList
const (
	FormFile                = "file"
	FormK2Discount          = "k2_discount"
	FormK3Discount          = "k3_discount"
	FormRecalculateExisting = "recalculate_existing"
)

// ProcessingConfig bounds the processing endpoint
type ProcessingConfig struct {
	MaxConcurrent  int64
	MaxUploadBytes int64
	Defaults       pipeline.Options
}

// ProcessResponse is returned by the processing endpoint
type ProcessResponse struct {
	Success     bool                   `json:"success" jsonschema:"required"`
	Message     string                 `json:"message" jsonschema:"required"`
	OutputName  *string                `json:"outputName"`
	DownloadURL string                 `json:"downloadUrl,omitempty"`
	Stats       *types.ProcessingStats `json:"stats,omitempty"`
	RequestID   string                 `json:"requestId,omitempty"`
}

// Global processing state (initialized by the application)
var (
	processor     *pipeline.Pipeline
	outputStore   storage.Storage
	processSem    *semaphore.Weighted
	processConfig ProcessingConfig
)

// InitProcessing wires the pipeline and output storage into the handlers.
// This should be called during application startup.
func InitProcessing(p *pipeline.Pipeline, store storage.Storage, cfg ProcessingConfig) {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.Defaults.Discounts == nil {
		cfg.Defaults.Discounts = types.DefaultDiscountSettings()
	}

	processor = p
	outputStore = store
	processSem = semaphore.NewWeighted(cfg.MaxConcurrent)
	processConfig = cfg
}

// ProcessPriceList standardizes an uploaded price list
// @Summary Standardize a price list
// @Description Uploads a spreadsheet price list, cleans it, computes sale prices from discount markers and stores a styled workbook
// @Tags processing
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Price list (.xlsx, .xlsm or .csv)"
// @Param k2_discount formData int false "Discount percent for the К2 marker" default(30) minimum(0) maximum(100)
// @Param k3_discount formData int false "Discount percent for the К3 marker" default(40) minimum(0) maximum(100)
// @Param recalculate_existing formData bool false "Recompute special prices that are already filled in" default(false)
// @Success 200 {object} ProcessResponse
// @Failure 400 {object} ProcessResponse "Unreadable file, unrecognized structure or invalid settings"
// @Failure 413 {object} map[string]string "File too large"
// @Failure 500 {object} ProcessResponse "Internal server error"
// @Failure 503 {object} map[string]string "Service unavailable"
// @Router /api/process [post]
func ProcessPriceList(c *gin.Context) {
	if processor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Processing is not configured"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, processConfig.MaxUploadBytes+(1<<20))

	header, err := c.FormFile(FormFile)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}
	if header.Size > processConfig.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("File too large: %d bytes (max %d)", header.Size, processConfig.MaxUploadBytes),
		})
		return
	}
	if _, err := types.DetectFileType(header.Filename); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only .xlsx, .xlsm and .csv files are supported"})
		return
	}

	opts, err := parseOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}
	var buf bytes.Buffer
	_, err = io.Copy(&buf, file)
	file.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}

	ctx := c.Request.Context()
	if err := processSem.Acquire(ctx, 1); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Request cancelled while waiting for a processing slot"})
		return
	}
	defer processSem.Release(1)

	requestID := middleware.GetRequestID(c)
	result, err := processor.Process(ctx, pipeline.Input{Filename: header.Filename, Content: buf.Bytes()}, opts)
	response := ProcessResponse{
		Success:   result.Success,
		Message:   result.Message,
		RequestID: requestID,
	}

	if err != nil {
		status := http.StatusInternalServerError
		if pipeline.IsClientError(err) {
			status = http.StatusBadRequest
		}
		log.Warn().
			Err(err).
			Str("request_id", requestID).
			Str("file", header.Filename).
			Int("status", status).
			Msg("Price list rejected")
		c.JSON(status, response)
		return
	}

	name := result.OutputName
	response.OutputName = &name
	response.DownloadURL = "/api/download/" + url.PathEscape(name)
	response.Stats = &result.Stats
	c.JSON(http.StatusOK, response)
}

// parseOptions reads the discount form fields, falling back to the configured defaults
func parseOptions(c *gin.Context) (pipeline.Options, error) {
	discounts := make(types.DiscountSettings, len(processConfig.Defaults.Discounts))
	for k, v := range processConfig.Defaults.Discounts {
		discounts[k] = v
	}

	fields := []struct {
		name   string
		marker string
	}{
		{FormK2Discount, "К2"},
		{FormK3Discount, "К3"},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(c.PostForm(f.name))
		if raw == "" {
			continue
		}
		pct, err := strconv.Atoi(raw)
		if err != nil {
			return pipeline.Options{}, fmt.Errorf("%s must be an integer", f.name)
		}
		discounts[f.marker] = pct
	}

	recalc := processConfig.Defaults.RecalculateExisting
	if raw := strings.TrimSpace(c.PostForm(FormRecalculateExisting)); raw != "" {
		switch strings.ToLower(raw) {
		case "on", "yes":
			recalc = true
		case "off", "no":
			recalc = false
		default:
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return pipeline.Options{}, fmt.Errorf("%s must be a boolean", FormRecalculateExisting)
			}
			recalc = v
		}
	}

	return pipeline.Options{Discounts: discounts, RecalculateExisting: recalc}, nil
}

package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/price-standard/price-service/internal/storage"
)

// DownloadPriceList returns a stored standardized price list
// @Summary Download a standardized price list
// @Description Returns a workbook produced by the processing endpoint
// @Tags processing
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param name path string true "Output file name"
// @Success 200 {file} file
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "File not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/download/{name} [get]
func DownloadPriceList(c *gin.Context) {
	if outputStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage is not configured"})
		return
	}

	name := c.Param("name")
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, `/\`) || !strings.HasSuffix(name, ".xlsx") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file name"})
		return
	}

	content, err := outputStore.Get(c.Request.Context(), storage.BuildOutputKey(name))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(name))
	c.Data(http.StatusOK, storage.ContentTypeXLSX, content)
}

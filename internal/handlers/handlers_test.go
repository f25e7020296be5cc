package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/price-standard/price-service/internal/middleware"
	"github.com/price-standard/price-service/internal/pipeline"
	"github.com/price-standard/price-service/internal/storage"
	"github.com/price-standard/price-service/internal/types"
)

func setupRouter(t *testing.T, cfg ProcessingConfig) (*gin.Engine, *storage.LocalStorage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	p := pipeline.New(pipeline.DefaultConfig(), store, nil)
	p.Now = func() time.Time { return time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC) }
	InitProcessing(p, store, cfg)
	t.Cleanup(func() { InitProcessing(nil, nil, ProcessingConfig{}) })

	router := gin.New()
	router.Use(middleware.RequestID())
	router.GET("/health", HealthCheck)
	router.POST("/api/process", ProcessPriceList)
	router.GET("/api/download/:name", DownloadPriceList)
	return router, store
}

func priceWorkbook(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"Код товара", "Качество", "Номенклатура", "Спец. цена", "Розничная цена"},
		{"12345", "", "Эмаль ПФ-115 К2", "", 1000},
		{"23456", "", "Грунт К3", "", 500},
		{"34567", "новинка", "Валик", "", 250},
	}
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", axis, &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func uploadRequest(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile(FormFile, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, "/api/process", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeProcess(t *testing.T, w *httptest.ResponseRecorder) ProcessResponse {
	t.Helper()
	var resp ProcessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestProcessPriceListHappyPath(t *testing.T) {
	router, store := setupRouter(t, ProcessingConfig{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "price.xlsx", priceWorkbook(t), nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeProcess(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Processed 3 rows, 2 on sale", resp.Message)
	require.NotNil(t, resp.OutputName)
	assert.True(t, strings.HasPrefix(*resp.OutputName, pipeline.DefaultOutputPrefix+"20250305_"))
	assert.Equal(t, 2, resp.Stats.PerRule[types.RuleDiscountComputed])
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, w.Header().Get(middleware.RequestIDHeader))

	exists, err := store.Exists(context.Background(), storage.BuildOutputKey(*resp.OutputName))
	require.NoError(t, err)
	assert.True(t, exists)

	dl := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, resp.DownloadURL, nil)
	require.NoError(t, err)
	router.ServeHTTP(dl, req)

	assert.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, storage.ContentTypeXLSX, dl.Header().Get("Content-Type"))
	assert.Contains(t, dl.Header().Get("Content-Disposition"), "attachment; filename*=UTF-8''")

	f, err := excelize.OpenReader(bytes.NewReader(dl.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	special, err := f.GetCellValue("Прайс-лист", "D8", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "700", special)
}

func TestProcessPriceListDiscountFields(t *testing.T) {
	router, _ := setupRouter(t, ProcessingConfig{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "price.xlsx", priceWorkbook(t), map[string]string{
		FormK2Discount:          "0",
		FormK3Discount:          "50",
		FormRecalculateExisting: "on",
	}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeProcess(t, w)
	assert.Equal(t, 2, resp.Stats.RowsWithSale)
}

func TestProcessPriceListErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		fields   map[string]string
		cfg      ProcessingConfig
		status   int
	}{
		{name: "missing file", status: http.StatusBadRequest},
		{name: "unsupported type", filename: "price.pdf", content: []byte("%PDF"), status: http.StatusBadRequest},
		{name: "unreadable workbook", filename: "price.xlsx", content: []byte("garbage"), status: http.StatusBadRequest},
		{
			name: "discount not a number", filename: "price.xlsx", content: []byte("x"),
			fields: map[string]string{FormK2Discount: "abc"}, status: http.StatusBadRequest,
		},
		{
			name: "bad boolean", filename: "price.xlsx", content: []byte("x"),
			fields: map[string]string{FormRecalculateExisting: "maybe"}, status: http.StatusBadRequest,
		},
		{
			name: "too large", filename: "price.xlsx", content: bytes.Repeat([]byte("x"), 2048),
			cfg: ProcessingConfig{MaxUploadBytes: 1024}, status: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupRouter(t, tt.cfg)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, uploadRequest(t, tt.filename, tt.content, tt.fields))
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestProcessPriceListInvalidDiscountRange(t *testing.T) {
	router, _ := setupRouter(t, ProcessingConfig{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "price.xlsx", priceWorkbook(t), map[string]string{FormK2Discount: "150"}))

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeProcess(t, w)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.OutputName)
	assert.True(t, strings.HasPrefix(resp.Message, "Invalid discount settings"))
}

func TestDownloadPriceList(t *testing.T) {
	router, _ := setupRouter(t, ProcessingConfig{})

	tests := []struct {
		path   string
		status int
	}{
		{path: "/api/download/missing.xlsx", status: http.StatusNotFound},
		{path: "/api/download/notes.txt", status: http.StatusBadRequest},
		{path: "/api/download/..%5Csecret.xlsx", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		req, err := http.NewRequest(http.MethodGet, tt.path, nil)
		require.NoError(t, err)
		router.ServeHTTP(w, req)
		assert.Equal(t, tt.status, w.Code, tt.path)
	}
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupRouter(t, ProcessingConfig{})

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/health", nil)
	require.NoError(t, err)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "available", resp.Storage)
}

func TestProcessNotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	InitProcessing(nil, nil, ProcessingConfig{})

	router := gin.New()
	router.POST("/api/process", ProcessPriceList)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "price.xlsx", priceWorkbook(t), nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

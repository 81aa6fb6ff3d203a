package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/services"
)

const lumberReceipt = `Here you go:
{"vendor": "Lumber Co", "currency": "USD", "total": 64.5,
 "items": [
   {"description": "Walnut board", "quantity": 2, "unit_price": 25, "total": 50},
   {"description": "Wood glue", "quantity": 1, "unit_price": 14.5, "total": 14.5}
 ]}`

func receiptEnv(t *testing.T, llm *mockLLM, store services.ObjectStore) *testEnv {
	t.Helper()
	deps := Dependencies{Parser: services.NewReceiptParser(llm, nil)}
	if store != nil {
		deps.Store = store
	}
	return newTestEnv(t, deps, nil)
}

func postReceipt(t *testing.T, env *testEnv, path string, data []byte, fields map[string]string, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, "file", [][]byte{data}, fields)
	opts = append(opts, withHeader("Content-Type", contentType))
	return env.do(t, http.MethodPost, path, body, opts...)
}

func TestParseReceiptDemo(t *testing.T) {
	llm := &mockLLM{}
	llm.On("DescribeImage", mock.Anything, mock.Anything, "image/png", pngBytes).Return(lumberReceipt, nil).Once()
	env := receiptEnv(t, llm, nil)

	rec := postReceipt(t, env, "/api/receipts/parse", pngBytes, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	parsed := decodeBody[services.ParsedReceipt](t, rec)
	assert.Equal(t, "Lumber Co", parsed.Vendor)
	assert.Equal(t, services.ParseMethodVision, parsed.Method)
	assert.InDelta(t, 64.5, parsed.Total, 0.001)
	require.Len(t, parsed.Items, 2)
	assert.Equal(t, "Walnut board", parsed.Items[0].Description)
	assert.Empty(t, parsed.RawText)

	receipts, err := env.db.ReceiptRepo().FindAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, receipts, "the demo stores nothing")
	llm.AssertExpectations(t)
}

func TestParseReceiptErrors(t *testing.T) {
	llm := &mockLLM{}
	llm.On("DescribeImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("gateway timeout"))
	env := receiptEnv(t, llm, nil)

	rec := postReceipt(t, env, "/api/receipts/parse", []byte("plain text is not a receipt"), nil)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = postReceipt(t, env, "/api/receipts/parse", pngBytes, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	env = newTestEnv(t, Dependencies{}, nil)
	rec = postReceipt(t, env, "/api/receipts/parse", pngBytes, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateReceiptAddsMaterials(t *testing.T) {
	llm := &mockLLM{}
	llm.On("DescribeImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(lumberReceipt, nil)
	store := newMemoryStore()
	env := receiptEnv(t, llm, store)
	p := createProject(t, env, map[string]any{"title": "Walnut lamp"})

	rec := postReceipt(t, env, "/api/receipts", pngBytes, map[string]string{
		"projectId":    p.ID.String(),
		"addMaterials": "true",
	}, withToken(env.adminToken))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	receipt := decodeBody[*models.Receipt](t, rec)
	require.NotNil(t, receipt.ProjectID)
	assert.Equal(t, p.ID, *receipt.ProjectID)
	assert.Len(t, receipt.Items, 2)
	assert.NotEmpty(t, receipt.ImageURL)
	assert.Len(t, store.objects, 1)

	summary := decodeBody[database.CostSummary](t, env.do(t, http.MethodGet, "/api/projects/"+p.ID.String()+"/costs", nil))
	assert.Equal(t, int64(2), summary.MaterialCount)
	assert.InDelta(t, 64.5, summary.MaterialCost, 0.001)
	assert.Equal(t, int64(1), summary.ReceiptCount)

	rec2 := env.do(t, http.MethodGet, "/api/receipts?projectId="+p.ID.String(), nil, withToken(env.adminToken))
	require.Equal(t, http.StatusOK, rec2.Code)
	assert.Len(t, decodeBody[ListResponse[*models.Receipt]](t, rec2).Items, 1)

	rec2 = env.do(t, http.MethodDelete, "/api/receipts/"+receipt.ID.String(), nil, withToken(env.adminToken))
	assert.Equal(t, http.StatusNoContent, rec2.Code)
	assert.Empty(t, store.objects)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/receipts/"+receipt.ID.String(), nil, withToken(env.adminToken)).Code)
}

func TestCreateReceiptRemovesUploadWhenInsertFails(t *testing.T) {
	llm := &mockLLM{}
	llm.On("DescribeImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(lumberReceipt, nil)
	store := newMemoryStore()
	env := receiptEnv(t, llm, store)

	err := env.gorm.Callback().Create().Before("gorm:create").Register("fail_receipt_insert", func(tx *gorm.DB) {
		if tx.Statement.Table == "receipts" {
			_ = tx.AddError(errors.New("disk I/O error"))
		}
	})
	require.NoError(t, err)

	rec := postReceipt(t, env, "/api/receipts", pngBytes, nil, withToken(env.adminToken))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, store.objects)
	assert.Len(t, store.deleted, 1)
}

func TestCreateReceiptValidation(t *testing.T) {
	llm := &mockLLM{}
	env := receiptEnv(t, llm, nil)

	rec := postReceipt(t, env, "/api/receipts", pngBytes, map[string]string{"addMaterials": "true"}, withToken(env.adminToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postReceipt(t, env, "/api/receipts", pngBytes, map[string]string{"projectId": uuid.NewString()}, withToken(env.adminToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = postReceipt(t, env, "/api/receipts", pngBytes, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	llm.AssertNotCalled(t, "DescribeImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

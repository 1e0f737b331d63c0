package dto

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeOverReceipt, http.StatusUnprocessableEntity},
		{ErrCodeUpstream, http.StatusBadGateway},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeDuplicateRequest, http.StatusConflict},
		{ErrCodeTooLarge, http.StatusRequestEntityTooLarge},
		{"ERR_SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeValidation, NormalizeErrorCode(shared.CodeValidation))
	assert.Equal(t, ErrCodeOverReceipt, NormalizeErrorCode(shared.CodeOverReceipt))
	assert.Equal(t, ErrCodeUpstream, NormalizeErrorCode(shared.CodeUpstream))
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, "CUSTOM", NormalizeErrorCode("CUSTOM"))
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponseWithRequestID(shared.CodeNotFound, "Purchase order not found", "req-123")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Purchase order not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
	assert.False(t, resp.Error.Timestamp.Before(before))
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "order_number", Message: "This field is required"},
		{Field: "quantity", Message: "Must be greater than 0"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "order_number", resp.Error.Details[0].Field)
}

func TestErrorResponseJSON(t *testing.T) {
	data, err := json.Marshal(NewErrorResponseWithRequestID(ErrCodeOverReceipt, "Only 2 units outstanding", "req-1"))
	require.NoError(t, err)

	var decoded Response
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.False(t, decoded.Success)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, ErrCodeOverReceipt, decoded.Error.Code)
	assert.Equal(t, "req-1", decoded.Error.RequestID)
	assert.Nil(t, decoded.Data)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		total         int64
		pageSize      int
		expectedPages int
		expectedSize  int
	}{
		{23, 10, 3, 10},
		{20, 10, 2, 10},
		{0, 10, 0, 10},
		{9, 10, 1, 10},
		{100, 0, 5, DefaultPageSize},
		{100, -1, 5, DefaultPageSize},
	}

	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta(nil, tt.total, 1, tt.pageSize)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, tt.expectedPages, resp.Meta.TotalPages)
		assert.Equal(t, tt.expectedSize, resp.Meta.PageSize)
	}
}

func TestListRequestNormalize(t *testing.T) {
	r := ListRequest{}
	r.Normalize()
	assert.Equal(t, 1, r.Page)
	assert.Equal(t, DefaultPageSize, r.PageSize)

	r = ListRequest{Page: 3, PageSize: 10}
	r.Normalize()
	assert.Equal(t, 3, r.Page)
	assert.Equal(t, 10, r.PageSize)
}

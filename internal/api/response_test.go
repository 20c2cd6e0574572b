package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnricoHuber/home-chatbot/internal/domain"
)

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()

	Success(rec, http.StatusCreated, map[string]string{"id": "utenze_abc"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "utenze_abc", data["id"])
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()

	Error(rec, http.StatusBadRequest, "content too short")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "content too short", resp.Error)
}

func TestDomainErrorToHTTP(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{nil, http.StatusOK},
		{domain.ErrContentTooShort, http.StatusBadRequest},
		{domain.ErrItemNotFound, http.StatusNotFound},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{domain.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{domain.ErrEmbeddingFailed, http.StatusBadGateway},
		{domain.ErrLLMProvider, http.StatusBadGateway},
		{domain.NewDomainError(domain.ErrCodeInternalError, "boom"), http.StatusInternalServerError},
		{errors.New("plain error"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", domain.ErrRateLimited), http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, DomainErrorToHTTP(tt.err), "err=%v", tt.err)
	}
}

func TestHandleError(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleError(rec, domain.ErrRateLimited)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

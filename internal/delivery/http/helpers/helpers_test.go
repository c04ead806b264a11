package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"volunteerhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid input", fmt.Errorf("%w: interval", domain.ErrInvalidInput), http.StatusBadRequest, ErrCodeBadRequest},
		{"invalid reference", fmt.Errorf("%w: x", domain.ErrInvalidReference), http.StatusBadRequest, ErrCodeInvalidReference},
		{"not found", domain.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
		{"other", errors.New("db down"), http.StatusInternalServerError, ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := ErrorStatus(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestWriteJSONError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSONError(rr, http.StatusNotFound, ErrCodeNotFound, "event not found")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var envelope APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	assert.Nil(t, envelope.Data)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, ErrCodeNotFound, envelope.Error.Code)
	assert.Equal(t, "event not found", envelope.Error.Message)
}

type titleRequest struct {
	Title string `json:"title"`
}

func (r titleRequest) Validate() []string {
	if r.Title == "" {
		return []string{"title is required"}
	}
	return nil
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantSubstr string
	}{
		{name: "valid", body: `{"title":"Cleanup"}`, wantOK: true},
		{name: "invalid json", body: `{bad`, wantSubstr: "invalid"},
		{name: "unknown field", body: `{"title":"x","id":"1"}`, wantSubstr: "unknown field"},
		{name: "validation error", body: `{}`, wantSubstr: "title is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			var dest titleRequest
			ok := DecodeAndValidate(rr, req, &dest)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, "Cleanup", dest.Title)
				return
			}
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var envelope APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			require.NotNil(t, envelope.Error)
			assert.Contains(t, envelope.Error.Message, tt.wantSubstr)
		})
	}
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"", DefaultPage, DefaultPageSize},
		{"page=3&page_size=10", 3, 10},
		{"page=0&page_size=-1", DefaultPage, DefaultPageSize},
		{"page=abc", DefaultPage, DefaultPageSize},
		{"page_size=1000", DefaultPage, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/events?"+tt.query, nil)
			p := ParsePagination(req)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPageSize, p.PageSize)
		})
	}
}

func TestNewPaginationMeta(t *testing.T) {
	assert.Equal(t, PaginationMeta{Page: 2, PageSize: 20, Total: 41, TotalPages: 3},
		NewPaginationMeta(domain.PaginationParams{Page: 2, PageSize: 20}, 41))
	assert.Equal(t, 0, NewPaginationMeta(domain.PaginationParams{Page: 1}, 5).TotalPages)
	assert.Equal(t, 0, NewPaginationMeta(domain.PaginationParams{Page: 1, PageSize: 20}, 0).TotalPages)
}

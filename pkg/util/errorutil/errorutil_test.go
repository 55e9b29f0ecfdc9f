package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "domain error passes through",
			err:        NewBadRequest("LOGIN_ALREADY_USED", "login already used"),
			wantCode:   "LOGIN_ALREADY_USED",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrapped domain error",
			err:        fmt.Errorf("register: %w", NewForbidden("nope")),
			wantCode:   CodeForbidden,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "fiber not found",
			err:        fiber.ErrNotFound,
			wantCode:   CodeNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "fiber method not allowed",
			err:        fiber.ErrMethodNotAllowed,
			wantCode:   "METHOD_NOT_ALLOWED",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "sql no rows",
			err:        sql.ErrNoRows,
			wantCode:   CodeNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantCode:   CodeInternal,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := ToDomainError(tt.err)
			require.NotNil(t, de)
			assert.Equal(t, tt.wantCode, de.Code)
			assert.Equal(t, tt.wantStatus, de.HTTPStatus)
		})
	}
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestInternalErrorHidesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	de := ToDomainError(NewInternalError(cause))

	assert.Equal(t, "internal server error", de.Message)
	assert.ErrorIs(t, de, cause)
}

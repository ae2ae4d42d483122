package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	customError "github.com/segyhp/deposit-engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"position not found", customError.WrapPositionNotFound(id), http.StatusNotFound},
		{"unauthorized", customError.WrapUnauthorized("user-1", id), http.StatusForbidden},
		{"invalid action", customError.WrapInvalidAction("ROLL"), http.StatusBadRequest},
		{"invalid argument", customError.WrapInvalidArgument("bad"), http.StatusBadRequest},
		{"invalid transition", customError.WrapInvalidStatusTransition("PROCESSED", "NOTIFIED"), http.StatusConflict},
		{"already active", customError.WrapAlertAlreadyActive(id), http.StatusConflict},
		{"calculation", customError.WrapCalculationFailure(id, errors.New("overflow")), http.StatusUnprocessableEntity},
		{"persistence", customError.WrapPersistenceFailure(errors.New("down")), http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("outer: %w", customError.WrapAlertNotFound(id)), http.StatusNotFound},
		{"plain", errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestWriteError_HidesServerErrorCause(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, customError.WrapPersistenceFailure(errors.New("password authentication failed")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, customError.ErrCodePersistenceFailure, body.Code)
}

func TestWriteError_ClientError(t *testing.T) {
	id := uuid.New()
	w := httptest.NewRecorder()
	WriteError(w, customError.WrapPositionNotFound(id))

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, customError.ErrCodePositionNotFound, body.Code)
	assert.Contains(t, body.Message, id.String())
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	called := false
	h := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/alerts", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, called)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-User-ID")
}

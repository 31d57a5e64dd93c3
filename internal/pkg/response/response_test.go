package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	xerrors "carp-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFromErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		errorText string
	}{
		{"field error", xerrors.InvalidField("distance_km", "must be finite"), http.StatusBadRequest, "invalid distance_km: must be finite"},
		{"not found", fmt.Errorf("get trip: %w", xerrors.ErrNotFound), http.StatusNotFound, "get trip: resource not found"},
		{"forbidden", xerrors.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"constraint", xerrors.ErrConstraintViolation, http.StatusConflict, "constraint violation"},
		{"admin action hides cause", fmt.Errorf("%w: insert admin_logs failed: connection reset", xerrors.ErrAdminActionFailed), http.StatusInternalServerError, "admin action failed"},
		{"unknown hides cause", errors.New("pq: relation does not exist"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			FromError(c, "request failed", tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.True(t, c.IsAborted())

			var body Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, "request failed", body.Message)
			assert.Equal(t, tt.errorText, body.Error)
		})
	}
}

func TestFromErrorFieldDetail(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FromError(c, "invalid vehicle", xerrors.InvalidField("fuel_type", "unknown fuel type \"steam\""))

	var body struct {
		Data FieldDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "fuel_type", body.Data.Field)
}

package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AdamBeresnev/bracketd/internal/bracket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	testCases := []struct {
		name         string
		err          error
		expected     int
		expectedBody string
	}{
		{
			name:         "Validation",
			err:          fmt.Errorf("%w: stage must not be negative", bracket.ErrValidation),
			expected:     http.StatusBadRequest,
			expectedBody: "validation failed: stage must not be negative",
		},
		{
			name:     "Not found",
			err:      fmt.Errorf("match: %w", bracket.ErrNotFound),
			expected: http.StatusNotFound,
		},
		{
			name:     "Conflict",
			err:      fmt.Errorf("%w: match already decided", bracket.ErrConflict),
			expected: http.StatusConflict,
		},
		{
			name:         "Storage detail is hidden",
			err:          fmt.Errorf("%w: disk I/O error", bracket.ErrStorage),
			expected:     http.StatusInternalServerError,
			expectedBody: "Internal Server Error",
		},
		{
			name:         "Unknown",
			err:          errors.New("boom"),
			expected:     http.StatusInternalServerError,
			expectedBody: "Internal Server Error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, "Failed", tc.err)

			assert.Equal(t, tc.expected, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body errorBody
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			if tc.expectedBody != "" {
				assert.Equal(t, tc.expectedBody, body.Error)
			} else {
				assert.Equal(t, tc.err.Error(), body.Error)
			}
		})
	}
}

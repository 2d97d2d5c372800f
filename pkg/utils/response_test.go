package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	tests := []struct {
		name         string
		code         int
		payload      interface{}
		expectedBody string
	}{
		{
			name:         "Object payload",
			code:         http.StatusCreated,
			payload:      map[string]int{"id": 7},
			expectedBody: "{\"id\":7}\n",
		},
		{
			name: "Nil payload",
			code: http.StatusOK,
		},
		{
			name:    "No content drops the body",
			code:    http.StatusNoContent,
			payload: Response{Message: "ignored"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RespondWithJSON(w, tt.code, tt.payload)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestRespondWithError(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithError(w, http.StatusConflict, "booking is being modified concurrently")

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "booking is being modified concurrently", resp.Message)
}

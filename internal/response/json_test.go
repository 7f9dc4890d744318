package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONOkResponseConvertsMapKeys(t *testing.T) {
	rr := httptest.NewRecorder()

	err := JSONOkResponse(rr, map[string]any{
		"AuthToken": "abc",
		"Nested":    map[string]any{"TokenExpiry": "soon"},
	}, "", nil)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "Request successful", body["message"])
	require.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	require.Equal(t, "abc", data["auth_token"])
	require.Equal(t, "soon", data["nested"].(map[string]any)["token_expiry"])
}

func TestJSONErrorResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	headers := http.Header{"Www-Authenticate": []string{"Bearer"}}

	err := JSONErrorResponse(rr, []string{"Amount is required"}, "Validation failed", http.StatusUnprocessableEntity, headers)
	require.NoError(t, err)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))

	var body Response[[]string]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Equal(t, []string{"Amount is required"}, body.Error)
}

func TestMetricsResponseWriter(t *testing.T) {
	rr := httptest.NewRecorder()
	mw := NewMetricsResponseWriter(rr)

	mw.WriteHeader(http.StatusTeapot)
	mw.WriteHeader(http.StatusOK)
	_, err := mw.Write([]byte("hello"))
	require.NoError(t, err)

	require.Equal(t, http.StatusTeapot, mw.StatusCode)
	require.Equal(t, 5, mw.BytesCount)
}

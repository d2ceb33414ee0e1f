package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runSummary struct {
	RunID   string    `json:"run_id"`
	Summary []float64 `json:"summary"`
}

func TestClientGetJSON(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, `[{"run_id":"a","summary":[0.5,0.6]}]`)

	c := NewClient("http://localhost:8080/", mock)
	var runs []runSummary
	require.NoError(t, c.GetJSON(context.Background(), "/api/runs", &runs))

	assert.Equal(t, []runSummary{{RunID: "a", Summary: []float64{0.5, 0.6}}}, runs)
	require.Equal(t, 1, mock.RequestCount())
	req := mock.GetRequest(0)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "http://localhost:8080/api/runs", req.URL.String())
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
}

func TestClientAPIError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		msg    string
	}{
		{"json error", http.StatusNotFound, `{"error":"run not found: x"}`, "run not found: x"},
		{"plain text", http.StatusForbidden, "forbidden\n", "forbidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockHTTPClient().AddResponse(tt.status, tt.body)
			err := NewClient("http://h", mock).Delete(context.Background(), "/api/runs/x")

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.msg, apiErr.Message)
			assert.Equal(t, http.MethodDelete, mock.GetRequest(0).Method)
		})
	}
}

func TestClientTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	mock := NewMockHTTPClient().AddErrorResponse(boom)

	var v map[string]any
	err := NewClient("http://h", mock).GetJSON(context.Background(), "/api/runs", &v)
	assert.True(t, errors.Is(err, boom))
}

func TestClientDecodeError(t *testing.T) {
	mock := NewMockHTTPClient().AddResponse(http.StatusOK, "not json")

	var v []runSummary
	err := NewClient("http://h", mock).GetJSON(context.Background(), "/api/runs", &v)
	assert.ErrorContains(t, err, "decode response")
}

func TestClientAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/runs/a" {
			NotFound(w, "no route")
			return
		}
		WriteJSONOK(w, runSummary{RunID: "a", Summary: []float64{1}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	var got runSummary
	require.NoError(t, c.GetJSON(context.Background(), "/api/runs/a", &got))
	assert.Equal(t, "a", got.RunID)

	err := c.GetJSON(context.Background(), "/api/other", &got)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestMockHTTPClientDefaults(t *testing.T) {
	mock := NewMockHTTPClient()
	req := httptest.NewRequest(http.MethodGet, "http://h/x", nil)

	resp, err := mock.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	mock.DefaultError = errors.New("down")
	_, err = mock.Do(req)
	assert.EqualError(t, err, "down")
	assert.Nil(t, mock.GetRequest(5))
}

package errors

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad slug").Build(), 2},
		{"not found", NotFoundError("no page").Build(), 3},
		{"auth", AuthError("bad token").Build(), 5},
		{"config", ConfigError("missing space id").Build(), 7},
		{"network", NetworkError("timeout").Build(), 8},
		{"target", TargetError("write failed").Build(), 11},
		{"unclassified", stderrors.New("plain"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := ConfigError("space id required").WithContext("field", "contentful.space_id").Build()

	quiet := NewCLIErrorAdapter(false, nil)
	assert.Equal(t, "Error: space id required", quiet.FormatError(err))
	assert.Equal(t, "Internal error occurred (use -v for details)", quiet.FormatError(InternalError("x").Build()))

	verbose := NewCLIErrorAdapter(true, nil)
	out := verbose.FormatError(err)
	assert.True(t, strings.HasPrefix(out, "Error [config]: space id required"))
	assert.Contains(t, out, "field: contentful.space_id")
}

func TestHTTPErrorAdapter(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	assert.Equal(t, http.StatusNotFound, adapter.StatusCodeFor(NotFoundError("missing").Build()))
	assert.Equal(t, http.StatusBadGateway, adapter.StatusCodeFor(NetworkError("down").Build()))
	assert.Equal(t, http.StatusInternalServerError, adapter.StatusCodeFor(stderrors.New("plain")))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/props?path=/nope", nil)
	adapter.WriteErrorResponse(rec, req, NotFoundError("page not found").WithContext("path", "/nope").Build())

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "page not found", body.Error)
	assert.Equal(t, "not_found", body.Code)
	assert.Equal(t, "/nope", body.Details["path"])
}

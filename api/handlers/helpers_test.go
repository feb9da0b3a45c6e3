package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type registrar interface {
	Register(mux *http.ServeMux)
}

// newMux mounts every handler on a fresh mux.
func newMux(handlers ...registrar) *http.ServeMux {
	mux := http.NewServeMux()
	for _, h := range handlers {
		h.Register(mux)
	}
	return mux
}

// serve runs one request through h and returns the recorder.
func serve(h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

// errorCode decodes an error envelope and returns its code.
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeBody[Response](t, w)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func strPtr(s string) *string { return &s }

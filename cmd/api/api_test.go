package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func newTestHandler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", handleRoot).Methods("GET")
	router.HandleFunc("/api/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}).Methods("POST")
	return corsMiddleware(router)
}

func TestRootLiveness(t *testing.T) {
	recorder := httptest.NewRecorder()
	newTestHandler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "Hello World!", recorder.Body.String())
}

func TestCorsHeadersOnEveryResponse(t *testing.T) {
	handler := newTestHandler()

	// Unmatched paths and mismatched methods must carry the headers too,
	// which is why CORS wraps the router instead of running as mux
	// middleware.
	for _, tc := range []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"matched route", http.MethodGet, "/", http.StatusOK},
		{"matched post", http.MethodPost, "/api/subscriptions", http.StatusConflict},
		{"unknown path", http.MethodGet, "/nope", http.StatusNotFound},
		{"method mismatch", http.MethodPost, "/", http.StatusMethodNotAllowed},
	} {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, httptest.NewRequest(tc.method, tc.path, nil))

			assert.Equal(t, tc.status, recorder.Code)
			assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "Origin, X-Requested-With, Content-Type, Accept", recorder.Header().Get("Access-Control-Allow-Headers"))
		})
	}
}

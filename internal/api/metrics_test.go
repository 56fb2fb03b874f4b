package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	var got string
	r.Get("/api/v1/doctors/{id}", func(w http.ResponseWriter, req *http.Request) {
		got = routePattern(req)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/doctors/abc123", nil))
	assert.Equal(t, "/api/v1/doctors/{id}", got)

	// Requests that never hit a chi route share one label so random
	// paths cannot explode the series count.
	assert.Equal(t, "unmatched", routePattern(httptest.NewRequest(http.MethodGet, "/nope", nil)))
}

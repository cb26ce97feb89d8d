package review

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/eventhub/eventhub-api/internal/middleware"
)

func newRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithPrincipal(r.Context(), 5, "CUSTOMER")))
		})
	})
	NewHandler(svc).Mount(r)
	return r
}

func TestCreateHandler(t *testing.T) {
	svc, _, _ := newTestService()
	router := newRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/1/review", bytes.NewBufferString(`{"rating":5,"comment":"ok"}`)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/1/review", bytes.NewBufferString(`{"rating":5}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate: expected 400, got %d", rr.Code)
	}
}

func TestCreateHandlerValidatesRating(t *testing.T) {
	svc, _, _ := newTestService()

	rr := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/1/review", bytes.NewBufferString(`{"rating":6}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

package transaction

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/eventhub/eventhub-api/internal/middleware"
)

// asUser authenticates the request as X-Test-User with role X-Test-Role.
func asUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.Header.Get("X-Test-User"), 10, 64)
		ctx := middleware.WithPrincipal(r.Context(), id, r.Header.Get("X-Test-Role"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func serve(t *testing.T, f *fixture, method, target, role string, userID int64, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("X-Test-Role", role)
	req.Header.Set("X-Test-User", strconv.FormatInt(userID, 10))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	rr := httptest.NewRecorder()
	NewHandler(f.service).Routes(asUser, nil).ServeHTTP(rr, req)
	return rr
}

func TestCreateHandler(t *testing.T) {
	f := newFixture(t)

	body := bytes.NewBufferString(`{"eventId":3,"ticketQuantity":2}`)
	rr := serve(t, f, http.MethodPost, "/", "CUSTOMER", buyerID, body, "application/json")

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Message string `json:"message"`
		Data    struct {
			Status     string `json:"status"`
			TotalPrice string `json:"totalPrice"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "Create transaction success" || resp.Data.Status != "PENDING" {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestCreateHandlerValidates(t *testing.T) {
	f := newFixture(t)

	body := bytes.NewBufferString(`{"eventId":3,"ticketQuantity":0}`)
	rr := serve(t, f, http.MethodPost, "/", "CUSTOMER", buyerID, body, "application/json")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "ticketQuantity") {
		t.Fatalf("expected field error, got %s", rr.Body.String())
	}
}

func TestCreateHandlerRequiresCustomer(t *testing.T) {
	f := newFixture(t)

	body := bytes.NewBufferString(`{"eventId":3,"ticketQuantity":1}`)
	rr := serve(t, f, http.MethodPost, "/", "ORGANIZER", organizerID, body, "application/json")

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestAcceptHandler(t *testing.T) {
	f := newFixture(t)
	f.seedPending()

	rr := serve(t, f, http.MethodPatch, "/1/accept", "ORGANIZER", organizerID, nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = serve(t, f, http.MethodPatch, "/1/accept", "ORGANIZER", organizerID, nil, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("second accept: expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), ErrNotPending.Message) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestRejectHandler(t *testing.T) {
	f := newFixture(t)
	f.seedPending()

	rr := serve(t, f, http.MethodPatch, "/1/reject", "CUSTOMER", buyerID, nil, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("customer: expected 403, got %d", rr.Code)
	}

	rr = serve(t, f, http.MethodPatch, "/1/reject", "ORGANIZER", 99, nil, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("other organizer: expected 404, got %d", rr.Code)
	}

	rr = serve(t, f, http.MethodPatch, "/1/reject", "ORGANIZER", organizerID, nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Reject transaction success") {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestUploadPaymentProofHandler(t *testing.T) {
	f := newFixture(t)
	f.seedPending()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "proof.jpg")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("fake image"))
	mw.Close()

	rr := serve(t, f, http.MethodPatch, "/1/payment-proof", "CUSTOMER", buyerID, &buf, mw.FormDataContentType())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(f.uploader.uploaded) != 1 {
		t.Fatalf("expected one upload, got %v", f.uploader.uploaded)
	}
}

func TestUploadPaymentProofHandlerRequiresImage(t *testing.T) {
	f := newFixture(t)
	f.seedPending()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("note", "no file")
	mw.Close()

	rr := serve(t, f, http.MethodPatch, "/1/payment-proof", "CUSTOMER", buyerID, &buf, mw.FormDataContentType())
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestListHandlers(t *testing.T) {
	f := newFixture(t)
	f.seedPending()

	rr := serve(t, f, http.MethodGet, "/me", "CUSTOMER", buyerID, nil, "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"id":1`) {
		t.Fatalf("me: %d %s", rr.Code, rr.Body.String())
	}

	rr = serve(t, f, http.MethodGet, "/", "ORGANIZER", organizerID, nil, "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"id":1`) {
		t.Fatalf("organizer: %d %s", rr.Code, rr.Body.String())
	}
}

func TestRoutesMountExtra(t *testing.T) {
	f := newFixture(t)
	called := false
	router := NewHandler(f.service).Routes(asUser, func(r chi.Router) {
		r.Post("/{id}/review", func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusCreated)
		})
	})

	req := httptest.NewRequest(http.MethodPost, "/1/review", nil)
	req.Header.Set("X-Test-Role", "CUSTOMER")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if !called || rr.Code != http.StatusCreated {
		t.Fatalf("extra route not mounted: %d", rr.Code)
	}
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eventhub/eventhub-api/internal/domain/user"
	"github.com/eventhub/eventhub-api/internal/middleware"
	"github.com/eventhub/eventhub-api/internal/pkg/password"
)

func TestLoginSetsCookie(t *testing.T) {
	password.Cost = 4
	hash, _ := password.Hash("secret123")
	f := newFixture(&user.User{ID: 1, Email: "budi@example.com", Password: hash, Role: user.RoleCustomer})
	router := NewHandler(f.svc, CookieConfig{}).Routes()

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"budi@example.com","password":"secret123"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.AccessTokenCookie {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly || cookie.Value == "" {
		t.Fatalf("expected httpOnly access token cookie, got %+v", cookie)
	}
	if !strings.Contains(rr.Body.String(), `"accessToken"`) {
		t.Fatalf("expected token in body: %s", rr.Body.String())
	}
}

func TestRegisterValidation(t *testing.T) {
	router := NewHandler(newFixture().svc, CookieConfig{}).Routes()

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"name":"A","email":"bad","password":"x","role":"ADMIN"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	for _, field := range []string{"email", "password", "role"} {
		if !strings.Contains(rr.Body.String(), field) {
			t.Errorf("expected error for %s in %s", field, rr.Body.String())
		}
	}
}

func TestResetPasswordRequiresToken(t *testing.T) {
	router := NewHandler(newFixture().svc, CookieConfig{}).Routes()

	req := httptest.NewRequest(http.MethodPatch, "/reset-password", strings.NewReader(`{"password":"newpass123"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	router := NewHandler(newFixture().svc, CookieConfig{}).Routes()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/logout", nil))

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got %+v", cookies)
	}
}

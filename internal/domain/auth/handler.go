package auth

import (
	"encoding/json"
	"net/http"

	"github.com/eventhub/eventhub-api/internal/middleware"
	"github.com/eventhub/eventhub-api/internal/pkg/errorhandler"
	"github.com/eventhub/eventhub-api/internal/pkg/response"
	"github.com/eventhub/eventhub-api/internal/pkg/validator"
)

// CookieConfig controls the accessToken cookie set on sign-in.
type CookieConfig struct {
	Secure bool
}

// Handler handles auth HTTP requests
type Handler struct {
	service *Service
	cookie  CookieConfig
}

// NewHandler creates auth handler
func NewHandler(service *Service, cookie CookieConfig) *Handler {
	return &Handler{service: service, cookie: cookie}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return false
	}
	if err := validator.Struct(v); err != nil {
		errorhandler.HandleError(w, r, err)
		return false
	}
	return true
}

func (h *Handler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.service.jwt.GetAccessTTL().Seconds()),
	})
}

// Register handles POST /auth/register
// @Summary Register a customer or organizer
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	u, err := h.service.Register(r.Context(), &req)
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}

	response.Created(w, "Register success", u.ToResponse())
}

// Login handles POST /auth/login
// @Summary Sign in with email and password
// @Tags Auth
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), &req)
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}

	h.setTokenCookie(w, result.AccessToken)
	response.Message(w, "Login success", result)
}

// Google handles POST /auth/google
func (h *Handler) Google(w http.ResponseWriter, r *http.Request) {
	var req GoogleRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.service.Google(r.Context(), &req)
	if err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}

	h.setTokenCookie(w, result.AccessToken)
	response.Message(w, "Login with google success", result)
}

// Logout handles POST /auth/logout by clearing the cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	response.Message(w, "Logout success", nil)
}

// ForgotPassword handles POST /auth/forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.Message(w, "If the email is registered, a reset link has been sent", nil)
}

// ResetPassword handles PATCH /auth/reset-password. The reset token is
// sent as a Bearer token.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		response.Unauthorized(w, "No token provided")
		return
	}

	var req ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), token, req.Password); err != nil {
		errorhandler.HandleError(w, r, err)
		return
	}
	response.Message(w, "Reset password success", nil)
}

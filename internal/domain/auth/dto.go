package auth

import "github.com/eventhub/eventhub-api/internal/domain/user"

// RegisterRequest for POST /auth/register
type RegisterRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=255"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	Role         string `json:"role" validate:"required,role"`
	ReferrerCode string `json:"referrerCode" validate:"omitempty,max=20"`
}

// LoginRequest for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleRequest for POST /auth/google
type GoogleRequest struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

// ForgotPasswordRequest for POST /auth/forgot-password
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest for PATCH /auth/reset-password
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// AuthResult is returned by login and Google sign-in.
type AuthResult struct {
	User        *user.Response `json:"user"`
	AccessToken string         `json:"accessToken"`
}

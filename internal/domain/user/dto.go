package user

import "time"

// Response is the public shape of a user. The password hash never leaves
// the service.
type Response struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	Provider       Provider  `json:"provider"`
	ReferralCode   string    `json:"referralCode"`
	ProfilePicture *string   `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ToResponse converts entity to response
func (u *User) ToResponse() *Response {
	resp := &Response{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Provider:     u.Provider,
		ReferralCode: u.ReferralCode,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.ProfilePicture.Valid {
		resp.ProfilePicture = &u.ProfilePicture.String
	}
	return resp
}

// UpdateProfileRequest for PATCH /users/profile
type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// ChangePasswordRequest for PATCH /users/change-password
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

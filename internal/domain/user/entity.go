package user

import (
	"database/sql"
	"time"
)

// Role represents user role
type Role string

const (
	RoleCustomer  Role = "CUSTOMER"
	RoleOrganizer Role = "ORGANIZER"
	RoleAdmin     Role = "ADMIN"
)

// Provider is how the account authenticates.
type Provider string

const (
	ProviderCredential Provider = "CREDENTIAL"
	ProviderGoogle     Provider = "GOOGLE"
)

// User represents user entity
type User struct {
	ID             int64          `db:"id"`
	Name           string         `db:"name"`
	Email          string         `db:"email"`
	Password       string         `db:"password"`
	Role           Role           `db:"role"`
	Provider       Provider       `db:"provider"`
	ReferralCode   string         `db:"referral_code"`
	ReferredBy     sql.NullInt64  `db:"referred_by"`
	ProfilePicture sql.NullString `db:"profile_picture"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
	DeletedAt      sql.NullTime   `db:"deleted_at"`
}

// IsDeleted reports whether the account was soft deleted.
func (u *User) IsDeleted() bool {
	return u.DeletedAt.Valid
}

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/eventhub/eventhub-api/internal/pkg/database"
)

const userColumns = `id, name, email, password, role, provider, referral_code, referred_by,
	profile_picture, created_at, updated_at, deleted_at`

// ListFilter narrows the admin user list.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// Repository defines user data access interface
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByEmailIncludingDeleted also returns soft-deleted accounts, so
	// registration can tell "taken" from "previously deleted".
	GetByEmailIncludingDeleted(ctx context.Context, email string) (*User, error)
	GetByReferralCode(ctx context.Context, code string) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]*User, int, error)
	UpdateProfile(ctx context.Context, id int64, name, email string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateProfilePicture(ctx context.Context, id int64, url string) error
	SoftDelete(ctx context.Context, id int64) error
}

// repository implements Repository
type repository struct {
	db *sqlx.DB
}

// NewRepository creates new user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Create creates a new user
func (r *repository) Create(ctx context.Context, user *User) error {
	return CreateTx(ctx, r.db, user)
}

// CreateTx inserts user using q, which may be a transaction, and fills in
// the generated id and timestamps.
func CreateTx(ctx context.Context, q sqlx.QueryerContext, user *User) error {
	query := `
		INSERT INTO users (name, email, password, role, provider, referral_code, referred_by, profile_picture)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRowxContext(ctx, query,
		user.Name,
		user.Email,
		user.Password,
		user.Role,
		user.Provider,
		user.ReferralCode,
		user.ReferredBy,
		user.ProfilePicture,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("user repository create: %w", err)
	}
	return nil
}

func (r *repository) getOne(ctx context.Context, where string, arg interface{}) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	var user User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("user repository get: %w", err)
	}
	return &user, nil
}

// GetByID returns user by ID
func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, "id = $1 AND "+database.NotDeleted(""), id)
}

// GetByEmail returns user by email
func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "email = $1 AND "+database.NotDeleted(""), email)
}

func (r *repository) GetByEmailIncludingDeleted(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "email = $1", email)
}

func (r *repository) GetByReferralCode(ctx context.Context, code string) (*User, error) {
	return r.getOne(ctx, "referral_code = $1 AND "+database.NotDeleted(""), code)
}

// List returns a page of users and the total count
func (r *repository) List(ctx context.Context, filter ListFilter) ([]*User, int, error) {
	where := []string{database.NotDeleted("")}
	args := []interface{}{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users WHERE `+whereSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("user repository count: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, whereSQL, len(args)-1, len(args))

	var users []*User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("user repository list: %w", err)
	}
	return users, total, nil
}

func (r *repository) exec(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("user repository %s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) UpdateProfile(ctx context.Context, id int64, name, email string) error {
	return r.exec(ctx, "update profile",
		`UPDATE users SET name = $2, email = $3, updated_at = NOW() WHERE id = $1 AND `+database.NotDeleted(""),
		id, name, email)
}

// UpdatePassword updates user password
func (r *repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.exec(ctx, "update password",
		`UPDATE users SET password = $2, updated_at = NOW() WHERE id = $1 AND `+database.NotDeleted(""),
		id, passwordHash)
}

func (r *repository) UpdateProfilePicture(ctx context.Context, id int64, url string) error {
	return r.exec(ctx, "update picture",
		`UPDATE users SET profile_picture = $2, updated_at = NOW() WHERE id = $1 AND `+database.NotDeleted(""),
		id, url)
}

// SoftDelete marks the user deleted; the email stays reserved.
func (r *repository) SoftDelete(ctx context.Context, id int64) error {
	return r.exec(ctx, "delete",
		`UPDATE users SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND `+database.NotDeleted(""),
		id)
}

package user

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/eventhub/eventhub-api/internal/pkg/database"
	"github.com/eventhub/eventhub-api/internal/pkg/password"
	"github.com/eventhub/eventhub-api/internal/pkg/storage"
)

// Uploader stores images and returns their URL.
type Uploader interface {
	Upload(ctx context.Context, reader io.Reader, folder string) (string, error)
	RemoveByURL(ctx context.Context, url string) error
}

// Service handles user business logic
type Service struct {
	repo     Repository
	uploader Uploader
}

// NewService creates user service
func NewService(repo Repository, uploader Uploader) *Service {
	return &Service{repo: repo, uploader: uploader}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// List returns users for the admin listing
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*User, int, error) {
	return s.repo.List(ctx, filter)
}

// GetByID returns an active user or ErrUserNotFound
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateProfile applies a partial profile update
func (s *Service) UpdateProfile(ctx context.Context, id int64, req *UpdateProfileRequest) (*User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, email := u.Name, u.Email
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email = NormalizeEmail(*req.Email)
		if email != u.Email {
			existing, err := s.repo.GetByEmailIncludingDeleted(ctx, email)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, ErrEmailTaken
			}
		}
	}

	if err := s.repo.UpdateProfile(ctx, id, name, email); err != nil {
		if database.IsUniqueViolation(err, "users_email_key") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// ChangePassword verifies the old password before replacing it
func (s *Service) ChangePassword(ctx context.Context, id int64, req *ChangePasswordRequest) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Provider == ProviderGoogle && u.Password == "" {
		return ErrGoogleAccount
	}
	if !password.Verify(req.OldPassword, u.Password) {
		return ErrWrongPassword
	}

	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}

// UpdateProfilePicture uploads a new avatar and removes the old one
func (s *Service) UpdateProfilePicture(ctx context.Context, id int64, image io.Reader) (*User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	old := u.ProfilePicture

	url, err := s.uploader.Upload(ctx, image, storage.FolderAvatars)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProfilePicture(ctx, id, url); err != nil {
		if rmErr := s.uploader.RemoveByURL(ctx, url); rmErr != nil {
			log.Warn().Err(rmErr).Str("url", url).Msg("Failed to remove orphaned avatar")
		}
		return nil, fmt.Errorf("save profile picture: %w", err)
	}

	if old.Valid && old.String != url {
		if err := s.uploader.RemoveByURL(ctx, old.String); err != nil {
			log.Warn().Err(err).Int64("user_id", id).Msg("Failed to remove previous avatar")
		}
	}

	return s.GetByID(ctx, id)
}

// Delete soft-deletes a user. Users may delete themselves; admins anyone.
func (s *Service) Delete(ctx context.Context, actorID int64, actorRole Role, id int64) error {
	if actorID != id && actorRole != RoleAdmin {
		return ErrForbiddenDelete
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

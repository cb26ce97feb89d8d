package user

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"

	"github.com/eventhub/eventhub-api/internal/pkg/password"
)

type fakeRepo struct {
	users   map[int64]*User
	deleted []int64
}

func newFakeRepo(users ...*User) *fakeRepo {
	f := &fakeRepo{users: map[int64]*User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeRepo) Create(ctx context.Context, u *User) error {
	u.ID = int64(len(f.users) + 1)
	f.users[u.ID] = u
	return nil
}
func (f *fakeRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	if u, ok := f.users[id]; ok && !u.IsDeleted() {
		c := *u
		return &c, nil
	}
	return nil, nil
}
func (f *fakeRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email && !u.IsDeleted() {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}
func (f *fakeRepo) GetByEmailIncludingDeleted(ctx context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// sharedRepo hands out the stored pointer so in-place updates are visible
// to earlier readers.
type sharedRepo struct {
	*fakeRepo
}

func (f sharedRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	if u, ok := f.users[id]; ok && !u.IsDeleted() {
		return u, nil
	}
	return nil, nil
}
func (f *fakeRepo) GetByReferralCode(ctx context.Context, code string) (*User, error) {
	return nil, nil
}
func (f *fakeRepo) List(ctx context.Context, filter ListFilter) ([]*User, int, error) {
	var out []*User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, len(out), nil
}
func (f *fakeRepo) UpdateProfile(ctx context.Context, id int64, name, email string) error {
	f.users[id].Name, f.users[id].Email = name, email
	return nil
}
func (f *fakeRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	f.users[id].Password = hash
	return nil
}
func (f *fakeRepo) UpdateProfilePicture(ctx context.Context, id int64, url string) error {
	f.users[id].ProfilePicture = sql.NullString{String: url, Valid: true}
	return nil
}
func (f *fakeRepo) SoftDelete(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	f.users[id].DeletedAt = sql.NullTime{Valid: true}
	return nil
}

type fakeUploader struct {
	url     string
	removed []string
}

func (f *fakeUploader) Upload(ctx context.Context, r io.Reader, folder string) (string, error) {
	return f.url, nil
}
func (f *fakeUploader) RemoveByURL(ctx context.Context, url string) error {
	f.removed = append(f.removed, url)
	return nil
}

func TestUpdateProfileRejectsTakenEmail(t *testing.T) {
	repo := newFakeRepo(
		&User{ID: 1, Name: "Budi", Email: "budi@example.com"},
		&User{ID: 2, Name: "Sari", Email: "sari@example.com", DeletedAt: sql.NullTime{Valid: true}},
	)
	svc := NewService(repo, nil)

	email := " SARI@example.com "
	_, err := svc.UpdateProfile(context.Background(), 1, &UpdateProfileRequest{Email: &email})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUpdateProfileNormalizesEmail(t *testing.T) {
	repo := newFakeRepo(&User{ID: 1, Name: "Budi", Email: "budi@example.com"})
	svc := NewService(repo, nil)

	email := " New@Example.com"
	u, err := svc.UpdateProfile(context.Background(), 1, &UpdateProfileRequest{Email: &email})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Email != "new@example.com" || u.Name != "Budi" {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestChangePassword(t *testing.T) {
	password.Cost = 4
	hash, _ := password.Hash("old-password")
	repo := newFakeRepo(&User{ID: 1, Password: hash, Provider: ProviderCredential})
	svc := NewService(repo, nil)

	err := svc.ChangePassword(context.Background(), 1, &ChangePasswordRequest{OldPassword: "wrong", NewPassword: "new-password"})
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}

	if err := svc.ChangePassword(context.Background(), 1, &ChangePasswordRequest{OldPassword: "old-password", NewPassword: "new-password"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !password.Verify("new-password", repo.users[1].Password) {
		t.Fatal("expected new password to be stored")
	}
}

func TestUpdateProfilePictureRemovesOldOne(t *testing.T) {
	repo := newFakeRepo(&User{ID: 1, ProfilePicture: sql.NullString{String: "http://cdn/old.jpg", Valid: true}})
	up := &fakeUploader{url: "http://cdn/new.jpg"}
	svc := NewService(repo, up)

	u, err := svc.UpdateProfilePicture(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ProfilePicture.String != "http://cdn/new.jpg" {
		t.Fatalf("expected new picture, got %s", u.ProfilePicture.String)
	}
	if len(up.removed) != 1 || up.removed[0] != "http://cdn/old.jpg" {
		t.Fatalf("expected old picture removal, got %v", up.removed)
	}
}

func TestUpdateProfilePictureKeepsOldURLWhenUserIsShared(t *testing.T) {
	repo := sharedRepo{newFakeRepo(&User{ID: 1, ProfilePicture: sql.NullString{String: "http://cdn/old.jpg", Valid: true}})}
	up := &fakeUploader{url: "http://cdn/new.jpg"}
	svc := NewService(repo, up)

	if _, err := svc.UpdateProfilePicture(context.Background(), 1, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(up.removed) != 1 || up.removed[0] != "http://cdn/old.jpg" {
		t.Fatalf("expected old picture removal, got %v", up.removed)
	}
	if repo.users[1].ProfilePicture.String != "http://cdn/new.jpg" {
		t.Fatalf("expected new picture stored, got %s", repo.users[1].ProfilePicture.String)
	}
}

func TestDeletePermissions(t *testing.T) {
	repo := newFakeRepo(&User{ID: 1}, &User{ID: 2})
	svc := NewService(repo, nil)

	if err := svc.Delete(context.Background(), 1, RoleCustomer, 2); !errors.Is(err, ErrForbiddenDelete) {
		t.Fatalf("expected ErrForbiddenDelete, got %v", err)
	}
	if err := svc.Delete(context.Background(), 9, RoleAdmin, 2); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if err := svc.Delete(context.Background(), 9, RoleAdmin, 2); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
}

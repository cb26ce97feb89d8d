package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/eventhub/eventhub-api/internal/pkg/apperror"
	"github.com/eventhub/eventhub-api/internal/pkg/imaging"
)

// Folders used for uploaded images.
const (
	FolderPaymentProofs = "payment-proofs"
	FolderAvatars       = "avatars"
	FolderThumbnails    = "event-thumbnails"
)

var profiles = map[string]imaging.Profile{
	FolderPaymentProofs: imaging.PaymentProof,
	FolderAvatars:       imaging.Avatar,
	FolderThumbnails:    imaging.EventBanner,
}

// Uploader turns an uploaded image into a durable URL.
type Uploader struct {
	store     Storage
	processor *imaging.Processor
	maxSize   int64
	now       func() time.Time
}

func NewUploader(store Storage, processor *imaging.Processor) *Uploader {
	return &Uploader{store: store, processor: processor, maxSize: MaxImageSize, now: time.Now}
}

// Upload validates, normalises and stores an image under folder.
func (u *Uploader) Upload(ctx context.Context, reader io.Reader, folder string) (string, error) {
	data, mimeType, err := ReadImage(reader, u.maxSize)
	if err != nil {
		switch {
		case errors.Is(err, ErrFileTooLarge):
			return "", apperror.Validation("Image must be at most 2MB")
		case errors.Is(err, ErrInvalidMimeType), errors.Is(err, ErrEmptyFile):
			return "", apperror.Validation("Only JPEG, PNG or GIF images are allowed")
		}
		return "", err
	}

	if profile, ok := profiles[folder]; ok && u.processor != nil && mimeType != "image/gif" {
		processed, err := u.processor.Process(data, profile)
		if err != nil {
			return "", apperror.Wrap(apperror.Validation("Invalid image"), err)
		}
		data, mimeType = processed.Data, processed.ContentType
	}

	key := path.Join(folder, u.now().UTC().Format("2006/01"), uuid.New().String()+GetExtensionForMime(mimeType))
	if err := u.store.Put(ctx, key, bytes.NewReader(data), mimeType); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}

	return u.store.GetURL(key), nil
}

// RemoveByURL deletes a previously uploaded file. Foreign URLs are ignored.
func (u *Uploader) RemoveByURL(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	key, err := u.store.KeyFromURL(url)
	if errors.Is(err, ErrNotOwned) {
		log.Debug().Str("url", url).Msg("Skipping removal of foreign file")
		return nil
	}
	if err != nil {
		return err
	}
	return u.store.Delete(ctx, key)
}

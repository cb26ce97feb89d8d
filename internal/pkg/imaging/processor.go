package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
)

// Profile describes how an uploaded image is normalised before storage.
type Profile struct {
	Name      string
	MaxWidth  int
	MaxHeight int
	// Square crops to a MaxWidth x MaxWidth centre square instead of fitting.
	Square bool
}

var (
	// PaymentProof keeps receipts legible while capping their size.
	PaymentProof = Profile{Name: "payment-proof", MaxWidth: 1600, MaxHeight: 1600}
	Avatar       = Profile{Name: "avatar", MaxWidth: 400, MaxHeight: 400, Square: true}
	EventBanner  = Profile{Name: "event-banner", MaxWidth: 1200, MaxHeight: 630}
)

// ProcessedImage is the encoded result of Process.
type ProcessedImage struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Config for image processing
type Config struct {
	Quality int // JPEG quality 1-100
}

// DefaultConfig returns default processing config
func DefaultConfig() Config {
	return Config{Quality: 85}
}

// Processor handles image processing
type Processor struct {
	config Config
}

// NewProcessor creates image processor
func NewProcessor(config Config) *Processor {
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = DefaultConfig().Quality
	}
	return &Processor{config: config}
}

// Process decodes data, applies the profile and re-encodes it. PNG stays
// PNG to keep transparency; everything else becomes JPEG.
func (p *Processor) Process(data []byte, profile Profile) (*ProcessedImage, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	_, format, _ := image.DecodeConfig(bytes.NewReader(data))

	var out image.Image = img
	bounds := img.Bounds()
	switch {
	case profile.Square:
		out = imaging.Fill(img, profile.MaxWidth, profile.MaxWidth, imaging.Center, imaging.Lanczos)
	case bounds.Dx() > profile.MaxWidth || bounds.Dy() > profile.MaxHeight:
		out = imaging.Fit(img, profile.MaxWidth, profile.MaxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	contentType := "image/jpeg"
	if format == "png" {
		contentType = "image/png"
		err = png.Encode(&buf, out)
	} else {
		err = jpeg.Encode(&buf, out, &jpeg.Options{Quality: p.config.Quality})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s image: %w", profile.Name, err)
	}

	return &ProcessedImage{
		Data:        buf.Bytes(),
		ContentType: contentType,
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
	}, nil
}

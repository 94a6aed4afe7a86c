package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/disintegration/imaging"
)

// ImageProcessor handles image processing like resizing.
type ImageProcessor struct {
	quality int
}

// NewImageProcessor creates a new ImageProcessor.
func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{quality: 85}
}

// Fit scales the image down to fit inside maxWidth x maxHeight, keeping the aspect ratio,
// and returns it as a JPEG. Smaller images are re-encoded without scaling.
func (p *ImageProcessor) Fit(content io.Reader, maxWidth, maxHeight int) (io.Reader, error) {
	img, err := imaging.Decode(content, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > maxWidth || b.Dy() > maxHeight {
		img = imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	}
	return p.encode(img)
}

// GenerateThumbnail creates a square thumbnail cropped from the center of the source image.
func (p *ImageProcessor) GenerateThumbnail(content io.Reader, width, height int) (io.Reader, error) {
	img, err := imaging.Decode(content, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	thumbnail := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
	return p.encode(thumbnail)
}

func (p *ImageProcessor) encode(img image.Image) (io.Reader, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf, nil
}

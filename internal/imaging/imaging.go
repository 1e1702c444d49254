// Package imaging normalizes uploaded sneaker photos.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// MaxDimension is the maximum width or height of a stored photo.
const MaxDimension = 1600

// ThumbnailSize is the edge length of square gallery thumbnails.
const ThumbnailSize = 320

// JPEGQuality is the compression quality of re-encoded photos.
const JPEGQuality = 85

// OutputMIME is the MIME type of every normalized photo.
const OutputMIME = "image/jpeg"

// accepted lists the input types sniffed from upload bytes.
var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is a normalized, JPEG encoded image.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Normalize decodes an uploaded photo, shrinks it so neither edge exceeds
// maxDim, and re-encodes it as JPEG. The format is sniffed from the bytes;
// the client's Content-Type is not trusted.
func Normalize(r io.Reader, maxDim int) (*Photo, error) {
	img, err := decode(r)
	if err != nil {
		return nil, err
	}
	return encode(fit(img, maxDim))
}

// Thumbnail crops the centre square of a photo and scales it to size×size.
func Thumbnail(r io.Reader, size int) (*Photo, error) {
	img, err := decode(r)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	edge := min(b.Dx(), b.Dy())
	crop := image.Rect(0, 0, edge, edge).Add(image.Pt(
		b.Min.X+(b.Dx()-edge)/2,
		b.Min.Y+(b.Dy()-edge)/2,
	))

	out := min(size, edge)
	dst := image.NewRGBA(image.Rect(0, 0, out, out))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)
	return encode(dst)
}

func decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	detected := http.DetectContentType(data)
	if !accepted[detected] {
		return nil, fmt.Errorf("unsupported image format: %s (only JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

func encode(img image.Image) (*Photo, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	b := img.Bounds()
	return &Photo{
		Data:   buf.Bytes(),
		MIME:   OutputMIME,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// fit scales img down, keeping its aspect ratio, so that both edges are at
// most maxDim. Smaller images are returned unchanged.
func fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(max(w, h))
	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

package ocr

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"
)

// PrepareImage normalizes an image before analysis. HEIC photos are
// re-encoded as JPEG since neither backend accepts them. With enhance set
// the image is also converted to high-contrast grayscale, which helps with
// faded thermal paper. Other images pass through untouched.
func PrepareImage(data []byte, mimeType string, enhance bool) ([]byte, string, error) {
	const op = "PrepareImage"

	if len(data) == 0 {
		return nil, "", WrapOCRError(op, ErrInvalidImage, "empty image")
	}

	heicInput := isHEICFormat(data) || isHEICMimeType(mimeType)
	if !heicInput && !enhance {
		return data, normalizeMimeType(mimeType, data), nil
	}

	var img image.Image
	var err error
	if heicInput {
		img, err = heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "", WrapOCRError(op, ErrInvalidImage, fmt.Sprintf("decoding HEIC/HEIF image: %v", err))
		}
	} else {
		img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, "", WrapOCRError(op, ErrInvalidImage, fmt.Sprintf("decoding image: %v", err))
		}
	}

	if enhance {
		img = enhanceForOCR(img)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(92)); err != nil {
		return nil, "", WrapOCRError(op, ErrInvalidImage, fmt.Sprintf("encoding JPEG: %v", err))
	}
	return buf.Bytes(), "image/jpeg", nil
}

func enhanceForOCR(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 30)
	out = imaging.Sharpen(out, 1.0)
	return out
}

// isHEICFormat checks for an ftyp box with a HEIC-family brand.
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// normalizeMimeType lowercases the declared type, sniffing common
// signatures when it is missing.
func normalizeMimeType(mimeType string, data []byte) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if strings.HasPrefix(mimeType, "image/") {
		return mimeType
	}
	switch {
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return "image/png"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "image/gif"
	case bytes.HasPrefix(data, []byte("%PDF")):
		return "application/pdf"
	default:
		return "image/jpeg"
	}
}

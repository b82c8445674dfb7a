package scanning

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"mime"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

var (
	// ErrNotImage is returned when the upload does not declare an image content type
	ErrNotImage = errors.New("file must be an image")

	// ErrUndecodable is returned when the bytes cannot be decoded as a raster image
	ErrUndecodable = errors.New("could not decode image")
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// rasterContentTypes maps decoded format names to the content type a stored
// upload is served under
var rasterContentTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"webp": "image/webp",
	"heic": "image/heic",
	"jp2":  "image/jp2",
	"pnm":  "image/x-portable-anymap",
	"psd":  "image/vnd.adobe.photoshop",
}

// fitzRasterFormat picks the raster formats MuPDF may decode by magic bytes.
// Documents such as PDF, SVG, XPS and EPUB never reach MuPDF
func fitzRasterFormat(data []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(data, []byte("\x00\x00\x00\x0cjP  \r\n\x87\n")),
		bytes.HasPrefix(data, []byte("\xff\x4f\xff\x51")):
		return "jp2", true
	case bytes.HasPrefix(data, []byte("8BPS")):
		return "psd", true
	case len(data) >= 3 && data[0] == 'P' && data[1] >= '1' && data[1] <= '7' &&
		(data[2] == ' ' || data[2] == '\n' || data[2] == '\r' || data[2] == '\t'):
		return "pnm", true
	}
	return "", false
}

// DetectImageType returns the content type of the raster format in data, or
// "" when data is not a supported image
func DetectImageType(data []byte) string {
	if isHEICFormat(data) {
		return rasterContentTypes["heic"]
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return rasterContentTypes[format]
	}
	if format, ok := fitzRasterFormat(data); ok {
		return rasterContentTypes[format]
	}
	return ""
}

// IsRasterContentType reports whether contentType is one this service decodes
// and may safely serve back
func IsRasterContentType(contentType string) bool {
	contentType = NormalizeContentType(contentType)
	for _, known := range rasterContentTypes {
		if contentType == known {
			return true
		}
	}
	return false
}

// NormalizeContentType lowercases a content type and strips its parameters
func NormalizeContentType(contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	return contentType
}

// IsImageContentType reports whether contentType is an image/* type
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(NormalizeContentType(contentType), "image/")
}

// decodeImage decodes any supported raster format. Raster formats the
// registered Go decoders do not know are handed to MuPDF.
func decodeImage(imageData []byte, mimeType string) (image.Image, error) {
	// Check for HEIC/HEIF format (common on iPhones) - Go's standard image package doesn't support it
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err := heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err == nil {
		return img, nil
	}
	if !errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	if _, ok := fitzRasterFormat(imageData); !ok {
		return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, BMP, TIFF, WebP, HEIC, HEIF, JPEG 2000, PNM, PSD: %w", err)
	}
	img, fitzErr := decodeWithFitz(imageData)
	if fitzErr != nil {
		return nil, fmt.Errorf("decoding with mupdf: %w", fitzErr)
	}
	return img, nil
}

// decodeWithFitz renders a raster image through MuPDF
func decodeWithFitz(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening with mupdf: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering with mupdf: %w", err)
	}
	return img, nil
}

// isHEICFormat checks if the image data is in HEIC/HEIF format
// HEIC files typically start with specific magic bytes
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	// ftyp box at offset 4 with brand 'heic', 'heif', 'mif1' or 'msf1'
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// PrepareImage validates an uploaded image and returns it as PNG.
// It returns ErrNotImage when contentType is not image/*, and wraps
// ErrUndecodable when the bytes cannot be decoded. PNG bytes are returned
// as-is whatever the declared type; converted reports whether re-encoding
// happened.
func PrepareImage(imageData []byte, contentType string) (pngData []byte, converted bool, err error) {
	mimeType := NormalizeContentType(contentType)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, false, ErrNotImage
	}
	if len(imageData) == 0 {
		return nil, false, fmt.Errorf("%w: empty file", ErrUndecodable)
	}

	img, err := decodeImage(imageData, mimeType)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	if bytes.HasPrefix(imageData, pngSignature) {
		return imageData, false, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, false, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), true, nil
}

package extraction

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/zombor/invoice-tracker/internal/document"
)

// rasterize turns a PDF or image into PNG bytes for vision models that only
// accept pictures. PDFs contribute their first page.
func rasterize(doc document.File) ([]byte, error) {
	mimeType := strings.ToLower(strings.TrimSpace(doc.MIMEType))

	switch {
	case mimeType == "application/pdf":
		img, err := firstPDFPage(doc.Data)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to image: %w", err)
		}
		return encodePNG(img)
	case mimeType == "image/png" && !hasHEICBrand(doc.Data):
		return doc.Data, nil
	case hasHEICBrand(doc.Data) || strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif"):
		img, err := heic.Decode(bytes.NewReader(doc.Data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return encodePNG(img)
	case strings.HasPrefix(mimeType, "image/"):
		img, _, err := image.Decode(bytes.NewReader(doc.Data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s image: %w", mimeType, err)
		}
		return encodePNG(img)
	default:
		return nil, fmt.Errorf("unsupported document type %q for image extraction", doc.MIMEType)
	}
}

func firstPDFPage(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// hasHEICBrand checks the ftyp box for the brands phones write into HEIC files
func hasHEICBrand(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

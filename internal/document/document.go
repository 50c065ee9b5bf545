package document

import (
	"path/filepath"
	"strings"
)

// File is an uploaded document together with its declared media type
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// DetectMIMEType returns the declared content type, falling back to the
// file extension when the uploader did not send one
func DetectMIMEType(filename, contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	default:
		return "application/octet-stream"
	}
}

// IsSpreadsheet reports whether the file needs converting to CSV before extraction
func IsSpreadsheet(f File) bool {
	mimeType := strings.ToLower(f.MIMEType)
	if strings.Contains(mimeType, "excel") || strings.Contains(mimeType, "spreadsheetml") {
		return true
	}
	name := strings.ToLower(f.Name)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xls")
}

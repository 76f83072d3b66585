// Package filestore keeps uploaded MOU documents in S3-compatible object storage.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrObjectNotFound = errors.New("object not found")

// FileStore is the object storage collaborator. Upload returns the object
// key, which is what institutions reference as their MOU document path.
type FileStore interface {
	Upload(ctx context.Context, key string, data io.ReadSeeker, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// GenerateKey builds a collision-free object key under prefix that keeps a
// sanitized form of the original filename
func GenerateKey(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.Trim(unsafeKeyChars.ReplaceAllString(base, "_"), "_")
	if base == "" {
		base = "document"
	}
	return fmt.Sprintf("%s/%s_%s%s", strings.Trim(prefix, "/"), uuid.New().String()[:8], base, ext)
}

// MOUKey is the object key of an institution's MOU upload
func MOUKey(institutionID uint, filename string) string {
	return GenerateKey(fmt.Sprintf("mou/%d", institutionID), filename)
}

// GetContentType returns the content type stored with an upload. Only MOU
// PDFs are uploaded; anything else is stored as an opaque octet stream.
func GetContentType(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return "application/pdf"
	}
	return "application/octet-stream"
}

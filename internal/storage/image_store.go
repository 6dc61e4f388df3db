package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

// PublicPrefix is the URL prefix stored images are served under.
const PublicPrefix = "/uploads/"

var extensionsByType = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// ImageStore keeps product images on the local filesystem.
type ImageStore struct {
	dir      string
	maxBytes int64
}

// NewImageStore creates dir if needed.
func NewImageStore(dir string, maxBytes int64) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageStore{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the directory images are written to.
func (s *ImageStore) Dir() string {
	return s.dir
}

// Save validates the upload and writes it under a random name. It returns the
// public path of the stored file.
func (s *ImageStore) Save(file *multipart.FileHeader) (string, error) {
	if file.Size > s.maxBytes {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("image exceeds the %d MB limit", s.maxBytes/1024/1024),
			map[string]any{"image": "too large"})
	}

	src, err := file.Open()
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	defer src.Close()

	header := make([]byte, 512)
	n, err := io.ReadFull(src, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", apperrors.NewInternalError(err)
	}
	contentType := http.DetectContentType(header[:n])
	ext, ok := extensionsByType[contentType]
	if !ok {
		return "", apperrors.NewValidationError("only image uploads are allowed", map[string]any{"image": contentType})
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", apperrors.NewInternalError(err)
	}

	filename := uuid.NewString() + ext
	dst, err := os.OpenFile(filepath.Join(s.dir, filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	written, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxBytes {
		err = apperrors.NewValidationError("image exceeds the size limit", map[string]any{"image": "too large"})
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.dir, filename))
		return "", apperrors.MapError(err)
	}
	return PublicPrefix + filename, nil
}

// Remove deletes a previously stored image. Paths outside the store are
// ignored.
func (s *ImageStore) Remove(publicPath string) error {
	if !strings.HasPrefix(publicPath, PublicPrefix) {
		return nil
	}
	name := path.Base(publicPath)
	if name == "." || name == "/" || name != strings.TrimPrefix(publicPath, PublicPrefix) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mohamedzeina/node-social/utils"
)

// allowedImageTypes maps accepted MIME types to the extension stored files get.
var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpg":  ".jpg",
	"image/jpeg": ".jpg",
}

// maxImageSize caps a single upload at 10MB.
const maxImageSize = 10 * 1024 * 1024

// ImageStore writes uploaded post images below a single root directory and
// removes orphaned files best-effort.
type ImageStore struct {
	root string
}

// NewImageStore creates the root directory if missing.
func NewImageStore(root string) (*ImageStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}
	return &ImageStore{root: root}, nil
}

// Store saves the uploaded file and returns its path relative to the store
// root. A file outside the image MIME allow-list is silently skipped: Store
// returns ("", nil) and the governing operation enforces image presence
// itself.
func (s *ImageStore) Store(header *multipart.FileHeader) (string, error) {
	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("rejected upload with content type %q", contentType)
		}
		return "", nil
	}
	if header.Size > maxImageSize {
		return "", fmt.Errorf("image exceeds %d bytes", maxImageSize)
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.root, name))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, maxImageSize+1)); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write image file: %w", err)
	}
	return name, nil
}

// Delete unlinks a stored image. Failures are logged and never surfaced:
// deletion is storage hygiene, not operation correctness.
func (s *ImageStore) Delete(relPath string) {
	if relPath == "" {
		return
	}
	// uploads are stored flat, so anything with separators is suspect
	name := filepath.Base(relPath)
	if err := os.Remove(filepath.Join(s.root, name)); err != nil && !os.IsNotExist(err) {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("failed to delete image %s: %v", name, err)
		}
	}
}

// DeleteAsync schedules a fire-and-forget deletion.
func (s *ImageStore) DeleteAsync(relPath string) {
	go func() {
		defer func() { _ = recover() }()
		s.Delete(relPath)
	}()
}

package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	"github.com/spec-kit/helpdesk/internal/config"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	defaultMaxDocumentBytes = 8 << 20
	defaultMaxImageDim      = 1600
	// maxImageBytes bounds how much of an image upload is buffered before decoding.
	maxImageBytes = 32 << 20
	// MaxUploadBytes is the largest request body an upload can need.
	MaxUploadBytes = maxImageBytes + 1<<20
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// AttachmentStore saves uploaded ticket attachments on the local filesystem
// under generated names.
type AttachmentStore struct {
	dir              string
	maxDocumentBytes int64
	maxImageDim      int
}

// NewAttachmentStore prepares the upload directory.
func NewAttachmentStore(cfg config.UploadConfig) (*AttachmentStore, error) {
	s := &AttachmentStore{
		dir:              cfg.Dir,
		maxDocumentBytes: cfg.MaxDocumentBytes,
		maxImageDim:      cfg.MaxImageDim,
	}
	if s.dir == "" {
		s.dir = "uploads"
	}
	if s.maxDocumentBytes <= 0 {
		s.maxDocumentBytes = defaultMaxDocumentBytes
	}
	if s.maxImageDim <= 0 {
		s.maxImageDim = defaultMaxImageDim
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return s, nil
}

// Dir returns the directory files are served from.
func (s *AttachmentStore) Dir() string {
	return s.dir
}

// Save stores r under a fresh uuid name keeping the original extension and
// returns the stored name. Non-image documents above the size ceiling are
// rejected; JPEG and PNG images larger than the dimension bound are downscaled.
func (s *AttachmentStore) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.NewString() + ext

	var (
		data []byte
		err  error
	)
	if imageExtensions[ext] {
		data, err = readLimited(r, maxImageBytes)
		if err != nil {
			return "", err
		}
		data, err = s.downscale(ext, data)
		if err != nil {
			return "", err
		}
	} else {
		data, err = readLimited(r, s.maxDocumentBytes)
		if err != nil {
			return "", err
		}
	}

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", apperrors.NewInternalError(fmt.Errorf("write attachment: %w", err))
	}
	return name, nil
}

// Remove deletes a stored attachment. A missing file is not an error.
func (s *AttachmentStore) Remove(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return apperrors.NewValidationError("invalid file name", nil)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove attachment: %w", err)
	}
	return nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("read attachment: %w", err))
	}
	if int64(len(data)) > limit {
		return nil, apperrors.NewValidationError("attachment too large", map[string]any{"max_bytes": limit})
	}
	return data, nil
}

func (s *AttachmentStore) downscale(ext string, data []byte) ([]byte, error) {
	var decode func(io.Reader) (image.Image, error)
	switch ext {
	case ".jpg", ".jpeg":
		decode = jpeg.Decode
	case ".png":
		decode = png.Decode
	default:
		return data, nil
	}

	src, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewValidationError("invalid image", map[string]any{"extension": ext})
	}
	b := src.Bounds()
	if b.Dx() <= s.maxImageDim && b.Dy() <= s.maxImageDim {
		return data, nil
	}

	resized := resizeImage(src, s.maxImageDim)
	buf := &bytes.Buffer{}
	if ext == ".png" {
		err = png.Encode(buf, resized)
	} else {
		err = jpeg.Encode(buf, resized, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("encode image: %w", err))
	}
	return buf.Bytes(), nil
}

// resizeImage fits src inside a maxDim square keeping its aspect ratio.
func resizeImage(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return src
	}

	var nw, nh int
	if w >= h {
		nw = maxDim
		nh = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		nh = maxDim
		nw = int(float64(w) * float64(maxDim) / float64(h))
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	imagedraw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, imagedraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// Resolve maps a stored name to its path, refusing anything that is not a
// bare file name inside the upload directory.
func (s *AttachmentStore) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", apperrors.NewValidationError("invalid file name", nil)
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", apperrors.NewNotFound("file", map[string]any{"name": name})
	}
	return path, nil
}

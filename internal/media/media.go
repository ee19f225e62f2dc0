// Package media stores uploaded post images on local disk.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 85
	maxUploadSize = 10 << 20 // 10MB
	// width*height limit checked before decoding pixel data
	maxImagePixels = 89_478_485
	postsSubdir    = "posts"
)

// ErrInvalidImage is returned for uploads that are not a decodable image
var ErrInvalidImage = errors.New("upload a valid image")

// Store saves images below Dir and serves them under URLPrefix
type Store struct {
	Dir       string
	URLPrefix string
}

// NewStore creates a store, making sure the upload directory exists
func NewStore(dir, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, postsSubdir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &Store{Dir: dir, URLPrefix: urlPrefix}, nil
}

// SaveUpload validates an uploaded image, normalizes it to JPEG and returns
// its name relative to Dir
func (s *Store) SaveUpload(fh *multipart.FileHeader) (string, error) {
	if fh.Size > maxUploadSize {
		return "", fmt.Errorf("%w: file is larger than %d MB", ErrInvalidImage, maxUploadSize>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	return s.Save(io.LimitReader(f, maxUploadSize+1))
}

// Save decodes an image from src, scales it down to maxImageWidth and writes it as JPEG
func (s *Store) Save(src io.Reader) (string, error) {
	data, err := processImage(src)
	if err != nil {
		return "", err
	}

	name := path.Join(postsSubdir, uuid.NewString()+".jpg")
	if err := os.WriteFile(filepath.Join(s.Dir, filepath.FromSlash(name)), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return name, nil
}

// Delete removes a stored image; missing files are ignored
func (s *Store) Delete(name string) error {
	if name == "" {
		return nil
	}
	clean := path.Clean("/" + name)[1:]
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URL returns the public URL of a stored image
func (s *Store) URL(name string) string {
	if name == "" {
		return ""
	}
	return s.URLPrefix + name
}

func processImage(src io.Reader) ([]byte, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(src, &head))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, maxImagePixels)
	}

	img, _, err := image.Decode(io.MultiReader(&head, src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

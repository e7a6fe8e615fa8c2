package controllers

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/utils"
)

const mediaURLPrefix = "/media/"

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// saveImage stores an uploaded post image under MediaRoot/posts_images/YYYY/MM/DD and returns its public URL.
func saveImage(header *multipart.FileHeader) (string, error) {
	cfg := config.Get()
	maxSize := int64(cfg.MaxUploadMB) * 1024 * 1024

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !imageExtensions[ext] {
		return "", errImageType
	}
	if header.Size > maxSize {
		return "", errImageSize
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	rel := path.Join("posts_images", time.Now().UTC().Format("2006/01/02"), uuid.NewString()+ext)
	dst := filepath.Join(cfg.MediaRoot, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	// limited reader guards against a lying Content-Length
	written, err := io.Copy(out, &io.LimitedReader{R: src, N: maxSize + 1})
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if written > maxSize {
		_ = os.Remove(dst)
		return "", errImageSize
	}
	return mediaURLPrefix + rel, nil
}

// removeImage deletes a stored image, best effort.
func removeImage(url string) {
	if !strings.HasPrefix(url, mediaURLPrefix) {
		return
	}
	rel := path.Clean("/" + strings.TrimPrefix(url, mediaURLPrefix))
	p := filepath.Join(config.Get().MediaRoot, filepath.FromSlash(rel))
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		utils.Sugar.Warnw("image not removed", "path", p, "err", err)
	}
}

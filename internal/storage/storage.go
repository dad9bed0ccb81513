// Package storage keeps uploaded files (application documents, profile photos,
// post images) and resolves their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	BucketDocuments     = "documents"
	BucketProfilePhotos = "profile-photos"
	BucketPostImages    = "post-images"
)

// PublicPrefix is the route the upload directory is served under.
const PublicPrefix = "/uploads"

var ErrInvalidKey = errors.New("invalid object key")

type Storage interface {
	// Upload stores r under bucket/name and returns the object key.
	Upload(ctx context.Context, bucket, name string, r io.Reader) (string, error)
	PublicURL(key string) string
	Delete(ctx context.Context, key string) error
}

// Local stores objects on disk below Root.
type Local struct {
	Root    string
	BaseURL string
}

func NewLocal(root, baseURL string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (l *Local) Upload(ctx context.Context, bucket, name string, r io.Reader) (string, error) {
	key, err := objectKey(bucket, name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := l.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return key, nil
}

func (l *Local) PublicURL(key string) string {
	return l.BaseURL + PublicPrefix + "/" + key
}

// Delete removes the object. Deleting a missing object is not an error.
func (l *Local) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	err := os.Remove(l.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) path(key string) string {
	return filepath.Join(l.Root, filepath.FromSlash(key))
}

// objectKey joins bucket and name, where name may contain "/" separated folders
// (e.g. "<application id>/resume.pdf").
func objectKey(bucket, name string) (string, error) {
	key := path.Clean(bucket + "/" + strings.TrimLeft(name, "/"))
	if !validKey(key) || !strings.HasPrefix(key, bucket+"/") {
		return "", ErrInvalidKey
	}
	return key, nil
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore keeps assets on the local filesystem below root. The directory
// is served over HTTP at baseURL. Partial writes go to tmp, a sibling of root
// on the same filesystem, and are renamed into place once complete.
type LocalStore struct {
	root    string
	tmp     string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	tmp := root + ".tmp"
	if err := os.MkdirAll(tmp, 0o700); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &LocalStore{root: root, tmp: tmp, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes the upload as <namespace>/<uuid><ext>. The extension follows the
// sniffed content type; the client filename is ignored.
func (s *LocalStore) Put(ctx context.Context, namespace string, upload *Upload) (Asset, error) {
	if err := ctx.Err(); err != nil {
		return Asset{}, err
	}
	if !validSegment(namespace) {
		return Asset{}, fmt.Errorf("%w: namespace %q", ErrInvalidKey, namespace)
	}
	_, ext, ok := DetectImage(upload.Data)
	if !ok {
		ext = ".bin"
	}

	dir := filepath.Join(s.root, namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Asset{}, fmt.Errorf("create namespace dir: %w", err)
	}

	name := uuid.NewString() + ext
	tmp, err := os.CreateTemp(s.tmp, "upload-*")
	if err != nil {
		return Asset{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(upload.Data); err != nil {
		tmp.Close()
		return Asset{}, fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Asset{}, fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return Asset{}, fmt.Errorf("publish upload: %w", err)
	}

	key := path.Join(namespace, name)
	return Asset{Key: key, URL: s.baseURL + "/" + key}, nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// exists reports whether an asset is present at key.
func (s *LocalStore) exists(key string) (bool, error) {
	p, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// resolve maps a key onto a path inside root, refusing anything that would
// escape it.
func (s *LocalStore) resolve(key string) (string, error) {
	clean := path.Clean(key)
	if key == "" || clean != key || path.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(clean, "/") {
		if !validSegment(seg) {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

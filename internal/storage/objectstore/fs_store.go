package objectstore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
)

// FSStore keeps objects as files under a root directory, one file per key.
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, errors.New("root dir is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create root dir: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// Put writes to a temporary file and renames it so readers never observe a
// partial object.
func (s *FSStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if s == nil {
		return errors.New("fs store not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	if size >= 0 && n != size {
		return fmt.Errorf("write object: wrote %d bytes, want %d", n, size)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("commit object: %w", err)
	}
	return nil
}

func (s *FSStore) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	info, err := s.Stat(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	p, _ := s.path(key)
	f, err := os.Open(p)
	if err != nil {
		return nil, ObjectInfo{}, mapFSError(key, err)
	}
	return f, info, nil
}

func (s *FSStore) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	if s == nil {
		return ObjectInfo{}, errors.New("fs store not initialized")
	}
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	p, err := s.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	st, err := os.Stat(p)
	if err != nil {
		return ObjectInfo{}, mapFSError(key, err)
	}
	if st.IsDir() {
		return ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		ETag:         fileETag(st),
		ContentType:  contentTypeOf(key),
		LastModified: st.ModTime().UTC(),
	}, nil
}

// Delete is idempotent: removing a missing object is not an error.
func (s *FSStore) Delete(ctx context.Context, key string) error {
	if s == nil {
		return errors.New("fs store not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	// Drop the per-contract directory once empty; a non-empty dir is kept.
	_ = os.Remove(filepath.Dir(p))
	return nil
}

func (s *FSStore) Check(ctx context.Context) error {
	if s == nil {
		return errors.New("fs store not initialized")
	}
	st, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("stat root: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("root %s is not a directory", s.root)
	}
	return nil
}

func mapFSError(key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return err
}

func fileETag(st fs.FileInfo) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%d-%d", st.Size(), st.ModTime().UnixNano())))
	return hex.EncodeToString(sum[:])
}

func contentTypeOf(key string) string {
	switch path.Ext(key) {
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".pdf":
		return "application/pdf"
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var ErrNotFound = errors.New("object not found")

// Store abstracts the blob backend holding rendered documents. Each store
// is bound to one bucket or root directory.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	Check(ctx context.Context) error
}

type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// ContractKey is the object key of a contract document:
// contracts/<contractID>/<fileName>.
func ContractKey(contractID, fileName string) string {
	return path.Join("contracts", contractID, fileName)
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("object key is required")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("object key %q must be relative", key)
	}
	if path.Clean(key) != key {
		return fmt.Errorf("object key %q is not canonical", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return fmt.Errorf("object key %q escapes the store", key)
		}
	}
	return nil
}

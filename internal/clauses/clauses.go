// Package clauses loads the per-service clause texts that make up the scope
// section of a contract.
package clauses

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/Admin-EWorld/contracts/internal/domain"
)

var (
	ErrUnknownService = errors.New("unknown service")
	ErrClauseLoad     = errors.New("clause load failed")
)

type UnknownServiceError struct {
	Key string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown service %q", e.Key)
}

func (e *UnknownServiceError) Unwrap() error {
	return ErrUnknownService
}

type LoadError struct {
	Key  string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load clause %q from %s: %v", e.Key, e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrClauseLoad, e.Err}
}

var (
	keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	errBlank   = errors.New("clause file is blank")
)

// Library is read-only after LoadAll and safe for concurrent readers.
type Library struct {
	keys    []string
	clauses map[string]domain.Clause
}

// LoadAll reads <dir>/<key>.txt for every key. Any missing, unreadable or
// blank file fails the whole load.
func LoadAll(dir string, keys []string) (*Library, error) {
	if len(keys) == 0 {
		return nil, &LoadError{Path: dir, Err: errors.New("no service keys configured")}
	}
	lib := &Library{clauses: make(map[string]domain.Clause, len(keys))}
	for _, key := range keys {
		path := filepath.Join(dir, key+".txt")
		if !keyPattern.MatchString(key) {
			return nil, &LoadError{Key: key, Path: path, Err: errors.New("invalid key")}
		}
		if _, dup := lib.clauses[key]; dup {
			continue
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Key: key, Path: path, Err: err}
		}
		body := strings.TrimSpace(strings.ReplaceAll(string(raw), "\r\n", "\n"))
		if body == "" {
			return nil, &LoadError{Key: key, Path: path, Err: errBlank}
		}
		lib.clauses[key] = domain.Clause{Key: key, Body: body}
		lib.keys = append(lib.keys, key)
	}
	slices.Sort(lib.keys)
	return lib, nil
}

func (l *Library) Get(key string) (domain.Clause, error) {
	if l == nil {
		return domain.Clause{}, errors.New("clause library not initialized")
	}
	c, ok := l.clauses[key]
	if !ok {
		return domain.Clause{}, &UnknownServiceError{Key: key}
	}
	return c, nil
}

// Keys returns the canonical clause order: lexicographic by key.
func (l *Library) Keys() []string {
	if l == nil {
		return nil
	}
	return slices.Clone(l.keys)
}

package clauses

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeClauses(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name+".txt"), []byte(body), 0o644); err != nil {
			t.Fatalf("write clause %s: %v", name, err)
		}
	}
	return dir
}

func TestLoadAll(t *testing.T) {
	dir := writeClauses(t, map[string]string{
		"it":       "IT clause\r\n",
		"finance":  "  Finance clause  ",
		"business": "Business clause",
	})
	lib, err := LoadAll(dir, []string{"it", "finance", "business"})
	if err != nil {
		t.Fatalf("LoadAll() err=%v", err)
	}
	if diff := cmp.Diff([]string{"business", "finance", "it"}, lib.Keys()); diff != "" {
		t.Fatalf("Keys() mismatch (-want +got):\n%s", diff)
	}
	c, err := lib.Get("finance")
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	if c.Body != "Finance clause" {
		t.Fatalf("Body=%q", c.Body)
	}
	c, _ = lib.Get("it")
	if c.Body != "IT clause" {
		t.Fatalf("Body=%q, want CRLF trimmed", c.Body)
	}
}

func TestKeysReturnsCopy(t *testing.T) {
	dir := writeClauses(t, map[string]string{"a": "x", "b": "y"})
	lib, err := LoadAll(dir, []string{"a", "b"})
	if err != nil {
		t.Fatalf("LoadAll() err=%v", err)
	}
	keys := lib.Keys()
	keys[0] = "zzz"
	if lib.Keys()[0] != "a" {
		t.Fatalf("Keys() exposed internal slice")
	}
}

func TestGetUnknownService(t *testing.T) {
	dir := writeClauses(t, map[string]string{"it": "x"})
	lib, err := LoadAll(dir, []string{"it"})
	if err != nil {
		t.Fatalf("LoadAll() err=%v", err)
	}
	_, err = lib.Get("legal")
	if !errors.Is(err, ErrUnknownService) {
		t.Fatalf("Get(legal) err=%v, want ErrUnknownService", err)
	}
	var use *UnknownServiceError
	if !errors.As(err, &use) || use.Key != "legal" {
		t.Fatalf("expected UnknownServiceError{legal}, got %v", err)
	}
}

func TestLoadAllFailures(t *testing.T) {
	dir := writeClauses(t, map[string]string{"it": "x", "blank": " \n\t "})
	cases := map[string][]string{
		"missing file": {"it", "hr"},
		"blank file":   {"blank"},
		"bad key":      {"../it"},
		"no keys":      nil,
	}
	for name, keys := range cases {
		_, err := LoadAll(dir, keys)
		if !errors.Is(err, ErrClauseLoad) {
			t.Fatalf("%s: err=%v, want ErrClauseLoad", name, err)
		}
		var le *LoadError
		if !errors.As(err, &le) {
			t.Fatalf("%s: expected *LoadError", name)
		}
	}

	_, err := LoadAll(dir, []string{"hr"})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file should wrap os.ErrNotExist, got %v", err)
	}
}

func TestRepositoryClausesMatchDefaultCatalog(t *testing.T) {
	lib, err := LoadAll("../../clauses", DefaultCatalog().Keys())
	if err != nil {
		t.Fatalf("LoadAll(repo clauses) err=%v", err)
	}
	if diff := cmp.Diff([]string{"business", "finance", "hr", "it"}, lib.Keys()); diff != "" {
		t.Fatalf("Keys() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog("../../config/services.yaml")
	if err != nil {
		t.Fatalf("LoadCatalog() err=%v", err)
	}
	if diff := cmp.Diff(DefaultCatalog(), c); diff != "" {
		t.Fatalf("config/services.yaml differs from default catalog (-want +got):\n%s", diff)
	}
	title, ok := c.Title("hr")
	if !ok || title != "HR & Payroll" {
		t.Fatalf("Title(hr)=%q,%v", title, ok)
	}
}

func TestCatalogValidate(t *testing.T) {
	bad := []Catalog{
		{},
		{Services: []Service{{Key: "it", Title: ""}}},
		{Services: []Service{{Key: "IT", Title: "x"}}},
		{Services: []Service{{Key: "it", Title: "a"}, {Key: "it", Title: "b"}}},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

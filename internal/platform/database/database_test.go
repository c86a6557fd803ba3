package database

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestConfigFromEnvDefaultsToSQLite(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.Driver != DriverSQLite {
		t.Fatalf("Driver=%q, want sqlite", cfg.Driver)
	}
	if cfg.MaxOpenConns != 1 {
		t.Fatalf("MaxOpenConns=%d, want 1 for sqlite", cfg.MaxOpenConns)
	}
}

func TestConfigValidateRejectsUnknownDriver(t *testing.T) {
	cfg := Config{Driver: "mysql", URL: "x", PingTimeout: time.Second, MaxOpenConns: 1}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() expected error for unsupported driver")
	}
}

func TestDataSourceNameAddsPragmas(t *testing.T) {
	got := dataSourceName(Config{Driver: DriverSQLite, URL: "contracts.db"})
	if !strings.HasPrefix(got, "contracts.db?_pragma=") || !strings.Contains(got, "foreign_keys(on)") || !strings.Contains(got, "_time_format=sqlite") {
		t.Fatalf("dataSourceName()=%q", got)
	}
	pg := dataSourceName(Config{Driver: DriverPostgres, URL: "postgres://x"})
	if pg != "postgres://x" {
		t.Fatalf("postgres dsn rewritten: %q", pg)
	}
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	cfg := Config{
		Driver:       DriverSQLite,
		URL:          "file:" + t.TempDir() + "/contracts.db",
		PingTimeout:  time.Second,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
	db, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() err=%v", err)
	}
	defer db.Close()

	applied, err := Migrate(db, DriverSQLite)
	if err != nil {
		t.Fatalf("Migrate() err=%v", err)
	}
	if !applied {
		t.Fatalf("expected first migration run to apply changes")
	}
	applied, err = Migrate(db, DriverSQLite)
	if err != nil {
		t.Fatalf("second Migrate() err=%v", err)
	}
	if applied {
		t.Fatalf("expected second migration run to be a no-op")
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM contracts`).Scan(&n); err != nil {
		t.Fatalf("contracts table missing: %v", err)
	}
}

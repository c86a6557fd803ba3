package objectstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Admin-EWorld/contracts/internal/platform/env"
)

const (
	BackendFS    = "fs"
	BackendMinIO = "minio"
)

// Config selects the blob backend for rendered documents. MinIO fields are
// only validated when Backend is minio.
type Config struct {
	Backend   string
	Dir       string
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
}

func ConfigFromEnv() (Config, error) {
	useSSL, err := env.Bool("CONTRACTS_MINIO_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Backend:   strings.ToLower(env.String("CONTRACTS_BLOB_BACKEND", BackendFS)),
		Dir:       env.String("CONTRACTS_BLOB_DIR", "generated"),
		Endpoint:  env.String("CONTRACTS_MINIO_ENDPOINT", "localhost:9000"),
		AccessKey: env.String("CONTRACTS_MINIO_ACCESS_KEY", "contracts"),
		SecretKey: env.String("CONTRACTS_MINIO_SECRET_KEY", "contractsminio"),
		Region:    env.String("CONTRACTS_MINIO_REGION", "us-east-1"),
		UseSSL:    useSSL,
		Bucket:    env.String("CONTRACTS_MINIO_BUCKET", "contracts"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendFS:
		if strings.TrimSpace(c.Dir) == "" {
			return errors.New("blob dir is required")
		}
		return nil
	case BackendMinIO:
	default:
		return fmt.Errorf("unsupported blob backend: %q", c.Backend)
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("bucket is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var lookupEnv = os.LookupEnv

// Load layers the YAML file at path (optional; empty skips it) and then the
// environment over Default, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Environment variables (override file values when set):
//
//	STRUCTKIT_BLOB_DRIVER=fs|s3|memory
//	STRUCTKIT_BLOB_FS_ROOT=<dir>
//	STRUCTKIT_BLOB_S3_BUCKET / _REGION / _ENDPOINT / _PATH_STYLE
//	STRUCTKIT_LEDGER_DRIVER=sqlite|postgres
//	STRUCTKIT_SQLITE_PATH=<file>
//	STRUCTKIT_POSTGRES_DSN=<dsn>
//	STRUCTKIT_LOG_LEVEL=debug|info|warn|error
func applyEnv(cfg *Config) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"STRUCTKIT_BLOB_DRIVER", &cfg.Blob.Driver},
		{"STRUCTKIT_BLOB_FS_ROOT", &cfg.Blob.FSRoot},
		{"STRUCTKIT_BLOB_S3_BUCKET", &cfg.Blob.S3.Bucket},
		{"STRUCTKIT_BLOB_S3_REGION", &cfg.Blob.S3.Region},
		{"STRUCTKIT_BLOB_S3_ENDPOINT", &cfg.Blob.S3.Endpoint},
		{"STRUCTKIT_LEDGER_DRIVER", &cfg.Ledger.Driver},
		{"STRUCTKIT_SQLITE_PATH", &cfg.Ledger.SQLitePath},
		{"STRUCTKIT_POSTGRES_DSN", &cfg.Ledger.PostgresDSN},
		{"STRUCTKIT_LOG_LEVEL", &cfg.Log.Level},
	}
	for _, s := range strs {
		if v, ok := lookupEnv(s.name); ok && v != "" {
			*s.dst = strings.TrimSpace(v)
		}
	}
	if v, ok := lookupEnv("STRUCTKIT_BLOB_S3_PATH_STYLE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STRUCTKIT_BLOB_S3_PATH_STYLE: %w", err)
		}
		cfg.Blob.S3.PathStyle = b
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Blob.Driver {
	case BlobDriverFS, BlobDriverMemory:
	case BlobDriverS3:
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("blob.s3.bucket required for s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob driver %q", c.Blob.Driver))
	}
	switch c.Ledger.Driver {
	case LedgerDriverSQLite:
		if c.Ledger.SQLitePath == "" {
			errs = append(errs, errors.New("ledger.sqlite_path required for sqlite driver"))
		}
	case LedgerDriverPostgres:
		if c.Ledger.PostgresDSN == "" {
			errs = append(errs, errors.New("ledger.postgres_dsn required for postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ledger driver %q", c.Ledger.Driver))
	}
	switch c.Archive.Layout {
	case LayoutPlain, LayoutDated:
	default:
		errs = append(errs, fmt.Errorf("unknown archive layout %q", c.Archive.Layout))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

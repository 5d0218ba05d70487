// Package config loads structkit settings from defaults, an optional YAML
// file, and STRUCTKIT_* environment overrides, in that order.
package config

// Config is the full runtime configuration.
type Config struct {
	Blob    Blob    `yaml:"blob"`
	Ledger  Ledger  `yaml:"ledger"`
	Archive Archive `yaml:"archive"`
	Log     Log     `yaml:"log"`
}

// Blob selects and configures the blob storage driver.
type Blob struct {
	Driver string `yaml:"driver"` // fs|s3|memory
	FSRoot string `yaml:"fs_root"`
	S3     S3     `yaml:"s3"`
}

// S3 holds S3 / MinIO connection settings.
type S3 struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// Ledger selects the SQL database recording publications.
type Ledger struct {
	Driver      string `yaml:"driver"` // sqlite|postgres
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Archive controls how document keys are laid out in the blob store.
type Archive struct {
	Layout string `yaml:"layout"` // plain|dated
	Prefix string `yaml:"prefix"`
}

// Log configures the process logger.
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

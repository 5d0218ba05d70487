package config

// Driver and layout names accepted by Validate.
const (
	BlobDriverFS     = "fs"
	BlobDriverS3     = "s3"
	BlobDriverMemory = "memory"

	LedgerDriverSQLite   = "sqlite"
	LedgerDriverPostgres = "postgres"

	LayoutPlain = "plain"
	LayoutDated = "dated"
)

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	return Config{
		Blob: Blob{
			Driver: BlobDriverFS,
			FSRoot: "./blobdata",
			S3:     S3{Region: "us-east-1"},
		},
		Ledger: Ledger{
			Driver:     LedgerDriverSQLite,
			SQLitePath: "./structkit.db",
		},
		Archive: Archive{Layout: LayoutPlain, Prefix: "docs"},
		Log:     Log{Level: "info"},
	}
}

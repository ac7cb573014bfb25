package filestore

import "github.com/koustreak/playerdb/internal/errs"

// Provider identifies the file storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
)

// Config holds all settings needed to connect to a file storage backend.
type Config struct {
	// Provider is the storage backend (e.g. ProviderMinIO).
	Provider Provider `yaml:"provider"`

	// Endpoint is the host:port of the storage server.
	// Example: "localhost:9000" for local MinIO. Empty disables storage.
	Endpoint string `yaml:"endpoint"`

	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool `yaml:"use_ssl"`

	// Region is used by region-aware backends (e.g. AWS S3).
	// Leave empty for MinIO.
	Region string `yaml:"region"`

	// Bucket receives every object written by playerdb. It is created on
	// start if missing.
	Bucket string `yaml:"bucket"`
}

// DefaultConfig returns a sensible local-dev config for MinIO.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Provider:  ProviderMinIO,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		UseSSL:    false,
		Bucket:    "playerdb",
	}
}

// Enabled reports whether a storage endpoint is configured.
func (c *Config) Enabled() bool {
	return c.Endpoint != ""
}

// Validate checks a config that is Enabled.
func (c *Config) Validate() error {
	switch {
	case c.Provider != ProviderMinIO:
		return errs.New(errs.ErrKindInvalidInput, "unsupported file storage provider "+string(c.Provider))
	case c.Endpoint == "":
		return errs.New(errs.ErrKindInvalidInput, "file storage endpoint is required")
	case c.Bucket == "":
		return errs.New(errs.ErrKindInvalidInput, "file storage bucket is required")
	}
	return nil
}

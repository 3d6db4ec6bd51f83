package filestore

import "time"

// Provider identifies the object storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
)

// Config holds the settings of the export sink.
type Config struct {
	// Enabled turns the sink on. When false, exports can only be
	// downloaded directly.
	Enabled bool

	// Provider is the storage backend (e.g. ProviderMinIO).
	Provider Provider

	// Endpoint is the host:port of the storage server.
	// Example: "localhost:9000" for local MinIO.
	Endpoint string

	AccessKey string
	SecretKey string

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool

	// Region is used by region-aware backends (e.g. AWS S3).
	// Leave empty for MinIO.
	Region string

	// Bucket receives exports. It is created on connect when missing.
	Bucket string

	// Prefix is prepended to every export key.
	Prefix string

	// PresignTTL is the lifetime of download URLs handed back to clients.
	PresignTTL time.Duration
}

// DefaultConfig returns a local-dev config for MinIO.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Provider:   ProviderMinIO,
		Endpoint:   endpoint,
		AccessKey:  accessKey,
		SecretKey:  secretKey,
		Bucket:     "dbdesk-exports",
		Prefix:     "exports",
		PresignTTL: 15 * time.Minute,
	}
}

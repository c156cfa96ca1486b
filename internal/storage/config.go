package storage

import "time"

// Config holds the object storage connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
	// PublicBaseURL, when set, is used to build object URLs directly
	// (CDN or public bucket). Otherwise URLs are presigned for PresignTTL.
	PublicBaseURL string
	PresignTTL    time.Duration
}

// Enabled reports whether an endpoint was configured.
func (c Config) Enabled() bool {
	return c.Endpoint != ""
}

package cloudwriter

import (
	"fmt"
	"io"
	"net/url"
	"strings"
)

// CloudWriter buffers an object and uploads it on Close. Abort discards the
// buffer so a later Close uploads nothing.
type CloudWriter interface {
	io.WriteCloser
	Abort()
}

type CloudWriterFactory interface {
	NewWriter(bucket, objectPath, contentType string) (CloudWriter, error)
}

// IsS3URI reports whether dest names an S3 object rather than a local path.
func IsS3URI(dest string) bool {
	return strings.HasPrefix(dest, "s3://")
}

// ParseS3URI splits s3://bucket/key into its bucket and key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("invalid destination %q: %w", uri, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("invalid destination %q: scheme must be s3", uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("invalid destination %q: want s3://bucket/key", uri)
	}
	return u.Host, key, nil
}

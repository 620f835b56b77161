package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Archive(t *testing.T) {
	t.Run("Missing endpoint", func(t *testing.T) {
		_, err := NewS3Archive(S3Config{Bucket: "invoices"})
		assert.Error(t, err)
	})

	t.Run("Missing bucket", func(t *testing.T) {
		_, err := NewS3Archive(S3Config{Endpoint: "localhost:9000"})
		assert.Error(t, err)
	})
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		file   string
		want   string
	}{
		{"No prefix", "", "invoice-7.pdf", "invoice-7.pdf"},
		{"Prefix", "invoices/", "invoice-7.pdf", "invoices/invoice-7.pdf"},
		{"Nested prefix without slash", "docs/invoices", "invoice-7.pdf", "docs/invoices/invoice-7.pdf"},
		{"Path traversal", "invoices", "../../etc/passwd", "invoices/passwd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewS3Archive(S3Config{Endpoint: "localhost:9000", Bucket: "docs", Prefix: tt.prefix, Region: "us-east-1"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.ObjectKey(tt.file))
		})
	}
}

func TestPresignedURL(t *testing.T) {
	a, err := NewS3Archive(S3Config{
		Endpoint:        "localhost:9000",
		AccessKeyID:     "access",
		SecretAccessKey: "secret",
		Bucket:          "docs",
		Region:          "us-east-1",
	})
	require.NoError(t, err)

	u, err := a.PresignedURL(context.Background(), "invoices/invoice-7.pdf", 15*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, u, "/docs/invoices/invoice-7.pdf")
	assert.Contains(t, u, "X-Amz-Signature=")
}

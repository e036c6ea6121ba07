package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-menu/pkg/simplemenu"
)

// TestS3Backend_BasicConfiguration tests the configuration and creation of S3 backend
func TestS3Backend_BasicConfiguration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("Defaults", func(t *testing.T) {
		backend, err := New(Config{
			Bucket:          "menu-bucket",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "us-east-1", backend.config.Region)
		assert.Equal(t, time.Hour, backend.presignDuration)
	})

	t.Run("CustomPresignDuration", func(t *testing.T) {
		backend, err := New(Config{
			Bucket:          "menu-bucket",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
			PresignDuration: 7200,
		})
		require.NoError(t, err)
		assert.Equal(t, 7200*time.Second, backend.presignDuration)
	})

	t.Run("CustomEndpoint", func(t *testing.T) {
		backend, err := New(Config{
			Bucket:          "menu-bucket",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			Endpoint:        "http://localhost:9000",
			UsePathStyle:    true,
		})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000", backend.config.Endpoint)
		assert.True(t, backend.config.UsePathStyle)
	})
}

func TestS3Backend_PreviewURL(t *testing.T) {
	ctx := context.Background()

	t.Run("PublicBaseURL", func(t *testing.T) {
		backend, err := New(Config{
			Bucket:          "menu-bucket",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
			PublicBaseURL:   "https://cdn.example.com/",
		})
		require.NoError(t, err)

		url, err := backend.GetPreviewURL(ctx, "menu/clean/coffee")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/menu/clean/coffee", url)
	})

	t.Run("Presigned", func(t *testing.T) {
		backend, err := New(Config{
			Bucket:          "menu-bucket",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
			Endpoint:        "http://localhost:9000",
			UsePathStyle:    true,
		})
		require.NoError(t, err)

		url, err := backend.GetPreviewURL(ctx, "menu/clean/coffee")
		require.NoError(t, err)
		assert.Contains(t, url, "http://localhost:9000/menu-bucket/menu/clean/coffee")
		assert.Contains(t, url, "X-Amz-Signature")
	})
}

func TestS3Backend_ApplySSE(t *testing.T) {
	backend := &Backend{config: Config{EnableSSE: true, SSEAlgorithm: "aws:kms", SSEKMSKeyID: "key-1"}}
	input := &s3.PutObjectInput{}
	backend.applySSE(input)
	assert.Equal(t, types.ServerSideEncryptionAwsKms, input.ServerSideEncryption)
	assert.Equal(t, "key-1", *input.SSEKMSKeyId)

	backend.config = Config{EnableSSE: true, SSEAlgorithm: "AES256"}
	input = &s3.PutObjectInput{}
	backend.applySSE(input)
	assert.Equal(t, types.ServerSideEncryptionAes256, input.ServerSideEncryption)
	assert.Nil(t, input.SSEKMSKeyId)

	backend.config = Config{}
	input = &s3.PutObjectInput{}
	backend.applySSE(input)
	assert.Empty(t, input.ServerSideEncryption)
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"typed NoSuchKey", &types.NoSuchKey{}, true},
		{"typed NotFound", &types.NotFound{}, true},
		{"generic NoSuchKey", &smithy.GenericAPIError{Code: "NoSuchKey"}, true},
		{"wrapped generic NotFound", fmt.Errorf("head: %w", &smithy.GenericAPIError{Code: "NotFound"}), true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain error", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNotFound(tt.err))
		})
	}
}

// TestS3Backend_Integration tests actual S3 operations.
// This test requires a running S3-compatible server.
func TestS3Backend_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	endpoint := os.Getenv("AWS_S3_ENDPOINT")
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	bucket := os.Getenv("AWS_S3_BUCKET")

	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		t.Skip("Skipping integration test: S3 environment variables not set")
	}

	backend, err := New(Config{
		Bucket:                 bucket,
		Region:                 "us-east-1",
		AccessKeyID:            accessKey,
		SecretAccessKey:        secretKey,
		Endpoint:               endpoint,
		UsePathStyle:           true,
		CreateBucketIfNotExist: true,
	})
	require.NoError(t, err, "Failed to create S3 backend")

	ctx := context.Background()
	prefix := fmt.Sprintf("menu-test-%d/clean/", time.Now().UnixNano())
	objectKey := prefix + "coffee"
	testData := []byte("Hello from S3 integration test!")

	t.Run("UploadAndDownload", func(t *testing.T) {
		err := backend.UploadWithParams(ctx, bytes.NewReader(testData), simplemenu.UploadParams{ObjectKey: objectKey, MimeType: "image/jpeg"})
		require.NoError(t, err)

		reader, err := backend.Download(ctx, objectKey)
		require.NoError(t, err)
		defer reader.Close()

		downloadedData, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, testData, downloadedData)
	})

	t.Run("GetObjectMeta", func(t *testing.T) {
		meta, err := backend.GetObjectMeta(ctx, objectKey)
		require.NoError(t, err)
		assert.Equal(t, int64(len(testData)), meta.Size)
		assert.Equal(t, "image/jpeg", meta.ContentType)
		assert.NotEmpty(t, meta.ETag)

		_, err = backend.GetObjectMeta(ctx, prefix+"missing")
		assert.ErrorIs(t, err, simplemenu.ErrObjectNotFound)
	})

	t.Run("ListAndRename", func(t *testing.T) {
		require.NoError(t, backend.Rename(ctx, objectKey, prefix+"latte"))

		objects, err := backend.List(ctx, prefix)
		require.NoError(t, err)
		require.Len(t, objects, 1)
		assert.Equal(t, prefix+"latte", objects[0].Key)

		err = backend.Rename(ctx, objectKey, prefix+"other")
		assert.ErrorIs(t, err, simplemenu.ErrObjectNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, backend.Delete(ctx, prefix+"latte"))
		assert.ErrorIs(t, backend.Delete(ctx, prefix+"latte"), simplemenu.ErrObjectNotFound)
	})
}

func TestCopySource(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"menu/clean/Latte", "b/menu/clean/Latte"},
		{"menu/clean/Iced Latte", "b/menu/clean/Iced%20Latte"},
		{"menu/clean/50%off", "b/menu/clean/50%25off"},
		{"menu/clean/ชาเย็น", "b/menu/clean/%E0%B8%8A%E0%B8%B2%E0%B9%80%E0%B8%A2%E0%B9%87%E0%B8%99"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, copySource("b", tt.key))
		})
	}
}

func TestS3Backend_RenameEncodesCopySource(t *testing.T) {
	var mu sync.Mutex
	var sources, deleted []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			sources = append(sources, r.Header.Get("X-Amz-Copy-Source"))
			w.Header().Set("Content-Type", "application/xml")
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><CopyObjectResult><ETag>"etag"</ETag></CopyObjectResult>`)
		case http.MethodDelete:
			deleted = append(deleted, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
	}))
	defer srv.Close()

	backend, err := New(Config{
		Bucket:          "b",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        srv.URL,
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, backend.Rename(ctx, "menu/clean/Iced Latte", "menu/clean/Cold Latte"))
	require.NoError(t, backend.Rename(ctx, "menu/clean/ชาเย็น", "menu/clean/ชาไทย"))
	require.NoError(t, backend.Rename(ctx, "menu/clean/50%off", "menu/clean/half"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"b/menu/clean/Iced%20Latte",
		"b/menu/clean/%E0%B8%8A%E0%B8%B2%E0%B9%80%E0%B8%A2%E0%B9%87%E0%B8%99",
		"b/menu/clean/50%25off",
	}, sources)
	assert.Equal(t, []string{
		"/b/menu/clean/Iced Latte",
		"/b/menu/clean/ชาเย็น",
		"/b/menu/clean/50%off",
	}, deleted)
}

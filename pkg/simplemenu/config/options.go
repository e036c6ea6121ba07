package config

import (
	"fmt"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the optional Postgres visibility mirror
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithMemoryStorage selects the in-memory object store
func WithMemoryStorage() Option {
	return func(c *ServerConfig) error {
		c.Storage = StorageBackendConfig{Type: "memory", Config: map[string]interface{}{}}
		return nil
	}
}

// WithFilesystemStorage selects the filesystem object store
func WithFilesystemStorage(baseDir, urlPrefix string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}

		backend := StorageBackendConfig{
			Type: "fs",
			Config: map[string]interface{}{
				"base_dir": baseDir,
			},
		}
		if urlPrefix != "" {
			backend.Config["url_prefix"] = urlPrefix
		}

		c.Storage = backend
		return nil
	}
}

// WithS3Storage selects the S3 object store
func WithS3Storage(bucket, region string) Option {
	return func(c *ServerConfig) error {
		if bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		if region == "" {
			region = "us-east-1" // Default region
		}

		c.Storage = StorageBackendConfig{
			Type: "s3",
			Config: map[string]interface{}{
				"bucket": bucket,
				"region": region,
			},
		}
		return nil
	}
}

// WithS3Credentials sets AWS credentials for S3 storage
func WithS3Credentials(accessKeyID, secretAccessKey string) Option {
	return func(c *ServerConfig) error {
		if c.Storage.Type != "s3" {
			return fmt.Errorf("S3 credentials require S3 storage, got: %s", c.Storage.Type)
		}
		c.Storage.Config["access_key_id"] = accessKeyID
		c.Storage.Config["secret_access_key"] = secretAccessKey
		return nil
	}
}

// WithS3Endpoint sets a custom S3 endpoint (for LocalStack and other S3-compatible services)
func WithS3Endpoint(endpoint string, usePathStyle bool) Option {
	return func(c *ServerConfig) error {
		if c.Storage.Type != "s3" {
			return fmt.Errorf("S3 endpoint requires S3 storage, got: %s", c.Storage.Type)
		}
		c.Storage.Config["endpoint"] = endpoint
		c.Storage.Config["use_path_style"] = usePathStyle
		return nil
	}
}

// WithMinioStorage selects the MinIO object store
func WithMinioStorage(endpoint, bucket, accessKeyID, secretAccessKey string, useSSL bool) Option {
	return func(c *ServerConfig) error {
		if endpoint == "" || bucket == "" {
			return fmt.Errorf("MinIO endpoint and bucket cannot be empty")
		}
		c.Storage = StorageBackendConfig{
			Type: "minio",
			Config: map[string]interface{}{
				"endpoint":          endpoint,
				"bucket":            bucket,
				"access_key_id":     accessKeyID,
				"secret_access_key": secretAccessKey,
				"use_ssl":           useSSL,
			},
		}
		return nil
	}
}

// WithPublicBaseURL serves image URLs from a public bucket or CDN
func WithPublicBaseURL(baseURL string) Option {
	return func(c *ServerConfig) error {
		switch c.Storage.Type {
		case "s3", "minio":
			c.Storage.Config["public_base_url"] = baseURL
			return nil
		default:
			return fmt.Errorf("public base URL is not supported for %s storage", c.Storage.Type)
		}
	}
}

// WithMetadataFile sets the local visibility fallback file. Empty disables it.
func WithMetadataFile(path string) Option {
	return func(c *ServerConfig) error {
		c.MetadataFile = path
		return nil
	}
}

// WithCacheTTL sets how long zone listings are cached
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *ServerConfig) error {
		if ttl <= 0 {
			return fmt.Errorf("cache TTL must be positive, got: %s", ttl)
		}
		c.CacheTTL = ttl
		return nil
	}
}

// WithMaxUploadBytes sets the per-file upload cap
func WithMaxUploadBytes(limit int64) Option {
	return func(c *ServerConfig) error {
		if limit <= 0 {
			return fmt.Errorf("upload limit must be positive, got: %d", limit)
		}
		c.MaxUploadBytes = limit
		return nil
	}
}

// WithImageOptions sets the normalizer bounding box and JPEG quality
func WithImageOptions(maxDimension uint, quality int) Option {
	return func(c *ServerConfig) error {
		if maxDimension == 0 {
			return fmt.Errorf("max dimension must be positive")
		}
		if quality < 1 || quality > 100 {
			return fmt.Errorf("JPEG quality must be between 1 and 100, got: %d", quality)
		}
		c.MaxDimension = maxDimension
		c.JPEGQuality = quality
		return nil
	}
}

// WithPasswords sets the admin and premium login passwords
func WithPasswords(admin, premium string) Option {
	return func(c *ServerConfig) error {
		if admin == "" {
			return fmt.Errorf("admin password cannot be empty")
		}
		c.AdminPassword = admin
		c.PremiumPassword = premium
		return nil
	}
}

// WithSession sets the session signing secret and lifetime
func WithSession(secret string, ttl time.Duration) Option {
	return func(c *ServerConfig) error {
		if secret == "" {
			return fmt.Errorf("session secret cannot be empty")
		}
		c.SessionSecret = secret
		if ttl > 0 {
			c.SessionTTL = ttl
		}
		return nil
	}
}

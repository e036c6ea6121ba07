package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/tendant/simple-menu/migrations"
	"github.com/tendant/simple-menu/pkg/simplemenu"
	"github.com/tendant/simple-menu/pkg/simplemenu/objectkey"
	fsstorage "github.com/tendant/simple-menu/pkg/simplemenu/storage/fs"
	memorystorage "github.com/tendant/simple-menu/pkg/simplemenu/storage/memory"
	miniostorage "github.com/tendant/simple-menu/pkg/simplemenu/storage/minio"
	s3storage "github.com/tendant/simple-menu/pkg/simplemenu/storage/s3"
	"github.com/tendant/simple-menu/pkg/simplemenu/visibility"
)

// Development-only credentials. Validate rejects them in production.
const (
	devAdminPassword = "1234"
	devSessionSecret = "mysecretkey"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		DatabaseType: "memory",
		DBSchema:     "public",
		Storage: StorageBackendConfig{
			Type:   "memory",
			Config: map[string]interface{}{},
		},
		MetadataFile:   "data/menu_settings.json",
		CacheTTL:       simplemenu.DefaultCacheTTL,
		MaxUploadBytes: simplemenu.DefaultMaxUploadBytes,
		MaxDimension:   simplemenu.DefaultMaxDimension,
		JPEGQuality:    simplemenu.DefaultJPEGQuality,
		AdminPassword:  devAdminPassword,
		SessionSecret:  devSessionSecret,
		SessionTTL:     24 * time.Hour,
	}
}

// ServerConfig represents server configuration for the simple-menu service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration for the optional visibility mirror
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string

	// Storage configuration
	Storage StorageBackendConfig

	// Menu options
	MetadataFile   string // local visibility fallback file, empty disables it
	CacheTTL       time.Duration
	MaxUploadBytes int64
	MaxDimension   uint
	JPEGQuality    int

	// Auth
	AdminPassword   string
	PremiumPassword string // empty disables premium logins
	SessionSecret   string
	SessionTTL      time.Duration
}

// StorageBackendConfig represents configuration for the object store
type StorageBackendConfig struct {
	Type   string // "memory", "fs", "s3", "minio"
	Config map[string]interface{}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch c.Storage.Type {
	case "memory", "fs", "s3", "minio":
	default:
		return fmt.Errorf("unsupported storage backend type: %s", c.Storage.Type)
	}

	if c.CacheTTL <= 0 {
		return errors.New("cache_ttl must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}
	if c.MaxDimension == 0 {
		return errors.New("max_dimension must be positive")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return errors.New("jpeg_quality must be between 1 and 100")
	}

	if c.AdminPassword == "" {
		return errors.New("admin_password is required")
	}
	if c.SessionSecret == "" {
		return errors.New("session_secret is required")
	}
	if c.PremiumPassword != "" && c.PremiumPassword == c.AdminPassword {
		return errors.New("premium_password must differ from admin_password")
	}

	if c.Environment == "production" {
		if c.AdminPassword == devAdminPassword {
			return errors.New("admin_password must be set in production")
		}
		if c.SessionSecret == devSessionSecret {
			return errors.New("session_secret must be set in production")
		}
	}

	return nil
}

// maxBatchFiles bounds how many full-size files one request body may carry.
const maxBatchFiles = 20

// MaxRequestBytes returns the request body cap for the HTTP layer.
func (c *ServerConfig) MaxRequestBytes() int64 {
	return c.MaxUploadBytes*maxBatchFiles + 1<<20
}

// MediaPath returns the route local backends expect their images under, or
// "" when the backend serves images itself.
func (c *ServerConfig) MediaPath() string {
	switch c.Storage.Type {
	case "memory", "fs":
		prefix := strings.TrimSuffix(getString(c.Storage.Config, "url_prefix", "/media"), "/")
		if strings.HasPrefix(prefix, "/") {
			return prefix
		}
	}
	return ""
}

// BuildService creates a Service instance from the server configuration.
// The returned cleanup function releases the database pool, if any.
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger) (simplemenu.Service, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleanup := func() {}

	store, err := c.buildStorageBackend()
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to build storage backend %s: %w", c.Storage.Type, err)
	}

	visOpts := []visibility.Option{
		visibility.WithLogger(logger),
		visibility.WithRemote(visibility.NewSidecarPersister(store, objectkey.SidecarKey)),
	}

	if c.DatabaseType == "postgres" {
		pool, err := c.buildPool(ctx)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = pool.Close
		if err := migrate(pool); err != nil {
			pool.Close()
			return nil, func() {}, err
		}
		visOpts = append(visOpts, visibility.WithRemote(visibility.NewPostgresPersister(pool)))
	}

	if c.MetadataFile != "" {
		visOpts = append(visOpts, visibility.WithLocal(visibility.NewFilePersister(c.MetadataFile)))
	}

	flags := visibility.New(visOpts...)
	source := flags.Load(ctx)
	logger.Info("Visibility settings ready", "source", source, "items", len(flags.All()))

	svc, err := simplemenu.New(
		simplemenu.WithBlobStore(store),
		simplemenu.WithVisibilityStore(flags),
		simplemenu.WithNormalizer(simplemenu.Normalizer{MaxDimension: c.MaxDimension, Quality: c.JPEGQuality}),
		simplemenu.WithMaxUploadBytes(c.MaxUploadBytes),
		simplemenu.WithCacheTTL(c.CacheTTL),
		simplemenu.WithLogger(logger),
	)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return svc, cleanup, nil
}

func (c *ServerConfig) buildPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	// Optionally set search_path for the connection
	schema := c.DBSchema
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if schema == "" {
			return nil
		}
		_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
		return err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

func migrate(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) { _ = db.Close() }(db)
	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// PingPostgres verifies connectivity to Postgres.
func PingPostgres(ctx context.Context, databaseURL string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// buildStorageBackend creates a BlobStore based on the backend configuration
func (c *ServerConfig) buildStorageBackend() (simplemenu.BlobStore, error) {
	config := c.Storage
	switch config.Type {
	case "memory":
		return memorystorage.New(
			memorystorage.WithURLPrefix(getString(config.Config, "url_prefix", "/media")),
		), nil

	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   getString(config.Config, "base_dir", "./data/storage"),
			URLPrefix: getString(config.Config, "url_prefix", "/media"),
		})

	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 getString(config.Config, "region", "us-east-1"),
			Bucket:                 getString(config.Config, "bucket", ""),
			AccessKeyID:            getString(config.Config, "access_key_id", ""),
			SecretAccessKey:        getString(config.Config, "secret_access_key", ""),
			Endpoint:               getString(config.Config, "endpoint", ""),
			UsePathStyle:           getBool(config.Config, "use_path_style", false),
			PresignDuration:        getInt(config.Config, "presign_duration", 3600),
			PublicBaseURL:          getString(config.Config, "public_base_url", ""),
			EnableSSE:              getBool(config.Config, "enable_sse", false),
			SSEAlgorithm:           getString(config.Config, "sse_algorithm", "AES256"),
			SSEKMSKeyID:            getString(config.Config, "sse_kms_key_id", ""),
			CreateBucketIfNotExist: getBool(config.Config, "create_bucket_if_not_exist", false),
		})

	case "minio":
		return miniostorage.New(miniostorage.Config{
			Endpoint:               getString(config.Config, "endpoint", ""),
			AccessKeyID:            getString(config.Config, "access_key_id", ""),
			SecretAccessKey:        getString(config.Config, "secret_access_key", ""),
			Bucket:                 getString(config.Config, "bucket", ""),
			Region:                 getString(config.Config, "region", "us-east-1"),
			UseSSL:                 getBool(config.Config, "use_ssl", true),
			PublicBaseURL:          getString(config.Config, "public_base_url", ""),
			PresignDuration:        time.Duration(getInt(config.Config, "presign_duration", 3600)) * time.Second,
			CreateBucketIfNotExist: getBool(config.Config, "create_bucket_if_not_exist", false),
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", config.Type)
	}
}

func getString(config map[string]interface{}, key string, defaultValue string) string {
	if value, exists := config[key]; exists {
		if str, ok := value.(string); ok && str != "" {
			return str
		}
	}
	return defaultValue
}

func getBool(config map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := config[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
		if str, ok := value.(string); ok {
			if b, err := strconv.ParseBool(str); err == nil {
				return b
			}
		}
	}
	return defaultValue
}

func getInt(config map[string]interface{}, key string, defaultValue int) int {
	if value, exists := config[key]; exists {
		if i, ok := value.(int); ok {
			return i
		}
		if str, ok := value.(string); ok {
			if i, err := strconv.Atoi(str); err == nil {
				return i
			}
		}
		if f, ok := value.(float64); ok {
			return int(f)
		}
	}
	return defaultValue
}

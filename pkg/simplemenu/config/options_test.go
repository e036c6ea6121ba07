package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("expected memory storage, got: %s", cfg.Storage.Type)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("expected 5m cache TTL, got: %s", cfg.CacheTTL)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Errorf("expected 10 MiB upload cap, got: %d", cfg.MaxUploadBytes)
	}
	if cfg.MaxDimension != 2048 || cfg.JPEGQuality != 85 {
		t.Errorf("unexpected image options: %d q=%d", cfg.MaxDimension, cfg.JPEGQuality)
	}
	if cfg.MetadataFile != "data/menu_settings.json" {
		t.Errorf("unexpected metadata file: %s", cfg.MetadataFile)
	}
}

func TestWithPort(t *testing.T) {
	cfg, err := Load(WithPort("9090"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got: %s", cfg.Port)
	}
}

func TestWithPortEmpty(t *testing.T) {
	_, err := Load(WithPort(""))
	if err == nil {
		t.Error("expected error for empty port, got nil")
	}
}

func TestProductionRequiresSecrets(t *testing.T) {
	if _, err := Load(WithEnvironment("production")); err == nil {
		t.Fatal("expected development credentials to be rejected in production")
	}

	cfg, err := Load(
		WithEnvironment("production"),
		WithPasswords("s3cret-admin", "s3cret-premium"),
		WithSession("0123456789abcdef", time.Hour),
	)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Environment != "production" {
		t.Errorf("expected environment production, got: %s", cfg.Environment)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("expected session TTL 1h, got: %s", cfg.SessionTTL)
	}
}

func TestWithPasswords_SamePassword(t *testing.T) {
	if _, err := Load(WithPasswords("same", "same")); err == nil {
		t.Error("expected error when premium and admin passwords match")
	}
}

func TestWithDatabase(t *testing.T) {
	tests := []struct {
		name      string
		dbType    string
		url       string
		wantError bool
	}{
		{"memory valid", "memory", "", false},
		{"postgres valid", "postgres", "postgresql://localhost/test", false},
		{"postgres missing url", "postgres", "", true},
		{"invalid type", "mysql", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(WithDatabase(tt.dbType, tt.url))
			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if cfg.DatabaseType != tt.dbType {
				t.Errorf("expected database type %s, got: %s", tt.dbType, cfg.DatabaseType)
			}
			if cfg.DatabaseURL != tt.url {
				t.Errorf("expected database URL %s, got: %s", tt.url, cfg.DatabaseURL)
			}
		})
	}
}

func TestWithFilesystemStorage(t *testing.T) {
	cfg, err := Load(WithFilesystemStorage("./data", "/images"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Storage.Type != "fs" {
		t.Fatalf("expected fs storage, got: %s", cfg.Storage.Type)
	}
	if cfg.Storage.Config["base_dir"] != "./data" {
		t.Errorf("unexpected base_dir: %v", cfg.Storage.Config["base_dir"])
	}
	if cfg.Storage.Config["url_prefix"] != "/images" {
		t.Errorf("unexpected url_prefix: %v", cfg.Storage.Config["url_prefix"])
	}

	if _, err := Load(WithFilesystemStorage("", "")); err == nil {
		t.Error("expected error for empty base dir")
	}
}

func TestWithS3Storage(t *testing.T) {
	cfg, err := Load(
		WithS3Storage("menu-bucket", ""),
		WithS3Credentials("key", "secret"),
		WithS3Endpoint("http://localhost:4566", true),
		WithPublicBaseURL("https://cdn.example.com"),
	)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	want := map[string]interface{}{
		"bucket":            "menu-bucket",
		"region":            "us-east-1",
		"access_key_id":     "key",
		"secret_access_key": "secret",
		"endpoint":          "http://localhost:4566",
		"use_path_style":    true,
		"public_base_url":   "https://cdn.example.com",
	}
	for k, v := range want {
		if cfg.Storage.Config[k] != v {
			t.Errorf("expected %s=%v, got: %v", k, v, cfg.Storage.Config[k])
		}
	}
}

func TestWithS3CredentialsRequiresS3(t *testing.T) {
	if _, err := Load(WithS3Credentials("key", "secret")); err == nil {
		t.Error("expected error without S3 storage")
	}
	if _, err := Load(WithPublicBaseURL("https://cdn.example.com")); err == nil {
		t.Error("expected error for public URL on memory storage")
	}
}

func TestWithMinioStorage(t *testing.T) {
	cfg, err := Load(WithMinioStorage("localhost:9000", "menu", "minioadmin", "minioadmin", false))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Storage.Type != "minio" {
		t.Fatalf("expected minio storage, got: %s", cfg.Storage.Type)
	}
	if cfg.Storage.Config["use_ssl"] != false {
		t.Errorf("expected use_ssl=false, got: %v", cfg.Storage.Config["use_ssl"])
	}
}

func TestWithImageOptions(t *testing.T) {
	cfg, err := Load(WithImageOptions(1024, 70), WithMaxUploadBytes(1<<20), WithCacheTTL(time.Minute))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.MaxDimension != 1024 || cfg.JPEGQuality != 70 {
		t.Errorf("unexpected image options: %d q=%d", cfg.MaxDimension, cfg.JPEGQuality)
	}
	if cfg.MaxUploadBytes != 1<<20 || cfg.CacheTTL != time.Minute {
		t.Errorf("unexpected limits: %d %s", cfg.MaxUploadBytes, cfg.CacheTTL)
	}

	for _, opt := range []Option{WithImageOptions(0, 85), WithImageOptions(2048, 101), WithMaxUploadBytes(0), WithCacheTTL(0)} {
		if _, err := Load(opt); err == nil {
			t.Error("expected error for invalid option")
		}
	}
}

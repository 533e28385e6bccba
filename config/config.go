// Package config reads the service settings from the environment, after
// loading a .env file when one is present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"photo-mapper/storage"
)

const envPrefix = "PHOTOMAP"

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Address  string
	LogLevel string

	MongoURI      string
	MongoDatabase string

	Storage      string
	UploadDir    string
	S3           storage.S3Config
	MaxUploadMiB int64

	JWTSecret      string
	TokenTTL       time.Duration
	ThumbnailWidth int
	RequestTimeout time.Duration
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMiB << 20
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("address", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_database", "photo_mapper")
	v.SetDefault("storage", StorageLocal)
	v.SetDefault("upload_dir", "./.uploads")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_access_key", "")
	v.SetDefault("s3_secret_key", "")
	v.SetDefault("s3_use_ssl", true)
	v.SetDefault("s3_prefix", "")
	v.SetDefault("max_upload_mib", 200)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("thumbnail_width", 320)
	v.SetDefault("request_timeout", time.Minute)
}

// Load reads PHOTOMAP_* variables. envFiles are loaded first without
// overriding variables already set; missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Address:       v.GetString("address"),
		LogLevel:      strings.ToLower(v.GetString("log_level")),
		MongoURI:      v.GetString("mongo_uri"),
		MongoDatabase: v.GetString("mongo_database"),
		Storage:       strings.ToLower(v.GetString("storage")),
		UploadDir:     v.GetString("upload_dir"),
		S3: storage.S3Config{
			Endpoint:  v.GetString("s3_endpoint"),
			Region:    v.GetString("s3_region"),
			Bucket:    v.GetString("s3_bucket"),
			AccessKey: v.GetString("s3_access_key"),
			SecretKey: v.GetString("s3_secret_key"),
			UseSSL:    v.GetBool("s3_use_ssl"),
			Prefix:    v.GetString("s3_prefix"),
		},
		MaxUploadMiB:   v.GetInt64("max_upload_mib"),
		JWTSecret:      v.GetString("jwt_secret"),
		TokenTTL:       v.GetDuration("token_ttl"),
		ThumbnailWidth: v.GetInt("thumbnail_width"),
		RequestTimeout: v.GetDuration("request_timeout"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageLocal, StorageS3:
	default:
		return fmt.Errorf("%s_STORAGE must be %q or %q, got %q", envPrefix, StorageLocal, StorageS3, c.Storage)
	}
	if c.MaxUploadMiB <= 0 {
		return fmt.Errorf("%s_MAX_UPLOAD_MIB must be positive", envPrefix)
	}
	if c.ThumbnailWidth <= 0 {
		return fmt.Errorf("%s_THUMBNAIL_WIDTH must be positive", envPrefix)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%s_TOKEN_TTL must be positive", envPrefix)
	}
	return nil
}

var ErrMissingSecret = errors.New(envPrefix + "_JWT_SECRET is required")

// RequireSecret is checked by commands that issue or verify tokens.
func (c *Config) RequireSecret() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

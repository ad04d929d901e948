package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "0.0.0.0"
  allowed_origins: ["https://app.example.com"]

database:
  url: "postgres://localhost/emails?sslmode=disable"
  max_open_conns: 10

redis:
  url: "redis://localhost:6379/0"
  cache_ttl_seconds: 30

aws:
  region: "eu-west-1"
  profile: "dev"

export:
  s3_bucket: "lists"
  prefix: "exports/suppressions"
  lock_ttl_seconds: 60

dynamo:
  table: "address-directory"

logging:
  level: "debug"
  redact_pii: false

suppression:
  max_scrub_batch: 500
  preload_orgs: ["org-1", "org-2"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, "postgres://localhost/emails?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)

	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL())

	assert.Equal(t, "eu-west-1", cfg.AWS.Region)
	assert.True(t, cfg.Export.Enabled())
	assert.Equal(t, "eu-west-1", cfg.Export.S3Region)
	assert.Equal(t, "exports/suppressions", cfg.Export.Prefix)
	assert.Equal(t, time.Minute, cfg.Export.LockTTL())

	assert.Equal(t, "address-directory", cfg.Dynamo.Table)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Redact())

	assert.Equal(t, 500, cfg.Suppression.MaxScrubBatch)
	assert.Equal(t, []string{"org-1", "org-2"}, cfg.Suppression.PreloadOrgs)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 0\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CacheTTL())
	assert.Equal(t, "us-west-2", cfg.AWS.Region)
	assert.Equal(t, "us-west-2", cfg.Export.S3Region)
	assert.Equal(t, "suppressions", cfg.Export.Prefix)
	assert.Equal(t, 5*time.Minute, cfg.Export.LockTTL())
	assert.False(t, cfg.Export.Enabled())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Redact())
	assert.Equal(t, 10000, cfg.Suppression.MaxScrubBatch)
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "postgres://file"
dynamo:
  table: "file-table"
`)

	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("REDIS_URL", "redis://env:6379")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("EXPORT_S3_BUCKET", "env-bucket")
	t.Setenv("EXPORT_S3_REGION", "ap-south-1")
	t.Setenv("DYNAMO_TABLE", "env-table")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env", cfg.Database.URL)
	assert.Equal(t, "redis://env:6379", cfg.Redis.URL)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "env-bucket", cfg.Export.S3Bucket)
	assert.Equal(t, "ap-south-1", cfg.Export.S3Region)
	assert.Equal(t, "env-table", cfg.Dynamo.Table)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFromEnv_BadPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	_, err := LoadFromEnv(writeConfig(t, "{}\n"))
	assert.ErrorContains(t, err, "SERVER_PORT")
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unterminated\n"))
	assert.Error(t, err)
}

func TestGetProfile(t *testing.T) {
	t.Setenv("ECS_CONTAINER_METADATA_URI", "")
	t.Setenv("AWS_EXECUTION_ENV", "")
	c := AWSConfig{Profile: "dev"}

	t.Setenv("AWS_PROFILE_OVERRIDE", "")
	assert.Equal(t, "dev", c.GetProfile())

	t.Setenv("AWS_PROFILE_OVERRIDE", "iam")
	assert.Equal(t, "", c.GetProfile())

	t.Setenv("AWS_PROFILE_OVERRIDE", "prod")
	assert.Equal(t, "prod", c.GetProfile())
}

func TestServerAddr(t *testing.T) {
	t.Setenv("ECS_CONTAINER_METADATA_URI", "")
	t.Setenv("AWS_EXECUTION_ENV", "")
	t.Setenv("SERVER_HOST", "")
	assert.Equal(t, "localhost:8080", ServerConfig{Host: "localhost", Port: 8080}.Addr())
}

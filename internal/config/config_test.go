package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_BUCKET", "uploads")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, "uploads", cfg.Storage.Bucket)
	assert.True(t, cfg.Storage.UseSSL)
	assert.Equal(t, "main-folder", cfg.Upload.KeyPrefix)
	assert.Equal(t, time.Hour, cfg.Upload.PresignExpiry)
	assert.Equal(t, 16, cfg.Upload.PresignConcurrency)
	assert.Empty(t, cfg.Auth.Issuer)
}

func TestLoad_SharedBucketAlias(t *testing.T) {
	t.Setenv("SHARED_BUCKET", "legacy-bucket")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "legacy-bucket", cfg.Storage.Bucket)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_BUCKET", "uploads")
	t.Setenv("UPLOAD_KEY_PREFIX", "tenant-a")
	t.Setenv("UPLOAD_PRESIGN_EXPIRY", "15m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", cfg.Upload.KeyPrefix)
	assert.Equal(t, 15*time.Minute, cfg.Upload.PresignExpiry)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9000"
storage:
  backend: minio
  bucket: media
  endpoint: http://localhost:9000
  access_key_id: minio
  secret_access_key: minio123
upload:
  key_prefix: ""
  presign_concurrency: 4
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "minio", cfg.Storage.Backend)
	assert.Equal(t, "http://localhost:9000", cfg.Storage.Endpoint)
	assert.Equal(t, "", cfg.Upload.KeyPrefix)
	assert.Equal(t, 4, cfg.Upload.PresignConcurrency)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing bucket",
			env:     map[string]string{},
			wantErr: "Config.Storage.Bucket",
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"STORAGE_BUCKET": "b", "STORAGE_BACKEND": "gcs"},
			wantErr: "Config.Storage.Backend",
		},
		{
			name:    "minio needs endpoint",
			env:     map[string]string{"STORAGE_BUCKET": "b", "STORAGE_BACKEND": "minio"},
			wantErr: "Config.Storage.Endpoint",
		},
		{
			name:    "half a key pair",
			env:     map[string]string{"STORAGE_BUCKET": "b", "STORAGE_ACCESS_KEY_ID": "AKIA"},
			wantErr: "Config.Storage.SecretAccessKey",
		},
		{
			name:    "zero concurrency",
			env:     map[string]string{"STORAGE_BUCKET": "b", "UPLOAD_PRESIGN_CONCURRENCY": "0"},
			wantErr: "Config.Upload.PresignConcurrency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORAGE_BUCKET", "")
			t.Setenv("SHARED_BUCKET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoadAuth(t *testing.T) {
	t.Setenv("STORAGE_BUCKET", "")
	t.Setenv("SHARED_BUCKET", "")

	t.Setenv("AUTH_ISSUER", "")
	_, err := LoadAuth("")
	assert.ErrorContains(t, err, "auth.issuer is required")

	t.Setenv("AUTH_ISSUER", "not a url")
	_, err = LoadAuth("")
	assert.Error(t, err)

	t.Setenv("AUTH_ISSUER", "https://cognito-idp.eu-central-1.amazonaws.com/eu-central-1_abc")
	t.Setenv("AUTH_REQUIRE_TENANT", "true")
	cfg, err := LoadAuth("")
	require.NoError(t, err)
	assert.Equal(t, "https://cognito-idp.eu-central-1.amazonaws.com/eu-central-1_abc", cfg.Issuer)
	assert.True(t, cfg.RequireTenant)
	assert.Empty(t, cfg.ClientID)
}

// Package config loads the service configuration from defaults, an optional
// config file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the top-level configuration. It is read once at startup.
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"          validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"  validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// StorageConfig selects and configures the object-storage backend.
type StorageConfig struct {
	Backend         string `mapstructure:"backend"           validate:"oneof=s3 minio"`
	Bucket          string `mapstructure:"bucket"            validate:"required"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"          validate:"required_if=Backend minio"`
	AccessKeyID     string `mapstructure:"access_key_id"     validate:"required_with=SecretAccessKey"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required_with=AccessKeyID"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
	RoleARN         string `mapstructure:"role_arn"`
}

// UploadConfig tunes the upload orchestrator.
type UploadConfig struct {
	KeyPrefix          string        `mapstructure:"key_prefix"`
	PresignExpiry      time.Duration `mapstructure:"presign_expiry"      validate:"gt=0,lte=168h"`
	PresignConcurrency int           `mapstructure:"presign_concurrency" validate:"gt=0"`
}

// AuthConfig enables bearer-token verification when Issuer is set.
type AuthConfig struct {
	Issuer        string `mapstructure:"issuer"         validate:"omitempty,url"`
	ClientID      string `mapstructure:"client_id"`
	RequireTenant bool   `mapstructure:"require_tenant"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 20*time.Second)
	v.SetDefault("http.write_timeout", 20*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("storage.backend", "s3")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.force_path_style", false)
	v.SetDefault("storage.role_arn", "")
	v.SetDefault("upload.key_prefix", "main-folder")
	v.SetDefault("upload.presign_expiry", time.Hour)
	v.SetDefault("upload.presign_concurrency", 16)
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.client_id", "")
	v.SetDefault("auth.require_tenant", false)
}

// Load reads configuration. path may be empty, in which case only defaults
// and environment variables are used. Environment variables use the key with
// dots replaced by underscores, e.g. STORAGE_BUCKET.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAuth reads configuration like Load but only validates the auth
// section, which must name an issuer. The standalone authorizer uses it.
func LoadAuth(path string) (*AuthConfig, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if cfg.Auth.Issuer == "" {
		return nil, errors.New("invalid config: auth.issuer is required")
	}
	if err := validator.New().Struct(cfg.Auth); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg.Auth, nil
}

func read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// SHARED_BUCKET is what earlier deployments set
	if err := v.BindEnv("storage.bucket", "STORAGE_BUCKET", "SHARED_BUCKET"); err != nil {
		return nil, fmt.Errorf("failed to bind bucket env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks field constraints and reports all failures together.
func (c *Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
}

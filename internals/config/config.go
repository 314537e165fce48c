package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/GyroTools/prms-connector-go/internals/credentials"
)

type Config struct {
	APIURL          string        `mapstructure:"PRMS_API_URL"`
	Timeout         time.Duration `mapstructure:"PRMS_TIMEOUT"`
	VerifyCert      bool          `mapstructure:"PRMS_VERIFY_CERT"`
	CredentialsDir  string        `mapstructure:"PRMS_CREDENTIALS_DIR"`
	DefaultDoctorID int           `mapstructure:"PRMS_DEFAULT_DOCTOR_ID"`
	Env             string        `mapstructure:"PRMS_ENV"`
	LogLevel        string        `mapstructure:"PRMS_LOG_LEVEL"`
	LogFile         string        `mapstructure:"PRMS_LOG_FILE"`
	MockAddr        string        `mapstructure:"PRMS_MOCK_ADDR"`
	MockUsername    string        `mapstructure:"PRMS_MOCK_USERNAME"`
	MockPassword    string        `mapstructure:"PRMS_MOCK_PASSWORD"`
	MockSigningKey  string        `mapstructure:"PRMS_MOCK_SIGNING_KEY"`
}

var keys = []string{
	"PRMS_API_URL",
	"PRMS_TIMEOUT",
	"PRMS_VERIFY_CERT",
	"PRMS_CREDENTIALS_DIR",
	"PRMS_DEFAULT_DOCTOR_ID",
	"PRMS_ENV",
	"PRMS_LOG_LEVEL",
	"PRMS_LOG_FILE",
	"PRMS_MOCK_ADDR",
	"PRMS_MOCK_USERNAME",
	"PRMS_MOCK_PASSWORD",
	"PRMS_MOCK_SIGNING_KEY",
}

// Load reads the configuration from the environment and an optional .env
// file in the working directory.
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PRMS_API_URL", "http://localhost:5001/api")
	v.SetDefault("PRMS_TIMEOUT", "10s")
	v.SetDefault("PRMS_VERIFY_CERT", true)
	v.SetDefault("PRMS_DEFAULT_DOCTOR_ID", 1)
	v.SetDefault("PRMS_ENV", "development")
	v.SetDefault("PRMS_LOG_LEVEL", "info")
	v.SetDefault("PRMS_MOCK_ADDR", "localhost:5001")
	v.SetDefault("PRMS_MOCK_USERNAME", "admin")
	v.SetDefault("PRMS_MOCK_PASSWORD", "admin")

	for _, key := range keys {
		v.BindEnv(key)
	}

	// a missing .env file is fine, a broken one is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CredentialsDir == "" {
		dir, err := credentials.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolve credentials directory: %w", err)
		}
		cfg.CredentialsDir = dir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return strings.EqualFold(c.Env, "development")
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("PRMS_API_URL is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("PRMS_TIMEOUT must be positive, got %s", c.Timeout)
	}
	if c.DefaultDoctorID <= 0 {
		return fmt.Errorf("PRMS_DEFAULT_DOCTOR_ID must be positive, got %d", c.DefaultDoctorID)
	}
	return nil
}

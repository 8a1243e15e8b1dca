// Package config loads server configuration from defaults, an optional YAML
// file and IMAGE_STUDIO_* environment variables, and builds the logger.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. IMAGE_STUDIO_LOG_LEVEL.
const EnvPrefix = "IMAGE_STUDIO"

// Config holds every setting of the studio server.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	LoadTimeout      time.Duration `mapstructure:"load_timeout"`
	PreviewMaxWidth  int           `mapstructure:"preview_max_width"`
	PreviewMaxHeight int           `mapstructure:"preview_max_height"`

	// AuthToken is sent on the authenticated download fallback.
	AuthToken        string `mapstructure:"auth_token"`
	DownloadEndpoint string `mapstructure:"download_endpoint"`

	StorageDir    string `mapstructure:"storage_dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	DatabasePath  string `mapstructure:"database_path"`

	// InpaintEndpoint receives mask commits. Empty disables inpainting jobs;
	// masks are still uploaded.
	InpaintEndpoint string `mapstructure:"inpaint_endpoint"`

	HTTPAddr    string        `mapstructure:"http_addr"`
	HTTPToken   string        `mapstructure:"http_token"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("load_timeout", 12*time.Second)
	v.SetDefault("preview_max_width", 700)
	v.SetDefault("preview_max_height", 450)
	v.SetDefault("auth_token", "")
	v.SetDefault("download_endpoint", "")
	v.SetDefault("storage_dir", "./studio-data/uploads")
	v.SetDefault("public_base_url", "")
	v.SetDefault("database_path", "./studio-data/versions.db")
	v.SetDefault("inpaint_endpoint", "")
	v.SetDefault("http_addr", "127.0.0.1:8088")
	v.SetDefault("http_token", "")
	v.SetDefault("http_timeout", 60*time.Second)
}

// Load reads configuration. path may be empty, in which case only defaults
// and the environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.LoadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("load_timeout must be positive, got %s", c.LoadTimeout))
	}
	if c.PreviewMaxWidth <= 0 || c.PreviewMaxHeight <= 0 {
		errs = append(errs, fmt.Errorf("preview cap must be positive, got %dx%d", c.PreviewMaxWidth, c.PreviewMaxHeight))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger. Output goes to w (stderr when nil):
// stdout carries the MCP protocol and must stay clean.
func (c *Config) NewLogger(w io.Writer) *logrus.Logger {
	if w == nil {
		w = os.Stderr
	}
	log := logrus.New()
	log.SetOutput(w)
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
	return log
}

// Package config loads process configuration: defaults, then an optional
// YAML file, then a .env file, then SHEETCORE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/writer"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SHEETCORE_"

// ErrInvalidConfig indicates a value that cannot be parsed or fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the process configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Codec   CodecConfig   `yaml:"codec"`
	Condfmt CondfmtConfig `yaml:"condfmt"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Addr           string `yaml:"addr" validate:"required"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" validate:"gt=0"`
}

// CodecConfig configures decoding and encoding.
type CodecConfig struct {
	MetaSheetName string `yaml:"meta_sheet_name" validate:"required,max=31,excludesall=:\\/?*[]"`
	AutofitCap    int    `yaml:"autofit_cap" validate:"gte=10,lte=255"`
}

// CondfmtConfig configures overlay recomputation.
type CondfmtConfig struct {
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{Addr: ":8080", MaxUploadBytes: 32 << 20},
		Codec: CodecConfig{
			MetaSheetName: models.MetaSheetName,
			AutofitCap:    writer.DefaultAutofitCap,
		},
		Condfmt: CondfmtConfig{Debounce: 150 * time.Millisecond},
	}
}

// Load builds the configuration. file and envFile may be empty; a missing
// envFile is ignored, a missing file is not.
func Load(file, envFile string) (Config, error) {
	cfg := Default()

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, file, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s fails %q", ErrInvalidConfig, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	var errs []error
	integer := func(name string, set func(int64)) {
		v, ok := lookup(name)
		if !ok {
			return
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s%s=%q", ErrInvalidConfig, EnvPrefix, name, v))
			return
		}
		set(n)
	}

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("SERVER_ADDR", &cfg.Server.Addr)
	integer("SERVER_MAX_UPLOAD_BYTES", func(n int64) { cfg.Server.MaxUploadBytes = n })
	str("CODEC_META_SHEET_NAME", &cfg.Codec.MetaSheetName)
	integer("CODEC_AUTOFIT_CAP", func(n int64) { cfg.Codec.AutofitCap = int(n) })
	if v, ok := lookup("CONDFMT_DEBOUNCE"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %sCONDFMT_DEBOUNCE=%q", ErrInvalidConfig, EnvPrefix, v))
		} else {
			cfg.Condfmt.Debounce = d
		}
	}
	return errors.Join(errs...)
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	return v, ok && v != ""
}

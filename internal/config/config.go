package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	watermark "github.com/gcslaoli/gemini-watermark-unblend"
)

// Config is the full configuration of the gwatermark binaries.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Assets AssetsConfig `mapstructure:"assets"`
	Engine EngineConfig `mapstructure:"engine"`
	Output OutputConfig `mapstructure:"output"`
	Server ServerConfig `mapstructure:"server"`
}

// LogConfig selects the logger flavor: "release" or anything else for debug.
type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

// AssetsConfig controls where reference overlays are looked up. Dir is the
// root containing Assets/bg_<size>.png.
type AssetsConfig struct {
	Dir     string `mapstructure:"dir"`
	Bundled bool   `mapstructure:"bundled"`
}

// EngineConfig tunes the unblending engine. MaxPixels of 0 disables the
// input size limit.
type EngineConfig struct {
	Workers   int `mapstructure:"workers"`
	MaxPixels int `mapstructure:"max_pixels"`
}

// OutputConfig controls re-encoding of processed images.
type OutputConfig struct {
	JPEGQuality int `mapstructure:"jpeg_quality"`
}

// ServerConfig configures gwatermarkd. MaxUploadSize bounds the image part of
// an upload in bytes.
type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	Mode          string        `mapstructure:"mode"`
	MaxUploadSize int64         `mapstructure:"max_upload_size"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
}

// DefaultMaxPixels caps inputs at 100 megapixels.
const DefaultMaxPixels = 100_000_000

// EnvPrefix prefixes environment overrides, e.g. GWATERMARK_ASSETS_DIR.
const EnvPrefix = "GWATERMARK"

// Load reads configuration from a YAML file layered over defaults and
// environment variables. An empty path skips the file.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// New loads configPath. When the file cannot be used it returns the defaults
// together with the reason, so callers can decide whether to continue.
func New(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return Default(), err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.mode", "debug")

	v.SetDefault("assets.dir", ".")
	v.SetDefault("assets.bundled", true)

	v.SetDefault("engine.workers", 1)
	v.SetDefault("engine.max_pixels", DefaultMaxPixels)

	v.SetDefault("output.jpeg_quality", 95)

	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.max_upload_size", 32*1024*1024)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Mode: "debug"},
		Assets: AssetsConfig{
			Dir:     ".",
			Bundled: true,
		},
		Engine: EngineConfig{Workers: 1, MaxPixels: DefaultMaxPixels},
		Output: OutputConfig{JPEGQuality: 95},
		Server: ServerConfig{
			Port:          ":8080",
			Mode:          "debug",
			MaxUploadSize: 32 * 1024 * 1024,
			ReadTimeout:   30 * time.Second,
			WriteTimeout:  30 * time.Second,
		},
	}
}

// Sources lists the overlay sources in lookup order.
func (c AssetsConfig) Sources() []watermark.AssetSource {
	var sources []watermark.AssetSource
	if c.Bundled {
		sources = append(sources, watermark.BundledAssets())
	}
	dir := c.Dir
	if dir == "" {
		dir = "."
	}
	return append(sources, watermark.DirAssets(dir))
}

// EngineOptions translates the configuration into engine options.
func (c *Config) EngineOptions(log *zap.Logger) []watermark.Option {
	return []watermark.Option{
		watermark.WithLogger(log),
		watermark.WithAssetSources(c.Assets.Sources()...),
		watermark.WithWorkers(c.Engine.Workers),
		watermark.WithMaxPixels(c.Engine.MaxPixels),
		watermark.WithJPEGQuality(c.Output.JPEGQuality),
	}
}

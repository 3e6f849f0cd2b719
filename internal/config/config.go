// Package config loads service configuration from an optional YAML file,
// environment variables, and defaults, in that ascending priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server Server `mapstructure:"server"`
	OpenAI OpenAI `mapstructure:"openai"`
	OCR    OCR    `mapstructure:"ocr"`
	Upload Upload `mapstructure:"upload"`
	Jobs   Jobs   `mapstructure:"jobs"`
	Logger Logger `mapstructure:"logger"`
}

// Server holds HTTP server configuration.
type Server struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// OpenAI holds the AI filler configuration.
type OpenAI struct {
	Enabled      bool    `mapstructure:"enabled"`
	APIKey       string  `mapstructure:"api_key"`
	Model        string  `mapstructure:"model"`
	Temperature  float32 `mapstructure:"temperature"`
	MaxTextChars int     `mapstructure:"max_text_chars"`
}

// OCR holds text-acquisition configuration.
type OCR struct {
	Enabled      bool `mapstructure:"enabled"`
	MaxPages     int  `mapstructure:"max_pages"`
	MinTextChars int  `mapstructure:"min_text_chars"`
}

// Upload holds attachment limits.
type Upload struct {
	MaxFiles  int `mapstructure:"max_files"`
	MaxFileMB int `mapstructure:"max_file_mb"`
}

// Jobs holds job-registry configuration.
type Jobs struct {
	TTL             time.Duration `mapstructure:"ttl"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	AIOnlyFillEmpty bool          `mapstructure:"ai_only_fill_empty"`
}

// Logger holds logger configuration.
type Logger struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration. The config file is optional; environment
// variables and defaults cover a file-less deployment.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	// OpenAI defaults
	v.SetDefault("openai.enabled", false)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0)
	v.SetDefault("openai.max_text_chars", 22000)

	// OCR defaults
	v.SetDefault("ocr.enabled", false)
	v.SetDefault("ocr.max_pages", 20)
	v.SetDefault("ocr.min_text_chars", 80)

	// Upload defaults
	v.SetDefault("upload.max_files", 500)
	v.SetDefault("upload.max_file_mb", 25)

	// Job defaults
	v.SetDefault("jobs.ttl", 2*time.Hour)
	v.SetDefault("jobs.sweep_interval", 10*time.Minute)
	v.SetDefault("jobs.ai_only_fill_empty", false)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("openai.enabled", "ENABLE_LLM")
	v.BindEnv("openai.model", "LLM_MODEL")
	v.BindEnv("ocr.enabled", "ENABLE_OCR")
	v.BindEnv("ocr.max_pages", "OCR_MAX_PAGES")
	v.BindEnv("ocr.min_text_chars", "OCR_MIN_TEXT_CHARS")
	v.BindEnv("upload.max_files", "MAX_UPLOAD_FILES")
	v.BindEnv("upload.max_file_mb", "MAX_FILE_MB")
	v.BindEnv("server.cors_origins", "CORS_ORIGINS")
	v.BindEnv("jobs.ai_only_fill_empty", "AI_ONLY_FILL_EMPTY")
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.OpenAI.Enabled && c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required when openai.enabled is true")
	}
	if c.Upload.MaxFiles <= 0 {
		return fmt.Errorf("upload.max_files must be positive")
	}
	if c.Upload.MaxFileMB <= 0 {
		return fmt.Errorf("upload.max_file_mb must be positive")
	}
	return nil
}

// MaxFileBytes converts the per-file limit to bytes.
func (u Upload) MaxFileBytes() int64 {
	return int64(u.MaxFileMB) << 20
}

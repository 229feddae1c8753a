// Package config loads runtime settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/msomdec/strikkeguide/internal/acquire"
	"github.com/msomdec/strikkeguide/internal/extract"
	"github.com/msomdec/strikkeguide/internal/llm"
	"github.com/msomdec/strikkeguide/internal/service"
)

// MinJWTSecretLen is the shortest accepted HMAC-SHA256 signing secret.
const MinJWTSecretLen = 32

// Config is the complete runtime configuration.
type Config struct {
	Port         string `yaml:"port"`
	DatabasePath string `yaml:"database_path"`
	CookieSecure bool   `yaml:"cookie_secure"`
	BcryptCost   int    `yaml:"bcrypt_cost"`
	// JWTSecret is only read from the environment.
	JWTSecret string `yaml:"-"`

	Import  ImportConfig  `yaml:"import"`
	Extract ExtractConfig `yaml:"extract"`
	OCR     OCRConfig     `yaml:"ocr"`
	LLM     LLMConfig     `yaml:"llm"`
}

// ImportConfig limits how often one user may import files.
type ImportConfig struct {
	// PerMinute is the sustained import rate per user.
	PerMinute float64 `yaml:"per_minute"`
	Burst     float64 `yaml:"burst"`
}

// ExtractConfig selects the extraction mode and the pattern vocabulary.
// Empty lists keep the built-in Norwegian vocabulary.
type ExtractConfig struct {
	Mode           service.ExtractMode `yaml:"mode"`
	Sections       []string            `yaml:"sections"`
	MetadataLabels []string            `yaml:"metadata_labels"`
	UnitNoise      []string            `yaml:"unit_noise"`
	LeadingText    extract.LeadingText `yaml:"leading_text"`
	MaxHeaderWords int                 `yaml:"max_header_words"`
}

// OCRConfig configures text acquisition.
type OCRConfig struct {
	Language      string        `yaml:"language"`
	Tesseract     string        `yaml:"tesseract"`
	Pdftoppm      string        `yaml:"pdftoppm"`
	HeicConverter string        `yaml:"heic_converter"`
	DPI           int           `yaml:"dpi"`
	MaxPages      int           `yaml:"max_pages"`
	Timeout       time.Duration `yaml:"timeout"`
}

// LLMConfig configures the optional remote model.
type LLMConfig struct {
	// APIKey is only read from the environment.
	APIKey  string        `yaml:"-"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:         "8080",
		DatabasePath: "strikkeguide.db",
		CookieSecure: true,
		BcryptCost:   12,
		Import:       ImportConfig{PerMinute: 6, Burst: 3},
		Extract: ExtractConfig{
			Mode:           service.ModeAuto,
			LeadingText:    extract.LeadingDrop,
			MaxHeaderWords: extract.DefaultOptions().MaxHeaderWords,
		},
		OCR: OCRConfig{Language: "nor", DPI: 300, Timeout: 60 * time.Second},
		LLM: LLMConfig{Model: "gpt-4o-mini", Timeout: 60 * time.Second},
	}
}

// Load reads the YAML file at path, when path is not empty, and applies the
// process environment on top.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("PORT", &c.Port)
	str("DATABASE_PATH", &c.DatabasePath)
	str("JWT_SECRET", &c.JWTSecret)
	if v := getenv("COOKIE_SECURE"); v != "" {
		c.CookieSecure = v != "false"
	}
	if v := getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		c.BcryptCost = n
	}

	str("OPENAI_API_KEY", &c.LLM.APIKey)
	str("OPENAI_MODEL", &c.LLM.Model)
	str("OPENAI_BASE_URL", &c.LLM.BaseURL)
	if err := dur("LLM_TIMEOUT", &c.LLM.Timeout); err != nil {
		return err
	}
	if v := getenv("EXTRACT_MODE"); v != "" {
		c.Extract.Mode = service.ExtractMode(v)
	}

	str("OCR_LANG", &c.OCR.Language)
	str("TESSERACT", &c.OCR.Tesseract)
	str("PDFTOPPM", &c.OCR.Pdftoppm)
	str("HEIC_CONVERTER", &c.OCR.HeicConverter)
	return dur("ACQUIRE_TIMEOUT", &c.OCR.Timeout)
}

// Validate reports settings that cannot work. The JWT secret is checked
// separately by RequireJWTSecret since the command line tool does not need it.
func (c *Config) Validate() error {
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost must be between 4 and 14, got %d", c.BcryptCost)
	}
	if !c.Extract.Mode.Valid() {
		return fmt.Errorf("extract mode must be auto, deterministic or llm, got %q", c.Extract.Mode)
	}
	if c.Extract.LeadingText != "" && !c.Extract.LeadingText.Valid() {
		return fmt.Errorf("leading_text must be drop or fold, got %q", c.Extract.LeadingText)
	}
	if c.Import.PerMinute < 0 || c.Import.Burst < 0 {
		return errors.New("import rate limits must not be negative")
	}
	return nil
}

// RequireJWTSecret fails unless a signing secret of sufficient length is set.
func (c *Config) RequireJWTSecret() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if len(c.JWTSecret) < MinJWTSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d characters for HMAC-SHA256 security", MinJWTSecretLen)
	}
	return nil
}

// HasLLM reports whether a remote model can be used.
func (c *Config) HasLLM() bool {
	return c.LLM.APIKey != "" && c.LLM.Model != ""
}

// ExtractOptions merges the configured vocabulary into the defaults.
func (c *Config) ExtractOptions() extract.Options {
	opts := extract.DefaultOptions()
	if len(c.Extract.Sections) > 0 {
		opts.Sections = c.Extract.Sections
	}
	if len(c.Extract.MetadataLabels) > 0 {
		opts.MetadataLabels = c.Extract.MetadataLabels
	}
	if len(c.Extract.UnitNoise) > 0 {
		opts.UnitNoise = c.Extract.UnitNoise
	}
	if c.Extract.LeadingText != "" {
		opts.LeadingText = c.Extract.LeadingText
	}
	if c.Extract.MaxHeaderWords > 0 {
		opts.MaxHeaderWords = c.Extract.MaxHeaderWords
	}
	return opts
}

// AcquireConfig returns the text acquisition settings.
func (c *Config) AcquireConfig() acquire.Config {
	return acquire.Config{
		Pdftoppm:      c.OCR.Pdftoppm,
		Tesseract:     c.OCR.Tesseract,
		TesseractLang: c.OCR.Language,
		DPI:           c.OCR.DPI,
		MaxPages:      c.OCR.MaxPages,
		HeicConverter: c.OCR.HeicConverter,
		Timeout:       c.OCR.Timeout,
	}
}

// LLMSettings returns the OpenAI client settings.
func (c *Config) LLMSettings() llm.Settings {
	return llm.Settings{APIKey: c.LLM.APIKey, Model: c.LLM.Model, BaseURL: c.LLM.BaseURL}
}

// ImportLimiter returns the per-user import rate limiter, or nil when
// limiting is disabled.
func (c *Config) ImportLimiter() *service.TokenBucket {
	if c.Import.PerMinute <= 0 || c.Import.Burst <= 0 {
		return nil
	}
	return service.NewTokenBucket(c.Import.PerMinute/60, c.Import.Burst)
}

// NewExtractionService wires acquisition, the deterministic pipeline and,
// when an API key is configured, the remote model.
func (c *Config) NewExtractionService(logger *slog.Logger) (*service.ExtractionService, error) {
	acq := acquire.New(c.AcquireConfig(), logger)
	pipeline := extract.NewPipeline(c.ExtractOptions(), logger)

	var model service.TextExtractor
	if c.HasLLM() {
		client, err := llm.NewOpenAIClient(c.LLMSettings())
		if err != nil {
			return nil, fmt.Errorf("llm client: %w", err)
		}
		model = llm.NewExtractor(client, c.LLM.Timeout, logger)
	} else if c.Extract.Mode == service.ModeLLM {
		return nil, errors.New("extract mode llm requires OPENAI_API_KEY")
	}
	return service.NewExtractionService(acq, pipeline, model, c.Extract.Mode, logger), nil
}

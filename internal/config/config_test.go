package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/strikkeguide/internal/config"
	"github.com/msomdec/strikkeguide/internal/extract"
	"github.com/msomdec/strikkeguide/internal/service"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadWithEnv("", env(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "strikkeguide.db", cfg.DatabasePath)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, service.ModeAuto, cfg.Extract.Mode)
	assert.Equal(t, "nor", cfg.OCR.Language)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.False(t, cfg.HasLLM())
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
port: "9090"
bcrypt_cost: 4
cookie_secure: false
extract:
  mode: deterministic
  sections: [Oppskrift, Montering]
  leading_text: fold
  max_header_words: 5
ocr:
  language: nor+eng
  dpi: 200
  timeout: 30s
llm:
  model: gpt-4o
`)
	cfg, err := config.LoadWithEnv(path, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, service.ModeDeterministic, cfg.Extract.Mode)
	assert.Equal(t, 30*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)

	opts := cfg.ExtractOptions()
	assert.Equal(t, []string{"Oppskrift", "Montering"}, opts.Sections)
	assert.Equal(t, extract.LeadingFold, opts.LeadingText)
	assert.Equal(t, 5, opts.MaxHeaderWords)
	assert.Equal(t, extract.DefaultOptions().MetadataLabels, opts.MetadataLabels)

	acq := cfg.AcquireConfig()
	assert.Equal(t, "nor+eng", acq.TesseractLang)
	assert.Equal(t, 200, acq.DPI)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := config.LoadWithEnv(writeFile(t, ""), env(nil))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	_, err := config.LoadWithEnv(writeFile(t, "prot: 1\n"), env(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prot")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.LoadWithEnv(filepath.Join(t.TempDir(), "nope.yaml"), env(nil))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "port: \"9090\"\nllm:\n  model: gpt-4o\n")
	cfg, err := config.LoadWithEnv(path, env(map[string]string{
		"PORT":            "7070",
		"JWT_SECRET":      strings.Repeat("s", 32),
		"COOKIE_SECURE":   "false",
		"BCRYPT_COST":     "5",
		"OPENAI_API_KEY":  "sk-test",
		"OPENAI_MODEL":    "gpt-4.1-mini",
		"OPENAI_BASE_URL": "http://localhost:11434/v1",
		"LLM_TIMEOUT":     "5s",
		"EXTRACT_MODE":    "llm",
		"OCR_LANG":        "eng",
		"ACQUIRE_TIMEOUT": "2m",
		"TESSERACT":       "/opt/tesseract",
	}))
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, 5, cfg.BcryptCost)
	assert.Equal(t, service.ModeLLM, cfg.Extract.Mode)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.OCR.Timeout)
	assert.Equal(t, "/opt/tesseract", cfg.AcquireConfig().Tesseract)
	assert.True(t, cfg.HasLLM())
	assert.NoError(t, cfg.RequireJWTSecret())

	s := cfg.LLMSettings()
	assert.Equal(t, "sk-test", s.APIKey)
	assert.Equal(t, "gpt-4.1-mini", s.Model)
	assert.Equal(t, "http://localhost:11434/v1", s.BaseURL)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"bcrypt not a number", map[string]string{"BCRYPT_COST": "high"}},
		{"bcrypt too low", map[string]string{"BCRYPT_COST": "3"}},
		{"bcrypt too high", map[string]string{"BCRYPT_COST": "15"}},
		{"bad mode", map[string]string{"EXTRACT_MODE": "magic"}},
		{"bad duration", map[string]string{"LLM_TIMEOUT": "soon"}},
		{"bad acquire duration", map[string]string{"ACQUIRE_TIMEOUT": "10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadWithEnv("", env(tt.vars))
			assert.Error(t, err)
		})
	}
}

func TestLoadInvalidLeadingText(t *testing.T) {
	_, err := config.LoadWithEnv(writeFile(t, "extract:\n  leading_text: keep\n"), env(nil))
	assert.Error(t, err)
}

func TestRequireJWTSecret(t *testing.T) {
	cfg := config.Default()
	assert.Error(t, cfg.RequireJWTSecret())

	cfg.JWTSecret = "short"
	assert.Error(t, cfg.RequireJWTSecret())

	cfg.JWTSecret = strings.Repeat("x", config.MinJWTSecretLen)
	assert.NoError(t, cfg.RequireJWTSecret())
}

func TestImportLimiter(t *testing.T) {
	cfg := config.Default()
	limiter := cfg.ImportLimiter()
	require.NotNil(t, limiter)
	defer limiter.Close()
	assert.True(t, limiter.Allow("u"))

	cfg.Import.PerMinute = 0
	assert.Nil(t, cfg.ImportLimiter())
}

func TestNewExtractionService(t *testing.T) {
	cfg := config.Default()
	svc, err := cfg.NewExtractionService(nil)
	require.NoError(t, err)
	assert.Equal(t, service.ModeAuto, svc.Mode())

	cfg.Extract.Mode = service.ModeLLM
	_, err = cfg.NewExtractionService(nil)
	assert.Error(t, err)

	cfg.LLM.APIKey = "sk-test"
	svc, err = cfg.NewExtractionService(nil)
	require.NoError(t, err)
	assert.Equal(t, service.ModeLLM, svc.Mode())
}

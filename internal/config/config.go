package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// OCR engine names accepted in ocr.engine.
const (
	EngineCLI      = "cli"
	EngineEmbedded = "embedded"
)

// Environment variables that override the file.
const (
	EnvMaxFileSize  = "MAX_FILE_SIZE"
	EnvTesseractCmd = "TESSERACT_CMD"
)

// Config holds the billocr service configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Upload  UploadConfig  `yaml:"upload"`
	OCR     OCRConfig     `yaml:"ocr"`
	PDF     PDFConfig     `yaml:"pdf"`
	Scratch ScratchConfig `yaml:"scratch"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: determined by env)
	Format string `yaml:"format"` // json or console (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"`
	RateLimitRPS    float64  `yaml:"rate_limit_rps"` // 0 = unlimited
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
}

// UploadConfig holds upload validation settings.
type UploadConfig struct {
	MaxFileSize int64 `yaml:"max_file_size"` // bytes
}

// OCRConfig holds OCR engine settings.
type OCRConfig struct {
	Engine          string `yaml:"engine"` // cli, embedded
	TesseractCmd    string `yaml:"tesseract_cmd"`
	Lang            string `yaml:"lang"`
	PSM             int    `yaml:"psm"`
	TessdataDir     string `yaml:"tessdata_dir"`
	FallbackPages   int    `yaml:"fallback_pages"`
	FallbackWorkers int    `yaml:"fallback_workers"`
}

// PDFConfig holds PDF rasterization settings.
type PDFConfig struct {
	Pdftoppm string `yaml:"pdftoppm"`
	DPI      int    `yaml:"dpi"`
}

// ScratchConfig holds temporary storage settings.
type ScratchConfig struct {
	Dir string `yaml:"dir"` // empty = system temp dir
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from the given YAML file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadDotEnv loads variables from .env files into the process environment.
// Variables that are already set win. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// applyEnvOverrides applies MAX_FILE_SIZE and TESSERACT_CMD on top of the file.
func (c *Config) applyEnvOverrides() error {
	if v := strings.TrimSpace(os.Getenv(EnvMaxFileSize)); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s must be an integer byte count, got %q", EnvMaxFileSize, v)
		}
		c.Upload.MaxFileSize = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvTesseractCmd)); v != "" {
		c.OCR.TesseractCmd = v
	}
	return nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 7070
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"*"}
	}
	if c.HTTP.RateLimitRPS > 0 && c.HTTP.RateLimitBurst <= 0 {
		c.HTTP.RateLimitBurst = max(1, int(c.HTTP.RateLimitRPS))
	}
	if c.Upload.MaxFileSize == 0 {
		c.Upload.MaxFileSize = 10 << 20
	}
	if c.OCR.Engine == "" {
		c.OCR.Engine = EngineCLI
	}
	if c.OCR.TesseractCmd == "" {
		c.OCR.TesseractCmd = "tesseract"
	}
	if c.OCR.Lang == "" {
		c.OCR.Lang = "eng"
	}
	if c.OCR.FallbackPages == 0 {
		c.OCR.FallbackPages = 5
	}
	if c.OCR.FallbackWorkers == 0 {
		c.OCR.FallbackWorkers = 1
	}
	if c.PDF.Pdftoppm == "" {
		c.PDF.Pdftoppm = "pdftoppm"
	}
	if c.PDF.DPI == 0 {
		c.PDF.DPI = 150
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.RateLimitRPS < 0 {
		return fmt.Errorf("http.rate_limit_rps must not be negative, got %v", c.HTTP.RateLimitRPS)
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload.max_file_size must be positive, got %d", c.Upload.MaxFileSize)
	}
	switch c.OCR.Engine {
	case EngineCLI, EngineEmbedded:
		// ok
	default:
		return fmt.Errorf("ocr.engine must be %q or %q, got %q", EngineCLI, EngineEmbedded, c.OCR.Engine)
	}
	if c.OCR.PSM < 0 || c.OCR.PSM > 13 {
		return fmt.Errorf("ocr.psm must be between 0 and 13, got %d", c.OCR.PSM)
	}
	if c.OCR.FallbackPages < 1 {
		return fmt.Errorf("ocr.fallback_pages must be at least 1, got %d", c.OCR.FallbackPages)
	}
	if c.OCR.FallbackWorkers < 1 {
		return fmt.Errorf("ocr.fallback_workers must be at least 1, got %d", c.OCR.FallbackWorkers)
	}
	if c.PDF.DPI < 36 || c.PDF.DPI > 1200 {
		return fmt.Errorf("pdf.dpi must be between 36 and 1200, got %d", c.PDF.DPI)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

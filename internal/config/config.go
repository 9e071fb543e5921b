// Package config provides configuration management.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "aws-cost/internal/errors"
	"aws-cost/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" yaml:"version"`

	// AWS contains account access and scanning settings
	AWS AWSConfig `json:"aws" yaml:"aws"`

	// Report contains report generation defaults
	Report ReportConfig `json:"report" yaml:"report"`

	// Ledger contains the cancellation ledger location
	Ledger LedgerConfig `json:"ledger" yaml:"ledger"`

	// Cache contains console-path cache settings
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// Server contains HTTP API settings
	Server ServerConfig `json:"server" yaml:"server"`

	// Telemetry contains tracing exporter settings
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" yaml:"logging"`
}

// AWSConfig contains AWS-specific configuration
type AWSConfig struct {
	// Profile is the shared-config profile to use (empty for the default chain)
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`

	// DefaultRegion is used when a usage type carries no known region prefix
	DefaultRegion string `json:"default_region" yaml:"default_region"`

	// Regions is the explicit scan list; empty means discover via EC2
	Regions []string `json:"regions,omitempty" yaml:"regions,omitempty"`

	// CallTimeoutSeconds bounds every individual AWS API call
	CallTimeoutSeconds int `json:"call_timeout_seconds" yaml:"call_timeout_seconds"`

	// MaxWorkers bounds concurrent per-region enumeration calls
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`
}

// ReportConfig contains report-related settings
type ReportConfig struct {
	// OutputDir is where HTML reports are written
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// DaysBack is the default look-back window
	DaysBack int `json:"days_back" yaml:"days_back"`

	// Threshold is the default analyze cutoff in USD
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// Open opens the report in a browser after writing
	Open bool `json:"open" yaml:"open"`
}

// LedgerConfig contains cancellation ledger settings
type LedgerConfig struct {
	// Path is the JSON ledger file
	Path string `json:"path" yaml:"path"`
}

// CacheConfig contains cache-related settings
type CacheConfig struct {
	// Backend is "file", "memory" or "redis"
	Backend string `json:"backend" yaml:"backend"`

	// Directory is the file cache directory
	Directory string `json:"directory" yaml:"directory"`

	// RedisAddr is host:port of the redis backend
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`

	// TTLSeconds is how long cached entries stay valid
	TTLSeconds int `json:"ttl_seconds" yaml:"ttl_seconds"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Address to listen on
	Address string `json:"address" yaml:"address"`
}

// TelemetryConfig contains tracing settings
type TelemetryConfig struct {
	// Exporter is "none", "stdout" or "otlp"
	Exporter string `json:"exporter" yaml:"exporter"`

	// Endpoint is the OTLP gRPC collector address
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// CallTimeout returns the per-call AWS timeout
func (c *Config) CallTimeout() time.Duration {
	if c.AWS.CallTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.AWS.CallTimeoutSeconds) * time.Second
}

// CacheTTL returns the cache entry lifetime
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTLSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	baseDir := filepath.Join(homeDir, ".aws-cost")

	return &Config{
		Version: "1.0",
		AWS: AWSConfig{
			DefaultRegion:      "us-east-1",
			CallTimeoutSeconds: 30,
			MaxWorkers:         10,
		},
		Report: ReportConfig{
			OutputDir: filepath.Join(baseDir, "reports"),
			DaysBack:  30,
			Threshold: 10.0,
		},
		Ledger: LedgerConfig{
			Path: filepath.Join(baseDir, "canceled_services.json"),
		},
		Cache: CacheConfig{
			Backend:    "file",
			Directory:  filepath.Join(baseDir, "cache"),
			TTLSeconds: 86400, // 24 hours
		},
		Server: ServerConfig{
			Address: ":8080",
		},
		Telemetry: TelemetryConfig{
			Exporter: "none",
			Endpoint: "localhost:4317",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file and applies environment overrides.
// The format is chosen by extension: .json, .yaml/.yml or .hcl.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperrors.Config("read config", err).WithContext("path", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".hcl":
		err = c.decodeHCL(path, data)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return apperrors.Config("parse config", err).WithContext("path", path)
	}
	return nil
}

// hclFile is the flat attribute set accepted in .hcl config files.
// It is pre-populated from the current config so omitted attributes keep their values.
type hclFile struct {
	Profile       string   `hcl:"profile,optional"`
	DefaultRegion string   `hcl:"default_region,optional"`
	Regions       []string `hcl:"regions,optional"`
	CallTimeout   int      `hcl:"call_timeout_seconds,optional"`
	MaxWorkers    int      `hcl:"max_workers,optional"`
	ReportDir     string   `hcl:"report_dir,optional"`
	DaysBack      int      `hcl:"days_back,optional"`
	Threshold     float64  `hcl:"threshold,optional"`
	LedgerPath    string   `hcl:"ledger_path,optional"`
	CacheBackend  string   `hcl:"cache_backend,optional"`
	CacheDir      string   `hcl:"cache_dir,optional"`
	RedisAddr     string   `hcl:"redis_addr,optional"`
	CacheTTL      int      `hcl:"cache_ttl_seconds,optional"`
	ServerAddress string   `hcl:"server_address,optional"`
	Exporter      string   `hcl:"telemetry_exporter,optional"`
	Endpoint      string   `hcl:"telemetry_endpoint,optional"`
	LogLevel      string   `hcl:"log_level,optional"`
	LogFormat     string   `hcl:"log_format,optional"`
}

func (c *Config) decodeHCL(path string, data []byte) error {
	f := hclFile{
		Profile:       c.AWS.Profile,
		DefaultRegion: c.AWS.DefaultRegion,
		Regions:       c.AWS.Regions,
		CallTimeout:   c.AWS.CallTimeoutSeconds,
		MaxWorkers:    c.AWS.MaxWorkers,
		ReportDir:     c.Report.OutputDir,
		DaysBack:      c.Report.DaysBack,
		Threshold:     c.Report.Threshold,
		LedgerPath:    c.Ledger.Path,
		CacheBackend:  c.Cache.Backend,
		CacheDir:      c.Cache.Directory,
		RedisAddr:     c.Cache.RedisAddr,
		CacheTTL:      c.Cache.TTLSeconds,
		ServerAddress: c.Server.Address,
		Exporter:      c.Telemetry.Exporter,
		Endpoint:      c.Telemetry.Endpoint,
		LogLevel:      c.Logging.Level,
		LogFormat:     c.Logging.Format,
	}
	if err := hclsimple.Decode(path, data, nil, &f); err != nil {
		return err
	}

	c.AWS.Profile = f.Profile
	c.AWS.DefaultRegion = f.DefaultRegion
	c.AWS.Regions = f.Regions
	c.AWS.CallTimeoutSeconds = f.CallTimeout
	c.AWS.MaxWorkers = f.MaxWorkers
	c.Report.OutputDir = f.ReportDir
	c.Report.DaysBack = f.DaysBack
	c.Report.Threshold = f.Threshold
	c.Ledger.Path = f.LedgerPath
	c.Cache.Backend = f.CacheBackend
	c.Cache.Directory = f.CacheDir
	c.Cache.RedisAddr = f.RedisAddr
	c.Cache.TTLSeconds = f.CacheTTL
	c.Server.Address = f.ServerAddress
	c.Telemetry.Exporter = f.Exporter
	c.Telemetry.Endpoint = f.Endpoint
	c.Logging.Level = f.LogLevel
	c.Logging.Format = f.LogFormat
	return nil
}

func (c *Config) applyEnv() {
	c.AWS.Profile = getEnv("AWS_PROFILE", c.AWS.Profile)
	c.AWS.DefaultRegion = getEnv("AWS_REGION", c.AWS.DefaultRegion)
	if regions := os.Getenv("AWS_COST_REGIONS"); regions != "" {
		c.AWS.Regions = splitList(regions)
	}
	c.Ledger.Path = getEnv("AWS_COST_LEDGER", c.Ledger.Path)
	c.Report.OutputDir = getEnv("AWS_COST_REPORT_DIR", c.Report.OutputDir)
	c.Cache.RedisAddr = getEnv("AWS_COST_REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.Backend = getEnv("AWS_COST_CACHE_BACKEND", c.Cache.Backend)
	c.Server.Address = getEnv("AWS_COST_SERVER_ADDR", c.Server.Address)
	c.Telemetry.Exporter = getEnv("OTEL_EXPORTER_TYPE", c.Telemetry.Exporter)
	c.Telemetry.Endpoint = getEnv("OTEL_EXPORTER_ENDPOINT", c.Telemetry.Endpoint)
	if v := os.Getenv("AWS_COST_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Report.Threshold = f
		}
	}
}

// Validate checks settings that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	if c.Report.DaysBack <= 0 {
		return apperrors.Newf(apperrors.TypeConfig, "report.days_back must be positive, got %d", c.Report.DaysBack)
	}
	if c.Report.Threshold < 0 {
		return apperrors.Newf(apperrors.TypeConfig, "report.threshold must not be negative, got %v", c.Report.Threshold)
	}
	switch c.Cache.Backend {
	case "file", "memory", "":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return apperrors.New(apperrors.TypeConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return apperrors.Newf(apperrors.TypeConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Ledger.Path == "" {
		return apperrors.New(apperrors.TypeConfig, "ledger.path is required")
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	case ".hcl":
		return fmt.Errorf("saving %s: hcl output is not supported, use .json or .yaml", path)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}

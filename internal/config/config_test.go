package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AWS_PROFILE", "AWS_REGION", "AWS_COST_REGIONS", "AWS_COST_LEDGER",
		"AWS_COST_REPORT_DIR", "AWS_COST_REDIS_ADDR", "AWS_COST_CACHE_BACKEND",
		"AWS_COST_SERVER_ADDR", "OTEL_EXPORTER_TYPE", "OTEL_EXPORTER_ENDPOINT", "AWS_COST_THRESHOLD",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AWS.DefaultRegion != "us-east-1" {
		t.Errorf("default region = %q", cfg.AWS.DefaultRegion)
	}
	if cfg.CacheTTL() != 24*time.Hour {
		t.Errorf("cache TTL = %v, want 24h", cfg.CacheTTL())
	}
	if cfg.AWS.MaxWorkers != 10 {
		t.Errorf("max workers = %d, want 10", cfg.AWS.MaxWorkers)
	}
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "json",
			file:    "cfg.json",
			content: `{"aws":{"default_region":"eu-west-1","regions":["eu-west-1","us-east-1"]},"report":{"threshold":25}}`,
		},
		{
			name: "yaml",
			file: "cfg.yaml",
			content: `aws:
  default_region: eu-west-1
  regions: [eu-west-1, us-east-1]
report:
  threshold: 25
`,
		},
		{
			name: "hcl",
			file: "cfg.hcl",
			content: `default_region = "eu-west-1"
regions        = ["eu-west-1", "us-east-1"]
threshold      = 25
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.AWS.DefaultRegion != "eu-west-1" {
				t.Errorf("region = %q, want eu-west-1", cfg.AWS.DefaultRegion)
			}
			if len(cfg.AWS.Regions) != 2 {
				t.Errorf("regions = %v", cfg.AWS.Regions)
			}
			if cfg.Report.Threshold != 25 {
				t.Errorf("threshold = %v, want 25", cfg.Report.Threshold)
			}
			// untouched values keep their defaults
			if cfg.Report.DaysBack != 30 {
				t.Errorf("days back = %d, want 30", cfg.Report.DaysBack)
			}
		})
	}
}

func TestLoadInvalidFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(writeFile(t, "bad.json", "{not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AWS_COST_LEDGER", "/tmp/ledger.json")
	t.Setenv("AWS_COST_REGIONS", "us-west-2, eu-central-1")
	t.Setenv("AWS_COST_THRESHOLD", "3.5")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Ledger.Path != "/tmp/ledger.json" {
		t.Errorf("ledger path = %q", cfg.Ledger.Path)
	}
	if len(cfg.AWS.Regions) != 2 || cfg.AWS.Regions[1] != "eu-central-1" {
		t.Errorf("regions = %v", cfg.AWS.Regions)
	}
	if cfg.Report.Threshold != 3.5 {
		t.Errorf("threshold = %v", cfg.Report.Threshold)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cfg.Cache.Backend = "memory"
	if err := cfg.Validate(); err != nil {
		t.Errorf("memory backend rejected: %v", err)
	}

	cfg.Cache.Backend = "redis"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for redis backend without address")
	}

	cfg = Default()
	cfg.Report.DaysBack = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero days back")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "cfg.yaml")
	cfg := Default()
	cfg.Report.Threshold = 42

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Report.Threshold != 42 {
		t.Errorf("threshold = %v, want 42", loaded.Report.Threshold)
	}
}

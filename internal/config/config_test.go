package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shouni/go-story-kit/examples"
	kitcfg "github.com/shouni/go-story-kit/pkg/config"
)

var managedEnv = []string{
	"GCP_PROJECT", "REGION", "SHEET_ID", "BUCKET_NAME", "SECRET_NAME", "GEMINI_API_KEY",
	"GEMINI_MODEL", "IMAGE_MODEL", "IMAGE_TOPIC", "PUBLISH_TOPIC", "LOCAL_OUTPUT_DIR",
	"PORT", "LOG_LEVEL", "LOG_FORMAT", "INDEX_MAX_ATTEMPTS", "RATE_INTERVAL", "DEDUPE_TTL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedEnv {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ImageTopic != kitcfg.DefaultImageTopic || cfg.PublishTopic != kitcfg.DefaultPublishTopic {
		t.Fatalf("unexpected topics %q %q", cfg.ImageTopic, cfg.PublishTopic)
	}
	if cfg.SecretName != "gemini-api-key" {
		t.Fatalf("SecretName = %q", cfg.SecretName)
	}
	if cfg.IndexMaxAttempts != kitcfg.DefaultIndexMaxAttempts {
		t.Fatalf("IndexMaxAttempts = %d", cfg.IndexMaxAttempts)
	}
	if cfg.BucketName != "" {
		t.Fatalf("BucketName should stay empty without a project, got %q", cfg.BucketName)
	}
	if cfg.Port != DefaultPort {
		t.Fatalf("Port = %q", cfg.Port)
	}
}

func TestLoadConfigBucketDerivedFromProject(t *testing.T) {
	clearEnv(t)
	t.Setenv("GCP_PROJECT", "demo-project")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BucketName != "lucky-story-images-demo-project" {
		t.Fatalf("BucketName = %q", cfg.BucketName)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "story-kit.toml")
	content := `
project_id = "file-project"
sheet_id = "sheet-123"
bucket_name = "file-bucket"
index_max_attempts = 3
rate_interval = "500ms"
log_format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BUCKET_NAME", "env-bucket")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ProjectID != "file-project" || cfg.SheetID != "sheet-123" {
		t.Fatalf("file values not applied: %+v", cfg.Config)
	}
	if cfg.BucketName != "env-bucket" {
		t.Fatalf("env should win, BucketName = %q", cfg.BucketName)
	}
	if cfg.IndexMaxAttempts != 3 || cfg.RateInterval != 500*time.Millisecond {
		t.Fatalf("numeric values not applied: %d %s", cfg.IndexMaxAttempts, cfg.RateInterval)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("LogFormat = %q", cfg.LogFormat)
	}
}

func TestLoadConfigMissingFileIsIgnored(t *testing.T) {
	clearEnv(t)
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}

func TestLoadConfigRejectsBadAttempts(t *testing.T) {
	clearEnv(t)
	t.Setenv("INDEX_MAX_ATTEMPTS", "zero")
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected error for invalid INDEX_MAX_ATTEMPTS")
	}
}

func TestLoadConfigDedupeTTL(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     string
		want    time.Duration
		wantErr bool
	}{
		{name: "default", want: kitcfg.DefaultDedupeTTL},
		{name: "file", file: `dedupe_ttl = "45m"`, want: 45 * time.Minute},
		{name: "env wins", file: `dedupe_ttl = "45m"`, env: "10m", want: 10 * time.Minute},
		{name: "bad env", env: "soon", wantErr: true},
		{name: "zero env", env: "0s", wantErr: true},
		{name: "negative file", file: `dedupe_ttl = "-1m"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := filepath.Join(t.TempDir(), DefaultConfigFile)
			if err := os.WriteFile(path, []byte(tt.file+"\n"), 0o644); err != nil {
				t.Fatal(err)
			}
			if tt.env != "" {
				t.Setenv("DEDUPE_TTL", tt.env)
			}

			cfg, err := LoadConfig(path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			if cfg.DedupeTTL != tt.want {
				t.Fatalf("DedupeTTL = %s, want %s", cfg.DedupeTTL, tt.want)
			}
		})
	}
}

func TestLoadConfigSampleFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	if err := os.WriteFile(path, examples.ConfigTOML, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if cfg.ProjectID != "lucky-story-demo" || cfg.BucketName != "lucky-story-images-lucky-story-demo" {
		t.Fatalf("unexpected sample values: %+v", cfg.Config)
	}
	if cfg.RateInterval != 2*time.Second || cfg.DedupeTTL != 30*time.Minute {
		t.Fatalf("durations = %s %s", cfg.RateInterval, cfg.DedupeTTL)
	}
}

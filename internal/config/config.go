package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	kitcfg "github.com/shouni/go-story-kit/pkg/config"

	"github.com/pelletier/go-toml/v2"
	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義
const (
	DefaultPort       = "8080"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "auto"
	DefaultConfigFile = "story-kit.toml"
)

// Config はアプリケーション全体の環境設定（クラウド設定やログ設定）を保持する構造体です。
type Config struct {
	kitcfg.Config

	Port      string
	LogLevel  string
	LogFormat string
}

// fileConfig は TOML 設定ファイルの構造です。未指定の項目はデフォルトのままになります。
type fileConfig struct {
	ProjectID        string `toml:"project_id"`
	Region           string `toml:"region"`
	SheetID          string `toml:"sheet_id"`
	BucketName       string `toml:"bucket_name"`
	SecretName       string `toml:"secret_name"`
	GeminiModel      string `toml:"gemini_model"`
	ImageModel       string `toml:"image_model"`
	ImageTopic       string `toml:"image_topic"`
	PublishTopic     string `toml:"publish_topic"`
	LocalOutputDir   string `toml:"local_output_dir"`
	IndexMaxAttempts int    `toml:"index_max_attempts"`
	RateInterval     string `toml:"rate_interval"`
	DedupeTTL        string `toml:"dedupe_ttl"`
	Port             string `toml:"port"`
	LogLevel         string `toml:"log_level"`
	LogFormat        string `toml:"log_format"`
}

// LoadConfig は設定ファイル（存在する場合）と環境変数から設定を読み込みます。
// 環境変数はファイルの値より優先されます。path が空の場合はファイルを読みません。
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Config:    kitcfg.DefaultConfig(),
		Port:      DefaultPort,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.BucketName == "" {
		cfg.BucketName = kitcfg.DefaultBucketName(cfg.ProjectID)
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("設定ファイル '%s' の読み込みに失敗しました: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("設定ファイル '%s' の解析に失敗しました: %w", path, err)
	}

	setString(&c.ProjectID, fc.ProjectID)
	setString(&c.LocationID, fc.Region)
	setString(&c.SheetID, fc.SheetID)
	setString(&c.BucketName, fc.BucketName)
	setString(&c.SecretName, fc.SecretName)
	setString(&c.GeminiModel, fc.GeminiModel)
	setString(&c.ImageModel, fc.ImageModel)
	setString(&c.ImageTopic, fc.ImageTopic)
	setString(&c.PublishTopic, fc.PublishTopic)
	setString(&c.LocalOutputDir, fc.LocalOutputDir)
	setString(&c.Port, fc.Port)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)
	if fc.IndexMaxAttempts > 0 {
		c.IndexMaxAttempts = fc.IndexMaxAttempts
	}
	if fc.RateInterval != "" {
		d, err := time.ParseDuration(fc.RateInterval)
		if err != nil {
			return fmt.Errorf("rate_interval の解析に失敗しました: %w", err)
		}
		c.RateInterval = d
	}
	if fc.DedupeTTL != "" {
		d, err := parseDedupeTTL(fc.DedupeTTL)
		if err != nil {
			return fmt.Errorf("dedupe_ttl の解析に失敗しました: %w", err)
		}
		c.DedupeTTL = d
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.ProjectID = envutil.GetEnv("GCP_PROJECT", c.ProjectID)
	c.LocationID = envutil.GetEnv("REGION", c.LocationID)
	c.SheetID = envutil.GetEnv("SHEET_ID", c.SheetID)
	c.BucketName = envutil.GetEnv("BUCKET_NAME", c.BucketName)
	c.SecretName = envutil.GetEnv("SECRET_NAME", c.SecretName)
	c.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = envutil.GetEnv("GEMINI_MODEL", c.GeminiModel)
	c.ImageModel = envutil.GetEnv("IMAGE_MODEL", c.ImageModel)
	c.ImageTopic = envutil.GetEnv("IMAGE_TOPIC", c.ImageTopic)
	c.PublishTopic = envutil.GetEnv("PUBLISH_TOPIC", c.PublishTopic)
	c.LocalOutputDir = envutil.GetEnv("LOCAL_OUTPUT_DIR", c.LocalOutputDir)
	c.Port = envutil.GetEnv("PORT", c.Port)
	c.LogLevel = envutil.GetEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envutil.GetEnv("LOG_FORMAT", c.LogFormat)

	if raw := strings.TrimSpace(envutil.GetEnv("INDEX_MAX_ATTEMPTS", "")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return fmt.Errorf("INDEX_MAX_ATTEMPTS は1以上の整数である必要があります: %q", raw)
		}
		c.IndexMaxAttempts = n
	}
	if raw := strings.TrimSpace(envutil.GetEnv("RATE_INTERVAL", "")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("RATE_INTERVAL の解析に失敗しました: %w", err)
		}
		c.RateInterval = d
	}
	if raw := strings.TrimSpace(envutil.GetEnv("DEDUPE_TTL", "")); raw != "" {
		d, err := parseDedupeTTL(raw)
		if err != nil {
			return fmt.Errorf("DEDUPE_TTL の解析に失敗しました: %w", err)
		}
		c.DedupeTTL = d
	}
	return nil
}

// parseDedupeTTL は重複排除の保持期間を解析します。0 以下は受け付けません。
func parseDedupeTTL(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("正の期間である必要があります: %q", raw)
	}
	return d, nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

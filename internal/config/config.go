// Package config は環境変数（および任意のYAMLファイル）から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	ModeDebug   = "debug"
	ModeRelease = "release"
	ModeTest    = "test"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port               string `yaml:"port" env:"PORT" env-default:"8080"`
	GinMode            string `yaml:"gin_mode" env:"GIN_MODE" env-default:"debug"`
	CORSAllowedOrigins string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:8080"`
	MaxRequestBytes    int64  `yaml:"max_request_bytes" env:"MAX_REQUEST_BYTES" env-default:"10485760"` // 10MB

	// セッション署名用の秘密鍵
	SessionSecret string `yaml:"session_secret" env:"SESSION_SECRET"`

	// 永続化
	DatabasePath string `yaml:"database_path" env:"DATABASE_PATH" env-default:"curriculum.db"`
	RedisURL     string `yaml:"redis_url" env:"REDIS_URL"` // 空の場合はプロセス内キャッシュとタイマー削除を使う

	// 生成プロバイダ（OpenAI互換API）
	GroqAPIKey        string        `yaml:"groq_api_key" env:"GROQ_API_KEY"`
	LLMBaseURL        string        `yaml:"llm_base_url" env:"LLM_BASE_URL" env-default:"https://api.groq.com/openai/v1"`
	LLMModel          string        `yaml:"llm_model" env:"LLM_MODEL" env-default:"llama-3.1-8b-instant"`
	GenerationTimeout time.Duration `yaml:"generation_timeout" env:"GENERATION_TIMEOUT" env-default:"60s"`

	// PDF出力
	WorkDir         string        `yaml:"work_dir" env:"WORK_DIR"`
	StaticDir       string        `yaml:"static_dir" env:"STATIC_DIR" env-default:"static"`
	MaxLogoSize     int64         `yaml:"max_logo_size" env:"MAX_LOGO_SIZE" env-default:"5242880"` // 5MB
	ExportRetention time.Duration `yaml:"export_retention" env:"EXPORT_RETENTION" env-default:"10m"`

	// ロゴ保存先（S3互換ストレージ、未設定ならSTATIC_DIR）
	AssetS3Bucket    string `yaml:"asset_s3_bucket" env:"ASSET_S3_BUCKET"`
	AssetS3Region    string `yaml:"asset_s3_region" env:"ASSET_S3_REGION" env-default:"us-east-1"`
	AssetS3Endpoint  string `yaml:"asset_s3_endpoint" env:"ASSET_S3_ENDPOINT"`
	AssetS3AccessKey string `yaml:"asset_s3_access_key" env:"ASSET_S3_ACCESS_KEY"`
	AssetS3SecretKey string `yaml:"asset_s3_secret_key" env:"ASSET_S3_SECRET_KEY"`

	// ログ
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"` // text / json（空ならモードで決定）
	LogFile   string `yaml:"log_file" env:"LOG_FILE"`

	// SessionSecretGenerated は SESSION_SECRET 未設定で一時鍵を生成した場合に true になります。
	SessionSecretGenerated bool `yaml:"-"`
}

// Load は設定を読み込みます。
// .env.local / .env が存在する場合は先に環境変数へ反映し、CONFIG_PATH があればYAMLも読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFile() {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err == nil {
			return
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

func (c *Config) applyDefaults() {
	if c.WorkDir == "" {
		c.WorkDir = filepath.Join(os.TempDir(), "curriculum-forge")
	}
	if c.SessionSecret == "" && c.GinMode != ModeRelease {
		c.SessionSecret = randomSecret()
		c.SessionSecretGenerated = true
	}
	if c.LogFormat == "" {
		if c.GinMode == ModeRelease {
			c.LogFormat = "json"
		} else {
			c.LogFormat = "text"
		}
	}
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	switch c.GinMode {
	case ModeDebug, ModeRelease, ModeTest:
	default:
		return fmt.Errorf("GIN_MODE must be one of debug, release, test (got %q)", c.GinMode)
	}

	if c.GinMode == ModeRelease {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if len(c.SessionSecret) < 32 {
			return fmt.Errorf("SESSION_SECRET must be at least 32 characters in release mode")
		}
		if c.GroqAPIKey == "" {
			return fmt.Errorf("GROQ_API_KEY is required in release mode")
		}
	}

	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive")
	}
	if c.ExportRetention <= 0 {
		return fmt.Errorf("EXPORT_RETENTION must be positive")
	}
	if c.MaxLogoSize <= 0 {
		return fmt.Errorf("MAX_LOGO_SIZE must be positive")
	}
	if c.AssetS3Bucket != "" && (c.AssetS3AccessKey == "" || c.AssetS3SecretKey == "") {
		return fmt.Errorf("ASSET_S3_ACCESS_KEY and ASSET_S3_SECRET_KEY are required when ASSET_S3_BUCKET is set")
	}
	return nil
}

// AllowedOrigins は CORS 許可オリジンを配列で返します。
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if t := strings.TrimSpace(o); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// UsesRedis は Redis 依存の機能（セッションキャッシュ・遅延削除・出力記録）を使うかどうかを返します。
func (c *Config) UsesRedis() bool {
	return strings.TrimSpace(c.RedisURL) != ""
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("failed to generate session secret: %v", err))
	}
	return hex.EncodeToString(buf)
}

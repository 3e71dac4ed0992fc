package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Billing  BillingConfig  `mapstructure:"billing"`
	Razorpay RazorpayConfig `mapstructure:"razorpay"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	Chat     ChatConfig     `mapstructure:"chat"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, postgres
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// BackendConfig 计费/网站后端（API_BASE）
type BackendConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"` // 0 表示不设超时
}

// BillingConfig 计费模式：remote 走外部后端，local 由本服务提供 /api/billing/*
type BillingConfig struct {
	Mode              string `mapstructure:"mode"`
	Currency          string `mapstructure:"currency"`
	PendingExpireHour int    `mapstructure:"pending_expire_hours"`
}

type RazorpayConfig struct {
	KeyID             string `mapstructure:"key_id"`
	KeySecret         string `mapstructure:"key_secret"`
	CheckoutScriptURL string `mapstructure:"checkout_script_url"`
	BrandName         string `mapstructure:"brand_name"`
	ThemeColor        string `mapstructure:"theme_color"`
}

type CatalogConfig struct {
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

type CheckoutConfig struct {
	LoginRedirect   string `mapstructure:"login_redirect"`
	SuccessRedirect string `mapstructure:"success_redirect"`
	FailureRedirect string `mapstructure:"failure_redirect"`
	IdleMinutes     int    `mapstructure:"idle_minutes"`
}

type ChatConfig struct {
	Provider        string  `mapstructure:"provider"` // gemini, openai
	Model           string  `mapstructure:"model"`
	APIKey          string  `mapstructure:"api_key"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
	Temperature     float32 `mapstructure:"temperature"`
	TopP            float32 `mapstructure:"top_p"`
	TopK            int     `mapstructure:"top_k"`
	RateLimit       float64 `mapstructure:"rate_limit"` // 每个 IP 每秒请求数，0 表示不限流
	RateBurst       int     `mapstructure:"rate_burst"`
}

func Load(configPath string) (*Config, error) {
	// .env 只用于本地开发，不存在时忽略
	_ = godotenv.Load()

	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("jwt.expire_hours", 72)
	v.SetDefault("billing.mode", "remote")
	v.SetDefault("billing.currency", "INR")
	v.SetDefault("billing.pending_expire_hours", 24)
	v.SetDefault("razorpay.checkout_script_url", "https://checkout.razorpay.com/v1/checkout.js")
	v.SetDefault("razorpay.brand_name", "HRSync")
	v.SetDefault("razorpay.theme_color", "#2563eb")
	v.SetDefault("catalog.cache_ttl_seconds", 300)
	v.SetDefault("checkout.login_redirect", "/login?redirect=pricing")
	v.SetDefault("checkout.success_redirect", "/payment-success")
	v.SetDefault("checkout.failure_redirect", "/payment-failed")
	v.SetDefault("checkout.idle_minutes", 30)
	v.SetDefault("chat.provider", "gemini")
	v.SetDefault("chat.model", "gemini-2.5-flash")
	v.SetDefault("chat.max_output_tokens", 300)
	v.SetDefault("chat.temperature", 0.7)
	v.SetDefault("chat.top_p", 0.9)
	v.SetDefault("chat.top_k", 40)
	v.SetDefault("chat.rate_limit", 1)
	v.SetDefault("chat.rate_burst", 5)
}

// LocalBilling 是否由本服务充当计费后端
func (c *Config) LocalBilling() bool {
	return c.Billing.Mode == "local"
}

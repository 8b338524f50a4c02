package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Gateway modes.
const (
	ModeTest = "test"
	ModeLive = "live"
)

// Hosted-checkout transaction type supported by the redirect flow.
const SAHCTransactionAuthCreateToken = "authorization,create_payment_token"

// On-site transaction types.
const (
	FlexTransactionAuthOnly       = "authorization_only"
	FlexTransactionAuthAndCapture = "authorization_and_capture"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Gateway       GatewayConfig       `mapstructure:"gateway"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	InstanceID    string              `mapstructure:"instance_id"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ReturnRateLimit int           `mapstructure:"return_rate_limit"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SSLMode         string        `mapstructure:"ssl_mode"`
}

// DatabaseDSN builds the PostgreSQL connection string.
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	DB                int           `mapstructure:"db"`
	Password          string        `mapstructure:"password"`
	ConnectRetries    int           `mapstructure:"connect_retries"`
	ConnectRetryDelay time.Duration `mapstructure:"connect_retry_delay"`
}

// RedisAddr builds the Redis address.
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GatewayConfig holds the processor credentials for both integration modes.
// Secrets are opaque values; they are never logged and leave the process
// only inside the signing routines.
type GatewayConfig struct {
	Mode     string     `mapstructure:"mode"`
	SiteName string     `mapstructure:"site_name"`
	SAHC     SAHCConfig `mapstructure:"sahc"`
	Flex     FlexConfig `mapstructure:"flex"`
}

// SAHCConfig holds Secure Acceptance Hosted Checkout credentials.
type SAHCConfig struct {
	MerchantID      string `mapstructure:"merchant_id"`
	ProfileID       string `mapstructure:"profile_id"`
	AccessKey       string `mapstructure:"access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	Locale          string `mapstructure:"locale"`
	TransactionType string `mapstructure:"transaction_type"`
	LogAPICalls     bool   `mapstructure:"log_api_calls"`
}

// FlexConfig holds the on-site payment API credentials.
type FlexConfig struct {
	MerchantID      string `mapstructure:"merchant_id"`
	KeySerialNumber string `mapstructure:"key_serial_number"`
	KeySharedSecret string `mapstructure:"key_shared_secret"`
	TransactionType string `mapstructure:"transaction_type"`
	LogAPICalls     bool   `mapstructure:"log_api_calls"`
}

// Capture reports whether the gateway authorizes and captures in one call.
func (c *FlexConfig) Capture() bool {
	return c.TransactionType == FlexTransactionAuthAndCapture
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	EnableMetrics  bool   `mapstructure:"enable_metrics"`
	EnableTracing  bool   `mapstructure:"enable_tracing"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CYBSGW")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cybersource-gateway")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.return_rate_limit", 60)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gateway")
	v.SetDefault("database.password", "gateway")
	v.SetDefault("database.database", "gateway")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.connect_retries", 5)
	v.SetDefault("redis.connect_retry_delay", time.Second)

	v.SetDefault("gateway.mode", ModeTest)
	v.SetDefault("gateway.sahc.locale", "en-US")
	v.SetDefault("gateway.sahc.transaction_type", SAHCTransactionAuthCreateToken)
	v.SetDefault("gateway.flex.transaction_type", FlexTransactionAuthOnly)

	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.enable_tracing", false)
}

// Validate collects configuration errors. Gateway credentials are checked
// up front so a misconfigured gateway fails at startup, not mid-checkout.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if c.Database.Port <= 0 {
		errs = append(errs, fmt.Errorf("database.port must be positive"))
	}
	if c.Gateway.Mode != ModeTest && c.Gateway.Mode != ModeLive {
		errs = append(errs, fmt.Errorf("gateway.mode must be %q or %q, got %q", ModeTest, ModeLive, c.Gateway.Mode))
	}
	if c.Gateway.SAHC.TransactionType != SAHCTransactionAuthCreateToken {
		errs = append(errs, fmt.Errorf("gateway.sahc.transaction_type %q is not supported", c.Gateway.SAHC.TransactionType))
	}
	if !supportedLocales[c.Gateway.SAHC.Locale] {
		errs = append(errs, fmt.Errorf("gateway.sahc.locale %q is not a supported Secure Acceptance locale", c.Gateway.SAHC.Locale))
	}
	switch c.Gateway.Flex.TransactionType {
	case FlexTransactionAuthOnly, FlexTransactionAuthAndCapture:
	default:
		errs = append(errs, fmt.Errorf("gateway.flex.transaction_type %q is not supported", c.Gateway.Flex.TransactionType))
	}

	return errors.Join(errs...)
}

// supportedLocales is the Secure Acceptance locale list.
var supportedLocales = map[string]bool{
	"ar-XN": true, "km-KH": true, "zh-HK": true, "zh-MO": true, "zh-CN": true,
	"zh-SG": true, "zh-TW": true, "cz-CZ": true, "nl-nl": true, "en-US": true,
	"en-AU": true, "en-GB": true, "en-CA": true, "en-IE": true, "en-NZ": true,
	"fr-FR": true, "fr-CA": true, "de-DE": true, "de-AT": true, "hu-HU": true,
	"id-ID": true, "it-IT": true, "ja-JP": true, "ko-KR": true, "lo-LA": true,
	"ms-MY": true, "tl-PH": true, "pl-PL": true, "pt-BR": true, "ru-RU": true,
	"sk-SK": true, "es-ES": true, "es-AR": true, "es-CL": true, "es-CO": true,
	"es-MX": true, "es-PE": true, "es-US": true, "tam": true, "th-TH": true,
	"tr-TR": true, "vi-VN": true,
}

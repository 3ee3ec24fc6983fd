// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/DeganAI/slippage-sentinel/internal/asset"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Chains    ChainsConfig    `mapstructure:"chains"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // set from the -tui flag
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	BaseURL         string        `mapstructure:"base_url"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// PublicURL returns the externally visible base URL without a trailing slash.
func (c *ServerConfig) PublicURL() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	host := c.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Port)
}

// PaymentConfig holds x402 settings.
type PaymentConfig struct {
	FreeMode          bool          `mapstructure:"free_mode"`
	PayTo             string        `mapstructure:"pay_to"`
	Network           string        `mapstructure:"network"`
	Asset             string        `mapstructure:"asset"`
	AssetAddress      string        `mapstructure:"asset_address"`
	AssetChainID      uint64        `mapstructure:"asset_chain_id"`
	Price             string        `mapstructure:"price"`
	MaxTimeoutSeconds int           `mapstructure:"max_timeout_seconds"`
	Facilitators      []string      `mapstructure:"facilitators"`
	VerifyTimeout     time.Duration `mapstructure:"verify_timeout"`
	ReplayTTL         time.Duration `mapstructure:"replay_ttl"`
	GateAllEstimates  bool          `mapstructure:"gate_all_estimates"`
}

// PayToAddress returns the recipient as common.Address.
func (c *PaymentConfig) PayToAddress() common.Address {
	return common.HexToAddress(c.PayTo)
}

// SettlementAssetID returns the token payments settle in. A CAIP-19 id in
// payment.asset wins over asset_chain_id/asset_address.
func (c *PaymentConfig) SettlementAssetID() (asset.AssetID, error) {
	if c.Asset != "" {
		id, err := asset.ParseAssetID(c.Asset)
		if err != nil {
			return asset.AssetID{}, err
		}
		if id.IsNative() {
			return asset.AssetID{}, fmt.Errorf("payment.asset must be an ERC20 token: %s", c.Asset)
		}
		return id, nil
	}
	if !common.IsHexAddress(c.AssetAddress) {
		return asset.AssetID{}, fmt.Errorf("invalid payment.asset_address: %s", c.AssetAddress)
	}
	addr := common.HexToAddress(c.AssetAddress)
	if addr == (common.Address{}) {
		return asset.AssetID{}, fmt.Errorf("payment.asset_address cannot be zero")
	}
	chainID := c.AssetChainID
	if chainID == 0 {
		chainID = asset.ChainIDBase
	}
	return asset.NewTokenAssetID(chainID, addr), nil
}

// PriceDecimal returns the per-call price in whole token units.
func (c *PaymentConfig) PriceDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.Price)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerMinute float64       `mapstructure:"requests_per_minute"`
	Burst             int           `mapstructure:"burst"`
	ClientTTL         time.Duration `mapstructure:"client_ttl"`
}

// ChainsConfig holds chain RPC settings. RPCURLs is keyed by chain slug.
type ChainsConfig struct {
	RPCURLs      map[string]string `mapstructure:"rpc_urls"`
	ProbeRPC     bool              `mapstructure:"probe_rpc"`
	ProbeTimeout time.Duration     `mapstructure:"probe_timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ServiceName   string `mapstructure:"service_name"`
	TraceProvider string `mapstructure:"trace_provider"`
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	OTLPHeaders   string `mapstructure:"otlp_headers"`
	OTLPInsecure  bool   `mapstructure:"otlp_insecure"`
	MetricsPath   string `mapstructure:"metrics_path"`
}

// ChainSlugs lists the slugs accepted under chains.rpc_urls and as <SLUG>_RPC_URL.
var ChainSlugs = []string{"ethereum", "polygon", "arbitrum", "optimism", "base", "bsc", "avalanche"}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SENTINEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
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

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "SENTINEL_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "SENTINEL_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "SENTINEL_LOG_LEVEL", "LOG_LEVEL")

	// Server
	v.BindEnv("server.port", "SENTINEL_PORT", "PORT")
	v.BindEnv("server.base_url", "SENTINEL_BASE_URL", "BASE_URL")

	// Payment
	v.BindEnv("payment.free_mode", "SENTINEL_FREE_MODE", "FREE_MODE")
	v.BindEnv("payment.pay_to", "SENTINEL_PAYMENT_ADDRESS", "PAYMENT_ADDRESS")
	v.BindEnv("payment.network", "SENTINEL_PAYMENT_NETWORK", "PAYMENT_NETWORK")
	v.BindEnv("payment.asset", "SENTINEL_PAYMENT_ASSET")
	v.BindEnv("payment.price", "SENTINEL_PRICE", "PRICE_USDC")
	v.BindEnv("payment.facilitators", "SENTINEL_FACILITATORS", "FACILITATOR_URL")

	// Chains
	for _, slug := range ChainSlugs {
		env := strings.ToUpper(slug) + "_RPC_URL"
		v.BindEnv("chains.rpc_urls."+slug, "SENTINEL_"+env, env)
	}
	v.BindEnv("chains.probe_rpc", "SENTINEL_PROBE_RPC")

	// Telemetry
	v.BindEnv("telemetry.enabled", "SENTINEL_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "SENTINEL_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.trace_provider", "SENTINEL_TRACE_PROVIDER", "OTEL_TRACE_PROVIDER")
	v.BindEnv("telemetry.otlp_endpoint", "SENTINEL_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "SENTINEL_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "slippage-sentinel")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 64*1024)

	// x402 defaults: 0.05 USDC on Base
	v.SetDefault("payment.free_mode", false)
	v.SetDefault("payment.pay_to", "0x01D11F7e1a46AbFC6092d7be484895D2d505095c")
	v.SetDefault("payment.network", "base")
	v.SetDefault("payment.asset_address", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	v.SetDefault("payment.asset_chain_id", 8453)
	v.SetDefault("payment.price", "0.05")
	v.SetDefault("payment.max_timeout_seconds", 30)
	v.SetDefault("payment.facilitators", []string{
		"https://facilitator.daydreams.systems",
		"https://api.cdp.coinbase.com/platform/v2/x402/facilitator",
	})
	v.SetDefault("payment.verify_timeout", "10s")
	v.SetDefault("payment.replay_ttl", "10m")
	v.SetDefault("payment.gate_all_estimates", false)

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 120)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("rate_limit.client_ttl", "5m")

	// Chain defaults
	v.SetDefault("chains.probe_rpc", false)
	v.SetDefault("chains.probe_timeout", "5s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "slippage-sentinel")
	v.SetDefault("telemetry.trace_provider", "")
	v.SetDefault("telemetry.metrics_path", "/metrics")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.BaseURL != "" {
		if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid server.base_url: %s", c.Server.BaseURL)
		}
	}
	if c.Payment.FreeMode {
		return nil
	}

	if !common.IsHexAddress(c.Payment.PayTo) {
		return fmt.Errorf("invalid payment.pay_to: %s", c.Payment.PayTo)
	}
	if _, err := c.Payment.SettlementAssetID(); err != nil {
		return err
	}
	if price, err := decimal.NewFromString(c.Payment.Price); err != nil || !price.IsPositive() {
		return fmt.Errorf("payment.price must be a positive decimal: %q", c.Payment.Price)
	}
	if len(c.Payment.Facilitators) == 0 {
		return fmt.Errorf("payment.facilitators cannot be empty")
	}
	for _, f := range c.Payment.Facilitators {
		if u, err := url.Parse(f); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid facilitator url: %s", f)
		}
	}
	return nil
}

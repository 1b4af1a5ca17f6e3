package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	SourceWooCommerce = "woocommerce"
	SourcePostgres    = "postgres"
	SourceDemo        = "demo"
)

type Config struct {
	APIURL         string `mapstructure:"api_url"`
	ConsumerKey    string `mapstructure:"consumer_key"`
	ConsumerSecret string `mapstructure:"consumer_secret"`
	AppTitle       string `mapstructure:"app_title"`

	Source        string `mapstructure:"source"`
	DatabaseURL   string `mapstructure:"database_url"`
	OrdersTable   string `mapstructure:"orders_table"`
	DemoOrders    int    `mapstructure:"demo_orders"`
	DemoCustomers int    `mapstructure:"demo_customers"`
	DemoSeed      int64  `mapstructure:"demo_seed"`

	Timezone       string        `mapstructure:"timezone"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheSize      int           `mapstructure:"cache_size"`

	DashboardStatuses []string `mapstructure:"dashboard_statuses"`
	RFMStatuses       []string `mapstructure:"rfm_statuses"`

	S3Region string `mapstructure:"s3_region"`
	LogLevel string `mapstructure:"log_level"`
}

// configKeys lists every key Config decodes. Keys without a default are only
// seen by Unmarshal from the environment once they are bound.
var configKeys = []string{
	"api_url", "consumer_key", "consumer_secret", "app_title",
	"source", "database_url", "orders_table", "demo_orders", "demo_customers", "demo_seed",
	"timezone", "request_timeout", "cache_ttl", "cache_size",
	"dashboard_statuses", "rfm_statuses",
	"s3_region", "log_level",
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app_title", "WooCommerce Dashboard")
	v.SetDefault("source", SourceWooCommerce)
	v.SetDefault("orders_table", "orders")
	v.SetDefault("demo_orders", 500)
	v.SetDefault("demo_customers", 80)
	v.SetDefault("demo_seed", 42)
	v.SetDefault("timezone", "Local")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("cache_ttl", "5m")
	v.SetDefault("cache_size", 64)
	v.SetDefault("dashboard_statuses", "completed,processing,on-hold")
	v.SetDefault("rfm_statuses", "completed")
	v.SetDefault("log_level", "info")
}

// LoadConfig reads cfgFile (optional), the WOOINSIGHTS_* environment and any
// flags already bound on v, and decodes the result.
func LoadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	v.SetEnvPrefix("wooinsights")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", key, err)
		}
	}
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	config.DashboardStatuses = trimAll(config.DashboardStatuses)
	config.RFMStatuses = trimAll(config.RFMStatuses)
	return &config, nil
}

// Validate checks that the keys needed by the selected source are present.
func (cfg *Config) Validate() error {
	var missing []string
	switch cfg.Source {
	case SourceWooCommerce, "":
		if cfg.APIURL == "" {
			missing = append(missing, "api_url")
		}
		if cfg.ConsumerKey == "" {
			missing = append(missing, "consumer_key")
		}
		if cfg.ConsumerSecret == "" {
			missing = append(missing, "consumer_secret")
		}
	case SourcePostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "database_url")
		}
	case SourceDemo:
	default:
		return fmt.Errorf("unknown order source %q", cfg.Source)
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone; "Local" and "" mean the host zone.
func (cfg *Config) Location() (*time.Location, error) {
	if cfg.Timezone == "" || cfg.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}
	return loc, nil
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

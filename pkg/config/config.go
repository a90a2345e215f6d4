package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config : paramètres de l'application (fichier YAML, .env, variables RFM_*).
type Config struct {
	Source        string        `mapstructure:"source" validate:"oneof=csv sql"`
	DSN           string        `mapstructure:"dsn" validate:"required_if=Source sql"`
	CustomersURL  string        `mapstructure:"customers_url"`
	OrdersURL     string        `mapstructure:"orders_url"`
	ItemsURL      string        `mapstructure:"items_url"`
	LogLevel      string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	ListenAddr    string        `mapstructure:"listen_addr"`
	TopN          int           `mapstructure:"top_n" validate:"min=1,max=100"`
	HistogramBins int           `mapstructure:"histogram_bins" validate:"min=1,max=500"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout" validate:"gt=0"`
}

var defaults = map[string]any{
	"source":         "csv",
	"dsn":            "",
	"customers_url":  "",
	"orders_url":     "",
	"items_url":      "",
	"log_level":      "info",
	"listen_addr":    ":8080",
	"top_n":          10,
	"histogram_bins": 30,
	"http_timeout":   "60s",
}

var validate = validator.New()

// Load = Read puis Validate.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read charge .env (optionnel), puis le fichier YAML (si path != ""), puis les variables RFM_*.
// Pas de validation : l'appelant peut encore surcharger des champs.
func Read(path string) (*Config, error) {
	// .env optionnel
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix("RFM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

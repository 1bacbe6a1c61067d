package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Validator *validator.Validate
}

// AppConfig represents the application configuration
type AppConfig struct {
	Port             string `validate:"required,numeric"`
	Environment      string `validate:"required,oneof=development staging production test"`
	LoggingLevel     string `validate:"oneof=debug info warn error fatal"`
	JournalDriver    string `validate:"oneof=none sqlite opensearch"`
	SQLitePath       string `validate:"required_if=JournalDriver sqlite"`
	OpenSearchURL    string `validate:"omitempty,url"`
	OpenSearchUser   string
	OpenSearchPass   string
	OpenSearchIndex  string `validate:"required_if=JournalDriver opensearch"`
	MetricsNamespace string `validate:"required"`
	AllowedOrigins   []string
	CallbackIPs      []string
	RateLimit        int `validate:"gte=0"`
	APIKey           string
}

// GatewayConfig holds the Comgate merchant credentials and transport settings
type GatewayConfig struct {
	MerchantID    string        `validate:"required,numeric"`
	Secret        string        `validate:"required,min=8"`
	BaseURL       string        `validate:"required,url"`
	TestCalls     bool
	Timeout       time.Duration `validate:"gte=0"`
	ProxyHost     string        `validate:"omitempty,hostname|ip"`
	ProxyPort     int           `validate:"omitempty,min=1,max=65535"`
	ProxyUser     string
	ProxyPassword string
}

// ToMap renders the gateway config in the key/value form accepted by gateway Initialize
func (g *GatewayConfig) ToMap() map[string]string {
	conf := map[string]string{
		"merchantId": g.MerchantID,
		"secret":     g.Secret,
		"baseURL":    g.BaseURL,
		"testCalls":  strconv.FormatBool(g.TestCalls),
	}
	if g.Timeout > 0 {
		conf["timeoutSeconds"] = strconv.Itoa(int(g.Timeout / time.Second))
	}
	if g.ProxyHost != "" {
		conf["proxyHost"] = g.ProxyHost
		conf["proxyPort"] = strconv.Itoa(g.ProxyPort)
		conf["proxyUser"] = g.ProxyUser
		conf["proxyPassword"] = g.ProxyPassword
	}
	return conf
}

const DefaultBaseURL = "https://payments.comgate.cz/v1.0"

var (
	instance          *Config
	appConfigInstance *AppConfig
	configMu          sync.Mutex
)

func App() *Config {
	configMu.Lock()
	defer configMu.Unlock()

	if instance == nil {
		instance = &Config{
			Validator: validator.New(),
		}
	}
	return instance
}

// GetAppConfig returns the application configuration
func GetAppConfig() *AppConfig {
	configMu.Lock()
	defer configMu.Unlock()

	if appConfigInstance == nil {
		appConfigInstance = &AppConfig{
			Port:             GetEnv("APP_PORT", "9999"),
			Environment:      GetEnv("ENVIRONMENT", "development"),
			LoggingLevel:     GetEnv("LOGGING_LEVEL", "info"),
			JournalDriver:    GetEnv("JOURNAL_DRIVER", "none"),
			SQLitePath:       GetEnv("SQLITE_PATH", "./data/journal.db"),
			OpenSearchURL:    GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
			OpenSearchUser:   GetEnv("OPENSEARCH_USER", ""),
			OpenSearchPass:   GetEnv("OPENSEARCH_PASSWORD", ""),
			OpenSearchIndex:  GetEnv("OPENSEARCH_INDEX", "comgate-calls"),
			MetricsNamespace: GetEnv("METRICS_NAMESPACE", "gocomgate"),
			AllowedOrigins:   GetListEnv("ALLOWED_ORIGINS", []string{"*"}),
			CallbackIPs:      GetListEnv("CALLBACK_ALLOWED_IPS", nil),
			RateLimit:        GetIntEnv("RATE_LIMIT_PER_MINUTE", 100),
			APIKey:           GetEnv("API_KEY", ""),
		}
	}
	return appConfigInstance
}

// LoadGatewayConfig reads the COMGATE_* environment variables and validates them
func LoadGatewayConfig() (*GatewayConfig, error) {
	conf := &GatewayConfig{
		MerchantID:    GetEnv("COMGATE_MERCHANT_ID", ""),
		Secret:        GetEnv("COMGATE_SECRET", ""),
		BaseURL:       GetEnv("COMGATE_BASE_URL", DefaultBaseURL),
		TestCalls:     GetBoolEnv("COMGATE_TEST_CALLS", false),
		Timeout:       time.Duration(GetIntEnv("COMGATE_TIMEOUT_SECONDS", 30)) * time.Second,
		ProxyHost:     GetEnv("COMGATE_PROXY_HOST", ""),
		ProxyPort:     GetIntEnv("COMGATE_PROXY_PORT", 0),
		ProxyUser:     GetEnv("COMGATE_PROXY_USER", ""),
		ProxyPassword: GetEnv("COMGATE_PROXY_PASSWORD", ""),
	}

	if err := Validate(conf); err != nil {
		return nil, fmt.Errorf("invalid gateway config: %w", err)
	}
	return conf, nil
}

// Validate runs the shared validator against a struct
func Validate(v any) error {
	return App().Validator.Struct(v)
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetListEnv splits a comma separated environment variable
func GetListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

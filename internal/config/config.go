package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
//
// Secret precedence, highest first: Vault (when enabled), the config file,
// RESUMEFORGE_* environment variables, provider fallbacks (GEMINI_API_KEY,
// OPENAI_API_KEY), defaults.
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Browser       BrowserConfig       `mapstructure:"browser"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds text generator configuration
type AIConfig struct {
	Provider          string               `mapstructure:"provider"` // "gemini" or "openai"
	Model             string               `mapstructure:"model"`
	BaseURL           string               `mapstructure:"baseURL"` // OpenAI-compatible endpoint root
	APIKey            string               `mapstructure:"apiKey"`
	Timeout           time.Duration        `mapstructure:"timeout"`
	MaxRetries        int                  `mapstructure:"maxRetries"`
	Temperature       float32              `mapstructure:"temperature"`
	MaxTokens         int                  `mapstructure:"maxTokens"`
	UseSystemPrompts  bool                 `mapstructure:"useSystemPrompts"`
	ModelCheckTimeout time.Duration        `mapstructure:"modelCheckTimeout"`
	Prompts           PromptConfig         `mapstructure:"prompts"`
	CircuitBreaker    CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// PromptConfig holds the tailoring prompts. A file wins over inline text,
// inline text wins over the built-in default.
type PromptConfig struct {
	System        string        `mapstructure:"system"`
	SystemFile    string        `mapstructure:"systemFile"`
	User          string        `mapstructure:"user"`
	UserFile      string        `mapstructure:"userFile"`
	Watch         bool          `mapstructure:"watch"`         // reload files on change
	DebounceDelay time.Duration `mapstructure:"debounceDelay"` // coalesce editor write bursts
}

// Files returns the configured prompt file paths
func (p PromptConfig) Files() []string {
	var files []string
	if p.SystemFile != "" {
		files = append(files, p.SystemFile)
	}
	if p.UserFile != "" {
		files = append(files, p.UserFile)
	}
	return files
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // allowed while half-open
	Interval         time.Duration `mapstructure:"interval"`         // closed-state count reset
	Timeout          time.Duration `mapstructure:"timeout"`          // open to half-open
	MinRequests      uint32        `mapstructure:"minRequests"`      // before the ratio is considered
	FailureThreshold float64       `mapstructure:"failureThreshold"` // 0.0-1.0
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host                string          `mapstructure:"host"`
	Port                string          `mapstructure:"port"`
	ReadTimeout         time.Duration   `mapstructure:"readTimeout"`
	WriteTimeout        time.Duration   `mapstructure:"writeTimeout"`
	IdleTimeout         time.Duration   `mapstructure:"idleTimeout"`
	ShutdownTimeout     time.Duration   `mapstructure:"shutdownTimeout"`
	MaxRequestSize      int64           `mapstructure:"maxRequestSize"`
	DeleteAfterDownload bool            `mapstructure:"deleteAfterDownload"`
	TLS                 TLSConfig       `mapstructure:"tls"`
	APIKeys             []string        `mapstructure:"apiKeys"`
	RateLimit           RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration. Certificates come either from
// files or from PEM content (Vault).
type TLSConfig struct {
	Mode             string `mapstructure:"mode"` // "disabled", "server", "mutual"
	CertFile         string `mapstructure:"certFile"`
	KeyFile          string `mapstructure:"keyFile"`
	CAFile           string `mapstructure:"caFile"`
	CertContent      string `mapstructure:"certContent"`
	KeyContent       string `mapstructure:"keyContent"`
	CAContent        string `mapstructure:"caContent"`
	MinVersion       string `mapstructure:"minVersion"`       // "1.2" or "1.3"
	ClientAuthPolicy string `mapstructure:"clientAuthPolicy"` // "require", "request", "verify"
	AutoReload       bool   `mapstructure:"autoReload"`       // reload cert/key files when they change
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	RequestsPerMin int  `mapstructure:"requestsPerMin"`
	BurstCapacity  int  `mapstructure:"burstCapacity"`
	ByIP           bool `mapstructure:"byIP"`
	ByAPIKey       bool `mapstructure:"byAPIKey"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel          string   `mapstructure:"logLevel"`
	LogFormat         string   `mapstructure:"logFormat"`
	DefaultFormat     string   `mapstructure:"defaultFormat"`
	SupportedFormats  []string `mapstructure:"supportedFormats"`
	MaxFileSize       int64    `mapstructure:"maxFileSize"`
	TailorMode        string   `mapstructure:"tailorMode"`
	ResumeExtensions  []string `mapstructure:"resumeExtensions"`
	JobExtensions     []string `mapstructure:"jobExtensions"`
	SuggestionsTopN   int      `mapstructure:"suggestionsTopN"`
	SuggestionsMinLen int      `mapstructure:"suggestionsMinLength"`
}

// StorageConfig controls where generated documents live and for how long
type StorageConfig struct {
	Dir           string        `mapstructure:"dir"`
	TTL           time.Duration `mapstructure:"ttl"` // 0 keeps files forever
	SweepInterval time.Duration `mapstructure:"sweepInterval"`
}

// BrowserConfig configures the headless browser used for submissions
type BrowserConfig struct {
	ChromePath string        `mapstructure:"chromePath"`
	Headless   bool          `mapstructure:"headless"`
	NoSandbox  bool          `mapstructure:"noSandbox"`
	Timeout    time.Duration `mapstructure:"timeout"`
	UserAgent  string        `mapstructure:"userAgent"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	Tracing         TracingConfig    `mapstructure:"tracing"`
	Metrics         MetricsConfig    `mapstructure:"metrics"`
	Console         ConsoleConfig    `mapstructure:"console"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console exporter configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// FlagBinding ties a command-line flag to a configuration key. A flag the
// user set wins over the environment and the config file.
type FlagBinding struct {
	Key  string
	Flag *pflag.Flag
}

// LoadConfig loads configuration from the default search paths
func LoadConfig() (*Config, error) {
	return Load("")
}

// Load reads configuration from configFile, or from the search paths when
// configFile is empty, then applies environment variables, bound flags and
// fallbacks.
func Load(configFile string, bindings ...FlagBinding) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RESUMEFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, b := range bindings {
		if b.Flag == nil {
			continue
		}
		if err := v.BindPFlag(b.Key, b.Flag); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", b.Flag.Name, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/resumeforge/")
		v.AddConfigPath("$HOME/.resumeforge")
		v.AddConfigPath(".")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Default returns the configuration produced by defaults alone, with
// fallbacks applied. Tests and the reconstruct command use it.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Sprintf("config: defaults do not unmarshal: %v", err))
	}
	config.applyFallbacks()
	return &config
}

// Address returns host:port for the HTTP listener
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

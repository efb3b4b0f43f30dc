package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks fills values the config file and RESUMEFORGE_* variables left empty
func (c *Config) applyFallbacks() {
	c.applyAIFallbacks()
	c.applyServerFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

// applyAIFallbacks picks the provider's conventional key variable and model
func (c *Config) applyAIFallbacks() {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))

	switch c.AI.Provider {
	case "openai":
		if c.AI.APIKey == "" {
			c.AI.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if c.AI.Model == "" {
			c.AI.Model = DefaultOpenAIModel
		}
		if c.AI.BaseURL == "" {
			c.AI.BaseURL = DefaultOpenAIURL
		}
	default:
		if c.AI.APIKey == "" {
			c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
		}
		if c.AI.Model == "" {
			c.AI.Model = DefaultGeminiModel
		}
	}
}

// applyServerFallbacks handles PORT and comma-separated API keys from the environment
func (c *Config) applyServerFallbacks() {
	if c.Server.Port == "" {
		if port := os.Getenv("PORT"); port != "" {
			c.Server.Port = port
		} else {
			c.Server.Port = DefaultPort
		}
	}

	// AutomaticEnv yields the raw string for slice keys
	if len(c.Server.APIKeys) <= 1 {
		raw := os.Getenv("RESUMEFORGE_SERVER_APIKEYS")
		if raw == "" && len(c.Server.APIKeys) == 1 {
			raw = c.Server.APIKeys[0]
		}
		if raw != "" {
			c.Server.APIKeys = splitList(raw)
		}
	}
}

// applyTLSDefaults applies default TLS configuration values
func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "" {
		c.Server.TLS.Mode = "disabled"
	}
	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// maskSecret keeps the first and last four characters of long secrets
func maskSecret(value string) string {
	switch {
	case len(value) > 8:
		return value[:4] + "****" + value[len(value)-4:]
	case value != "":
		return "****"
	default:
		return ""
	}
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"RESUMEFORGE_AI_APIKEY",
		"RESUMEFORGE_AI_PROVIDER",
		"RESUMEFORGE_AI_MODEL",
		"RESUMEFORGE_SERVER_PORT",
		"RESUMEFORGE_SERVER_HOST",
		"RESUMEFORGE_APP_LOGLEVEL",
		"RESUMEFORGE_VAULT_ENABLED",
		"GEMINI_API_KEY",
		"OPENAI_API_KEY",
		"PORT",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if strings.Contains(strings.ToLower(envVar), "key") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	if c.AI.APIKey != "" {
		log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] AI API Key: ***NOT SET***")
	}
	log.Printf("[CONFIG] Server: %s", c.Server.Address())
	log.Printf("[CONFIG] Tailor Mode: %s", c.App.TailorMode)
	log.Printf("[CONFIG] Storage Dir: %s (ttl %s)", c.Storage.Dir, c.Storage.TTL)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}

package config

import (
	"time"

	"github.com/spf13/viper"
)

// Defaults that other packages fall back to when a value is left unset.
const (
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOpenAIModel = "gpt-3.5-turbo"
	DefaultOpenAIURL   = "https://api.openai.com/v1"
	DefaultPort        = "5000"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.baseURL", "")
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.timeout", 90*time.Second)
	v.SetDefault("ai.maxRetries", 2)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.maxTokens", 2000)
	v.SetDefault("ai.useSystemPrompts", true)
	v.SetDefault("ai.modelCheckTimeout", 10*time.Second)

	v.SetDefault("ai.prompts.system", "")
	v.SetDefault("ai.prompts.systemFile", "")
	v.SetDefault("ai.prompts.user", "")
	v.SetDefault("ai.prompts.userFile", "")
	v.SetDefault("ai.prompts.watch", true)
	v.SetDefault("ai.prompts.debounceDelay", time.Second)

	v.SetDefault("ai.circuitBreaker.enabled", true)
	v.SetDefault("ai.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 150*time.Second) // covers a full generation round trip
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.shutdownTimeout", 30*time.Second)
	v.SetDefault("server.maxRequestSize", 16*1024*1024)
	v.SetDefault("server.deleteAfterDownload", false)

	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.tls.autoReload", false)

	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 30)
	v.SetDefault("server.rateLimit.burstCapacity", 5)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)

	// App
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.logFormat", "json")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 16*1024*1024)
	v.SetDefault("app.tailorMode", "preserve")
	v.SetDefault("app.resumeExtensions", []string{".docx"})
	v.SetDefault("app.jobExtensions", []string{".txt", ".md", ".markdown", ".pdf", ".html", ".htm", ".docx"})
	v.SetDefault("app.suggestionsTopN", 25)
	v.SetDefault("app.suggestionsMinLength", 3)

	// Storage
	v.SetDefault("storage.dir", "uploads")
	v.SetDefault("storage.ttl", 24*time.Hour)
	v.SetDefault("storage.sweepInterval", 10*time.Minute)

	// Browser
	v.SetDefault("browser.chromePath", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.noSandbox", false)
	v.SetDefault("browser.timeout", 2*time.Minute)
	v.SetDefault("browser.userAgent", "")

	// Vault
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.aiKey", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "resumeforge")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}

package types

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose   bool            `mapstructure:"verbose"`
	Config    string          `mapstructure:"config"`
	Store     StoreConfig     `mapstructure:"store" validate:"required"`
	Analytics AnalyticsConfig `mapstructure:"analytics" validate:"required"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"omitempty"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// StoreConfig holds context-store settings
type StoreConfig struct {
	ContextDir   string `mapstructure:"contextDir" validate:"required"`
	TemplatesDir string `mapstructure:"templatesDir"`
}

// AnalyticsConfig holds the analytics database location
type AnalyticsConfig struct {
	DBPath string `mapstructure:"dbPath" validate:"required"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// LLMConfig holds configuration for LLM integration
type LLMConfig struct {
	Provider  string `mapstructure:"provider" validate:"omitempty,oneof=openai ollama anthropic gemini"`
	Model     string `mapstructure:"model" validate:"omitempty,min=1"`
	APIKey    string `mapstructure:"apiKey" validate:"omitempty,min=1"`
	BaseURL   string `mapstructure:"baseURL" validate:"omitempty,url"`
	MaxTokens int    `mapstructure:"maxTokens" validate:"omitempty,min=1"`
}

// TelemetryConfig holds anonymous usage telemetry settings
type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"apiKey"`
}

package engine

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ultrapress/ultrapress/pkg/history"
	"github.com/ultrapress/ultrapress/pkg/modeladapter"
	"github.com/ultrapress/ultrapress/pkg/prompt"
	"github.com/ultrapress/ultrapress/pkg/session"
)

// DefaultMaxTokens is the completion budget when none is configured.
const DefaultMaxTokens = 400

// DefaultWelcomeMessage opens every new chatbot conversation.
const DefaultWelcomeMessage = "Hello! How can I assist you today?"

// Config is the top-level configuration.
type Config struct {
	Provider    string                    `yaml:"provider"`
	Providers   map[string]ProviderConfig `yaml:"providers"`
	MaxTokens   int                       `yaml:"max_tokens"`
	Temperature float64                   `yaml:"temperature"`
	Timeout     time.Duration             `yaml:"timeout"`
	History     HistoryConfig             `yaml:"history"`
	Chatbot     ChatbotConfig             `yaml:"chatbot"`
	SEO         SEOConfig                 `yaml:"seo"`
	Session     SessionConfig             `yaml:"session"`
	Transcript  TranscriptConfig          `yaml:"transcript"`
	Server      ServerConfig              `yaml:"server"`
}

// ProviderConfig holds the credentials and model for one provider. The
// Provider field is filled from the map key by LoadConfig and ActiveProvider.
type ProviderConfig struct {
	Provider    string  `yaml:"-"`
	APIKey      string  `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// HistoryConfig sizes the bookend history compressor.
type HistoryConfig struct {
	Head int `yaml:"head"`
	Tail int `yaml:"tail"`
}

// ChatbotConfig holds the site owner's chatbot settings.
type ChatbotConfig struct {
	Persona        string `yaml:"persona"`
	KnowledgeBase  string `yaml:"knowledge_base"`
	ContactInfo    string `yaml:"contact_info"`
	WelcomeMessage string `yaml:"welcome_message"`
}

// SEOConfig holds SEO generation settings.
type SEOConfig struct {
	SiteTitle string `yaml:"site_title"`
}

// SessionConfig selects the conversation store.
type SessionConfig struct {
	Driver    string        `yaml:"driver"`
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

// TranscriptConfig enables the SQLite transcript when Path is set.
type TranscriptConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings. AllowedOrigins lists the hosts
// whose pages may open the chat WebSocket when the API runs on another host.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DefaultConfig returns a configuration with every default applied and the
// OpenAI provider selected.
func DefaultConfig() Config {
	var c Config
	c.applyDefaults()
	return c
}

// LoadConfig reads a YAML file and returns a Config with defaults applied.
// Environment variables referenced as ${VAR} or $VAR in the YAML are expanded
// before parsing, and ULTRAPRESS_<PROVIDER>_API_KEY overrides the key stored
// in the file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("engine: load config: %w", err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ParseConfig is LoadConfig for in-memory YAML.
func ParseConfig(data []byte) (Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvKeys()

	return cfg, nil
}

// EnvKeyVar returns the environment variable that overrides the API key of
// provider p.
func EnvKeyVar(p modeladapter.Provider) string {
	return "ULTRAPRESS_" + strings.ToUpper(string(p)) + "_API_KEY"
}

func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = string(modeladapter.OpenAI)
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = modeladapter.DefaultTimeout
	}
	if c.History == (HistoryConfig{}) {
		c.History.Head = history.DefaultPolicy.Head
	}
	if c.History.Tail == 0 {
		c.History.Tail = history.DefaultPolicy.Tail
	}
	if c.Chatbot.Persona == "" {
		c.Chatbot.Persona = prompt.DefaultPersona
	}
	if c.Chatbot.WelcomeMessage == "" {
		c.Chatbot.WelcomeMessage = DefaultWelcomeMessage
	}
	if c.Session.Driver == "" {
		c.Session.Driver = string(session.DriverMemory)
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = session.DefaultTTL
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
}

// applyEnvKeys lets ULTRAPRESS_<PROVIDER>_API_KEY win over the file.
func (c *Config) applyEnvKeys() {
	for _, p := range modeladapter.Providers() {
		key := os.Getenv(EnvKeyVar(p))
		if key == "" {
			continue
		}
		pc := c.Providers[string(p)]
		pc.APIKey = key
		c.Providers[string(p)] = pc
	}
}

// ActiveProvider returns the settings of the selected provider with the
// global max_tokens and temperature filled in where the provider leaves them
// unset. It does not validate credentials; Client.Send does.
func (c Config) ActiveProvider() ProviderConfig {
	return c.ProviderSettings(c.Provider)
}

// ProviderSettings is ActiveProvider for an arbitrary provider id.
func (c Config) ProviderSettings(id string) ProviderConfig {
	id = strings.ToLower(strings.TrimSpace(id))

	pc := c.Providers[id]
	pc.Provider = id
	if pc.MaxTokens <= 0 {
		pc.MaxTokens = c.MaxTokens
	}
	if pc.Temperature == 0 {
		pc.Temperature = c.Temperature
	}

	return pc
}

// HistoryPolicy returns the compressor policy described by the config.
func (c Config) HistoryPolicy() history.Policy {
	return history.Policy{Head: c.History.Head, Tail: c.History.Tail}
}

// Validate checks that the configuration is internally consistent. Missing
// credentials are not a validation error: they surface per request as a
// ConfigError so a half-configured site still serves its other features.
func (c Config) Validate() error {
	if _, err := modeladapter.ParseProvider(c.Provider); err != nil {
		return fmt.Errorf("engine: config: %w", err)
	}

	for id := range c.Providers {
		if _, err := modeladapter.ParseProvider(id); err != nil {
			return fmt.Errorf("engine: config: providers: %w", err)
		}
	}

	if c.MaxTokens < 0 {
		return fmt.Errorf("engine: config: max_tokens must not be negative")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("engine: config: temperature %v out of range [0, 2]", c.Temperature)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("engine: config: timeout must not be negative")
	}
	if c.History.Head < 0 || c.History.Tail < 0 {
		return fmt.Errorf("engine: config: history head and tail must not be negative")
	}
	// The newest message must survive compression.
	if c.History.Tail < 1 {
		return fmt.Errorf("engine: config: history tail must be at least 1")
	}
	if _, ok := prompt.LookupPersona(c.Chatbot.Persona); !ok {
		return fmt.Errorf("engine: config: unknown persona %q", c.Chatbot.Persona)
	}

	switch session.Driver(c.Session.Driver) {
	case session.DriverMemory:
	case session.DriverRedis:
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("engine: config: session: redis driver requires redis_addr")
		}
	default:
		return fmt.Errorf("engine: config: session: unknown driver %q", c.Session.Driver)
	}

	return nil
}

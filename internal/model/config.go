package model

import "time"

// Config is the complete runtime configuration.
// Hierarchy: CLI flags > VERISTREAM_* env vars > config file > defaults.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Agents    []AgentConfig   `yaml:"agents" mapstructure:"agents"`
	Verify    VerifyConfig    `yaml:"verify" mapstructure:"verify"`
	Consensus ConsensusConfig `yaml:"consensus" mapstructure:"consensus"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Speech    SpeechConfig    `yaml:"speech" mapstructure:"speech"`
	Interject InterjectConfig `yaml:"interject" mapstructure:"interject"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ServerConfig controls the ingress HTTP/WebSocket server
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LLMConfig configures the shared LLM provider used for the optional
// remote calls: semantic improvement, remote classification, consensus
// arbitration, and correction synthesis. Empty provider means fully
// offline operation on local heuristics.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, ""
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`

	// Proxy settings
	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// AgentConfig names one verification agent in the roster.
// Kind "http" reaches a remote verifier endpoint; kind "llm" runs the
// shared LLM provider under this agent's name and persona.
type AgentConfig struct {
	Name    string        `yaml:"name" mapstructure:"name"`
	Kind    string        `yaml:"kind" mapstructure:"kind"` // http, llm
	URL     string        `yaml:"url" mapstructure:"url"`   // http agents only
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	Model   string        `yaml:"model" mapstructure:"model"` // llm agents only
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// VerifyConfig tunes orchestration
type VerifyConfig struct {
	AgentTimeout time.Duration `yaml:"agent_timeout" mapstructure:"agent_timeout"`
	MaxInFlight  int           `yaml:"max_in_flight" mapstructure:"max_in_flight"` // Concurrent verifications; 0 = default
	AgentRate    float64       `yaml:"agent_rate" mapstructure:"agent_rate"`       // Dispatches per second per agent
	AgentBurst   int           `yaml:"agent_burst" mapstructure:"agent_burst"`
}

// ConsensusConfig configures the remote consensus authority.
// Empty URL means the deterministic local vote is always used.
type ConsensusConfig struct {
	AuthorityURL string        `yaml:"authority_url" mapstructure:"authority_url"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// StoreConfig selects the record store backend
type StoreConfig struct {
	Backend        string `yaml:"backend" mapstructure:"backend"` // memory, supabase
	SupabaseURL    string `yaml:"supabase_url" mapstructure:"supabase_url"`
	SupabaseKey    string `yaml:"supabase_key" mapstructure:"supabase_key"`
	StatementTable string `yaml:"statement_table" mapstructure:"statement_table"`
	EntryTable     string `yaml:"entry_table" mapstructure:"entry_table"`
}

// SpeechConfig configures the speech-output call
type SpeechConfig struct {
	TTSURL  string        `yaml:"tts_url" mapstructure:"tts_url"` // Empty disables audible output (corrections are logged)
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	VoiceID string        `yaml:"voice_id" mapstructure:"voice_id"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// InterjectConfig tunes the silence-gated scheduler. The silence window,
// ceiling and poll interval are design constants; only the energy
// threshold is deployment-tunable.
type InterjectConfig struct {
	EnergyThreshold float64 `yaml:"energy_threshold" mapstructure:"energy_threshold"` // Normalized 0-1
}

// CacheConfig tunes the verification result cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LogConfig controls slog output
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// DefaultConfig returns sensible defaults for all settings
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			Provider:  "", // Disabled by default
			Timeout:   30,
			MaxTokens: 500,
		},
		Verify: VerifyConfig{
			AgentTimeout: 20 * time.Second,
			MaxInFlight:  32,
			AgentRate:    5,
			AgentBurst:   10,
		},
		Consensus: ConsensusConfig{
			Timeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Backend:        "memory",
			StatementTable: "statements",
			EntryTable:     "queue_entries",
		},
		Speech: SpeechConfig{
			Timeout: 15 * time.Second,
		},
		Interject: InterjectConfig{
			EnergyThreshold: 0.05,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Package config provides configuration management for the actr node
package config

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// String returns the string representation of LogLevel.
func (l LogLevel) String() string {
	return string(l)
}

// IsValid checks if the log level is valid.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// LogFormat represents the log output format
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// IsValid checks if the log format is valid.
func (f LogFormat) IsValid() bool {
	return f == LogFormatText || f == LogFormatJSON
}

// ActorTypeConfig names a class of actor for discovery purposes.
type ActorTypeConfig struct {
	Manufacturer string `yaml:"manufacturer" json:"manufacturer" toml:"manufacturer"`
	Name         string `yaml:"name" json:"name" toml:"name"`
}

// IsZero reports whether the type is entirely unset.
func (t ActorTypeConfig) IsZero() bool {
	return t.Manufacturer == "" && t.Name == ""
}

// NodeConfig identifies the local actor and its network endpoint.
type NodeConfig struct {
	// Realm is the numeric namespace this node's actor id lives in
	Realm uint32 `yaml:"realm" json:"realm" toml:"realm"`

	// SerialNumber is the unique serial of this node within its realm
	SerialNumber uint64 `yaml:"serial_number" json:"serial_number" toml:"serial_number"`

	// Type is the discovery descriptor of the attached workload
	Type ActorTypeConfig `yaml:"type" json:"type" toml:"type"`

	// Listen is the TCP address for inbound node links. Empty selects the
	// in-process transport.
	Listen string `yaml:"listen" json:"listen" toml:"listen"`
}

// CallConfig tunes the RPC call path.
type CallConfig struct {
	// DefaultTimeoutMs bounds calls whose caller passed no timeout
	DefaultTimeoutMs int64 `yaml:"default_timeout_ms" json:"default_timeout_ms" toml:"default_timeout_ms"`
}

// PeerConfig is one statically known remote actor: its identity plus the
// address its node listens on.
type PeerConfig struct {
	Realm        uint32          `yaml:"realm" json:"realm" toml:"realm"`
	SerialNumber uint64          `yaml:"serial_number" json:"serial_number" toml:"serial_number"`
	Type         ActorTypeConfig `yaml:"type" json:"type" toml:"type"`
	Address      string          `yaml:"address" json:"address" toml:"address"`
}

// ObservabilityConfig controls log output.
type ObservabilityConfig struct {
	Level  LogLevel  `yaml:"level" json:"level" toml:"level"`
	Format LogFormat `yaml:"format" json:"format" toml:"format"`
}

// Config represents the complete node configuration.
type Config struct {
	Node          NodeConfig          `yaml:"node" json:"node" toml:"node"`
	Call          CallConfig          `yaml:"call" json:"call" toml:"call"`
	Peers         []PeerConfig        `yaml:"peers" json:"peers" toml:"peers"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability" toml:"observability"`
}

// DefaultConfig returns a configuration with sane defaults. Identity fields
// have no defaults and must come from the file or environment.
func DefaultConfig() *Config {
	return &Config{
		Call: CallConfig{
			DefaultTimeoutMs: 10000,
		},
		Observability: ObservabilityConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Node.Type.Manufacturer == "" || c.Node.Type.Name == "" {
		return ErrInvalidActorType
	}
	if c.Call.DefaultTimeoutMs <= 0 {
		return ErrInvalidTimeout
	}
	if !c.Observability.Level.IsValid() {
		return ErrInvalidLogLevel
	}
	if !c.Observability.Format.IsValid() {
		return ErrInvalidLogFormat
	}
	for _, peer := range c.Peers {
		if peer.Address == "" {
			return ErrInvalidPeerAddress
		}
		if peer.Type.IsZero() {
			return ErrInvalidPeerType
		}
	}
	return nil
}

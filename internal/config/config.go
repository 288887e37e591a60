package config

import "time"

// Config is the root configuration for a pushgate daemon.
type Config struct {
	Instance   InstanceConfig   `yaml:"instance"`
	Server     ServerConfig     `yaml:"server"`
	Connection ConnectionConfig `yaml:"connection"`
	Journal    JournalConfig    `yaml:"journal"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// InstanceConfig identifies this daemon instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds the upstream push server settings.
type ServerConfig struct {
	WSURL            string        `yaml:"ws_url"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
}

// ConnectionConfig holds connection manager tuning knobs.
type ConnectionConfig struct {
	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval"`
	AckTimeout           time.Duration `yaml:"ack_timeout"`
	AckCheckInterval     time.Duration `yaml:"ack_check_interval"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	InitialBackoff       time.Duration `yaml:"initial_backoff"`
	MaxBackoff           time.Duration `yaml:"max_backoff"`
	BackoffMultiplier    float64       `yaml:"backoff_multiplier"`
	MessageBufferSize    int           `yaml:"message_buffer_size"`
	ReplayDelay          time.Duration `yaml:"replay_delay"`
	ErrorLogSize         int           `yaml:"error_log_size"`
}

// JournalConfig holds the optional delivered-notification journal
// settings. The journal is disabled when Database.Host is empty.
type JournalConfig struct {
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// JournalEnabled reports whether a journal database is configured.
func (c *Config) JournalEnabled() bool {
	return c.Journal.Database.Host != ""
}

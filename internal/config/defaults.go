package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHandshakeTimeout     = 10 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultHeartbeatInterval    = 30 * time.Second
	DefaultAckTimeout           = 10 * time.Second
	DefaultAckCheckInterval     = 1 * time.Second
	DefaultMaxReconnectAttempts = 10
	DefaultInitialBackoff       = 1 * time.Second
	DefaultMaxBackoff           = 30 * time.Second
	DefaultBackoffMultiplier    = 2.0
	DefaultMessageBufferSize    = 100
	DefaultReplayDelay          = 100 * time.Millisecond
	DefaultErrorLogSize         = 100
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 10
	DefaultMinConns             = 2
	DefaultBatchSize            = 100
	DefaultFlushInterval        = 1 * time.Second
	DefaultMetricsPort          = 9090
	DefaultMetricsPath          = "/metrics"
)

func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.HandshakeTimeout == 0 {
		c.Server.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}

	// Connection defaults
	if c.Connection.HeartbeatInterval == 0 {
		c.Connection.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Connection.AckTimeout == 0 {
		c.Connection.AckTimeout = DefaultAckTimeout
	}
	if c.Connection.AckCheckInterval == 0 {
		c.Connection.AckCheckInterval = DefaultAckCheckInterval
	}
	if c.Connection.MaxReconnectAttempts == 0 {
		c.Connection.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Connection.InitialBackoff == 0 {
		c.Connection.InitialBackoff = DefaultInitialBackoff
	}
	if c.Connection.MaxBackoff == 0 {
		c.Connection.MaxBackoff = DefaultMaxBackoff
	}
	if c.Connection.BackoffMultiplier == 0 {
		c.Connection.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if c.Connection.MessageBufferSize == 0 {
		c.Connection.MessageBufferSize = DefaultMessageBufferSize
	}
	if c.Connection.ReplayDelay == 0 {
		c.Connection.ReplayDelay = DefaultReplayDelay
	}
	if c.Connection.ErrorLogSize == 0 {
		c.Connection.ErrorLogSize = DefaultErrorLogSize
	}

	// Journal defaults (database only when one is configured)
	if c.JournalEnabled() {
		applyDBDefaults(&c.Journal.Database)
	}
	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = DefaultBatchSize
	}
	if c.Journal.FlushInterval == 0 {
		c.Journal.FlushInterval = DefaultFlushInterval
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}

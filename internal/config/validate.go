package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}
	if c.Server.WSURL == "" {
		return errors.New("server.ws_url is required")
	}

	if c.Connection.AckTimeout <= c.Connection.AckCheckInterval {
		return errors.New("connection.ack_timeout must be greater than connection.ack_check_interval")
	}
	if c.Connection.MaxReconnectAttempts < 1 {
		return errors.New("connection.max_reconnect_attempts must be >= 1")
	}
	if c.Connection.BackoffMultiplier < 1.0 {
		return errors.New("connection.backoff_multiplier must be >= 1.0")
	}
	if c.Connection.MaxBackoff < c.Connection.InitialBackoff {
		return errors.New("connection.max_backoff must be >= connection.initial_backoff")
	}
	if c.Connection.MessageBufferSize < 1 {
		return errors.New("connection.message_buffer_size must be >= 1")
	}

	if c.JournalEnabled() {
		if err := c.Journal.Database.validate("journal.database"); err != nil {
			return err
		}
		if c.Journal.BatchSize < 1 {
			return errors.New("journal.batch_size must be >= 1")
		}
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns cannot exceed max_conns", prefix)
	}
	return nil
}

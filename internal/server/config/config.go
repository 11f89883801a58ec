// Package config handles configuration for the chat server,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"time"

	"github.com/dmitrijs2005/gophchat/internal/protocol"
)

// Config holds runtime settings for the chat server.
//
// Fields:
//   - EndpointAddrTCP: bind address for the chat protocol listener.
//   - EndpointAddrHTTP: bind address for the admin API and metrics. Empty disables it.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - OutboundQueueSize: per-session outbound frame buffer.
//   - MaxFrameSize: largest payload accepted from a client.
//   - MaxLoginAttempts: rejected logins before disconnect, 0 for unlimited.
//   - IdleTimeout: read inactivity limit, 0 disables it.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddrTCP   string
	EndpointAddrHTTP  string
	DatabaseDSN       string
	OutboundQueueSize int
	MaxFrameSize      int
	MaxLoginAttempts  int
	IdleTimeout       time.Duration
	LogLevel          string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrTCP = ":11111"
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = ""
	c.OutboundQueueSize = 256
	c.MaxFrameSize = protocol.DefaultMaxFrameSize
	c.MaxLoginAttempts = 0
	c.IdleTimeout = 0
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

package config

import "github.com/dmitrijs2005/gophchat/internal/protocol"

// Config holds runtime settings for the chat client.
//
// An empty E2EEncryptionKey leaves text messages unencrypted. MaxFrameSize
// should match the server's max_frame_size.
type Config struct {
	ServerEndpointAddr string
	OutputDir          string
	LogsDir            string
	E2EEncryptionKey   string
	MaxFrameSize       int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:11111"
	c.OutputDir = "./data"
	c.LogsDir = "./logs"
	c.E2EEncryptionKey = ""
	c.MaxFrameSize = protocol.DefaultMaxFrameSize
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

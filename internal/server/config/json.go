package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophchat/internal/flagx"
	"github.com/dmitrijs2005/gophchat/internal/timex"
)

// JsonConfig is the on-disk shape of the server config file. Durations use
// timex.Duration so both "30s" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrTCP   *string         `json:"endpoint_addr_tcp"`
	EndpointAddrHTTP  *string         `json:"endpoint_addr_http"`
	DatabaseDSN       *string         `json:"database_dsn"`
	OutboundQueueSize *int            `json:"outbound_queue_size"`
	MaxFrameSize      *int            `json:"max_frame_size"`
	MaxLoginAttempts  *int            `json:"max_login_attempts"`
	IdleTimeout       *timex.Duration `json:"idle_timeout"`
	LogLevel          *string         `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c or -config.
// Keys missing from the file keep their current value. An unreadable file
// or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	if c.EndpointAddrTCP != nil {
		config.EndpointAddrTCP = *c.EndpointAddrTCP
	}
	if c.EndpointAddrHTTP != nil {
		config.EndpointAddrHTTP = *c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.OutboundQueueSize != nil {
		config.OutboundQueueSize = *c.OutboundQueueSize
	}
	if c.MaxFrameSize != nil {
		config.MaxFrameSize = *c.MaxFrameSize
	}
	if c.MaxLoginAttempts != nil {
		config.MaxLoginAttempts = *c.MaxLoginAttempts
	}
	if c.IdleTimeout != nil {
		config.IdleTimeout = c.IdleTimeout.Duration
	}
	if c.LogLevel != nil {
		config.LogLevel = *c.LogLevel
	}
}

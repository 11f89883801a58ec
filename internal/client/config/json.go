package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophchat/internal/flagx"
)

// JsonConfig is the on-disk shape of the client config file.
type JsonConfig struct {
	ServerEndpointAddr *string `json:"server_endpoint_addr"`
	OutputDir          *string `json:"output_dir"`
	LogsDir            *string `json:"logs_dir"`
	E2EEncryptionKey   *string `json:"e2e_encryption_key"`
	MaxFrameSize       *int    `json:"max_frame_size"`
}

// parseJson overlays values from the file named by -c/-config. Keys absent
// from the file keep their current value. Read or decode errors panic.
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

	if c.ServerEndpointAddr != nil {
		config.ServerEndpointAddr = *c.ServerEndpointAddr
	}
	if c.OutputDir != nil {
		config.OutputDir = *c.OutputDir
	}
	if c.LogsDir != nil {
		config.LogsDir = *c.LogsDir
	}
	if c.E2EEncryptionKey != nil {
		config.E2EEncryptionKey = *c.E2EEncryptionKey
	}
	if c.MaxFrameSize != nil {
		config.MaxFrameSize = *c.MaxFrameSize
	}
}

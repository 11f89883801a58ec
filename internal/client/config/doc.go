// Package config loads runtime configuration for the chat client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the chat server
//	-o string   directory received files and images are written to
//	-l string   directory for the client log file
//	-k string   passphrase enabling end-to-end text encryption
//	-f int      largest frame the client sends, bytes
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:11111",
//	  "output_dir": "./data",
//	  "logs_dir": "./logs",
//	  "e2e_encryption_key": "",
//	  "max_frame_size": 33554432
//	}
package config

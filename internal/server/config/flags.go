package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   chat listener address (e.g., ":11111")
//	-m string   admin HTTP address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-q int      outbound queue size per session
//	-f int      max frame size, bytes
//	-x int      max failed login attempts, 0 for unlimited
//	-i int      idle timeout, seconds, 0 disables
//	-l string   log level
//
// Only the flags listed above are picked out of os.Args, so the -c/-config
// flag handled by parseJson does not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-m", "-d", "-q", "-f", "-x", "-i", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrTCP, "a", config.EndpointAddrTCP, "address and port to run chat server")
	fs.StringVar(&config.EndpointAddrHTTP, "m", config.EndpointAddrHTTP, "address and port for admin http endpoint")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.OutboundQueueSize, "q", config.OutboundQueueSize, "outbound queue size")
	fs.IntVar(&config.MaxFrameSize, "f", config.MaxFrameSize, "max frame size (in bytes)")
	fs.IntVar(&config.MaxLoginAttempts, "x", config.MaxLoginAttempts, "max login attempts")

	idleTimeout := fs.Int("i", int(config.IdleTimeout.Seconds()), "idle timeout (in seconds)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.IdleTimeout = time.Duration(*idleTimeout) * time.Second
}

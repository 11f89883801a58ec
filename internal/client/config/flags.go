package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/gophchat/internal/flagx"
)

// parseFlags populates Config fields from -a, -o, -l, -k and -f. Other flags on
// the command line are ignored. A malformed flag panics.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-o", "-l", "-k", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ServerEndpointAddr, "a", config.ServerEndpointAddr, "address and port of the chat server")
	fs.StringVar(&config.OutputDir, "o", config.OutputDir, "directory for received files")
	fs.StringVar(&config.LogsDir, "l", config.LogsDir, "directory for log files")
	fs.StringVar(&config.E2EEncryptionKey, "k", config.E2EEncryptionKey, "end-to-end encryption passphrase")
	fs.IntVar(&config.MaxFrameSize, "f", config.MaxFrameSize, "largest frame to send (in bytes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

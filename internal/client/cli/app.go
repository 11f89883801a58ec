package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/gophchat/internal/client/chat"
	"github.com/dmitrijs2005/gophchat/internal/client/config"
	"github.com/dmitrijs2005/gophchat/internal/cryptox"
	"github.com/dmitrijs2005/gophchat/internal/logging"
)

type App struct {
	config *config.Config
	logger logging.Logger
	closer io.Closer
	cipher chat.Cipher
	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the log file under LogsDir and prepares the encryption layer
// when a key is configured.
func NewApp(c *config.Config) (*App, error) {
	logger, closer, err := logging.NewFileLogger(c.LogsDir, "client", slog.LevelDebug)
	if err != nil {
		return nil, fmt.Errorf("log init error: %w", err)
	}

	app := &App{
		config: c,
		logger: logger,
		closer: closer,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	if c.E2EEncryptionKey != "" {
		tc, err := cryptox.NewTextCipher(c.E2EEncryptionKey)
		if err != nil {
			_ = closer.Close()
			return nil, err
		}
		app.cipher = tc
	}
	return app, nil
}

// Run connects, logs in and chats until the user quits or the server goes
// away. The log file is closed on return.
func (a *App) Run(ctx context.Context) error {
	defer a.closer.Close()

	opts := []chat.Option{
		chat.WithOutputDir(a.config.OutputDir),
		chat.WithMaxFrameSize(a.config.MaxFrameSize),
	}
	if a.cipher != nil {
		opts = append(opts, chat.WithCipher(a.cipher))
	}

	client, err := chat.Dial(ctx, a.config.ServerEndpointAddr, a.out, a.logger, opts...)
	if err != nil {
		a.logger.Error(ctx, "connect failed", "addr", a.config.ServerEndpointAddr, "error", err)
		return fmt.Errorf("unable to connect to %s: %w", a.config.ServerEndpointAddr, err)
	}
	defer client.Close()

	a.logger.Info(ctx, "connected", "addr", a.config.ServerEndpointAddr, "e2e", a.cipher != nil)

	if err := client.Login(ctx, &consolePrompter{reader: a.reader, out: a.out}); err != nil {
		a.logger.Error(ctx, "login failed", "error", err)
		return err
	}

	err = client.Run(ctx, a.reader)
	a.logger.Info(ctx, "chat ended", "error", err)
	return err
}

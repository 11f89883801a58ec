package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophchat/internal/client/chat"
	"github.com/dmitrijs2005/gophchat/internal/client/cli"
	"github.com/dmitrijs2005/gophchat/internal/client/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := cli.NewApp(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := app.Run(context.Background()); err != nil {
		if !errors.Is(err, chat.ErrDisconnected) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

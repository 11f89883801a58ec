// Package chat is the client side of the chat protocol: it turns console
// lines into frames, renders incoming frames and stores received files.
package chat

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/protocol"
)

type CommandKind int

const (
	CommandText CommandKind = iota
	CommandFile
	CommandImage
	CommandQuit
)

// Command is one parsed console line. Arg is the message text for
// CommandText and the path for CommandFile and CommandImage.
type Command struct {
	Kind CommandKind
	Arg  string
}

var ErrMissingPath = errors.New("missing path")

// ParseCommand recognises ".file <path>", ".image <path>" and ".quit".
// Anything else, including an unknown dot command, is chat text.
func ParseCommand(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	word, rest, _ := strings.Cut(trimmed, " ")
	rest = strings.TrimSpace(rest)

	switch word {
	case ".quit":
		return Command{Kind: CommandQuit}, nil
	case ".file":
		if rest == "" {
			return Command{}, ErrMissingPath
		}
		return Command{Kind: CommandFile, Arg: rest}, nil
	case ".image":
		if rest == "" {
			return Command{}, ErrMissingPath
		}
		return Command{Kind: CommandImage, Arg: rest}, nil
	}
	return Command{Kind: CommandText, Arg: line}, nil
}

// Frame builds the outbound frame for c, reading files from disk. Text is
// returned as is; encryption happens in the client.
func (c Command) Frame() (protocol.Frame, error) {
	switch c.Kind {
	case CommandQuit:
		return protocol.Quit(), nil
	case CommandFile:
		name, data, err := LoadFile(c.Arg)
		if err != nil {
			return protocol.Frame{}, err
		}
		return protocol.File(name, data), nil
	case CommandImage:
		name, data, err := LoadImage(c.Arg)
		if err != nil {
			return protocol.Frame{}, err
		}
		return protocol.Image(name, data), nil
	}
	return protocol.Text(c.Arg), nil
}

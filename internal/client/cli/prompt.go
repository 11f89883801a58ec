package cli

import (
	"bufio"
	"io"

	"github.com/dmitrijs2005/gophchat/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// consolePrompter asks for a username and a hidden password on every call.
// Empty usernames are asked again.
type consolePrompter struct {
	reader *bufio.Reader
	out    io.Writer
}

func (p *consolePrompter) Credentials() (string, string, error) {
	var username string
	for username == "" {
		u, err := getSimpleText(p.reader, "Enter username", p.out)
		if err != nil {
			return "", "", err
		}
		username = u
	}

	pw, err := getPassword("Enter password", p.out)
	if err != nil {
		return "", "", err
	}
	defer common.WipeByteArray(pw)

	return username, string(pw), nil
}

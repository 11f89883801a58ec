// Package cli is the interactive chat client. It prompts for credentials,
// re-prompting after a rejected login, and then relays console lines to the
// server while printing what other users send.
//
// Console commands after login:
//
//	.file <path>    send a file
//	.image <path>   send an image (converted to PNG)
//	.quit           leave the chat
//
// Anything else is sent as a text message.
package cli

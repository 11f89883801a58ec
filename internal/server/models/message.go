package models

import "time"

// Message is one persisted text message. UserName is filled in when
// messages are listed.
type Message struct {
	ID        string
	UserID    string
	UserName  string
	Data      string
	Timestamp time.Time
}

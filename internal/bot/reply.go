package bot

import (
	"github.com/m3rciful/mediabot/internal/fetch"
)

// Presence is a transient chat status shown while work is in progress.
type Presence int

const (
	PresenceTyping Presence = iota + 1
	PresenceUploadAudio
	PresenceUploadVideo
)

// Button is one inline choice. Unique routes the press, Data is its payload.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// Replier is the outbound side of one conversation.
// Implementations keep sends of the same chat in order.
type Replier interface {
	Send(text string, rows [][]Button) error
	// Ack answers a button press; text may be empty.
	Ack(text string) error
	Notify(p Presence) error
	// SendMedia returns after the upload finished.
	SendMedia(f fetch.File) error
}

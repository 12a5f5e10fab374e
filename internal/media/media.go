// Package media names the kinds of files the bot can fetch.
package media

import "strings"

// Mode selects what is extracted from a source: an audio track or a video with sound.
type Mode string

const (
	Audio Mode = "audio"
	Video Mode = "video"
)

// Modes lists supported modes in button order.
var Modes = []Mode{Video, Audio}

// ParseMode maps a payload such as "audio" to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Audio:
		return Audio, true
	case Video:
		return Video, true
	}
	return "", false
}

// Valid reports whether m is a supported mode.
func (m Mode) Valid() bool {
	return m == Audio || m == Video
}

// Or returns m when valid, otherwise def.
func (m Mode) Or(def Mode) Mode {
	if m.Valid() {
		return m
	}
	return def
}

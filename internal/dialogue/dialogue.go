// Package dialogue implements the per-user conversation as a pure state machine.
//
// Transition never performs I/O. Callers apply the returned effects in order.
package dialogue

import (
	"strings"

	"github.com/m3rciful/mediabot/internal/i18n"
	"github.com/m3rciful/mediabot/internal/media"
)

// State is a step of the conversation.
type State string

const (
	SelectLanguage State = "select_language"
	SelectMode     State = "select_mode"
	AwaitLocator   State = "await_locator"
	Cancelled      State = "cancelled"
)

// Session is the conversation value owned by the store for one user.
// Language is set once past SelectLanguage; Mode once past SelectMode.
type Session struct {
	ID       int64
	State    State
	Language i18n.Lang
	Mode     media.Mode
}

// NewSession returns a session at the initial step.
func NewSession(id int64) Session {
	return Session{ID: id, State: SelectLanguage}
}

// EventKind classifies inbound events.
type EventKind int

const (
	EventStart EventKind = iota + 1
	EventCancel
	EventLanguage
	EventMode
	EventText
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventCancel:
		return "cancel"
	case EventLanguage:
		return "language"
	case EventMode:
		return "mode"
	case EventText:
		return "text"
	}
	return "unknown"
}

// Event is one inbound signal. Payload carries the selection or the text.
// Hint is the client language code, used only to localize the welcome.
type Event struct {
	Kind    EventKind
	Payload string
	Hint    string
}

// Start restarts the conversation.
func Start(hint string) Event { return Event{Kind: EventStart, Hint: hint} }

// Cancel ends the conversation until the next Start.
func Cancel() Event { return Event{Kind: EventCancel} }

// ChooseLanguage carries a language button payload.
func ChooseLanguage(p string) Event { return Event{Kind: EventLanguage, Payload: p} }

// ChooseMode carries a mode button payload.
func ChooseMode(p string) Event { return Event{Kind: EventMode, Payload: p} }

// Text carries a free text message.
func Text(s string) Event { return Event{Kind: EventText, Payload: s} }

// EffectKind names a side effect requested by a transition.
type EffectKind int

const (
	PromptLanguage EffectKind = iota + 1
	PromptMode
	EchoMode
	PromptLocator
	Fetch
	PromptAgain
	AckCancelled
)

func (k EffectKind) String() string {
	switch k {
	case PromptLanguage:
		return "prompt_language"
	case PromptMode:
		return "prompt_mode"
	case EchoMode:
		return "echo_mode"
	case PromptLocator:
		return "prompt_locator"
	case Fetch:
		return "fetch"
	case PromptAgain:
		return "prompt_again"
	case AckCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Effect is a snapshot of what to do. Language and Mode may be unset;
// the reply layer substitutes configured defaults.
type Effect struct {
	Kind     EffectKind
	Language i18n.Lang
	Mode     media.Mode
	Locator  string
}

// Transition computes the next session and the effects for ev.
// An event that does not fit the current state returns s unchanged and no effects.
func Transition(s Session, ev Event) (Session, []Effect) {
	switch ev.Kind {
	case EventStart:
		next := NewSession(s.ID)
		return next, []Effect{{Kind: PromptLanguage}}

	case EventCancel:
		next := s
		next.State = Cancelled
		return next, []Effect{{Kind: AckCancelled, Language: s.Language, Mode: s.Mode}}

	case EventLanguage:
		if s.State != SelectLanguage {
			return s, nil
		}
		lang, ok := i18n.ParseLang(ev.Payload)
		if !ok {
			return s, nil
		}
		next := s
		next.Language = lang
		next.Mode = ""
		next.State = SelectMode
		return next, []Effect{{Kind: PromptMode, Language: lang}}

	case EventMode:
		if s.State != SelectMode {
			return s, nil
		}
		mode, ok := media.ParseMode(ev.Payload)
		if !ok {
			return s, nil
		}
		next := s
		next.Mode = mode
		next.State = AwaitLocator
		return next, []Effect{
			{Kind: EchoMode, Language: s.Language, Mode: mode},
			{Kind: PromptLocator, Language: s.Language, Mode: mode},
		}

	case EventText:
		if s.State != AwaitLocator {
			return s, nil
		}
		locator := strings.TrimSpace(ev.Payload)
		if locator == "" {
			return s, nil
		}
		next := s
		next.State = SelectMode
		return next, []Effect{
			{Kind: Fetch, Language: s.Language, Mode: s.Mode, Locator: locator},
			{Kind: PromptAgain, Language: s.Language, Mode: s.Mode},
		}
	}
	return s, nil
}

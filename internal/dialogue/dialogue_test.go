package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/mediabot/internal/i18n"
	"github.com/m3rciful/mediabot/internal/media"
)

func kinds(effects []Effect) []EffectKind {
	out := make([]EffectKind, 0, len(effects))
	for _, e := range effects {
		out = append(out, e.Kind)
	}
	return out
}

func TestHappyPathLoopsBackToModeSelection(t *testing.T) {
	s := NewSession(42)

	s, eff := Transition(s, Start("en"))
	assert.Equal(t, SelectLanguage, s.State)
	assert.Equal(t, []EffectKind{PromptLanguage}, kinds(eff))

	s, eff = Transition(s, ChooseLanguage("en"))
	assert.Equal(t, SelectMode, s.State)
	assert.Equal(t, i18n.English, s.Language)
	assert.Equal(t, []EffectKind{PromptMode}, kinds(eff))

	s, eff = Transition(s, ChooseMode("audio"))
	assert.Equal(t, AwaitLocator, s.State)
	assert.Equal(t, media.Audio, s.Mode)
	assert.Equal(t, []EffectKind{EchoMode, PromptLocator}, kinds(eff))

	s, eff = Transition(s, Text("  https://example.com/v  "))
	assert.Equal(t, SelectMode, s.State)
	require.Equal(t, []EffectKind{Fetch, PromptAgain}, kinds(eff))
	assert.Equal(t, Effect{Kind: Fetch, Language: i18n.English, Mode: media.Audio, Locator: "https://example.com/v"}, eff[0])

	// next round may pick a different mode
	s, eff = Transition(s, ChooseMode("video"))
	assert.Equal(t, AwaitLocator, s.State)
	assert.Equal(t, media.Video, s.Mode)
	assert.Len(t, eff, 2)
}

func TestStaleSelectionsAreIgnored(t *testing.T) {
	cases := []struct {
		name  string
		state State
		ev    Event
	}{
		{"language in select_mode", SelectMode, ChooseLanguage("uz")},
		{"language in await_locator", AwaitLocator, ChooseLanguage("en")},
		{"mode in select_language", SelectLanguage, ChooseMode("video")},
		{"mode in await_locator", AwaitLocator, ChooseMode("audio")},
		{"language in cancelled", Cancelled, ChooseLanguage("en")},
		{"mode in cancelled", Cancelled, ChooseMode("audio")},
		{"text in select_language", SelectLanguage, Text("https://x")},
		{"text in select_mode", SelectMode, Text("https://x")},
		{"text in cancelled", Cancelled, Text("https://x")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Session{ID: 1, State: tc.state, Language: i18n.Uzbek, Mode: media.Video}
			next, eff := Transition(s, tc.ev)
			assert.Equal(t, s, next)
			assert.Empty(t, eff)
		})
	}
}

func TestMalformedPayloadsAreNoOps(t *testing.T) {
	s := NewSession(1)
	next, eff := Transition(s, ChooseLanguage("klingon"))
	assert.Equal(t, s, next)
	assert.Empty(t, eff)

	s = Session{ID: 1, State: SelectMode, Language: i18n.English}
	next, eff = Transition(s, ChooseMode("hologram"))
	assert.Equal(t, s, next)
	assert.Empty(t, eff)

	s = Session{ID: 1, State: AwaitLocator, Language: i18n.English, Mode: media.Audio}
	next, eff = Transition(s, Text("   "))
	assert.Equal(t, s, next)
	assert.Empty(t, eff)

	next, eff = Transition(s, Event{Kind: EventKind(99)})
	assert.Equal(t, s, next)
	assert.Empty(t, eff)
}

func TestCancelFromAnyState(t *testing.T) {
	for _, st := range []State{SelectLanguage, SelectMode, AwaitLocator, Cancelled} {
		s := Session{ID: 3, State: st, Language: i18n.Uzbek}
		next, eff := Transition(s, Cancel())
		assert.Equal(t, Cancelled, next.State)
		require.Len(t, eff, 1)
		assert.Equal(t, AckCancelled, eff[0].Kind)
		assert.Equal(t, i18n.Uzbek, eff[0].Language)
	}
}

func TestCancelThenLocatorDoesNotFetch(t *testing.T) {
	s := Session{ID: 9, State: AwaitLocator, Language: i18n.English, Mode: media.Audio}
	s, _ = Transition(s, Cancel())
	s, eff := Transition(s, Text("https://example.com"))
	assert.Equal(t, Cancelled, s.State)
	assert.Empty(t, eff)
}

func TestStartResetsChoices(t *testing.T) {
	s := Session{ID: 5, State: AwaitLocator, Language: i18n.Uzbek, Mode: media.Video}
	next, eff := Transition(s, Start(""))
	assert.Equal(t, NewSession(5), next)
	assert.Equal(t, []EffectKind{PromptLanguage}, kinds(eff))

	s = Session{ID: 5, State: Cancelled}
	next, _ = Transition(s, Start(""))
	assert.Equal(t, SelectLanguage, next.State)
}

func TestEffectKindStrings(t *testing.T) {
	assert.Equal(t, "fetch", Fetch.String())
	assert.Equal(t, "unknown", EffectKind(0).String())
	assert.Equal(t, "text", EventText.String())
}

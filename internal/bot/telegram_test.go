package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func TestInlineMarkup(t *testing.T) {
	assert.Nil(t, inlineMarkup(nil))

	m := inlineMarkup([][]Button{
		{{Text: "Video", Unique: "mode", Data: "video"}},
		{{Text: "Audio", Unique: "mode", Data: "audio"}},
	})
	require.NotNil(t, m)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Equal(t, "Video", m.InlineKeyboard[0][0].Text)
	assert.Equal(t, "mode", m.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "audio", m.InlineKeyboard[1][0].Data)
}

func TestChatAction(t *testing.T) {
	assert.Equal(t, tele.Typing, chatAction(PresenceTyping))
	assert.Equal(t, tele.UploadingAudio, chatAction(PresenceUploadAudio))
	assert.Equal(t, tele.UploadingVideo, chatAction(PresenceUploadVideo))
}

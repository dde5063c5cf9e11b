package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func textMessage(from int64, text string, entities ...MessageEntity) *Message {
	return &Message{From: &User{ID: from}, Chat: Chat{ID: from * 10}, Text: text, Entities: entities}
}

func TestParseInboundFreeText(t *testing.T) {
	in, ok := ParseInbound(textMessage(1, "  Alice@X.com "))
	assert.True(t, ok)
	assert.False(t, in.IsCommand)
	assert.Equal(t, "Alice@X.com", in.Text)
	assert.Equal(t, int64(1), in.SenderID)
	assert.Equal(t, int64(10), in.ChatID)
}

func TestParseInboundCommandWithArgs(t *testing.T) {
	msg := textMessage(1, "/remove 001", MessageEntity{Type: "bot_command", Offset: 0, Length: 7})
	in, ok := ParseInbound(msg)
	assert.True(t, ok)
	assert.True(t, in.IsCommand)
	assert.Equal(t, CmdRemove, in.Command)
	assert.Equal(t, []string{"001"}, in.Args)
}

func TestParseInboundStripsBotName(t *testing.T) {
	in, _ := ParseInbound(textMessage(1, "/Raffle@kingfin_contest_bot"))
	assert.Equal(t, CmdRaffle, in.Command)
	assert.Empty(t, in.Args)
}

func TestParseInboundSkipsEmpty(t *testing.T) {
	_, ok := ParseInbound(nil)
	assert.False(t, ok)
	_, ok = ParseInbound(&Message{Text: "/start"})
	assert.False(t, ok)
	_, ok = ParseInbound(textMessage(1, "   "))
	assert.False(t, ok)
}

package telegram

import "strings"

const (
	CmdStart           = "start"
	CmdHelp            = "help"
	CmdRaffle          = "raffle"
	CmdExport          = "export"
	CmdList            = "list"
	CmdReset           = "reset"
	CmdCheckDuplicates = "check_duplicates"
	CmdRemove          = "remove"
)

var adminCommands = map[string]bool{
	CmdRaffle:          true,
	CmdExport:          true,
	CmdList:            true,
	CmdReset:           true,
	CmdCheckDuplicates: true,
	CmdRemove:          true,
}

// Inbound is a transport-neutral view of one incoming text message.
type Inbound struct {
	SenderID  int64
	ChatID    int64
	IsCommand bool
	Command   string
	Args      []string
	Text      string
}

// ParseInbound extracts the routing fields from msg. It reports false for
// messages without a sender or text.
func ParseInbound(msg *Message) (Inbound, bool) {
	if msg == nil || msg.From == nil {
		return Inbound{}, false
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return Inbound{}, false
	}

	in := Inbound{
		SenderID: msg.From.ID,
		ChatID:   msg.Chat.ID,
		Text:     text,
	}
	if !hasLeadingCommand(msg) && !strings.HasPrefix(text, "/") {
		return in, true
	}

	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")
	name, _, _ = strings.Cut(name, "@")

	in.IsCommand = true
	in.Command = strings.ToLower(name)
	in.Args = fields[1:]
	return in, true
}

func hasLeadingCommand(msg *Message) bool {
	for _, e := range msg.Entities {
		if e.Type == "bot_command" && e.Offset == 0 {
			return true
		}
	}
	return false
}

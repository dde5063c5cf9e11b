package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/metrics"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/services"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Sender

// Sender delivers outbound text to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type UpdateHandler struct {
	sender       Sender
	guard        services.Guard
	registration *services.RegistrationService
	draw         *services.DrawService
	roster       *services.RosterService
	chunkSize    int
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewUpdateHandler(
	sender Sender,
	guard services.Guard,
	registration *services.RegistrationService,
	draw *services.DrawService,
	roster *services.RosterService,
	chunkSize int,
	m *metrics.Metrics,
	logger *slog.Logger,
) *UpdateHandler {
	if chunkSize <= 0 {
		chunkSize = services.DefaultChunkSize
	}
	return &UpdateHandler{
		sender:       sender,
		guard:        guard,
		registration: registration,
		draw:         draw,
		roster:       roster,
		chunkSize:    chunkSize,
		metrics:      m,
		logger:       logger,
	}
}

func (h *UpdateHandler) Handle(ctx context.Context, upd Update) {
	in, ok := ParseInbound(upd.Message)
	if !ok {
		return
	}
	h.Route(ctx, in)
}

// Route dispatches one inbound message. Administrator commands are refused
// for everyone else before any service is called.
func (h *UpdateHandler) Route(ctx context.Context, in Inbound) {
	if !in.IsCommand {
		h.onEmail(ctx, in)
		return
	}

	if adminCommands[in.Command] && !h.guard.IsAdmin(in.SenderID) {
		h.metrics.PermissionDenials.Inc()
		h.logger.Warn("admin command refused", slog.String("command", in.Command), slog.Int64("sender_id", in.SenderID))
		h.reply(ctx, in.ChatID, msgDenied)
		return
	}

	switch in.Command {
	case CmdStart:
		h.reply(ctx, in.ChatID, msgStart)
	case CmdHelp:
		h.cmdHelp(ctx, in)
	case CmdRaffle:
		h.cmdRaffle(ctx, in)
	case CmdExport:
		h.cmdExport(ctx, in)
	case CmdList:
		h.cmdList(ctx, in)
	case CmdReset:
		h.cmdReset(ctx, in)
	case CmdCheckDuplicates:
		h.cmdCheckDuplicates(ctx, in)
	case CmdRemove:
		h.cmdRemove(ctx, in)
	default:
		h.reply(ctx, in.ChatID, msgUnknownCommand)
	}
}

func (h *UpdateHandler) onEmail(ctx context.Context, in Inbound) {
	email, err := services.ClassifyEmail(in.Text)
	if err != nil {
		h.metrics.IncRegistration(metrics.ResultInvalid)
		h.reply(ctx, in.ChatID, msgInvalidEmail)
		return
	}

	reg, err := h.registration.Register(ctx, email, in.ChatID)
	if err != nil {
		h.fail(ctx, in, "register", err)
		return
	}
	if reg.Created {
		h.reply(ctx, in.ChatID, msgRegistered(reg.Number))
	} else {
		h.reply(ctx, in.ChatID, msgAlreadyRegistered(reg.Number))
	}
}

func (h *UpdateHandler) cmdHelp(ctx context.Context, in Inbound) {
	text := msgHelpUser
	if h.guard.IsAdmin(in.SenderID) {
		text += msgHelpAdmin
	}
	h.reply(ctx, in.ChatID, text)
}

func (h *UpdateHandler) cmdRaffle(ctx context.Context, in Inbound) {
	winner, err := h.draw.DrawWinner(ctx, in.SenderID)
	switch {
	case errors.Is(err, services.ErrNoParticipants):
		h.reply(ctx, in.ChatID, msgNoParticipants)
		return
	case err != nil:
		h.fail(ctx, in, "raffle", err)
		return
	}

	h.reply(ctx, in.ChatID, msgWinnerAdmin(winner))

	if err := h.notifyWinner(ctx, winner); err != nil {
		h.metrics.NotificationFailures.Inc()
		h.logger.Error("winner notification failed",
			slog.String("number", winner.Number),
			slog.String("error", err.Error()),
		)
		h.reply(ctx, in.ChatID, msgWinnerNotifyFailed(winner.Number))
		return
	}
	h.reply(ctx, in.ChatID, msgWinnerNotified)
}

var errNoChat = errors.New("winner has no known chat")

func (h *UpdateHandler) notifyWinner(ctx context.Context, w *services.Winner) error {
	if w.ChatID == nil {
		return errNoChat
	}
	return h.sender.SendMessage(ctx, *w.ChatID, msgWinnerCongrats(w.Number))
}

func (h *UpdateHandler) cmdExport(ctx context.Context, in Inbound) {
	chunks, err := h.roster.Export(ctx, in.SenderID)
	if err != nil {
		h.fail(ctx, in, "export", err)
		return
	}
	if len(chunks) == 0 {
		h.reply(ctx, in.ChatID, msgRosterEmpty)
		return
	}
	for _, chunk := range chunks {
		h.reply(ctx, in.ChatID, chunk)
	}
}

func (h *UpdateHandler) cmdList(ctx context.Context, in Inbound) {
	list, err := h.roster.List(ctx, in.SenderID)
	if err != nil {
		h.fail(ctx, in, "list", err)
		return
	}
	if len(list) == 0 {
		h.reply(ctx, in.ChatID, msgRosterEmpty)
		return
	}
	h.replyChunked(ctx, in.ChatID, formatList(list))
}

func (h *UpdateHandler) cmdReset(ctx context.Context, in Inbound) {
	if err := h.roster.Reset(ctx, in.SenderID); err != nil {
		h.fail(ctx, in, "reset", err)
		return
	}
	h.reply(ctx, in.ChatID, msgResetDone)
}

func (h *UpdateHandler) cmdCheckDuplicates(ctx context.Context, in Inbound) {
	pairs, err := h.roster.CheckDuplicates(ctx, in.SenderID)
	if err != nil {
		h.fail(ctx, in, "check duplicates", err)
		return
	}

	lines := []string{duplicatesHeader}
	for p := range pairs {
		lines = append(lines, formatPair(p))
	}
	if len(lines) == 1 {
		h.reply(ctx, in.ChatID, msgNoDuplicates)
		return
	}
	h.replyChunked(ctx, in.ChatID, strings.Join(lines, "\n"))
}

func (h *UpdateHandler) cmdRemove(ctx context.Context, in Inbound) {
	if len(in.Args) == 0 {
		h.reply(ctx, in.ChatID, msgRemoveUsage)
		return
	}
	identifier := strings.Join(in.Args, " ")

	removed, err := h.roster.Remove(ctx, in.SenderID, identifier)
	switch {
	case errors.Is(err, services.ErrNotFound):
		h.reply(ctx, in.ChatID, msgRemoveNotFound(identifier))
	case err != nil:
		h.fail(ctx, in, "remove", err)
	default:
		h.reply(ctx, in.ChatID, msgRemoved(removed))
	}
}

// fail answers with the generic failure text. Permission errors coming back
// from a service get the denial text instead.
func (h *UpdateHandler) fail(ctx context.Context, in Inbound, op string, err error) {
	if errors.Is(err, services.ErrPermissionDenied) {
		h.reply(ctx, in.ChatID, msgDenied)
		return
	}
	h.logger.Error("command failed",
		slog.String("op", op),
		slog.Int64("chat_id", in.ChatID),
		slog.String("text", in.Text),
		slog.String("error", err.Error()),
	)
	h.reply(ctx, in.ChatID, msgFailure)
}

func (h *UpdateHandler) replyChunked(ctx context.Context, chatID int64, text string) {
	for _, chunk := range services.SplitChunks(text, h.chunkSize) {
		h.reply(ctx, chatID, chunk)
	}
}

func (h *UpdateHandler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendMessage(ctx, chatID, text); err != nil {
		h.logger.Error("send message failed", slog.Int64("chat_id", chatID), slog.String("error", err.Error()))
	}
}

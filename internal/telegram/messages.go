package telegram

import (
	"fmt"
	"strings"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/models"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/services"
)

const (
	msgStart = "👋 Hi! This bot registers you for the giveaway.\n\n" +
		"Send your email address in a single message to take part."
	msgHelpUser = "ℹ️ How to take part:\n" +
		"send your email address as a plain message, e.g. name@example.com.\n\n" +
		"/start - greeting\n" +
		"/help - this message"
	msgHelpAdmin = "\n\nAdministrator commands:\n" +
		"/raffle - draw a winner\n" +
		"/export - all participants as \"number - email\"\n" +
		"/list - participants with ids\n" +
		"/check_duplicates - look for similar emails\n" +
		"/remove <number or email> - remove a participant\n" +
		"/reset - clear the roster"
	msgInvalidEmail    = "❌ That does not look like an email address. Please send it again, e.g. name@example.com"
	msgFailure         = "⚠️ Something went wrong. Please try again later."
	msgDenied          = "⛔ This command is available to the administrator only."
	msgUnknownCommand  = "Unknown command. Send /help to see what I can do."
	msgNoParticipants  = "No participants yet, nothing to draw."
	msgRosterEmpty     = "📭 The participant list is empty."
	msgRemoveUsage     = "Usage: /remove <number or email>"
	msgResetDone       = "🗑 The roster has been cleared. Numbering starts from 001 again."
	msgNoDuplicates    = "✅ No suspicious pairs found."
	msgWinnerNotified  = "✅ The winner has been notified."
	duplicatesHeader   = "🔍 Suspicious pairs:"
	participantsHeader = "📋 Participants (%d):"
)

func msgRegistered(number string) string {
	return fmt.Sprintf("✅ You are registered! Your participant number: %s", number)
}

func msgAlreadyRegistered(number string) string {
	return fmt.Sprintf("ℹ️ This email is already registered. Your participant number: %s", number)
}

func msgWinnerAdmin(w *services.Winner) string {
	return fmt.Sprintf("🎉 The winner is participant №%s (%s)", w.Number, w.Email)
}

func msgWinnerCongrats(number string) string {
	return fmt.Sprintf("🎉 Congratulations! Your participant number %s has won the giveaway. We will contact you soon.", number)
}

func msgWinnerNotifyFailed(number string) string {
	return fmt.Sprintf("⚠️ Winner №%s is selected, but the notification could not be delivered. Please contact them directly.", number)
}

func msgRemoved(p *models.Participant) string {
	return fmt.Sprintf("🗑 Removed participant %s (%s).", p.Number, p.Email)
}

func msgRemoveNotFound(identifier string) string {
	return fmt.Sprintf("Nobody matches %q. Use /export or /list to look up numbers and emails.", identifier)
}

func formatList(list []models.Participant) string {
	lines := make([]string, 0, len(list)+1)
	lines = append(lines, fmt.Sprintf(participantsHeader, len(list)))
	for _, p := range list {
		lines = append(lines, fmt.Sprintf("%d. %s - %s", p.ID, p.Number, p.Email))
	}
	return strings.Join(lines, "\n")
}

func formatPair(p services.SuspiciousPair) string {
	return fmt.Sprintf("%s %s ↔ %s %s (%.0f%%)",
		p.Left.Number, p.Left.Email, p.Right.Number, p.Right.Email, p.Score*100)
}

package command

import (
	"context"
	"fmt"
	"kbfit/internal/core/domain"
	"kbfit/internal/core/port"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// HistoryLimit is the number of entries listed by the history command.
const HistoryLimit = 10

type History struct {
	history    port.History
	textSender port.TextSender
	command    string
}

func NewHistory(history port.History, textSender port.TextSender, command string) *History {
	return &History{history: history, textSender: textSender, command: command}
}

func (h *History) GetCommand() string {
	return h.command
}

func (h *History) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", h.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	go h.textSender.SendChatAction(ctx, message.ChatID, domain.Typing)

	entries, err := h.history.List(ctx)
	if err != nil {
		return h.textSender.NotifyAndReturnError(ctx, fmt.Errorf("failed to load history: %w", err), message)
	}

	_, err = h.textSender.SendMessageReply(ctx, message, formatHistory(entries))
	return err
}

func formatHistory(entries []domain.HistoryEntry) string {
	if len(entries) == 0 {
		return "no compressions recorded yet"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "last %d of %d compressions:\n", min(len(entries), HistoryLimit), len(entries))
	for _, e := range entries[:min(len(entries), HistoryLimit)] {
		fmt.Fprintf(&sb, "%s  %s  %.1f KB (target %d KB)\n", e.CreatedAt.Format(time.DateTime), e.OriginalFileName,
			float64(e.CompressedSize)/1024, e.TargetKB)
	}

	return strings.TrimRight(sb.String(), "\n")
}

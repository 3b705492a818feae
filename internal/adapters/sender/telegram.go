package sender

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"kbfit/internal/core/domain"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// TelegramMessageLimit is the maximum number of characters in a single Telegram text message.
const TelegramMessageLimit = 4096

// ChatActionRepeat is how often a running chat action is refreshed; Telegram clears it after about five seconds.
var ChatActionRepeat = 5 * time.Second

type TelegramBot interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

type TelegramSender struct {
	bot TelegramBot
}

func NewTelegram(b TelegramBot) *TelegramSender {
	return &TelegramSender{bot: b}
}

func replyTo(message *domain.Message) *models.ReplyParameters {
	return &models.ReplyParameters{
		MessageID: message.ID,
		ChatID:    message.ChatID,
	}
}

// SendMessageReply replies with text, split into several messages when it exceeds TelegramMessageLimit. The ID
// of the last sent message is returned.
func (s *TelegramSender) SendMessageReply(ctx context.Context, message *domain.Message, text string) (int, error) {
	var lastID int
	for _, chunk := range chunkText(text, TelegramMessageLimit) {
		msg, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:          message.ChatID,
			Text:            chunk,
			ReplyParameters: replyTo(message),
		})
		if err != nil {
			log.Error().Err(err).Int64("chatID", message.ChatID).Msg("failed to send message reply")
			return 0, err
		}
		lastID = msg.ID
	}

	return lastID, nil
}

func chunkText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		n := min(limit, len(runes))
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}

	return chunks
}

func (s *TelegramSender) SendDocumentReply(ctx context.Context, message *domain.Message, fileName string,
	file []byte, caption string) error {
	params := &bot.SendDocumentParams{
		ChatID:          message.ChatID,
		Document:        &models.InputFileUpload{Filename: fileName, Data: bytes.NewReader(file)},
		Caption:         caption,
		ReplyParameters: replyTo(message),
	}

	_, err := s.bot.SendDocument(ctx, params)
	if err != nil {
		log.Error().Err(err).Msg("failed to send document response")
		return err
	}

	return nil
}

// NotifyAndReturnError tells the user what went wrong and hands the error back to the caller. If the notification
// itself fails, both errors are returned joined.
func (s *TelegramSender) NotifyAndReturnError(ctx context.Context, err error, message *domain.Message) error {
	_, sendErr := s.SendMessageReply(ctx, message, userMessage(err))
	if sendErr != nil {
		return errors.Join(err, fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, sendErr))
	}

	return err
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrImageTooLarge):
		return "That image has too many pixels for me, sorry."
	case errors.Is(err, domain.ErrUnreadableImage):
		return "I could not read that image. Send a JPEG, PNG, GIF, WebP, BMP or TIFF."
	case errors.Is(err, domain.ErrInvalidArgument):
		return fmt.Sprintf("Invalid request: %s", err.Error())
	case errors.Is(err, domain.ErrEncoderUnavailable):
		return "Compression is unavailable right now, try again later."
	default:
		return fmt.Sprintf("Request failed: %s", err.Error())
	}
}

func chatActionFor(action domain.Action) models.ChatAction {
	switch action {
	case domain.UploadingDocument:
		return models.ChatActionUploadDocument
	case domain.Typing:
		return models.ChatActionTyping
	default:
		return models.ChatActionTyping
	}
}

func (s *TelegramSender) SendChatAction(ctx context.Context, chatID int64, action domain.Action) {
	chatAction := chatActionFor(action)

	log.Debug().Int64("chatID", chatID).Msg("starting action routine")
	ticker := time.NewTicker(ChatActionRepeat)
	defer ticker.Stop()

	for {
		log.Debug().Int64("chatID", chatID).Msg("transmitting action")
		_, err := s.bot.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: chatAction,
		})
		if err != nil {
			log.Err(err).Msg("error sending chat action")
			return
		}

		select {
		case <-ctx.Done():
			log.Debug().Int64("chatID", chatID).Msg("done, stopping action routine")
			return
		case <-ticker.C:
		}
	}
}

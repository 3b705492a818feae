package handler

import (
	"context"
	"kbfit/internal/core/domain"
	"kbfit/internal/core/domain/command"
	"kbfit/internal/core/port"
	"kbfit/internal/core/service"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// TelegramDownloadLimit is the largest file the Bot API lets a bot download.
const TelegramDownloadLimit = 20 * 1024 * 1024

// FileLocator resolves Telegram file IDs to download links. *bot.Bot satisfies it.
type FileLocator interface {
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

type Command struct {
	commandRegistry port.CommandRegistry
	files           FileLocator
	authorizer      service.Authorizer
	timeout         time.Duration
}

func NewCommand(commandRegistry port.CommandRegistry, files FileLocator, authorizer service.Authorizer,
	timeout time.Duration) *Command {
	return &Command{commandRegistry: commandRegistry, files: files, authorizer: authorizer, timeout: timeout}
}

// Handle is registered with the bot for text messages and captions starting with a slash.
func (c *Command) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	log.Debug().Str("message", text).Msg("received command")

	cmd := command.ParseCommand(text)
	commandHandler, err := c.commandRegistry.Get(cmd)
	if err != nil {
		log.Debug().Str("command", cmd).Msg("no handler for command")
		return
	}

	if c.authorizer != nil && !c.authorizer.IsAuthorized(ctx, msg.Chat.ID) {
		log.Info().Int64("chatID", msg.Chat.ID).Str("command", cmd).Msg("unauthorized chat")
		return
	}

	message := &domain.Message{
		ID:       msg.ID,
		ChatID:   msg.Chat.ID,
		Text:     text,
		Username: getUserNameFromMessage(msg.From),
	}

	if msg.ReplyToMessage != nil {
		replyID := msg.ReplyToMessage.ID
		message.ReplyToMessageID = &replyID
	}

	go func() {
		// the update context ends with the bot, not with this command
		ctx := context.WithoutCancel(ctx)

		message.FileURL, message.FileName = c.getOptionalImage(ctx, msg)

		err := commandHandler.Respond(ctx, c.timeout, message)
		if err != nil {
			log.Err(err).Str("command", cmd).Msg("failed to respond to command")
		}
	}()
}

// getOptionalImage resolves the image attached to the message, or to the message it replies to, into a download
// link and a file name. Image documents win over photos since photos are recompressed by Telegram.
func (c *Command) getOptionalImage(ctx context.Context, msg *models.Message) (string, string) {
	fileID, name := imageFromMessage(msg)
	if fileID == "" && msg.ReplyToMessage != nil {
		fileID, name = imageFromMessage(msg.ReplyToMessage)
	}

	if fileID == "" {
		return "", ""
	}

	f, err := c.files.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		log.Error().Err(err).Msg("error getting file from telegram api")
		return "", ""
	}

	return c.files.FileDownloadLink(f), name
}

func imageFromMessage(msg *models.Message) (string, string) {
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") &&
		msg.Document.FileSize <= TelegramDownloadLimit {
		name := msg.Document.FileName
		if name == "" {
			name = "document-" + msg.Document.FileUniqueID
		}
		return msg.Document.FileID, name
	}

	if len(msg.Photo) > 0 {
		photo := findLargestImage(msg.Photo)
		return photo.FileID, "photo-" + photo.FileUniqueID + ".jpg"
	}

	return "", ""
}

// findLargestImage returns the biggest photo size the bot is still allowed to download. Telegram lists sizes in
// ascending order, so the first one is the fallback.
func findLargestImage(photos []models.PhotoSize) models.PhotoSize {
	best := photos[0]
	for _, photo := range photos[1:] {
		if photo.FileSize > TelegramDownloadLimit {
			continue
		}
		if photo.Width*photo.Height > best.Width*best.Height {
			best = photo
		}
	}

	return best
}

func getUserNameFromMessage(user *models.User) string {
	if user == nil {
		return ""
	}

	if user.Username == "" {
		return user.FirstName
	}

	return "@" + user.Username
}

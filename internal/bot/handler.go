package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"socialsaver/internal/domain"
	"socialsaver/internal/pipeline"
	"socialsaver/internal/storage"
)

const (
	channelTelegram = "telegram"
	myListSize      = 5

	welcomeMessage = "👋 Welcome to Social Saver! Send me a link from Instagram, Twitter, or any blog " +
		"and I'll categorize, summarize and save it for you.\n\nUse /mylist to see your latest saves."
	emptyListMessage = "You haven't saved anything yet. Send me a link from Instagram, Twitter, or any blog."
)

// Ingester runs an inbound message through the ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, channel, senderID, text string) pipeline.Outcome
}

// Handler holds dependencies for the Telegram bot handlers.
type Handler struct {
	bot      *tgbot.Bot
	ingester Ingester
	repo     storage.Repository
	log      logrus.FieldLogger
}

// NewHandler creates a new bot handler instance.
func NewHandler(token string, ingester Ingester, repo storage.Repository, logger logrus.FieldLogger) (*Handler, error) {
	log := logger.WithField("component", "bot_handler")

	b, err := tgbot.New(token)
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	h := &Handler{
		bot:      b,
		ingester: ingester,
		repo:     repo,
		log:      log,
	}
	h.registerHandlers()

	log.Info("Telegram bot handler initialized")
	return h, nil
}

// registerHandlers sets up the command and message handlers.
func (h *Handler) registerHandlers() {
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/mylist", tgbot.MatchTypePrefix, h.myListHandler)
	// Anything else is treated as a message that may carry a link.
	h.bot.RegisterHandlerMatchFunc(h.isPlainText, h.defaultHandler)
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

// SenderID namespaces Telegram user ids so they never collide with phone numbers.
func SenderID(telegramUserID int64) string {
	return "tg:" + strconv.FormatInt(telegramUserID, 10)
}

func (h *Handler) isPlainText(update *models.Update) bool {
	if update.Message == nil || update.Message.From == nil {
		return false
	}
	text := update.Message.Text
	return text != "" && !strings.HasPrefix(text, "/start") && !strings.HasPrefix(text, "/mylist")
}

func (h *Handler) startHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.send(ctx, b, update.Message.Chat.ID, welcomeMessage)
}

func (h *Handler) myListHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	h.send(ctx, b, update.Message.Chat.ID, h.myList(ctx, SenderID(update.Message.From.ID)))
}

func (h *Handler) defaultHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	sender := SenderID(update.Message.From.ID)
	h.log.WithField("sender", sender).Debug("Received message")

	out := h.ingester.Ingest(ctx, channelTelegram, sender, update.Message.Text)
	h.send(ctx, b, update.Message.Chat.ID, out.Reply)
}

// myList renders the newest saves of sender.
func (h *Handler) myList(ctx context.Context, sender string) string {
	items, err := h.repo.List(ctx, storage.ListQuery{UserID: sender, Limit: myListSize})
	if err != nil {
		h.log.WithError(err).WithField("sender", sender).Error("Failed to load saves")
		return pipeline.ReplyError
	}
	return FormatList(items)
}

// FormatList renders records as a numbered list, one title or URL per entry.
func FormatList(items []domain.SavedContent) string {
	if len(items) == 0 {
		return emptyListMessage
	}

	var b strings.Builder
	b.WriteString("📚 Your latest saves:\n")
	for i, c := range items {
		label := c.Title
		if label == "" {
			label = c.OriginalURL
		}
		fmt.Fprintf(&b, "\n%d. [%s] %s\n", i+1, c.Category, label)
		if c.Summary != "" {
			fmt.Fprintf(&b, "   %s\n", c.Summary)
		}
		if label != c.OriginalURL {
			fmt.Fprintf(&b, "   🔗 %s\n", c.OriginalURL)
		}
	}
	return b.String()
}

func (h *Handler) send(ctx context.Context, b *tgbot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.log.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

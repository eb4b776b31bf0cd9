// Package bot is the Telegram front end: it turns chat commands into
// backend calls, posts announcements, and keeps the pinned live-status
// message fresh.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/xecut-space/xecut-bot/internal/backend"
	"github.com/xecut-space/xecut-bot/internal/config"
	"github.com/xecut-space/xecut-bot/internal/status"
	"github.com/xecut-space/xecut-bot/internal/visit"
)

// planHorizonDays is how far ahead /getvisits and the live status look.
const planHorizonDays = 7

const failureReply = "Что-то пошло не так, найдите админа"

// Bot handles Telegram updates and implements backend.Announcer plus the
// status Renderer/Editor interfaces.
type Bot struct {
	cfg     config.TelegramConfig
	api     *tgbotapi.BotAPI
	tracker *status.Tracker

	// The backend owns the bot's lifetime, so the bot only holds a
	// non-owning handle, wired after construction and nil-checked at
	// call time.
	mu      sync.RWMutex
	backend backend.Backend
}

// New creates the Telegram bot.
func New(cfg config.TelegramConfig, tracker *status.Tracker) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &Bot{cfg: cfg, api: api, tracker: tracker}, nil
}

// SetBackend wires the capability interface the bot calls into.
func (b *Bot) SetBackend(be backend.Backend) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.backend = be
}

func (b *Bot) getBackend() (backend.Backend, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.backend == nil {
		return nil, errors.New("backend is not available")
	}
	return b.backend, nil
}

var botCommands = []tgbotapi.BotCommand{
	{Command: "getvisits", Description: "Посмотреть кто собирается в хакспейс"},
	{Command: "addvisit", Description: "Запланировать зайти в хакспейс (опционально дата в формате YYYY-MM-DD и описание зачем)"},
	{Command: "delvisit", Description: "Передумать заходить в хакспейс (опционально дата в формате YYYY-MM-DD)"},
	{Command: "checkin", Description: "Отметиться как зашедший (опционально комментарий)"},
	{Command: "checkout", Description: "Отметиться как ушедший"},
	{Command: "checkoutall", Description: "Отметить всех как ушедших (закрытие спейса)"},
	{Command: "postlive", Description: "Репостнуть в live канал (на который реплай)"},
	{Command: "publishstatus", Description: "Запостить и закрепить живой статус спейса"},
	{Command: "unpublishstatus", Description: "Перестать обновлять живой статус"},
}

// Run receives updates until ctx is cancelled. Each update is handled in its
// own goroutine; a failing or panicking handler affects only its own update.
func (b *Bot) Run(ctx context.Context) error {
	slog.Info("starting telegram bot", "username", b.api.Self.UserName)

	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		slog.Error("can't set bot commands", "error", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			slog.Debug("telegram bot stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			go b.handleCommand(ctx, update.Message)
		}
	}
}

// handleCommand dispatches one command message. Errors and panics are
// contained here: the user gets a generic notice, details go to the log.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in command handler", "command", msg.Command(), "panic", r)
			b.replyTo(msg, failureReply)
		}
	}()

	var err error
	switch msg.Command() {
	case "getvisits":
		err = b.handleGetVisits(ctx, msg)
	case "addvisit":
		err = b.handleAddVisit(ctx, msg)
	case "delvisit":
		err = b.handleDelVisit(ctx, msg)
	case "checkin":
		err = b.handleCheckIn(ctx, msg)
	case "checkout":
		err = b.handleCheckOut(ctx, msg)
	case "checkoutall":
		err = b.handleCheckOutAll(ctx, msg)
	case "postlive":
		err = b.handlePostLive(ctx, msg)
	case "publishstatus":
		err = b.handlePublishStatus(ctx, msg)
	case "unpublishstatus":
		err = b.handleUnpublishStatus(ctx, msg)
	default:
		return
	}

	if err != nil {
		slog.Error("command failed", "command", msg.Command(), "error", err)
		b.replyTo(msg, failureReply)
	}
}

func (b *Bot) handleGetVisits(ctx context.Context, msg *tgbotapi.Message) error {
	be, err := b.getBackend()
	if err != nil {
		return err
	}

	today := visit.Today()
	visits, err := be.GetVisits(ctx, today, today+planHorizonDays)
	if err != nil {
		return err
	}

	entries, err := b.resolveEntries(visits)
	if err != nil {
		return err
	}

	return b.sendHTML(msg.Chat.ID, 0, formatVisits(entries))
}

func (b *Bot) handleAddVisit(ctx context.Context, msg *tgbotapi.Message) error {
	be, err := b.getBackend()
	if err != nil {
		return err
	}

	day, purpose := parseDayPurpose(msg.CommandArguments())
	if err := be.PlanVisit(ctx, visit.Uid(msg.From.ID), day, optional(purpose)); err != nil {
		return err
	}

	reply := fmt.Sprintf("Записал план зайти в хакспейс %s", day)
	if purpose != "" {
		reply += fmt.Sprintf(" чтобы %s", purpose)
	}
	return b.reply(msg, reply)
}

func (b *Bot) handleDelVisit(ctx context.Context, msg *tgbotapi.Message) error {
	be, err := b.getBackend()
	if err != nil {
		return err
	}

	day, _ := parseDayPurpose(msg.CommandArguments())
	if err := be.UnplanVisit(ctx, visit.Uid(msg.From.ID), day); err != nil {
		return err
	}

	return b.reply(msg, fmt.Sprintf("Удалил план зайти в хакспейс %s", day))
}

func (b *Bot) handleCheckIn(ctx context.Context, msg *tgbotapi.Message) error {
	be, err := b.getBackend()
	if err != nil {
		return err
	}

	_, purpose := parseDayPurpose(msg.CommandArguments())
	if err := be.CheckIn(ctx, visit.Uid(msg.From.ID), optional(purpose)); err != nil {
		return err
	}

	reply := "Отметил как зашедшего"
	if purpose != "" {
		reply += fmt.Sprintf(" чтобы: %s", purpose)
	}
	return b.reply(msg, reply)
}

func (b *Bot) handleCheckOut(ctx context.Context, msg *tgbotapi.Message) error {
	be, err := b.getBackend()
	if err != nil {
		return err
	}

	if err := be.CheckOut(ctx, visit.Uid(msg.From.ID)); err != nil {
		return err
	}

	return b.reply(msg, "Отметил как ушедшего")
}

func (b *Bot) handleCheckOutAll(ctx context.Context, msg *tgbotapi.Message) error {
	resident, err := b.isResident(msg.From.ID)
	if err != nil {
		return err
	}
	if !resident {
		return b.reply(msg, "Нужно быть резидентом")
	}

	be, err := b.getBackend()
	if err != nil {
		return err
	}

	if err := be.CheckOutEverybody(ctx); err != nil {
		return err
	}

	return b.reply(msg, "Отметил всех как ушедших")
}

func (b *Bot) handlePostLive(_ context.Context, msg *tgbotapi.Message) error {
	if msg.Chat.ID != b.cfg.PublicChatID {
		slog.Debug("postlive outside the public chat", "chat", msg.Chat.ID)
		return nil
	}

	resident, err := b.isResident(msg.From.ID)
	if err != nil {
		return err
	}
	if !resident {
		return b.reply(msg, "Нужно быть резидентом")
	}

	original := msg.ReplyToMessage
	if original == nil {
		return b.reply(msg, "Надо ответить на сообщение")
	}

	link := tgbotapi.NewMessage(b.cfg.PublicChannelID, messageURL(original.Chat, original.MessageID))
	link.DisableWebPagePreview = true
	if _, err := b.api.Send(link); err != nil {
		return fmt.Errorf("posting link to channel: %w", err)
	}

	forwarded, err := b.api.Send(tgbotapi.NewForward(b.cfg.PublicChannelID, msg.Chat.ID, original.MessageID))
	if err != nil {
		return fmt.Errorf("forwarding message: %w", err)
	}

	return b.sendHTML(msg.Chat.ID, msg.MessageID,
		fmt.Sprintf(`Запостил в <a href="%s">Xecut Live</a>`, messageURL(forwarded.Chat, forwarded.MessageID)))
}

func (b *Bot) handlePublishStatus(ctx context.Context, msg *tgbotapi.Message) error {
	resident, err := b.isResident(msg.From.ID)
	if err != nil {
		return err
	}
	if !resident {
		return b.reply(msg, "Нужно быть резидентом")
	}

	text, err := b.RenderStatus(ctx)
	if err != nil {
		return err
	}

	send := tgbotapi.NewMessage(b.cfg.PublicChatID, text)
	send.ParseMode = tgbotapi.ModeHTML
	send.DisableWebPagePreview = true
	sent, err := b.api.Send(send)
	if err != nil {
		return fmt.Errorf("sending status message: %w", err)
	}

	pin := tgbotapi.PinChatMessageConfig{
		ChatID:              sent.Chat.ID,
		MessageID:           sent.MessageID,
		DisableNotification: true,
	}
	if _, err := b.api.Request(pin); err != nil {
		slog.Error("can't pin status message", "error", err)
	}

	return b.tracker.Publish(ctx, status.Message{
		ChatID:    sent.Chat.ID,
		MessageID: sent.MessageID,
	})
}

func (b *Bot) handleUnpublishStatus(ctx context.Context, msg *tgbotapi.Message) error {
	resident, err := b.isResident(msg.From.ID)
	if err != nil {
		return err
	}
	if !resident {
		return b.reply(msg, "Нужно быть резидентом")
	}

	if m, ok := b.tracker.Current(); ok {
		unpin := tgbotapi.UnpinChatMessageConfig{ChatID: m.ChatID}
		if _, err := b.api.Request(unpin); err != nil {
			slog.Error("can't unpin status message", "error", err)
		}
	}

	if err := b.tracker.Unpublish(ctx); err != nil {
		return err
	}

	return b.reply(msg, "Больше не обновляю статус")
}

// AnnounceCheckIn implements backend.Announcer.
func (b *Bot) AnnounceCheckIn(_ context.Context, update visit.Update) error {
	p, err := b.resolvePerson(update.Person)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("%s зашёл в хакспейс", formatUser(p))
	if update.Purpose != nil && *update.Purpose != "" {
		text += fmt.Sprintf(" чтобы %s", *update.Purpose)
	}
	return b.sendHTML(b.cfg.PublicChatID, 0, text)
}

// AnnouncePlan implements backend.Announcer.
func (b *Bot) AnnouncePlan(_ context.Context, update visit.Update) error {
	p, err := b.resolvePerson(update.Person)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("%s собирается в хакспейс %s", formatUser(p), update.Day)
	if update.Purpose != nil && *update.Purpose != "" {
		text += fmt.Sprintf(" чтобы %s", *update.Purpose)
	}
	return b.sendHTML(b.cfg.PublicChatID, 0, text)
}

// AnnounceUnplan implements backend.Announcer.
func (b *Bot) AnnounceUnplan(_ context.Context, person visit.Uid, day visit.Day) error {
	p, err := b.resolvePerson(person)
	if err != nil {
		return err
	}
	return b.sendHTML(b.cfg.PublicChatID, 0,
		fmt.Sprintf("%s передумал заходить в хакспейс %s", formatUser(p), day))
}

// RenderStatus implements status.Renderer: current occupancy plus the
// near-term plan.
func (b *Bot) RenderStatus(ctx context.Context) (string, error) {
	be, err := b.getBackend()
	if err != nil {
		return "", err
	}

	today := visit.Today()
	visits, err := be.GetVisits(ctx, today, today+planHorizonDays)
	if err != nil {
		return "", err
	}

	entries, err := b.resolveEntries(visits)
	if err != nil {
		return "", err
	}

	return renderStatusText(today, entries), nil
}

// EditMessage implements status.Editor.
func (b *Bot) EditMessage(_ context.Context, m status.Message, text string) error {
	edit := tgbotapi.NewEditMessageText(m.ChatID, m.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	if _, err := b.api.Send(edit); err != nil {
		// Telegram rejects edits that change nothing; that's still in sync.
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return fmt.Errorf("editing status message: %w", err)
	}
	return nil
}

// isResident reports whether the user is a member of the private chat.
func (b *Bot) isResident(userID int64) (bool, error) {
	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: b.cfg.PrivateChatID,
			UserID: userID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("checking residency: %w", err)
	}
	return !member.HasLeft() && !member.WasKicked(), nil
}

// resolvePerson looks up display data for a user. A failed public-chat
// lookup degrades to a bare id link rather than failing the whole render.
func (b *Bot) resolvePerson(uid visit.Uid) (person, error) {
	resident, err := b.isResident(int64(uid))
	if err != nil {
		return person{}, err
	}

	p := person{
		Name:     fmt.Sprintf("id%d", uid),
		URL:      fmt.Sprintf("tg://user?id=%d", uid),
		Resident: resident,
	}

	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: b.cfg.PublicChatID,
			UserID: int64(uid),
		},
	})
	if err != nil {
		slog.Debug("can't resolve user", "uid", uid, "error", err)
		return p, nil
	}

	user := member.User
	if user.UserName != "" {
		p.Name = user.UserName
		p.URL = fmt.Sprintf("https://t.me/%s", user.UserName)
	} else {
		p.Name = strings.TrimSpace(user.FirstName + " " + user.LastName)
	}

	return p, nil
}

func (b *Bot) resolveEntries(visits []visit.Visit) ([]entry, error) {
	entries := make([]entry, 0, len(visits))
	for _, v := range visits {
		p, err := b.resolvePerson(v.Person)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{Person: p, Visit: v})
	}
	return entries, nil
}

// reply sends a plain-text reply to msg.
func (b *Bot) reply(msg *tgbotapi.Message, text string) error {
	send := tgbotapi.NewMessage(msg.Chat.ID, text)
	send.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(send); err != nil {
		return fmt.Errorf("sending reply: %w", err)
	}
	return nil
}

// replyTo is reply for paths that already have an error in flight; failures
// are only logged.
func (b *Bot) replyTo(msg *tgbotapi.Message, text string) {
	if err := b.reply(msg, text); err != nil {
		slog.Error("can't send failure reply", "error", err)
	}
}

// sendHTML sends an HTML-formatted message, optionally as a reply.
func (b *Bot) sendHTML(chatID int64, replyTo int, text string) error {
	send := tgbotapi.NewMessage(chatID, text)
	send.ParseMode = tgbotapi.ModeHTML
	send.DisableWebPagePreview = true
	if replyTo != 0 {
		send.ReplyToMessageID = replyTo
	}
	if _, err := b.api.Send(send); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// messageURL builds a t.me link to a message. Chats without a username use
// the /c/ form with the -100 prefix stripped from the id.
func messageURL(chat *tgbotapi.Chat, messageID int) string {
	if chat.UserName != "" {
		return fmt.Sprintf("https://t.me/%s/%d", chat.UserName, messageID)
	}
	id := strings.TrimPrefix(strconv.FormatInt(chat.ID, 10), "-100")
	return fmt.Sprintf("https://t.me/c/%s/%d", id, messageID)
}

package notify

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/rs/zerolog"

	"github.com/elmasnur/nurcombinator/internal/models"
)

// ChatSender posts a message to a Telegram chat.
type ChatSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// ChatLookup finds the linked Telegram chat of a user.
type ChatLookup interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// Fanout pushes a stored notification to the hub and, when the recipient
// linked a chat, to Telegram. Telegram sends run in the background.
type Fanout struct {
	hub     *Hub
	sender  ChatSender
	chats   ChatLookup
	baseURL string
	log     zerolog.Logger
}

// NewFanout builds a Fanout. sender may be nil to disable Telegram.
func NewFanout(hub *Hub, sender ChatSender, chats ChatLookup, baseURL string, log zerolog.Logger) *Fanout {
	return &Fanout{
		hub:     hub,
		sender:  sender,
		chats:   chats,
		baseURL: baseURL,
		log:     log.With().Str("component", "notify").Logger(),
	}
}

func (f *Fanout) Notify(ctx context.Context, n models.Notification) {
	if f.hub != nil {
		f.hub.Publish(n)
	}
	if f.sender == nil || f.chats == nil {
		return
	}

	p, err := f.chats.GetProfile(ctx, n.UserID)
	if err != nil {
		f.log.Warn().Err(err).Str("user_id", n.UserID).Msg("chat lookup failed")
		return
	}
	if p.TelegramChatID == 0 {
		return
	}

	text := Text(n, f.baseURL)
	if text == "" {
		return
	}
	go func(chatID int64) {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := f.sender.SendMessage(ctx, chatID, text); err != nil {
			f.log.Warn().Err(err).Str("notification_id", n.ID).Msg("telegram send failed")
		}
	}(p.TelegramChatID)
}

// Text renders n as a Telegram HTML message. Unknown types render as "".
func Text(n models.Notification, baseURL string) string {
	str := func(key string) string {
		s, _ := n.Payload[key].(string)
		return html.EscapeString(s)
	}

	switch n.Type {
	case models.NotificationNewApplication:
		text := fmt.Sprintf("<b>%s</b> \"%s\" çağrısına başvurdu.", str("applicant_name"), str("open_call_title"))
		if slug := str("project_slug"); slug != "" && baseURL != "" {
			text += "\n" + baseURL + "/projects/" + slug + "/dashboard"
		}
		return text
	case models.NotificationApplicationStatus:
		status := models.ApplicationStatus(str("status"))
		label, ok := models.ApplicationStatusLabels[status]
		if !ok {
			label = string(status)
		}
		return fmt.Sprintf("\"%s\" başvurunuzun durumu: <b>%s</b>", str("open_call_title"), label)
	}
	return ""
}

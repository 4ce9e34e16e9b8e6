package fsm

import (
	"strings"

	"github.com/go-telegram/bot/models"
)

// Event is the part of an update the router dispatches on.
type Event struct {
	Kind       EventKind
	ChatID     int64
	UserID     int64
	Username   string
	FirstName  string
	Text       string
	Data       string
	CallbackID string
	Message    *models.Message
	Photo      *models.PhotoSize
}

// EventFromUpdate classifies an update; unsupported updates report false.
func EventFromUpdate(update *models.Update) (Event, bool) {
	switch {
	case update == nil:
		return Event{}, false
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		ev := Event{
			Kind:       EventCallback,
			ChatID:     cq.From.ID,
			UserID:     cq.From.ID,
			Username:   cq.From.Username,
			FirstName:  cq.From.FirstName,
			Data:       cq.Data,
			CallbackID: cq.ID,
		}
		if msg := cq.Message.Message; msg != nil {
			ev.ChatID = msg.Chat.ID
			ev.Message = msg
		} else if inaccessible := cq.Message.InaccessibleMessage; inaccessible != nil {
			ev.ChatID = inaccessible.Chat.ID
		}
		return ev, true
	case update.Message != nil:
		msg := update.Message
		ev := Event{ChatID: msg.Chat.ID, UserID: msg.Chat.ID, Message: msg}
		if msg.From != nil {
			ev.UserID = msg.From.ID
			ev.Username = msg.From.Username
			ev.FirstName = msg.From.FirstName
		}
		switch {
		case len(msg.Photo) > 0:
			ev.Kind = EventPhoto
			ev.Text = strings.TrimSpace(msg.Caption)
			ev.Photo = LargestPhoto(msg.Photo)
		case msg.Text != "":
			ev.Kind = EventText
			ev.Text = strings.TrimSpace(msg.Text)
		default:
			return Event{}, false
		}
		return ev, true
	default:
		return Event{}, false
	}
}

// LargestPhoto picks the biggest rendition Telegram sent.
func LargestPhoto(sizes []models.PhotoSize) *models.PhotoSize {
	if len(sizes) == 0 {
		return nil
	}
	best := &sizes[0]
	for i := range sizes {
		if sizes[i].Width*sizes[i].Height > best.Width*best.Height {
			best = &sizes[i]
		}
	}
	return best
}

package fsm

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type ConversationContext[T StateData] struct {
	Ctx    context.Context
	Sender Sender
	Update *models.Update
	Event  Event
	ChatID int64
	UserID int64
	Data   T
	router *Router
	step   ConversationStep
}

func (c *ConversationContext[T]) Step() ConversationStep {
	return c.step
}

func (c *ConversationContext[T]) SendMessage(text string, markup models.ReplyMarkup) error {
	params := &bot.SendMessageParams{
		ChatID:      c.ChatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	}
	_, err := c.Sender.SendMessage(c.Ctx, params)
	return err
}

func (c *ConversationContext[T]) Transition(nextStep ConversationStep, data StateData) error {
	if err := c.router.Transition(c.Ctx, c.ChatID, nextStep, data); err != nil {
		return err
	}
	c.step = nextStep
	return nil
}

// Stay stores the current data without moving to another step.
func (c *ConversationContext[T]) Stay() error {
	return c.router.Transition(c.Ctx, c.ChatID, c.step, c.Data)
}

func (c *ConversationContext[T]) Complete() error {
	if err := c.router.Reset(c.Ctx, c.ChatID); err != nil {
		return err
	}
	c.step = StepIdle
	return nil
}

// Generic widens the context so it can be passed to untyped handlers.
func (c *ConversationContext[T]) Generic() *ConversationContext[StateData] {
	return &ConversationContext[StateData]{
		Ctx:    c.Ctx,
		Sender: c.Sender,
		Update: c.Update,
		Event:  c.Event,
		ChatID: c.ChatID,
		UserID: c.UserID,
		Data:   c.Data,
		router: c.router,
		step:   c.step,
	}
}

package fsm

import (
	"fmt"

	"github.com/go-telegram/bot/models"
)

type TextHandler[T StateData] func(*ConversationContext[T], string) error

type CallbackHandler[T StateData] func(*ConversationContext[T], string) error

type PhotoHandler[T StateData] func(*ConversationContext[T], *models.Message) error

// Chain registers the handlers of one flow step by step.
func Chain[T StateData](router *Router, name string, initialStep ConversationStep) *ChainDefinition[T] {
	return &ChainDefinition[T]{
		name:    name,
		router:  router,
		current: initialStep,
	}
}

type ChainDefinition[T StateData] struct {
	name    string
	router  *Router
	current ConversationStep
}

func (c *ChainDefinition[T]) OnText(handler TextHandler[T]) *ChainDefinition[T] {
	c.router.RegisterHandler(c.current, EventText, c.wrap(func(ctx *ConversationContext[T]) error {
		return handler(ctx, ctx.Event.Text)
	}))
	return c
}

func (c *ChainDefinition[T]) OnCallback(handler CallbackHandler[T]) *ChainDefinition[T] {
	c.router.RegisterHandler(c.current, EventCallback, c.wrap(func(ctx *ConversationContext[T]) error {
		return handler(ctx, ctx.Event.Data)
	}))
	return c
}

func (c *ChainDefinition[T]) OnPhoto(handler PhotoHandler[T]) *ChainDefinition[T] {
	c.router.RegisterHandler(c.current, EventPhoto, c.wrap(func(ctx *ConversationContext[T]) error {
		return handler(ctx, ctx.Event.Message)
	}))
	return c
}

func (c *ChainDefinition[T]) Then(nextStep ConversationStep) *ChainDefinition[T] {
	c.current = nextStep
	return c
}

func (c *ChainDefinition[T]) wrap(handler func(*ConversationContext[T]) error) HandlerFunc {
	name, step := c.name, c.current
	return func(ctx *ConversationContext[StateData]) error {
		typedData, ok := ctx.Data.(T)
		if !ok {
			return fmt.Errorf("%s: unexpected state data %T at step %s", name, ctx.Data, step)
		}
		typedCtx := &ConversationContext[T]{
			Ctx:    ctx.Ctx,
			Sender: ctx.Sender,
			Update: ctx.Update,
			Event:  ctx.Event,
			ChatID: ctx.ChatID,
			UserID: ctx.UserID,
			Data:   typedData,
			router: ctx.router,
			step:   ctx.step,
		}
		return handler(typedCtx)
	}
}

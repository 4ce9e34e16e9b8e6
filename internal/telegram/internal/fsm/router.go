package fsm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-telegram/bot/models"
)

type HandlerFunc func(*ConversationContext[StateData]) error

type ErrorHandler func(*ConversationContext[StateData], error)

type transitionKey struct {
	step ConversationStep
	kind EventKind
}

// Router dispatches every event of a chat through a (step, kind)
// transition table. Events of one chat never run concurrently.
type Router struct {
	store     Store
	locks     *KeyedMutex
	handlers  map[transitionKey]HandlerFunc
	fallback  HandlerFunc
	isCancel  func(Event) bool
	cancel    HandlerFunc
	interrupt func(Event) bool
	onError   ErrorHandler
	mu        *sync.RWMutex
}

func NewRouter(store Store) *Router {
	return &Router{
		store:    store,
		locks:    NewKeyedMutex(),
		handlers: make(map[transitionKey]HandlerFunc),
		mu:       &sync.RWMutex{},
	}
}

func (r *Router) RegisterHandler(step ConversationStep, kind EventKind, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[transitionKey{step: step, kind: kind}] = handler
}

// SetFallback handles events no transition matches, idle chats included.
func (r *Router) SetFallback(handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = handler
}

// SetCancel clears the session on matching events before handler runs.
func (r *Router) SetCancel(match func(Event) bool, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.isCancel = match
	r.cancel = handler
}

// SetInterrupt names events that abandon an active session and go to the
// fallback, such as commands and menu buttons.
func (r *Router) SetInterrupt(match func(Event) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interrupt = match
}

func (r *Router) SetErrorHandler(handler ErrorHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = handler
}

func (r *Router) handler(step ConversationStep, kind EventKind) HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.handlers[transitionKey{step: step, kind: kind}]; ok {
		return h
	}
	return r.fallback
}

func (r *Router) Dispatch(ctx context.Context, sender Sender, update *models.Update) {
	ev, ok := EventFromUpdate(update)
	if !ok {
		return
	}

	unlock := r.locks.Lock(ev.ChatID)
	defer unlock()

	cc := &ConversationContext[StateData]{
		Ctx:    ctx,
		Sender: sender,
		Update: update,
		Event:  ev,
		ChatID: ev.ChatID,
		UserID: ev.UserID,
		Data:   &IdleData{},
		router: r,
		step:   StepIdle,
	}
	defer func() {
		if p := recover(); p != nil {
			r.fail(cc, fmt.Errorf("handler panic: %v", p))
		}
	}()

	state, found, err := r.store.Get(ctx, ev.ChatID)
	if err != nil {
		r.fail(cc, fmt.Errorf("failed to load session: %w", err))
		return
	}
	if found {
		cc.Data = state.Data
		cc.step = state.Step
	}

	r.mu.RLock()
	isCancel, cancel, interrupt := r.isCancel, r.cancel, r.interrupt
	r.mu.RUnlock()

	var handler HandlerFunc
	switch {
	case cancel != nil && isCancel != nil && isCancel(ev):
		if err := r.reset(cc); err != nil {
			r.fail(cc, err)
			return
		}
		handler = cancel
	case cc.step != StepIdle && interrupt != nil && interrupt(ev):
		if err := r.reset(cc); err != nil {
			r.fail(cc, err)
			return
		}
		handler = r.handler(StepIdle, ev.Kind)
	default:
		handler = r.handler(cc.step, ev.Kind)
	}
	if handler == nil {
		return
	}

	if err := handler(cc); err != nil {
		r.fail(cc, err)
	}
}

func (r *Router) reset(cc *ConversationContext[StateData]) error {
	if err := r.store.Delete(cc.Ctx, cc.ChatID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	cc.step = StepIdle
	cc.Data = &IdleData{}
	return nil
}

func (r *Router) fail(cc *ConversationContext[StateData], err error) {
	slog.Error("Conversation handler failed", "error", err, "chatID", cc.ChatID, "step", cc.step, "event", cc.Event.Kind)
	if delErr := r.store.Delete(cc.Ctx, cc.ChatID); delErr != nil {
		slog.Error("Failed to clear conversation state", "error", delErr, "chatID", cc.ChatID)
	}
	r.mu.RLock()
	onError := r.onError
	r.mu.RUnlock()
	if onError != nil {
		onError(cc, err)
	}
}

func (r *Router) Transition(ctx context.Context, chatID int64, nextStep ConversationStep, data StateData) error {
	if nextStep == StepIdle {
		return r.Reset(ctx, chatID)
	}
	if data == nil {
		data = &IdleData{}
	}
	state := State{Flow: nextStep.Flow(), Step: nextStep, Data: data}
	if err := r.store.Set(ctx, chatID, state); err != nil {
		slog.Error("Failed to update conversation step", "error", err, "chatID", chatID, "step", nextStep)
		if err := r.store.Delete(ctx, chatID); err != nil {
			slog.Error("Failed to clear conversation state", "error", err, "chatID", chatID)
		}
		return err
	}
	return nil
}

func (r *Router) Reset(ctx context.Context, chatID int64) error {
	return r.store.Delete(ctx, chatID)
}

// State returns the stored session of chatID, idle when none.
func (r *Router) State(ctx context.Context, chatID int64) (State, error) {
	state, found, err := r.store.Get(ctx, chatID)
	if err != nil {
		return State{}, err
	}
	if !found {
		return IdleState(), nil
	}
	return state, nil
}

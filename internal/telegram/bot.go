package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"isp-order-bot/internal/assignment"
	"isp-order-bot/internal/evidence"
	"isp-order-bot/internal/notification"
	"isp-order-bot/internal/order"
	"isp-order-bot/internal/pkg/config"
	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/internal/telegram/internal/fsm"
	"isp-order-bot/internal/telegram/internal/media"
	"isp-order-bot/internal/telegram/internal/presentation"
	"isp-order-bot/internal/user"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Messenger is the part of the Bot API the conversation flows use.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

type complianceTracker interface {
	OnAssigned(ctx context.Context, orderID string, at time.Time) error
	RecordMarker(ctx context.Context, orderID string, marker model.Marker, at time.Time) error
	Close(ctx context.Context, orderID string, at time.Time) (bool, error)
}

type Deps struct {
	Orders      order.Service
	Users       user.Service
	Assignments assignment.Service
	Evidence    evidence.Service
	Notifier    notification.Service
	Tracker     complianceTracker
}

type Bot struct {
	orderService      order.Service
	userService       user.Service
	assignmentService assignment.Service
	evidenceService   evidence.Service
	notifier          notification.Service
	tracker           complianceTracker
	api               Messenger
	router            *fsm.Router
	collector         *media.Collector
	loc               *time.Location
	now               func() time.Time
	baseCtx           context.Context
}

// NewAPI creates the Bot API client used by the bot, the downloader and
// the HTTP endpoints.
func NewAPI(cfg config.TelegramCfg, webhook config.WebhookCfg) (*bot.Bot, error) {
	opts := []bot.Option{bot.WithMiddlewares(recoverMiddleware)}
	if webhook.Secret != "" {
		opts = append(opts, bot.WithWebhookSecretToken(webhook.Secret))
	}
	api, err := bot.New(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot instance: %w", err)
	}
	return api, nil
}

func NewBot(api Messenger, deps Deps, cfg *config.Config) *Bot {
	b := &Bot{
		orderService:      deps.Orders,
		userService:       deps.Users,
		assignmentService: deps.Assignments,
		evidenceService:   deps.Evidence,
		notifier:          deps.Notifier,
		tracker:           deps.Tracker,
		api:               api,
		router:            fsm.NewRouter(fsm.NewMemoryStore()),
		collector:         media.NewCollector(cfg.Media.GroupWindow, cfg.Media.ReplayPerSecond),
		loc:               cfg.Location(),
		now:               time.Now,
		baseCtx:           context.Background(),
	}
	b.registerRoutes()
	return b
}

func (b *Bot) registerRoutes() {
	b.router.SetCancel(isCancel, b.handleCancel)
	b.router.SetInterrupt(isInterrupt)
	b.router.SetErrorHandler(b.handleError)
	b.router.SetFallback(b.handleUnknown)
	b.router.RegisterHandler(fsm.StepIdle, fsm.EventText, b.handleIdleText)
	b.router.RegisterHandler(fsm.StepIdle, fsm.EventCallback, b.handleIdleCallback)

	b.registerRegistration()
	b.registerOrderCreation()
	b.registerEvidence()
	b.registerProgress()
}

// Start runs the update loop until ctx is done: long polling, or the
// webhook worker fed by the HTTP server.
func (b *Bot) Start(ctx context.Context, api *bot.Bot, cfg *config.Config) error {
	b.baseCtx = context.WithoutCancel(ctx)
	api.RegisterHandlerMatchFunc(func(*models.Update) bool { return true }, b.Handle)

	switch cfg.Telegram.Mode {
	case config.ModeWebhook:
		if _, err := api.SetWebhook(ctx, &bot.SetWebhookParams{
			URL:         cfg.Webhook.URL(),
			SecretToken: cfg.Webhook.Secret,
		}); err != nil {
			return fmt.Errorf("failed to set webhook: %w", err)
		}
		slog.Info("Started Telegram Bot", "mode", config.ModeWebhook, "url", cfg.Webhook.URL())
		go api.StartWebhook(ctx)
	default:
		if _, err := api.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
			return fmt.Errorf("failed to delete webhook: %w", err)
		}
		slog.Info("Started Telegram Bot", "mode", config.ModePolling)
		go api.Start(ctx)
	}
	return nil
}

// Handle is the bot.HandlerFunc every update goes through.
func (b *Bot) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	b.HandleUpdate(ctx, update)
}

func (b *Bot) HandleUpdate(ctx context.Context, update *models.Update) {
	if cq := update.CallbackQuery; cq != nil {
		if _, err := b.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: cq.ID,
		}); err != nil {
			slog.Warn("Failed to answer callback query", "error", err, "callbackID", cq.ID)
		}
	}

	if msg := update.Message; msg != nil && msg.MediaGroupID != "" && len(msg.Photo) > 0 {
		b.collector.Add(msg.MediaGroupID, msg, b.replayMediaGroup)
		return
	}
	b.router.Dispatch(ctx, b.api, update)
}

func (b *Bot) replayMediaGroup(groupID string, messages []*models.Message) {
	slog.Debug("Replaying media group", "groupID", groupID, "count", len(messages))
	b.collector.Replay(b.baseCtx, messages, func(m *models.Message) {
		b.router.Dispatch(b.baseCtx, b.api, &models.Update{Message: m})
	})
}

func (b *Bot) handleError(cc *fsm.ConversationContext[fsm.StateData], err error) {
	if sendErr := cc.SendMessage(presentation.GenericErrorMsg(), nil); sendErr != nil {
		slog.Error("Failed to send error message", "error", sendErr, "chatID", cc.ChatID, "cause", err)
	}
}

func (b *Bot) handleUnknown(cc *fsm.ConversationContext[fsm.StateData]) error {
	return cc.SendMessage(presentation.UnknownInputMsg(), nil)
}

func (b *Bot) handleCancel(cc *fsm.ConversationContext[fsm.StateData]) error {
	u, err := b.userService.FindByTelegramID(cc.Ctx, cc.UserID)
	if err != nil {
		return err
	}
	if u == nil {
		return cc.SendMessage(presentation.CancelledMsg(), nil)
	}
	return cc.SendMessage(presentation.CancelledMsg(), presentation.RoleMenuKbd(u.Role))
}

// requireRole loads the sender and answers the chat itself when the sender
// is unregistered or lacks role. It returns nil in that case.
func requireRole[T fsm.StateData](b *Bot, cc *fsm.ConversationContext[T], role model.Role) (*model.User, error) {
	u, err := b.userService.FindByTelegramID(cc.Ctx, cc.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, cc.SendMessage(presentation.NotRegisteredMsg(), nil)
	}
	if role != "" && u.Role != role {
		slog.Info("Menu refused", "userID", u.ID, "role", u.Role, "required", role)
		return nil, cc.SendMessage(presentation.ForbiddenMsg(), presentation.RoleMenuKbd(u.Role))
	}
	return u, nil
}

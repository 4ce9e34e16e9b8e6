package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"isp-order-bot/internal/assignment"
	"isp-order-bot/internal/compliance"
	"isp-order-bot/internal/database"
	"isp-order-bot/internal/evidence"
	"isp-order-bot/internal/httpapi"
	"isp-order-bot/internal/notification"
	"isp-order-bot/internal/order"
	"isp-order-bot/internal/pkg"
	"isp-order-bot/internal/pkg/config"
	"isp-order-bot/internal/pkg/logging"
	"isp-order-bot/internal/reminder"
	"isp-order-bot/internal/telegram"
	"isp-order-bot/internal/user"

	"github.com/go-telegram/bot"
	"github.com/spf13/cobra"
)

const shutdownBudget = 15 * time.Second

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "isp-order-bot",
		Short:         "Telegram bot for ISP installation orders",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to YAML config file")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newMigrateCmd(&configPath))
	cmd.AddCommand(newWebhookCmd(&configPath))
	return cmd
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot, reminder sweep and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := database.Migrate(cfg.DB.URL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

func newWebhookCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the Telegram webhook",
	}

	var dropPending bool
	set := &cobra.Command{
		Use:   "set",
		Short: "Point Telegram at the configured webhook URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, api, err := webhookClient(*configPath)
			if err != nil {
				return err
			}
			if cfg.Webhook.BaseURL == "" {
				return errors.New("webhook.base_url is not configured")
			}
			if _, err := api.SetWebhook(cmd.Context(), &bot.SetWebhookParams{
				URL:                cfg.Webhook.URL(),
				SecretToken:        cfg.Webhook.Secret,
				DropPendingUpdates: dropPending,
			}); err != nil {
				return fmt.Errorf("set webhook: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Webhook set to %s\n", cfg.Webhook.URL())
			return nil
		},
	}
	set.Flags().BoolVar(&dropPending, "drop-pending", false, "drop updates queued while no webhook was set")

	info := &cobra.Command{
		Use:   "info",
		Short: "Show the current webhook status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, api, err := webhookClient(*configPath)
			if err != nil {
				return err
			}
			wh, err := api.GetWebhookInfo(cmd.Context())
			if err != nil {
				return fmt.Errorf("get webhook info: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "URL: %s\n", wh.URL)
			fmt.Fprintf(out, "Pending updates: %d\n", wh.PendingUpdateCount)
			if wh.LastErrorMessage != "" {
				fmt.Fprintf(out, "Last error: %s\n", wh.LastErrorMessage)
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook so long polling can be used",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, api, err := webhookClient(*configPath)
			if err != nil {
				return err
			}
			if _, err := api.DeleteWebhook(cmd.Context(), &bot.DeleteWebhookParams{DropPendingUpdates: dropPending}); err != nil {
				return fmt.Errorf("delete webhook: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Webhook deleted")
			return nil
		},
	}
	del.Flags().BoolVar(&dropPending, "drop-pending", false, "drop queued updates")

	cmd.AddCommand(set, info, del)
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.Log, os.Stderr)
	return cfg, nil
}

func webhookClient(path string) (*config.Config, *bot.Bot, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	api, err := telegram.NewAPI(cfg.Telegram, cfg.Webhook)
	if err != nil {
		return nil, nil, err
	}
	return cfg, api, nil
}

func runServe(parent context.Context, configPath string) error {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := database.Migrate(cfg.DB.URL); err != nil {
		return err
	}
	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	api, err := telegram.NewAPI(cfg.Telegram, cfg.Webhook)
	if err != nil {
		return err
	}

	orderService := order.NewDefaultService(order.NewDefaultRepo(db))
	userService := user.NewDefaultService(user.NewDefaultRepo(db))
	assignmentService := assignment.NewDefaultService(assignment.NewDefaultRepo(db))
	notificationService := notification.NewDefaultService(notification.NewDefaultRepo(db), api, userService)

	downloader := evidence.NewTelegramDownloader(api, pkg.NewHTTPClient(0))
	evidenceService := evidence.NewDefaultService(
		evidence.NewDefaultRepo(db),
		evidence.NewLocalStorage(cfg.Storage.DirPath),
		downloader,
	)

	reminderService := reminder.NewDefaultService(reminder.NewDefaultRepo(db), orderService, notificationService, cfg.Reminder, cfg.Location())
	tracker := compliance.NewTracker(orderService, reminderService)

	tgBot := telegram.NewBot(api, telegram.Deps{
		Orders:      orderService,
		Users:       userService,
		Assignments: assignmentService,
		Evidence:    evidenceService,
		Notifier:    notificationService,
		Tracker:     tracker,
	}, cfg)

	if err := reminderService.Start(ctx); err != nil {
		return err
	}
	if err := tgBot.Start(ctx, api, cfg); err != nil {
		return err
	}

	var webhook http.Handler
	if cfg.Telegram.Mode == config.ModeWebhook {
		webhook = api.WebhookHandler()
	}
	server := httpapi.NewServer(cfg, api, db, webhook)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run(ctx)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			slog.Error("HTTP server stopped", "error", err)
		}
		cancel()
	}

	slog.Info("Shutting down...")
	shutdownCtx, shutdown := context.WithTimeout(context.Background(), shutdownBudget)
	defer shutdown()

	if err := reminderService.Stop(shutdownCtx); err != nil {
		slog.Error("Failed to stop reminder service", "error", err)
	}
	slog.Info("Stopped", "remindersFired", reminderService.Fired())
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

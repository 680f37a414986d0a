package app

import (
	"context"
	"fmt"

	"schoollicense.app/renewal/internal/config"
	"schoollicense.app/renewal/internal/logger"
	"schoollicense.app/renewal/internal/notify"
	"schoollicense.app/renewal/internal/renewal"
	"schoollicense.app/renewal/storage"
)

// App holds the wired dependencies shared by every entry point.
type App struct {
	Config  *config.Config
	Store   storage.Store
	Service *renewal.Service
}

// New opens the configured store and builds the renewal service around it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	st, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	notifier := NewNotifier(cfg)

	svc := renewal.NewService(st,
		renewal.WithSecret(cfg.WebhookSecret),
		renewal.WithNotifier(notifier),
	)

	return &App{Config: cfg, Store: st, Service: svc}, nil
}

var newTelegram = notify.NewTelegram

// NewNotifier builds the notifiers enabled in cfg. A notifier that cannot be
// set up is logged and left out.
func NewNotifier(cfg *config.Config) notify.Notifier {
	var notifiers notify.Multi

	if cfg.EmailEnabled() {
		notifiers = append(notifiers, notify.NewEmail(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
		}))
	}

	if cfg.TelegramEnabled() {
		tg, err := newTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logger.Warn("Telegram notifications disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			notifiers = append(notifiers, tg)
		}
	}

	logger.Debug("Notifiers configured", map[string]interface{}{
		"email":    cfg.EmailEnabled(),
		"telegram": cfg.TelegramEnabled(),
		"active":   len(notifiers),
	})

	if len(notifiers) == 0 {
		return notify.Nop{}
	}
	return notifiers
}

func (a *App) Close() error {
	return a.Store.Close()
}

package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoollicense.app/renewal/internal/config"
	"schoollicense.app/renewal/internal/notify"
	"schoollicense.app/renewal/storage"
)

func TestNewWithLocalStores(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		driver string
		check  func(t *testing.T, st storage.Store)
	}{
		{config.DriverMemory, func(t *testing.T, st storage.Store) { assert.IsType(t, &storage.MemoryStorage{}, st) }},
		{config.DriverBolt, func(t *testing.T, st storage.Store) { assert.IsType(t, &storage.BoltStorage{}, st) }},
		{config.DriverSQLite, func(t *testing.T, st storage.Store) { assert.IsType(t, &storage.SQLiteStorage{}, st) }},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg := &config.Config{
				StoreDriver:   tt.driver,
				LogLevel:      "warn",
				WebhookSecret: "secret",
				BoltPath:      filepath.Join(dir, "licenses.db"),
				SQLitePath:    filepath.Join(dir, "licenses.sqlite"),
			}

			a, err := New(context.Background(), cfg)
			require.NoError(t, err)
			defer a.Close()

			tt.check(t, a.Store)
			assert.NotNil(t, a.Service)
			assert.NoError(t, a.Store.Ping(context.Background()))
		})
	}
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), &config.Config{StoreDriver: "cassandra"})
	assert.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	n := NewNotifier(&config.Config{})
	assert.IsType(t, notify.Nop{}, n)

	n = NewNotifier(&config.Config{
		SMTPHost:     "smtp.example.com",
		SMTPPort:     "587",
		SMTPUsername: "user",
		SMTPPassword: "pass",
	})
	multi, ok := n.(notify.Multi)
	require.True(t, ok)
	assert.Len(t, multi, 1)
}

func TestNewNotifierSkipsUnreachableTelegram(t *testing.T) {
	orig := newTelegram
	defer func() { newTelegram = orig }()
	newTelegram = func(token string, chatID int64) (*notify.Telegram, error) {
		return nil, errors.New("Not Found")
	}

	n := NewNotifier(&config.Config{TelegramBotToken: "revoked", TelegramChatID: 42})
	assert.IsType(t, notify.Nop{}, n)

	n = NewNotifier(&config.Config{
		SMTPHost:         "smtp.example.com",
		SMTPPort:         "587",
		SMTPUsername:     "user",
		SMTPPassword:     "pass",
		TelegramBotToken: "revoked",
		TelegramChatID:   42,
	})
	multi, ok := n.(notify.Multi)
	require.True(t, ok)
	assert.Len(t, multi, 1)
}

func TestNewStartsWithUnreachableTelegram(t *testing.T) {
	orig := newTelegram
	defer func() { newTelegram = orig }()
	newTelegram = func(token string, chatID int64) (*notify.Telegram, error) {
		return nil, errors.New("dial tcp: i/o timeout")
	}

	a, err := New(context.Background(), &config.Config{
		StoreDriver:      config.DriverMemory,
		LogLevel:         "warn",
		WebhookSecret:    "secret",
		TelegramBotToken: "token",
		TelegramChatID:   42,
	})
	require.NoError(t, err)
	defer a.Close()
	assert.NotNil(t, a.Service)
}

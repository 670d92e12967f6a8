// Пакет notification отправляет служебные уведомления в Telegram:
// итоги синхронизаций и фатальные ошибки. При пустом токене бота
// уведомления выключены, все методы превращаются в no-op.
package notification

import (
	"fmt"

	"sellerdesk/internal/config"
	"sellerdesk/internal/infrastructure/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var NotificationApp *NotificationManager = &NotificationManager{}

// NotificationManager шлет сообщения в служебный чат администраторов
type NotificationManager struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// InitNotificationApp инициализирует глобальный менеджер уведомлений
func InitNotificationApp() error {
	conf := config.File.TelegramConfig
	if conf.Token == "" {
		logger.Info("Токен Telegram не задан, уведомления выключены")
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(conf.Token)
	if err != nil {
		return fmt.Errorf("не удается инициализировать бота telegram: %v", err)
	}

	NotificationApp = &NotificationManager{
		bot:    bot,
		chatID: conf.NotificationChatId,
	}
	logger.Info("Уведомления Telegram включены, чат ", conf.NotificationChatId)
	return nil
}

// Enabled возвращает true, если уведомления настроены
func (app *NotificationManager) Enabled() bool {
	return app.bot != nil && app.chatID != 0
}

func (app *NotificationManager) send(text string) {
	if !app.Enabled() {
		return
	}

	msg := tgbotapi.NewMessage(app.chatID, text)
	if _, err := app.bot.Send(msg); err != nil {
		// Недоставленное уведомление не должно ломать вызывающий процесс
		logger.Error("Ошибка отправки уведомления в Telegram: ", err)
	}
}

// SyncFinished уведомляет об успешном завершении синхронизации магазина
func (app *NotificationManager) SyncFinished(storeName, marketplace, summary string) {
	app.send(fmt.Sprintf("✅ %s (%s)\n%s", storeName, marketplace, summary))
}

// SyncFailed уведомляет об ошибке синхронизации магазина
func (app *NotificationManager) SyncFailed(storeName, marketplace string, err error) {
	app.send(fmt.Sprintf("❌ %s (%s)\nОшибка синхронизации: %v", storeName, marketplace, err))
}

// FatalError уведомляет о фатальной ошибке приложения
func (app *NotificationManager) FatalError(context string, err error) {
	app.send(fmt.Sprintf("🔥 %s: %v", context, err))
}

package main

import (
	"context"
	"os"
	"time"

	"sellerdesk/internal/cache"
	"sellerdesk/internal/classify"
	"sellerdesk/internal/config"
	"sellerdesk/internal/infrastructure/db"
	"sellerdesk/internal/infrastructure/logger"
	"sellerdesk/internal/notification"
	"sellerdesk/internal/report"
	"sellerdesk/internal/sequence"
	"sellerdesk/internal/store"
	"sellerdesk/internal/sync"
	"sellerdesk/internal/web"
	"sellerdesk/pkg/ozonapi"
	"sellerdesk/pkg/wbchat"
)

func main() {
	HandleFatalError(config.File.Validate())

	HandleFatalError(notification.InitNotificationApp())

	// Клиенты маркетплейсов: один экземпляр на все магазины
	wbClient, err := wbchat.NewWBChatApi(wbchat.Config{
		BaseURL:         config.File.WBChatConfig.BaseURL,
		RequestTimeout:  int64(config.File.WBChatConfig.RequestTimeout),
		ApiRequestPause: int64(config.File.WBChatConfig.PagePause),
		MaxPages:        config.File.WBChatConfig.MaxPages,
		Logger:          logger.Log,
	})
	HandleFatalError(err)

	ozonClient := ozonapi.NewOzonApi(ozonapi.Config{
		BaseURL:        config.File.OzonConfig.BaseURL,
		RequestTimeout: int64(config.File.OzonConfig.RequestTimeout),
		RatePerSecond:  config.File.OzonConfig.RatePerSecond,
	})

	chatStore := store.NewGormStore(db.DB)
	settingsCache := cache.NewSettingsCache(chatStore, time.Duration(config.File.CacheConfig.SettingsLiveTime)*time.Minute)

	seqManager := sequence.NewManager(chatStore, config.File.SequenceConfig.TimezoneShift)
	classifier := classify.New(config.File.ClassifierConfig.URL, config.File.ClassifierConfig.RequestTimeout)

	adapters := []sync.ChatSyncAdapter{
		sync.NewWBAdapter(wbClient),
		sync.NewOzonAdapter(ozonClient, config.File.OzonConfig.HistoryLimit),
	}
	syncService := sync.NewService(chatStore, adapters, classifier, seqManager, settingsCache)

	if notification.NotificationApp.Enabled() {
		syncService.SetNotifier(notification.NotificationApp)
	}

	reporter, err := report.NewSyncReporter()
	HandleFatalError(err)
	if reporter != nil {
		syncService.SetReporter(reporter)
	}

	// Фоновые задачи: обработчик автосерий и ежедневная синхронизация.
	// В тестовом режиме выключены, синхронизации запускаются только руками.
	if !config.File.WebConfig.IsTestMode {
		ctx := context.Background()

		sender := sync.NewMarketplaceSender(wbClient, ozonClient)
		consumer := sequence.NewConsumer(
			chatStore, sender, settingsCache, seqManager,
			time.Duration(config.File.SequenceConfig.CheckPause)*time.Second,
			time.Duration(config.File.SequenceConfig.SendPause)*time.Second,
		)
		go consumer.Run(ctx)

		go syncService.RunDailySync(ctx, 24*time.Hour)
	}

	HandleFatalError(web.InitWebApp(chatStore, syncService, settingsCache))

	HandleFatalError(web.App.HandleUpdates())
}

// HandleFatalError логгирует ошибку, уведомляет админов в тг и завершает процесс
func HandleFatalError(err error) error {
	if err != nil {
		logger.Error("Критическая ошибка: ", err)
		notification.NotificationApp.FatalError("Запуск сервиса", err)
		os.Exit(1)
	}
	return nil
}

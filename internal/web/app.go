// Пакет web реализует HTTP API сервиса: запуск синхронизаций, ручное
// управление статусами чатов и эндпоинты Telegram mini-app.
package web

import (
	"fmt"
	"net/http"

	"sellerdesk/internal/cache"
	"sellerdesk/internal/config"
	"sellerdesk/internal/infrastructure/logger"
	"sellerdesk/internal/store"
	"sellerdesk/internal/sync"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

var App *WebApp

// InitWebApp инициализирует глобальное веб приложение
func InitWebApp(st store.ChatStore, syncService *sync.Service, settings *cache.SettingsCache) error {
	var err error

	App, err = NewWebApp(st, syncService, settings)
	if err != nil {
		return err
	}

	return nil
}

// WebApp веб приложение: маршрутизатор и зависимости хендлеров
type WebApp struct {
	Router *mux.Router

	store       store.ChatStore
	syncService *sync.Service
	settings    *cache.SettingsCache
	validate    *validator.Validate
}

// NewWebApp создает и возвращает веб приложение
func NewWebApp(st store.ChatStore, syncService *sync.Service, settings *cache.SettingsCache) (*WebApp, error) {
	app := WebApp{
		store:       st,
		syncService: syncService,
		settings:    settings,
		validate:    validator.New(),
	}
	app.Router = app.SetRoutes()
	return &app, nil
}

// HandleUpdates запускает HTTP сервер
func (app *WebApp) HandleUpdates() error {
	conf := config.File.WebConfig

	msg := "Сервис запущен и готов к работе (" + conf.APPIP + ":" + conf.APPPORT + ")"
	if conf.IsTestMode {
		msg += "\nВКЛЮЧЕН ТЕСТОВЫЙ ЗАПУСК. Фоновые задачи отключены"
	}
	logger.Info(msg)

	err := http.ListenAndServe(conf.APPIP+":"+conf.APPPORT, app.Router)
	if err != nil {
		return fmt.Errorf("ошибка при запуске сервера: %v", err)
	}
	return nil
}

// Пакет wbchat реализует клиент WB Chat API (buyer-chat-api.wildberries.ru).
// Все запросы проходят через внутреннюю очередь с паузой, чтобы не упираться
// в лимиты API при одновременной работе синхронизации и автосерий.
package wbchat

import (
	"errors"
	"log"
	"os"
	"time"

	"sellerdesk/pkg/logger/interfaces"
	"sellerdesk/pkg/request"
)

// Config содержит настройки для клиента WB Chat API
type Config struct {
	BaseURL         string // Базовый URL API
	RequestTimeout  int64  // Таймаут одного HTTP запроса в секундах
	ApiRequestPause int64  // Пауза между запросами в миллисекундах
	ApiBufferSize   int    // Размер буфера запросов
	MaxPages        int    // Предохранитель от бесконечной пагинации журнала событий

	// Logger определяет способ логирования:
	// - nil: будет использован стандартный log.Logger
	// - false: логирование будет отключено
	// - interfaces.BasicLogger или interfaces.SimpleLogger
	Logger interface{}
}

// ApiClient структура для взаимодействия с WB Chat API.
// Использует RequestHandler для отложенной обработки запросов.
type ApiClient struct {
	config         Config
	request        *request.RequestHandler
	logger         interface{}
	loggingEnabled bool
}

// NewWBChatApi создает и возвращает новый экземпляр ApiClient.
// Запускает фоновую обработку очереди запросов.
func NewWBChatApi(conf Config) (*ApiClient, error) {
	if conf.BaseURL == "" {
		conf.BaseURL = "https://buyer-chat-api.wildberries.ru"
	}
	if conf.RequestTimeout <= 0 {
		conf.RequestTimeout = 30
	}
	if conf.MaxPages <= 0 {
		conf.MaxPages = 1000
	}
	if conf.ApiBufferSize <= 0 {
		conf.ApiBufferSize = 1000
	}

	client := &ApiClient{
		config:         conf,
		loggingEnabled: true,
	}

	// Настройка логгера
	if v, ok := conf.Logger.(bool); ok && !v {
		client.loggingEnabled = false
	} else if conf.Logger == nil {
		client.logger = log.New(os.Stdout, "WBChatAPI: ", log.LstdFlags)
	} else if l, ok := conf.Logger.(interfaces.SimpleLogger); ok {
		client.logger = l
	} else if l, ok := conf.Logger.(interfaces.BasicLogger); ok {
		client.logger = l
	} else {
		return nil, errors.New("неподдерживаемый тип логгера")
	}

	// Настройка RequestHandler
	requestHandler, err := request.NewRequestHandler(request.Config{
		BufferSize: conf.ApiBufferSize,
		Logger:     conf.Logger,
	})
	if err != nil {
		return nil, err
	}
	client.request = requestHandler

	// Запуск процесса обработки запросов
	go client.request.ProcessRequests(time.Duration(conf.ApiRequestPause) * time.Millisecond)

	return client, nil
}

func (app *ApiClient) logf(format string, args ...interface{}) {
	if !app.loggingEnabled {
		return
	}

	switch l := app.logger.(type) {
	case interfaces.SimpleLogger:
		l.Infof(format, args...)
	case interfaces.BasicLogger:
		l.Printf(format, args...)
	}
}

// Stop останавливает обработку очереди запросов
func (app *ApiClient) Stop() {
	app.request.StopProcessing()
}

// Пакет request реализует очередь запросов к внешним API с фиксированной
// паузой между выполнениями. Все обращения к API маркетплейса проходят через
// одну очередь, поэтому лимит запросов соблюдается независимо от того,
// сколько горутин (синхронизация, автосерии, веб-хендлеры) хотят отправить запрос.
package request

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"sellerdesk/pkg/logger/interfaces"
)

// Request единица работы в очереди
type Request func() error

// Config определяет параметры конфигурации для RequestHandler.
type Config struct {
	// BufferSize определяет размер каналов для запросов.
	BufferSize int

	// Logger определяет способ логирования:
	// - nil: будет использован стандартный log.Logger
	// - false: логирование будет отключено
	// - interfaces.BasicLogger или interfaces.SimpleLogger
	Logger interface{}
}

// DefaultConfig возвращает новый экземпляр Config со стандартными настройками.
func DefaultConfig() Config {
	return Config{
		BufferSize: 1000,
		Logger:     nil,
	}
}

// RequestHandler управляет обработкой запросов с поддержкой приоритизации.
// Обычный канал используют синхронизации, низкоприоритетный - фоновые задачи,
// которым не критична задержка.
type RequestHandler struct {
	requests            chan Request
	lowPriorityRequests chan Request
	ctx                 context.Context
	cancel              context.CancelFunc
	mu                  sync.Mutex
	isProcessing        bool
	logger              interface{}
	loggingEnabled      bool
}

// NewRequestHandler создает новый экземпляр RequestHandler с заданной конфигурацией.
func NewRequestHandler(config Config) (*RequestHandler, error) {
	ctx, cancel := context.WithCancel(context.Background())

	handler := &RequestHandler{
		requests:            make(chan Request, config.BufferSize),
		lowPriorityRequests: make(chan Request, config.BufferSize),
		ctx:                 ctx,
		cancel:              cancel,
		loggingEnabled:      true,
	}

	if v, ok := config.Logger.(bool); ok && !v {
		handler.loggingEnabled = false
	} else if config.Logger == nil {
		handler.logger = log.New(os.Stdout, "request: ", log.LstdFlags)
	} else if l, ok := config.Logger.(interfaces.SimpleLogger); ok {
		handler.logger = l
	} else if l, ok := config.Logger.(interfaces.BasicLogger); ok {
		handler.logger = l
	} else {
		return nil, errors.New("неподдерживаемый тип логгера")
	}

	return handler, nil
}

func (app *RequestHandler) logf(format string, args ...interface{}) {
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

func (app *RequestHandler) logError(format string, args ...interface{}) {
	if !app.loggingEnabled {
		return
	}

	switch l := app.logger.(type) {
	case interfaces.SimpleLogger:
		l.Errorf(format, args...)
	case interfaces.BasicLogger:
		l.Printf("ERROR: "+format, args...)
	}
}

// HandleRequest добавляет запрос в канал обычного приоритета.
// Возвращает ошибку, если обработка не запущена.
func (app *RequestHandler) HandleRequest(req Request) error {
	app.mu.Lock()
	if !app.isProcessing {
		app.mu.Unlock()
		return errors.New("невозможно добавить запрос: обработка не запущена")
	}
	app.mu.Unlock()

	app.requests <- req
	return nil
}

// HandleLowPriorityRequest добавляет запрос в канал низкого приоритета.
func (app *RequestHandler) HandleLowPriorityRequest(req Request) error {
	app.mu.Lock()
	if !app.isProcessing {
		app.mu.Unlock()
		return errors.New("невозможно добавить запрос: обработка не запущена")
	}
	app.mu.Unlock()

	app.lowPriorityRequests <- req
	return nil
}

// ProcessRequests запускает обработку запросов из обоих каналов с фиксированной
// паузой между запросами. Сначала обрабатываются запросы обычного приоритета.
// Обработка продолжается до вызова StopProcessing.
func (app *RequestHandler) ProcessRequests(pause time.Duration) {
	app.mu.Lock()
	if app.isProcessing {
		app.logf("Невозможно запустить обработку запросов: уже запущена")
		app.mu.Unlock()
		return
	}
	app.isProcessing = true
	app.mu.Unlock()

	for {
		select {
		case <-app.ctx.Done():
			app.mu.Lock()
			app.isProcessing = false
			app.mu.Unlock()
			return
		case req := <-app.requests:
			if err := req(); err != nil {
				app.logError("Ошибка выполнения запроса: %v", err)
			}
		case req := <-app.lowPriorityRequests:
			if err := req(); err != nil {
				app.logError("Ошибка выполнения низкоприоритетного запроса: %v", err)
			}
		}
		time.Sleep(pause)
	}
}

// StopProcessing останавливает обработку запросов и освобождает ресурсы.
func (app *RequestHandler) StopProcessing() {
	app.cancel()
	app.mu.Lock()
	app.isProcessing = false
	app.mu.Unlock()
}

// HandleSyncRequest отправляет запрос в очередь и ждет его выполнения.
// Возвращает ошибку самого запроса либо ошибку постановки в очередь.
func (app *RequestHandler) HandleSyncRequest(fn func() error) error {
	var wg sync.WaitGroup
	var resultErr error

	wg.Add(1)
	err := app.HandleRequest(func() error {
		defer wg.Done()
		if err := fn(); err != nil {
			resultErr = err
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	wg.Wait()
	return resultErr
}

// Пакет ozonapi реализует клиент OZON Seller API (api-seller.ozon.ru).
// Все методы API принимают POST с JSON телом, авторизация через заголовки
// Client-Id и Api-Key. Лимит запросов щедрый (50 в секунду), но соблюдается
// общим rate-лимитером на клиент.
package ozonapi

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Config содержит настройки для клиента OZON Seller API
type Config struct {
	BaseURL        string // Базовый URL API
	RequestTimeout int64  // Таймаут одного HTTP запроса в секундах
	RatePerSecond  int    // Лимит запросов в секунду
}

// ApiClient клиент OZON Seller API. Потокобезопасен, один экземпляр
// обслуживает все магазины - учетные данные передаются в каждый вызов.
type ApiClient struct {
	config  Config
	client  *resty.Client
	limiter *rate.Limiter
}

// Credentials учетные данные магазина OZON
type Credentials struct {
	ClientID string
	ApiKey   string
}

// ApiError ошибка OZON Seller API с HTTP статусом ответа
type ApiError struct {
	Status int
	Path   string
	Body   string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("OZON API %s: статус %d: %s", e.Path, e.Status, e.Body)
}

// IsPremiumPlusRequired возвращает true, если ошибка вызвана отсутствием
// подписки Premium Plus у продавца (API отвечает 403 на историю чата).
func (e *ApiError) IsPremiumPlusRequired() bool {
	return e.Status == 403
}

// NewOzonApi создает и возвращает новый экземпляр ApiClient
func NewOzonApi(conf Config) *ApiClient {
	if conf.BaseURL == "" {
		conf.BaseURL = "https://api-seller.ozon.ru"
	}
	if conf.RequestTimeout <= 0 {
		conf.RequestTimeout = 30
	}
	if conf.RatePerSecond <= 0 {
		conf.RatePerSecond = 50
	}

	client := resty.New().
		SetBaseURL(conf.BaseURL).
		SetTimeout(time.Duration(conf.RequestTimeout) * time.Second).
		SetHeader("Content-Type", "application/json")

	return &ApiClient{
		config:  conf,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(conf.RatePerSecond), conf.RatePerSecond),
	}
}

// post выполняет POST запрос к API. При 5xx и сетевых ошибках повторяет
// запрос один раз после секундной паузы, 4xx не повторяется.
func (app *ApiClient) post(ctx context.Context, creds Credentials, path string, body interface{}, out interface{}) error {
	var lastErr error

	for attempt := 0; attempt < 2; attempt++ {
		if err := app.limiter.Wait(ctx); err != nil {
			return err
		}

		resp, err := app.client.R().
			SetContext(ctx).
			SetHeader("Client-Id", creds.ClientID).
			SetHeader("Api-Key", creds.ApiKey).
			SetBody(body).
			SetResult(out).
			Post(path)

		if err != nil {
			lastErr = err
			if attempt == 0 {
				time.Sleep(time.Second)
				continue
			}
			return lastErr
		}

		status := resp.StatusCode()
		if status >= 400 && status < 500 {
			return &ApiError{Status: status, Path: path, Body: truncate(string(resp.Body()), 500)}
		}
		if status >= 500 {
			lastErr = &ApiError{Status: status, Path: path, Body: truncate(string(resp.Body()), 500)}
			if attempt == 0 {
				time.Sleep(time.Second)
				continue
			}
			return lastErr
		}

		return nil
	}

	return lastErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

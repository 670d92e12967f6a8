package wbchat

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// Chat активный чат продавца из списка /api/v1/seller/chats
type Chat struct {
	ChatID      string // Нативный ID чата
	ClientName  string // Имя покупателя
	ReplySign   string // Токен для отправки ответа в этот чат
	ProductNmID string // Артикул товара, если чат привязан к карточке
}

// Event одно событие журнала /api/v1/seller/events.
// Журнал глобальный для продавца, события всех чатов идут вперемешку.
type Event struct {
	EventID    string
	ChatID     string
	Text       string
	Sender     string // client | seller
	AddTime    time.Time
	DownloadID string // ID вложения, если событие содержит файл
}

// EventsResult результат выгрузки журнала событий
type EventsResult struct {
	Events []Event
	Next   string // Курсор для следующей выгрузки. Сохраняется в магазине.
}

// ApiError ошибка WB Chat API с HTTP статусом ответа
type ApiError struct {
	Status int
	Path   string
	Body   string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("WB Chat API %s: статус %d: %s", e.Path, e.Status, e.Body)
}

// ListChats возвращает все активные чаты продавца
func (app *ApiClient) ListChats(token string) ([]Chat, error) {
	var chats []Chat

	err := app.request.HandleSyncRequest(func() error {
		var err error
		chats, err = app.listChatsRequest(token)
		return err
	})

	return chats, err
}

func (app *ApiClient) listChatsRequest(token string) ([]Chat, error) {
	body, err := app.doGet("/api/v1/seller/chats", token, nil)
	if err != nil {
		return nil, err
	}

	var chats []Chat
	gjson.GetBytes(body, "result").ForEach(func(_, item gjson.Result) bool {
		chats = append(chats, Chat{
			ChatID:      item.Get("chatID").String(),
			ClientName:  item.Get("clientName").String(),
			ReplySign:   item.Get("replySign").String(),
			ProductNmID: item.Get("goodCard.nmID").String(),
		})
		return true
	})

	app.logf("Получено чатов WB: %d", len(chats))
	return chats, nil
}

// ListEvents выгружает журнал событий начиная с переданного курсора.
// Пагинация идет до исчерпания журнала либо до MaxPages. Пауза между
// страницами обеспечивается очередью запросов.
func (app *ApiClient) ListEvents(token, startCursor string) (*EventsResult, error) {
	result := &EventsResult{Next: startCursor}
	cursor := startCursor

	for page := 0; page < app.config.MaxPages; page++ {
		var pageEvents []Event
		var next string

		err := app.request.HandleSyncRequest(func() error {
			var err error
			pageEvents, next, err = app.listEventsRequest(token, cursor)
			return err
		})
		if err != nil {
			return nil, err
		}

		result.Events = append(result.Events, pageEvents...)
		app.logf("Журнал событий WB: страница %d, событий %d", page+1, len(pageEvents))

		// Конец журнала: пустая страница либо курсор не сдвинулся
		if next == "" || len(pageEvents) == 0 || next == cursor {
			if next != "" {
				result.Next = next
			}
			return result, nil
		}

		cursor = next
		result.Next = next
	}

	app.logf("Журнал событий WB: достигнут предел страниц %d, продолжим со следующей синхронизации", app.config.MaxPages)
	return result, nil
}

func (app *ApiClient) listEventsRequest(token, cursor string) ([]Event, string, error) {
	params := url.Values{}
	if cursor != "" {
		params.Set("next", cursor)
	}

	body, err := app.doGet("/api/v1/seller/events", token, params)
	if err != nil {
		return nil, "", err
	}

	var events []Event
	gjson.GetBytes(body, "result.events").ForEach(func(_, item gjson.Result) bool {
		// Журнал содержит и служебные события, нас интересуют только сообщения
		if item.Get("eventType").String() != "message" || item.Get("chatID").String() == "" {
			return true
		}
		events = append(events, Event{
			EventID:    item.Get("eventID").String(),
			ChatID:     item.Get("chatID").String(),
			Text:       item.Get("message.text").String(),
			Sender:     item.Get("sender").String(),
			AddTime:    item.Get("addTime").Time(),
			DownloadID: item.Get("downloadID").String(),
		})
		return true
	})

	return events, gjson.GetBytes(body, "result.next").String(), nil
}

// SendMessage отправляет текстовый ответ продавца в чат.
// API принимает multipart форму с подписью чата и текстом.
func (app *ApiClient) SendMessage(token, replySign, message string) error {
	return app.request.HandleSyncRequest(func() error {
		return app.sendMessageRequest(token, replySign, message)
	})
}

func (app *ApiClient) sendMessageRequest(token, replySign, message string) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("replySign", replySign); err != nil {
		return err
	}
	if err := writer.WriteField("message", message); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	path := "/api/v1/seller/message"
	req, err := http.NewRequest("POST", app.config.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	client := &http.Client{
		Timeout: time.Duration(app.config.RequestTimeout) * time.Second,
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		// API кладет описание ошибки в error.message
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = string(body)
		}
		return &ApiError{Status: resp.StatusCode, Path: path, Body: msg}
	}

	app.logf("Сообщение отправлено в чат WB")
	return nil
}

// doGet выполняет GET запрос к API и возвращает тело ответа
func (app *ApiClient) doGet(path, token string, params url.Values) ([]byte, error) {
	fullURL := app.config.BaseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequest("GET", fullURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", token)

	client := &http.Client{
		Timeout: time.Duration(app.config.RequestTimeout) * time.Second,
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ApiError{Status: resp.StatusCode, Path: path, Body: string(body)}
	}

	return body, nil
}

package ozonapi

import (
	"context"
	"encoding/json"
	"time"
)

// ChatTypeBuyerSeller чаты покупатель-продавец. Остальные типы
// (Seller_Support и прочие служебные) синхронизация не интересуют.
const ChatTypeBuyerSeller = "Buyer_Seller"

// ChatInfo описание чата из /v2/chat/list
type ChatInfo struct {
	ChatID     string `json:"chat_id"`
	ChatStatus string `json:"chat_status"`
	ChatType   string `json:"chat_type"`
	CreatedAt  string `json:"created_at"`
}

// ChatListItem элемент списка чатов
type ChatListItem struct {
	Chat                 ChatInfo `json:"chat"`
	FirstUnreadMessageID int64    `json:"first_unread_message_id"`
	LastMessageID        int64    `json:"last_message_id"`
	UnreadCount          int      `json:"unread_count"`
}

// MessageUser автор сообщения. Type: customer, seller либо служебные
// (NotificationUser, crm, courier, support).
type MessageUser struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// MessageContext контекст сообщения, иногда содержит SKU товара.
// SKU приходит числом, json.Number сохраняет его без потери точности.
type MessageContext struct {
	SKU json.Number `json:"sku"`
}

// Message одно сообщение истории чата
type Message struct {
	MessageID int64           `json:"message_id"`
	User      MessageUser     `json:"user"`
	CreatedAt time.Time       `json:"created_at"`
	IsRead    bool            `json:"is_read"`
	IsImage   bool            `json:"is_image"`
	Data      []string        `json:"data"`
	Context   *MessageContext `json:"context"`
}

// Text возвращает текст сообщения
func (m *Message) Text() string {
	if len(m.Data) > 0 {
		return m.Data[0]
	}
	if m.IsImage {
		return "[Изображение]"
	}
	return ""
}

type chatListRequest struct {
	Filter chatListFilter `json:"filter"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type chatListFilter struct {
	ChatStatus string `json:"chat_status"`
	UnreadOnly bool   `json:"unread_only"`
}

type chatListResponse struct {
	Chats           []ChatListItem `json:"chats"`
	TotalChatsCount int            `json:"total_chats_count"`
}

// ListBuyerChats возвращает все чаты покупатель-продавец магазина.
// Пагинация по offset, служебные чаты отфильтровываются.
func (app *ApiClient) ListBuyerChats(ctx context.Context, creds Credentials) ([]ChatListItem, error) {
	const pageSize = 100

	var all []ChatListItem
	offset := 0

	for {
		var resp chatListResponse
		err := app.post(ctx, creds, "/v2/chat/list", chatListRequest{
			Filter: chatListFilter{ChatStatus: "All"},
			Limit:  pageSize,
			Offset: offset,
		}, &resp)
		if err != nil {
			return nil, err
		}

		for _, item := range resp.Chats {
			if item.Chat.ChatType == ChatTypeBuyerSeller {
				all = append(all, item)
			}
		}

		if len(resp.Chats) < pageSize {
			return all, nil
		}
		offset += pageSize
	}
}

type chatHistoryRequest struct {
	ChatID        string `json:"chat_id"`
	Direction     string `json:"direction"`
	FromMessageID int64  `json:"from_message_id,omitempty"`
	Limit         int    `json:"limit"`
}

type chatHistoryResponse struct {
	HasNext  bool      `json:"has_next"`
	Messages []Message `json:"messages"`
}

// ChatHistory возвращает последние сообщения чата, новые первыми.
// Для продавцов без Premium Plus API отвечает 403 - вызывающий код
// должен проверять ошибку через IsPremiumPlusRequired.
func (app *ApiClient) ChatHistory(ctx context.Context, creds Credentials, chatID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}

	var resp chatHistoryResponse
	err := app.post(ctx, creds, "/v3/chat/history", chatHistoryRequest{
		ChatID:    chatID,
		Direction: "Backward",
		Limit:     limit,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return resp.Messages, nil
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	Result string `json:"result"`
}

// SendMessage отправляет текстовое сообщение продавца в чат
func (app *ApiClient) SendMessage(ctx context.Context, creds Credentials, chatID, text string) error {
	var resp sendMessageResponse
	return app.post(ctx, creds, "/v1/chat/send/message", sendMessageRequest{
		ChatID: chatID,
		Text:   text,
	}, &resp)
}

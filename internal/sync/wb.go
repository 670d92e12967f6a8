package sync

import (
	"context"
	"errors"

	"sellerdesk/internal/model"
	"sellerdesk/pkg/wbchat"
)

// WBAdapter адаптер Wildberries. Новые сообщения приходят из глобального
// журнала событий продавца, позиция в журнале хранится в магазине
// (last_chat_update_next).
type WBAdapter struct {
	client *wbchat.ApiClient
}

// NewWBAdapter создает адаптер WB поверх клиента Chat API
func NewWBAdapter(client *wbchat.ApiClient) *WBAdapter {
	return &WBAdapter{client: client}
}

func (a *WBAdapter) Marketplace() string {
	return model.MarketplaceWB
}

func (a *WBAdapter) HasCredentials(st *model.Store) bool {
	return st.WBToken() != ""
}

func (a *WBAdapter) ListActiveChats(ctx context.Context, st *model.Store) ([]RemoteChat, error) {
	token := st.WBToken()
	if token == "" {
		return nil, errors.New("у магазина не настроен токен WB Chat API")
	}

	chats, err := a.client.ListChats(token)
	if err != nil {
		return nil, err
	}

	out := make([]RemoteChat, 0, len(chats))
	for _, c := range chats {
		out = append(out, RemoteChat{
			ID:          c.ChatID,
			ClientName:  c.ClientName,
			ReplySign:   c.ReplySign,
			ProductNmID: c.ProductNmID,
		})
	}
	return out, nil
}

func (a *WBAdapter) ListNewMessages(ctx context.Context, st *model.Store, chats []RemoteChat, known map[string]*model.Chat) (*FetchResult, error) {
	var cursor string
	if st.LastChatUpdateNext != nil {
		cursor = *st.LastChatUpdateNext
	}

	events, err := a.client.ListEvents(st.WBToken(), cursor)
	if err != nil {
		return nil, err
	}

	result := &FetchResult{NextCursor: events.Next}
	for _, e := range events.Events {
		if e.Sender != model.SenderClient && e.Sender != model.SenderSeller {
			continue
		}
		result.Messages = append(result.Messages, RemoteMessage{
			ID:         e.EventID,
			ChatID:     e.ChatID,
			Text:       e.Text,
			Sender:     e.Sender,
			Timestamp:  e.AddTime,
			DownloadID: e.DownloadID,
		})
	}
	return result, nil
}

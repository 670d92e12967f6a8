package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sellerdesk/internal/infrastructure/logger"
	"sellerdesk/internal/model"
	"sellerdesk/pkg/ozonapi"
)

// OzonAdapter адаптер OZON. Глобального журнала событий нет, история
// выгружается по каждому чату отдельно, курсор - числовой ID последнего
// виденного сообщения чата (ozon_last_message_id).
type OzonAdapter struct {
	client       *ozonapi.ApiClient
	historyLimit int
}

// NewOzonAdapter создает адаптер OZON поверх клиента Seller API
func NewOzonAdapter(client *ozonapi.ApiClient, historyLimit int) *OzonAdapter {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &OzonAdapter{client: client, historyLimit: historyLimit}
}

func (a *OzonAdapter) Marketplace() string {
	return model.MarketplaceOzon
}

func (a *OzonAdapter) HasCredentials(st *model.Store) bool {
	return st.HasOzonCredentials()
}

func (a *OzonAdapter) creds(st *model.Store) ozonapi.Credentials {
	return ozonapi.Credentials{ClientID: st.OzonClientID, ApiKey: st.OzonAPIKey}
}

// mapSender приводит тип автора OZON к client | seller. Служебные авторы
// (NotificationUser, crm, courier, support) отбрасываются. У OZON встречается
// опечатка customer с кириллической С, учитываем оба варианта.
func mapSender(userType string) string {
	switch strings.ToLower(userType) {
	case "customer", "сustomer":
		return model.SenderClient
	case "seller":
		return model.SenderSeller
	}
	return ""
}

func (a *OzonAdapter) ListActiveChats(ctx context.Context, st *model.Store) ([]RemoteChat, error) {
	if !st.HasOzonCredentials() {
		return nil, errors.New("у магазина не настроены учетные данные OZON")
	}

	items, err := a.client.ListBuyerChats(ctx, a.creds(st))
	if err != nil {
		return nil, err
	}

	out := make([]RemoteChat, 0, len(items))
	for _, item := range items {
		out = append(out, RemoteChat{
			ID: item.Chat.ChatID,
			// OZON не раскрывает имя покупателя
			ClientName:      "Покупатель",
			OzonChatType:    item.Chat.ChatType,
			OzonChatStatus:  item.Chat.ChatStatus,
			OzonUnreadCount: item.UnreadCount,
		})
	}
	return out, nil
}

func (a *OzonAdapter) ListNewMessages(ctx context.Context, st *model.Store, chats []RemoteChat, known map[string]*model.Chat) (*FetchResult, error) {
	result := &FetchResult{
		FailedChats:  make(map[string]bool),
		ChatProducts: make(map[string]string),
	}
	creds := a.creds(st)

	for _, chat := range chats {
		messages, err := a.client.ChatHistory(ctx, creds, chat.ID, a.historyLimit)
		if err != nil {
			// 403 означает отсутствие Premium Plus - чат пропускаем, проход
			// продолжается. Остальные ошибки истории тоже не фатальны.
			var apiErr *ozonapi.ApiError
			if errors.As(err, &apiErr) && apiErr.IsPremiumPlusRequired() {
				logger.Warnf("OZON чат %s: история недоступна без Premium Plus", chat.ID)
			} else {
				logger.Errorf("OZON чат %s: ошибка выгрузки истории: %v", chat.ID, err)
			}
			result.ChatErrors++
			result.FailedChats[chat.ID] = true
			continue
		}

		existing := known[chat.ID]

		// Артикул товара OZON кладет в контекст сообщения, обычно первого
		// в чате. История приходит новыми вперед, поэтому ищем с конца.
		if existing == nil || existing.ProductNmID == nil {
			for i := len(messages) - 1; i >= 0; i-- {
				if messages[i].Context != nil && messages[i].Context.SKU != "" {
					result.ChatProducts[chat.ID] = string(messages[i].Context.SKU)
					break
				}
			}
		}

		// Курсор чата: сообщения с ID не больше уже виденного пропускаем
		var highWater int64
		if existing != nil && existing.OzonLastMessageID != nil {
			highWater = *existing.OzonLastMessageID
		}

		for i := range messages {
			msg := &messages[i]
			if msg.MessageID <= highWater {
				continue
			}
			sender := mapSender(msg.User.Type)
			if sender == "" {
				continue
			}
			result.Messages = append(result.Messages, RemoteMessage{
				ID:        fmt.Sprintf("ozon_%d", msg.MessageID),
				ChatID:    chat.ID,
				Text:      msg.Text(),
				Sender:    sender,
				Timestamp: msg.CreatedAt,
				SeqNo:     msg.MessageID,
			})
		}
	}

	return result, nil
}

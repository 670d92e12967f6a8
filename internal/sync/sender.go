package sync

import (
	"context"
	"errors"
	"fmt"

	"sellerdesk/internal/model"
	"sellerdesk/pkg/ozonapi"
	"sellerdesk/pkg/wbchat"
)

// MarketplaceSender отправляет сообщения продавца в чат нужного маркетплейса.
// Используется обработчиком автосерий и ручной отправкой из веб-интерфейса.
type MarketplaceSender struct {
	wb   *wbchat.ApiClient
	ozon *ozonapi.ApiClient
}

// NewMarketplaceSender создает отправителя поверх клиентов маркетплейсов
func NewMarketplaceSender(wb *wbchat.ApiClient, ozon *ozonapi.ApiClient) *MarketplaceSender {
	return &MarketplaceSender{wb: wb, ozon: ozon}
}

// Send отправляет текст в чат. Маршрутизация по маркетплейсу чата.
func (s *MarketplaceSender) Send(ctx context.Context, st *model.Store, chat *model.Chat, text string) error {
	switch chat.Marketplace {
	case model.MarketplaceWB:
		token := st.WBToken()
		if token == "" {
			return errors.New("у магазина не настроен токен WB Chat API")
		}
		if chat.ReplySign == "" {
			return fmt.Errorf("у чата %s отсутствует reply_sign", chat.ID)
		}
		return s.wb.SendMessage(token, chat.ReplySign, text)

	case model.MarketplaceOzon:
		if !st.HasOzonCredentials() {
			return errors.New("у магазина не настроены учетные данные OZON")
		}
		creds := ozonapi.Credentials{ClientID: st.OzonClientID, ApiKey: st.OzonAPIKey}
		return s.ozon.SendMessage(ctx, creds, chat.ID, text)
	}

	return fmt.Errorf("неизвестный маркетплейс %q", chat.Marketplace)
}

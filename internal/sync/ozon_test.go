package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"sellerdesk/internal/model"
	"sellerdesk/internal/store"
	"sellerdesk/pkg/ozonapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ozonTestServer поднимает заглушку Seller API: список из двух чатов,
// история первого отвечает 403 (нет подписки Premium Plus)
func ozonTestServer() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/v2/chat/list", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"chats": [
				{"chat": {"chat_id": "oz403", "chat_status": "Opened", "chat_type": "Buyer_Seller"}, "unread_count": 1},
				{"chat": {"chat_id": "ozok", "chat_status": "Opened", "chat_type": "Buyer_Seller"}, "unread_count": 2}
			],
			"total_chats_count": 2
		}`))
	})

	mux.HandleFunc("/v3/chat/history", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ChatID string `json:"chat_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")

		if req.ChatID == "oz403" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"code": 7, "message": "PERMISSION_DENIED"}`))
			return
		}

		w.Write([]byte(`{
			"has_next": false,
			"messages": [
				{"message_id": 7, "user": {"id": "u1", "type": "customer"}, "created_at": "2026-08-28T09:00:00Z", "data": ["ответьте пожалуйста"]},
				{"message_id": 5, "user": {"id": "u1", "type": "customer"}, "created_at": "2026-08-28T08:00:00Z", "data": ["где заказ"], "context": {"sku": 555}}
			]
		}`))
	})

	return httptest.NewServer(mux)
}

func TestOzonSyncSkips403ChatEntirely(t *testing.T) {
	srv := ozonTestServer()
	defer srv.Close()

	client := ozonapi.NewOzonApi(ozonapi.Config{BaseURL: srv.URL, RequestTimeout: 5, RatePerSecond: 100})
	adapter := NewOzonAdapter(client, 100)

	ms := store.NewMemoryStore()
	st := testStore()
	st.OzonClientID = "123"
	st.OzonAPIKey = "key"
	ms.PutStore(st)

	svc := newTestService(ms, adapter)
	summary, err := svc.SyncStore(context.Background(), "s1", model.MarketplaceOzon)
	require.NoError(t, err)
	assert.Contains(t, summary, "ошибок 1")

	// Чат без Premium Plus пропущен целиком: ни строки чата, ни сообщений
	_, err = ms.ChatByID("oz403")
	assert.ErrorIs(t, err, store.ErrNotFound)

	msgs, err := ms.MessagesByChat("oz403")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// Доступный чат синхронизирован полностью
	chat, err := ms.ChatByID("ozok")
	require.NoError(t, err)
	require.NotNil(t, chat.OzonLastMessageID)
	assert.Equal(t, int64(7), *chat.OzonLastMessageID)
	require.NotNil(t, chat.ProductNmID)
	assert.Equal(t, "555", *chat.ProductNmID)
	assert.Equal(t, 2, ms.MessageCount())
}

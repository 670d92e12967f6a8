package sync

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"sellerdesk/internal/model"
	"sellerdesk/internal/sequence"
	"sellerdesk/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter управляемый адаптер маркетплейса для тестов оркестратора
type fakeAdapter struct {
	marketplace string
	creds       bool
	chats       []RemoteChat
	fetch       *FetchResult
}

func (f *fakeAdapter) Marketplace() string                 { return f.marketplace }
func (f *fakeAdapter) HasCredentials(st *model.Store) bool { return f.creds }

func (f *fakeAdapter) ListActiveChats(ctx context.Context, st *model.Store) ([]RemoteChat, error) {
	return f.chats, nil
}

func (f *fakeAdapter) ListNewMessages(ctx context.Context, st *model.Store, chats []RemoteChat, known map[string]*model.Chat) (*FetchResult, error) {
	if f.fetch == nil {
		return &FetchResult{}, nil
	}
	return f.fetch, nil
}

func testStore() *model.Store {
	return &model.Store{
		ID:       "s1",
		OwnerID:  "o1",
		Name:     "Тестовый магазин",
		Status:   "active",
		APIToken: "wb-token",
	}
}

func newTestService(ms *store.MemoryStore, adapter ChatSyncAdapter) *Service {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	manager := sequence.NewManagerForTest(ms, 3, func() time.Time { return now }, rand.New(rand.NewSource(1)))
	return NewService(ms, []ChatSyncAdapter{adapter}, nil, manager, ms)
}

func TestSyncStoreClientMessage(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.PutStore(testStore())

	old := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	draft := "черновик ответа"
	reason := model.CompletionNoReply
	ms.PutChat(&model.Chat{
		ID:               "c1",
		StoreID:          "s1",
		OwnerID:          "o1",
		Marketplace:      model.MarketplaceWB,
		Status:           model.ChatStatusClosed,
		CompletionReason: &reason,
		DraftReply:       &draft,
		LastMessageDate:  &old,
	})
	require.NoError(t, ms.CreateSequence(&model.AutoSequence{
		ID:           "seq1",
		ChatID:       "c1",
		StoreID:      "s1",
		OwnerID:      "o1",
		SequenceType: model.SequenceTypeNoReply,
		Templates:    []model.SequenceMessage{{Day: 1, Text: "шаг"}},
		NextSendAt:   time.Now().Add(time.Hour),
		Status:       model.SequenceStatusActive,
	}))

	adapter := &fakeAdapter{
		marketplace: model.MarketplaceWB,
		creds:       true,
		chats:       []RemoteChat{{ID: "c1", ClientName: "Анна", ReplySign: "sign"}},
		fetch: &FetchResult{
			Messages: []RemoteMessage{{
				ID:        "m1",
				ChatID:    "c1",
				Text:      "Здравствуйте, товар пришел с браком",
				Sender:    model.SenderClient,
				Timestamp: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
			}},
			NextCursor: "evt_42",
		},
	}

	svc := newTestService(ms, adapter)
	summary, err := svc.SyncStore(context.Background(), "s1", model.MarketplaceWB)
	require.NoError(t, err)
	assert.Contains(t, summary, "новых сообщений 1")

	chat, err := ms.ChatByID("c1")
	require.NoError(t, err)
	// Ответ клиента: inbox, причина закрытия очищена, черновик неактуален
	assert.Equal(t, model.ChatStatusInbox, chat.Status)
	assert.Nil(t, chat.CompletionReason)
	assert.Nil(t, chat.DraftReply)
	require.NotNil(t, chat.LastMessageSender)
	assert.Equal(t, model.SenderClient, *chat.LastMessageSender)

	// Активная автосерия остановлена ответом клиента
	seqs := ms.Sequences()
	require.Len(t, seqs, 1)
	assert.Equal(t, model.SequenceStatusStopped, seqs[0].Status)
	require.NotNil(t, seqs[0].StopReason)
	assert.Equal(t, model.StopReasonClientReplied, *seqs[0].StopReason)

	// Курсор WB и статус синхронизации сохранены
	st, err := ms.StoreByID("s1")
	require.NoError(t, err)
	assert.Equal(t, model.SyncStatusSuccess, st.LastChatUpdateStatus)
	require.NotNil(t, st.LastChatUpdateNext)
	assert.Equal(t, "evt_42", *st.LastChatUpdateNext)
	assert.Equal(t, 1, st.TotalChats)
}

func TestSyncStoreIdempotent(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.PutStore(testStore())

	adapter := &fakeAdapter{
		marketplace: model.MarketplaceWB,
		creds:       true,
		chats:       []RemoteChat{{ID: "c1", ClientName: "Анна"}},
		fetch: &FetchResult{
			Messages: []RemoteMessage{{
				ID:        "m1",
				ChatID:    "c1",
				Text:      "привет",
				Sender:    model.SenderClient,
				Timestamp: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
			}},
		},
	}

	svc := newTestService(ms, adapter)
	ctx := context.Background()

	_, err := svc.SyncStore(ctx, "s1", model.MarketplaceWB)
	require.NoError(t, err)
	require.Equal(t, 1, ms.MessageCount())

	chatAfterFirst, err := ms.ChatByID("c1")
	require.NoError(t, err)

	// Повторный проход с теми же данными ничего не меняет
	summary, err := svc.SyncStore(ctx, "s1", model.MarketplaceWB)
	require.NoError(t, err)
	assert.Contains(t, summary, "новых сообщений 0")
	assert.Equal(t, 1, ms.MessageCount())

	chatAfterSecond, err := ms.ChatByID("c1")
	require.NoError(t, err)
	assert.Equal(t, chatAfterFirst.Status, chatAfterSecond.Status)
	assert.Equal(t, chatAfterFirst.LastMessageDate, chatAfterSecond.LastMessageDate)
}

func TestSyncStoreTriggerStartsSequence(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.PutStore(testStore())

	adapter := &fakeAdapter{
		marketplace: model.MarketplaceWB,
		creds:       true,
		chats:       []RemoteChat{{ID: "c1", ClientName: "Анна"}},
		fetch: &FetchResult{
			Messages: []RemoteMessage{{
				ID:        "m1",
				ChatID:    "c1",
				Text:      sequence.DefaultTriggerPhrase,
				Sender:    model.SenderSeller,
				Timestamp: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
			}},
		},
	}

	svc := newTestService(ms, adapter)
	ctx := context.Background()

	summary, err := svc.SyncStore(ctx, "s1", model.MarketplaceWB)
	require.NoError(t, err)
	assert.Contains(t, summary, "триггеров 1")

	chat, err := ms.ChatByID("c1")
	require.NoError(t, err)
	require.NotNil(t, chat.Tag)
	assert.Equal(t, model.TagDeletionCandidate, *chat.Tag)
	assert.Equal(t, model.ChatStatusAwaitingReply, chat.Status)

	seqs := ms.Sequences()
	require.Len(t, seqs, 1)
	seq := seqs[0]
	assert.Equal(t, model.SequenceStatusActive, seq.Status)
	assert.Equal(t, model.SequenceTypeNoReply, seq.SequenceType)
	assert.Equal(t, 0, seq.CurrentStep)
	assert.Len(t, seq.Templates, 14)

	// Первый шаг запланирован на завтра в рабочем окне 10:00-17:59 МСК
	assert.Equal(t, 29, seq.NextSendAt.Day())
	mskHour := seq.NextSendAt.UTC().Hour() + 3
	assert.GreaterOrEqual(t, mskHour, 10)
	assert.LessOrEqual(t, mskHour, 17)

	// Повторный проход не создает вторую серию и не дублирует триггер
	_, err = svc.SyncStore(ctx, "s1", model.MarketplaceWB)
	require.NoError(t, err)
	assert.Len(t, ms.Sequences(), 1)
}

func TestSyncStoreNoCredentials(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.PutStore(testStore())

	adapter := &fakeAdapter{marketplace: model.MarketplaceOzon, creds: false}
	svc := newTestService(ms, adapter)

	_, err := svc.SyncStore(context.Background(), "s1", model.MarketplaceOzon)
	require.Error(t, err)

	st, serr := ms.StoreByID("s1")
	require.NoError(t, serr)
	assert.Equal(t, model.SyncStatusError, st.LastChatUpdateStatus)
	require.NotNil(t, st.LastChatUpdateError)
	assert.NotEmpty(t, *st.LastChatUpdateError)
}

func TestSyncStoreUnknownStore(t *testing.T) {
	ms := store.NewMemoryStore()
	adapter := &fakeAdapter{marketplace: model.MarketplaceWB, creds: true}
	svc := newTestService(ms, adapter)

	_, err := svc.SyncStore(context.Background(), "missing", model.MarketplaceWB)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSyncStoreOzonHighWaterMark(t *testing.T) {
	ms := store.NewMemoryStore()
	st := testStore()
	st.OzonClientID = "123"
	st.OzonAPIKey = "key"
	ms.PutStore(st)

	adapter := &fakeAdapter{
		marketplace: model.MarketplaceOzon,
		creds:       true,
		chats:       []RemoteChat{{ID: "oz1", ClientName: "Покупатель", OzonChatType: "Buyer_Seller"}},
		fetch: &FetchResult{
			Messages: []RemoteMessage{
				{ID: "ozon_5", ChatID: "oz1", Text: "где заказ", Sender: model.SenderClient, Timestamp: time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC), SeqNo: 5},
				{ID: "ozon_7", ChatID: "oz1", Text: "ответьте", Sender: model.SenderClient, Timestamp: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC), SeqNo: 7},
			},
			ChatErrors: 1,
		},
	}

	svc := newTestService(ms, adapter)
	summary, err := svc.SyncStore(context.Background(), "s1", model.MarketplaceOzon)
	require.NoError(t, err)
	assert.Contains(t, summary, "ошибок 1")

	chat, err := ms.ChatByID("oz1")
	require.NoError(t, err)
	require.NotNil(t, chat.OzonLastMessageID)
	assert.Equal(t, int64(7), *chat.OzonLastMessageID)
	require.NotNil(t, chat.LastMessageText)
	assert.Equal(t, "ответьте", *chat.LastMessageText)

	// Курсор OZON живет на чате, глобальный курсор WB не трогаем
	stAfter, err := ms.StoreByID("s1")
	require.NoError(t, err)
	assert.Nil(t, stAfter.LastChatUpdateNext)
}

func TestSyncStoreSkipsChatWithFailedHistory(t *testing.T) {
	ms := store.NewMemoryStore()
	st := testStore()
	st.OzonClientID = "123"
	st.OzonAPIKey = "key"
	ms.PutStore(st)

	adapter := &fakeAdapter{
		marketplace: model.MarketplaceOzon,
		creds:       true,
		chats: []RemoteChat{
			{ID: "oz403", ClientName: "Покупатель", OzonChatType: "Buyer_Seller"},
			{ID: "ozok", ClientName: "Покупатель", OzonChatType: "Buyer_Seller"},
		},
		fetch: &FetchResult{
			Messages: []RemoteMessage{
				{ID: "ozon_3", ChatID: "ozok", Text: "здравствуйте", Sender: model.SenderClient, Timestamp: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC), SeqNo: 3},
			},
			ChatErrors:  1,
			FailedChats: map[string]bool{"oz403": true},
		},
	}

	svc := newTestService(ms, adapter)
	summary, err := svc.SyncStore(context.Background(), "s1", model.MarketplaceOzon)
	require.NoError(t, err)
	assert.Contains(t, summary, "ошибок 1")

	// Чат с проваленной выгрузкой истории не попадает в базу вовсе
	_, err = ms.ChatByID("oz403")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = ms.ChatByID("ozok")
	require.NoError(t, err)
	assert.Equal(t, 1, ms.MessageCount())

	stAfter, err := ms.StoreByID("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, stAfter.TotalChats)
}

func TestSyncStoreProductEnrichment(t *testing.T) {
	ms := store.NewMemoryStore()
	st := testStore()
	st.OzonClientID = "123"
	st.OzonAPIKey = "key"
	ms.PutStore(st)

	knownSKU := "111"
	ms.PutChat(&model.Chat{
		ID:          "oz1",
		StoreID:     "s1",
		OwnerID:     "o1",
		Marketplace: model.MarketplaceOzon,
		Status:      model.ChatStatusInbox,
		ProductNmID: &knownSKU,
	})

	adapter := &fakeAdapter{
		marketplace: model.MarketplaceOzon,
		creds:       true,
		chats: []RemoteChat{
			{ID: "oz1", ClientName: "Покупатель"},
			{ID: "oz2", ClientName: "Покупатель"},
		},
		fetch: &FetchResult{
			ChatProducts: map[string]string{"oz1": "999", "oz2": "555"},
		},
	}

	svc := newTestService(ms, adapter)
	_, err := svc.SyncStore(context.Background(), "s1", model.MarketplaceOzon)
	require.NoError(t, err)

	// Новый чат получает артикул из контекста сообщений
	oz2, err := ms.ChatByID("oz2")
	require.NoError(t, err)
	require.NotNil(t, oz2.ProductNmID)
	assert.Equal(t, "555", *oz2.ProductNmID)

	// Уже известный артикул не перезаписывается
	oz1, err := ms.ChatByID("oz1")
	require.NoError(t, err)
	require.NotNil(t, oz1.ProductNmID)
	assert.Equal(t, "111", *oz1.ProductNmID)
}

func TestSyncStoreTagCounts(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.PutStore(testStore())

	tag := model.TagDeletionOffered
	ms.PutChat(&model.Chat{ID: "c1", StoreID: "s1", OwnerID: "o1", Marketplace: model.MarketplaceWB, Status: model.ChatStatusInProgress, Tag: &tag})
	ms.PutChat(&model.Chat{ID: "c2", StoreID: "s1", OwnerID: "o1", Marketplace: model.MarketplaceWB, Status: model.ChatStatusInbox})

	adapter := &fakeAdapter{marketplace: model.MarketplaceWB, creds: true}
	svc := newTestService(ms, adapter)

	_, err := svc.SyncStore(context.Background(), "s1", model.MarketplaceWB)
	require.NoError(t, err)

	st, err := ms.StoreByID("s1")
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalChats)
	assert.Equal(t, 1, st.ChatTagCounts[model.TagDeletionOffered])
	assert.Equal(t, 1, st.ChatTagCounts[model.TagUntagged])
	// Все известные теги присутствуют в статистике, даже нулевые
	for _, known := range model.KnownTags {
		_, ok := st.ChatTagCounts[known]
		assert.True(t, ok, known)
	}
}

func TestCountersSummary(t *testing.T) {
	c := Counters{ChatsProcessed: 3, ChatsSkipped: 1, ChatErrors: 2, NewMessages: 5, TriggersDetected: 1, Classified: 4}
	summary := c.Summary(model.MarketplaceWB)

	assert.Contains(t, summary, "WB")
	assert.Contains(t, summary, "чатов обработано 3")
	assert.Contains(t, summary, "пропущено 1")
	assert.Contains(t, summary, "ошибок 2")
	assert.Contains(t, summary, "новых сообщений 5")
	assert.Contains(t, summary, "триггеров 1")
	assert.Contains(t, summary, "классифицировано 4")
}

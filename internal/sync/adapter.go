// Пакет sync реализует синхронизацию диалогов с маркетплейсами: выгрузку
// чатов и сообщений, машину статусов, детектор триггерных фраз и запуск
// автосерий. Оба маркетплейса работают через общий интерфейс ChatSyncAdapter.
package sync

import (
	"context"
	"time"

	"sellerdesk/internal/model"
)

// RemoteChat чат, полученный от API маркетплейса
type RemoteChat struct {
	ID          string
	ClientName  string
	ReplySign   string // WB токен ответа
	ProductNmID string

	// OZON-метаданные
	OzonChatType    string
	OzonChatStatus  string
	OzonUnreadCount int
}

// RemoteMessage сообщение, полученное от API маркетплейса.
// Sender уже приведен к client | seller, служебные отправители отброшены.
type RemoteMessage struct {
	ID         string
	ChatID     string
	Text       string
	Sender     string
	Timestamp  time.Time
	DownloadID string
	SeqNo      int64 // Числовой ID сообщения OZON для high-water mark, у WB ноль
}

// FetchResult результат выгрузки новых сообщений
type FetchResult struct {
	Messages   []RemoteMessage
	NextCursor string // Новый глобальный курсор журнала событий WB
	ChatErrors int    // Чаты, пропущенные из-за ошибок выгрузки истории

	// FailedChats чаты, историю которых выгрузить не удалось (OZON 403).
	// Оркестратор не пишет для них ни строку чата, ни сообщения.
	FailedChats map[string]bool

	// ChatProducts найденные в контексте сообщений артикулы товаров,
	// chat_id -> SKU. Заполняется только для чатов без известного товара.
	ChatProducts map[string]string
}

// ChatSyncAdapter контракт адаптера маркетплейса. WB работает через глобальный
// журнал событий с курсором, OZON выгружает историю каждого чата отдельно -
// оба варианта дают одну гарантию: повторный вызов с возвращенным курсором
// приносит только еще не виденные сообщения.
type ChatSyncAdapter interface {
	Marketplace() string

	// HasCredentials проверяет, что у магазина есть учетные данные маркетплейса
	HasCredentials(st *model.Store) bool

	// ListActiveChats возвращает все активные чаты магазина.
	// Пустой магазин - пустой список, не ошибка.
	ListActiveChats(ctx context.Context, st *model.Store) ([]RemoteChat, error)

	// ListNewMessages возвращает сообщения, появившиеся после курсоров.
	// known - уже сохраненные чаты магазина для доступа к per-chat курсорам.
	ListNewMessages(ctx context.Context, st *model.Store, chats []RemoteChat, known map[string]*model.Chat) (*FetchResult, error)
}

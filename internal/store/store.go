// Пакет store изолирует работу с базой данных за интерфейсом ChatStore.
// Оркестратор синхронизации и планировщик автосерий зависят только от
// интерфейса, что позволяет подменять реализацию в тестах.
package store

import (
	"errors"
	"time"

	"sellerdesk/internal/model"
)

// ErrNotFound возвращается, когда запрошенная запись отсутствует
var ErrNotFound = errors.New("запись не найдена")

// StoreSyncPatch частичное обновление состояния синхронизации магазина.
// Nil-поля не изменяются.
type StoreSyncPatch struct {
	Status     *string
	Date       *time.Time
	Error      *string
	NextCursor *string
	TotalChats *int
	TagCounts  map[string]int
}

// ChatPatch частичное обновление чата. Nil-поля не изменяются.
// Clear-флаги явно обнуляют соответствующие колонки.
type ChatPatch struct {
	Status          *string
	StatusUpdatedAt *time.Time

	Tag          *string
	TagUpdatedAt *time.Time

	CompletionReason      *string
	ClearCompletionReason bool

	LastMessageText   *string
	LastMessageDate   *time.Time
	LastMessageSender *string

	// Черновик либо не трогаем, либо обнуляем целиком
	ClearDraft bool

	OzonLastMessageID *int64

	// Артикул товара, найденный в истории сообщений OZON
	ProductNmID *string
}

// ChatStore контракт хранилища диалогов и автосерий
type ChatStore interface {
	// Магазины
	StoreByID(id string) (*model.Store, error)
	ActiveStores() ([]model.Store, error)
	UpdateStoreSync(storeID string, patch StoreSyncPatch) error

	// Чаты
	ChatByID(id string) (*model.Chat, error)
	ChatsByStore(storeID string) ([]model.Chat, error)
	UpsertChat(chat *model.Chat) error
	UpdateChat(chatID string, patch ChatPatch) error

	// Сообщения
	// UpsertChatMessage вставляет сообщение, если его еще нет.
	// Возвращает true, если запись была создана.
	UpsertChatMessage(msg *model.ChatMessage) (bool, error)
	MessagesByChat(chatID string) ([]model.ChatMessage, error)

	// Автосерии
	ActiveSequenceByChat(chatID string) (*model.AutoSequence, error)
	CreateSequence(seq *model.AutoSequence) error
	StopSequence(id, reason string) error
	AdvanceSequence(id string, nextStep int, nextSendAt time.Time) error
	DueSequences(now time.Time, limit int) ([]model.AutoSequence, error)

	// Настройки
	SettingsByOwner(ownerID string) (*model.UserSettings, error)
}

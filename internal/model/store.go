package model

import "time"

// Статусы последней синхронизации чатов магазина
const (
	SyncStatusIdle    = "idle"
	SyncStatusPending = "pending"
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// Store магазин продавца на маркетплейсе. Помимо учетных данных хранит
// состояние последней синхронизации чатов и агрегированную статистику.
type Store struct {
	ID      string `gorm:"primaryKey;type:varchar(255)"`
	OwnerID string `gorm:"column:owner_id;type:varchar(255);not null;index"`
	Name    string `gorm:"type:varchar(255);not null"`
	Status  string `gorm:"type:varchar(32);not null;default:active"` // active | disabled

	// Учетные данные маркетплейсов
	APIToken     string `gorm:"column:api_token;type:text"`      // Общий токен WB
	ChatAPIToken string `gorm:"column:chat_api_token;type:text"` // Отдельный токен WB Chat API, приоритетнее общего
	OzonClientID string `gorm:"column:ozon_client_id;type:varchar(64)"`
	OzonAPIKey   string `gorm:"column:ozon_api_key;type:text"`

	// Состояние синхронизации чатов
	LastChatUpdateStatus string     `gorm:"type:varchar(16);not null;default:idle"` // idle | pending | success | error
	LastChatUpdateDate   *time.Time `gorm:"type:timestamp"`
	LastChatUpdateError  *string    `gorm:"type:text"`
	LastChatUpdateNext   *string    `gorm:"type:varchar(255)"` // Глобальный курсор журнала событий WB

	// Агрегаты для дашборда
	TotalChats    int            `gorm:"type:integer;not null;default:0"`
	ChatTagCounts map[string]int `gorm:"type:jsonb;serializer:json"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WBToken возвращает токен для WB Chat API с учетом приоритета
func (s *Store) WBToken() string {
	if s.ChatAPIToken != "" {
		return s.ChatAPIToken
	}
	return s.APIToken
}

// HasOzonCredentials проверяет, что магазин подключен к OZON
func (s *Store) HasOzonCredentials() bool {
	return s.OzonClientID != "" && s.OzonAPIKey != ""
}

// UserSettings настройки владельца: триггерные фразы и пользовательские
// шаблоны автосерий. Пустые поля означают использование встроенных значений.
type UserSettings struct {
	ID      uint   `gorm:"primaryKey"`
	OwnerID string `gorm:"column:owner_id;type:varchar(255);not null;uniqueIndex"`

	// Основная ветка: негативные отзывы
	NoReplyTriggerPhrase *string           `gorm:"type:text"`
	NoReplyMessages      []SequenceMessage `gorm:"type:jsonb;serializer:json"`
	NoReplyStopMessage   *string           `gorm:"type:text"`

	// Дополнительная ветка: отзывы на 4 звезды. Выключена, пока фраза не задана.
	NoReplyTriggerPhrase2 *string           `gorm:"type:text"`
	NoReplyMessages2      []SequenceMessage `gorm:"type:jsonb;serializer:json"`
	NoReplyStopMessage2   *string           `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

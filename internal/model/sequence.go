package model

import "time"

// Статусы автосерии
const (
	SequenceStatusActive  = "active"
	SequenceStatusStopped = "stopped"
)

// Причины остановки автосерии
const (
	StopReasonClientReplied = "client_replied" // Клиент ответил - серия больше не нужна
	StopReasonCompleted     = "completed"      // Все шаги отправлены, ответа не было
	StopReasonManual        = "manual"         // Остановлена оператором
)

// Семейства шаблонов автосерий
const (
	SequenceTypeNoReply          = "no_reply_followup"
	SequenceTypeNoReply4Star     = "no_reply_followup_4star"
	SequenceTypeOzonNoReply      = "ozon_no_reply_followup"
	SequenceTypeOzonNoReply4Star = "ozon_no_reply_followup_4star"
)

// SequenceMessage один шаг автосерии: день кампании (с единицы) и текст
type SequenceMessage struct {
	Day  int    `json:"day"`
	Text string `json:"text"`
}

// AutoSequence многодневная серия напоминаний, привязанная ровно к одному чату.
// На чат может существовать не больше одной активной серии.
type AutoSequence struct {
	ID      string `gorm:"primaryKey;type:varchar(64)"` // uuid
	ChatID  string `gorm:"column:chat_id;type:varchar(255);not null;index"`
	StoreID string `gorm:"column:store_id;type:varchar(255);not null;index"`
	OwnerID string `gorm:"column:owner_id;type:varchar(255);not null"`

	SequenceType string            `gorm:"type:varchar(64);not null"`          // Семейство шаблонов
	Templates    []SequenceMessage `gorm:"type:jsonb;serializer:json"`         // Упорядоченные шаги серии
	CurrentStep  int               `gorm:"type:integer;not null;default:0"`    // Индекс следующего шага к отправке
	NextSendAt   time.Time         `gorm:"type:timestamp;not null;index"`      // Когда отправлять следующий шаг
	Status       string            `gorm:"type:varchar(16);not null;default:active"`
	StopReason   *string           `gorm:"type:varchar(32)"` // Заполнена только при status = stopped

	CreatedAt time.Time
	UpdatedAt time.Time
}

package model

import (
	"time"
)

// Маркетплейсы
const (
	MarketplaceWB   = "wb"
	MarketplaceOzon = "ozon"
)

// Статусы чата (жизненный цикл диалога на канбан-доске)
const (
	ChatStatusInbox         = "inbox"          // Есть непрочитанный ответ клиента
	ChatStatusInProgress    = "in_progress"    // Продавец ведет диалог
	ChatStatusAwaitingReply = "awaiting_reply" // Отправлено предложение, ждем ответа клиента
	ChatStatusClosed        = "closed"         // Диалог закрыт оператором
)

// Отправители сообщений
const (
	SenderClient = "client"
	SenderSeller = "seller"
)

// Теги чатов. Теги deletion_* отслеживают воронку удаления негативного отзыва.
const (
	TagUntagged          = "untagged"
	TagActive            = "active"
	TagDeletionCandidate = "deletion_candidate"
	TagDeletionOffered   = "deletion_offered"
	TagDeletionAgreed    = "deletion_agreed"
	TagDeletionConfirmed = "deletion_confirmed"
	TagRefundRequested   = "refund_requested"
	TagSpam              = "spam"
	TagSuccessful        = "successful"
	TagUnsuccessful      = "unsuccessful"
	TagNoReply           = "no_reply"
)

// KnownTags все теги, по которым считается статистика магазина
var KnownTags = []string{
	TagUntagged, TagActive,
	TagDeletionCandidate, TagDeletionOffered, TagDeletionAgreed, TagDeletionConfirmed,
	TagRefundRequested, TagSpam,
	TagSuccessful, TagUnsuccessful, TagNoReply,
}

// DeletionWorkflowTags теги, при которых чат уже находится в воронке удаления
// отзыва и не должен перезапускаться триггерами или переклассифицироваться.
var DeletionWorkflowTags = []string{
	TagDeletionCandidate, TagDeletionOffered, TagDeletionAgreed, TagDeletionConfirmed,
	TagRefundRequested,
}

// Причины закрытия чата
const (
	CompletionReviewDeleted  = "review_deleted"
	CompletionReviewUpgraded = "review_upgraded"
	CompletionNoReply        = "no_reply"
	CompletionOldDialog      = "old_dialog"
	CompletionNotOurIssue    = "not_our_issue"
	CompletionSpam           = "spam"
	CompletionNegative       = "negative"
	CompletionOther          = "other"
)

// CompletionReasons допустимые причины закрытия
var CompletionReasons = []string{
	CompletionReviewDeleted, CompletionReviewUpgraded, CompletionNoReply,
	CompletionOldDialog, CompletionNotOurIssue, CompletionSpam,
	CompletionNegative, CompletionOther,
}

// Chat один диалог покупатель-продавец. Первичный ключ - нативный ID чата
// маркетплейса, поэтому запись создается один раз и дальше только обогащается.
type Chat struct {
	ID          string `gorm:"primaryKey;type:varchar(255)"`                     // Нативный ID чата маркетплейса
	StoreID     string `gorm:"column:store_id;type:varchar(255);not null;index"` // Магазин, которому принадлежит чат
	OwnerID     string `gorm:"column:owner_id;type:varchar(255);not null"`       // Владелец магазина
	Marketplace string `gorm:"type:varchar(16);not null"`                        // wb | ozon

	ClientName        string  `gorm:"type:varchar(255)"` // Имя покупателя (OZON имен не отдает)
	ProductNmID       *string `gorm:"type:varchar(64)"`  // Артикул товара
	ProductName       *string `gorm:"type:varchar(512)"`
	ProductVendorCode *string `gorm:"type:varchar(255)"`

	Status           string     `gorm:"type:varchar(32);not null;default:inbox"`
	StatusUpdatedAt  *time.Time `gorm:"type:timestamp"`
	Tag              *string    `gorm:"type:varchar(32)"`
	TagUpdatedAt     *time.Time `gorm:"type:timestamp"`
	CompletionReason *string    `gorm:"type:varchar(32)"` // Заполнена только при status = closed

	// Денормализация последнего сообщения для списков
	LastMessageText   *string    `gorm:"type:text"`
	LastMessageDate   *time.Time `gorm:"type:timestamp"`
	LastMessageSender *string    `gorm:"type:varchar(16)"`

	// Неотправленный черновик ответа. Любое новое сообщение делает его неактуальным.
	DraftReply            *string    `gorm:"type:text"`
	DraftReplyThreadID    *string    `gorm:"type:varchar(255)"`
	DraftReplyGeneratedAt *time.Time `gorm:"type:timestamp"`
	DraftReplyEdited      *bool      `gorm:"type:boolean"`

	ReplySign string `gorm:"type:varchar(512)"` // WB токен для отправки ответа в чат

	// OZON-специфичные поля
	OzonChatType      string `gorm:"type:varchar(64)"`
	OzonChatStatus    string `gorm:"type:varchar(64)"`
	OzonUnreadCount   int    `gorm:"type:integer;default:0"`
	OzonLastMessageID *int64 `gorm:"type:bigint"` // High-water mark истории чата OZON

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatMessage одно сообщение внутри чата. Первичный ключ - нативный ID
// сообщения, повторная вставка того же ID не изменяет запись.
type ChatMessage struct {
	ID          string     `gorm:"primaryKey;type:varchar(255)"`
	ChatID      string     `gorm:"column:chat_id;type:varchar(255);not null;index"`
	StoreID     string     `gorm:"column:store_id;type:varchar(255);not null;index"`
	OwnerID     string     `gorm:"column:owner_id;type:varchar(255);not null"`
	Marketplace string     `gorm:"type:varchar(16);not null"`
	Text        string     `gorm:"type:text"`
	Sender      string     `gorm:"type:varchar(16);not null"` // client | seller
	Timestamp   time.Time  `gorm:"type:timestamp;index"`
	DownloadID  *string    `gorm:"type:varchar(255)"` // Ссылка на вложение, если есть
	IsAutoReply bool       `gorm:"type:boolean;not null;default:false"`
	CreatedAt   time.Time
}

package store

import (
	"encoding/json"
	"errors"
	"time"

	"sellerdesk/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore реализация ChatStore поверх Postgres
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) StoreByID(id string) (*model.Store, error) {
	var st model.Store
	err := s.db.First(&st, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *GormStore) ActiveStores() ([]model.Store, error) {
	var stores []model.Store
	err := s.db.Where("status = ?", "active").Order("name").Find(&stores).Error
	return stores, err
}

func (s *GormStore) UpdateStoreSync(storeID string, patch StoreSyncPatch) error {
	updates := map[string]interface{}{}
	if patch.Status != nil {
		updates["last_chat_update_status"] = *patch.Status
	}
	if patch.Date != nil {
		updates["last_chat_update_date"] = *patch.Date
	}
	if patch.Error != nil {
		updates["last_chat_update_error"] = *patch.Error
	}
	if patch.NextCursor != nil {
		updates["last_chat_update_next"] = *patch.NextCursor
	}
	if patch.TotalChats != nil {
		updates["total_chats"] = *patch.TotalChats
	}
	if patch.TagCounts != nil {
		// Updates с map обходит сериализатор gorm, поэтому кодируем сами
		b, err := json.Marshal(patch.TagCounts)
		if err != nil {
			return err
		}
		updates["chat_tag_counts"] = b
	}
	if len(updates) == 0 {
		return nil
	}
	return s.db.Model(&model.Store{}).Where("id = ?", storeID).Updates(updates).Error
}

func (s *GormStore) ChatByID(id string) (*model.Chat, error) {
	var chat model.Chat
	err := s.db.First(&chat, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (s *GormStore) ChatsByStore(storeID string) ([]model.Chat, error) {
	var chats []model.Chat
	err := s.db.Where("store_id = ?", storeID).Order("last_message_date DESC NULLS LAST").Find(&chats).Error
	return chats, err
}

// UpsertChat вставляет чат или обогащает существующий. Контекстные поля
// (имя клиента, товар, reply_sign, OZON-метаданные) только обновляются,
// статус и тег при конфликте не трогаются - ими управляют переходы.
func (s *GormStore) UpsertChat(chat *model.Chat) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"client_name", "reply_sign",
			"ozon_chat_type", "ozon_chat_status", "ozon_unread_count",
			"updated_at",
		}),
	}).Create(chat).Error
}

func (s *GormStore) UpdateChat(chatID string, patch ChatPatch) error {
	updates := map[string]interface{}{}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.StatusUpdatedAt != nil {
		updates["status_updated_at"] = *patch.StatusUpdatedAt
	}
	if patch.Tag != nil {
		updates["tag"] = *patch.Tag
	}
	if patch.TagUpdatedAt != nil {
		updates["tag_updated_at"] = *patch.TagUpdatedAt
	}
	if patch.CompletionReason != nil {
		updates["completion_reason"] = *patch.CompletionReason
	}
	if patch.ClearCompletionReason {
		updates["completion_reason"] = nil
	}
	if patch.LastMessageText != nil {
		updates["last_message_text"] = *patch.LastMessageText
	}
	if patch.LastMessageDate != nil {
		updates["last_message_date"] = *patch.LastMessageDate
	}
	if patch.LastMessageSender != nil {
		updates["last_message_sender"] = *patch.LastMessageSender
	}
	if patch.ClearDraft {
		updates["draft_reply"] = nil
		updates["draft_reply_thread_id"] = nil
		updates["draft_reply_generated_at"] = nil
		updates["draft_reply_edited"] = nil
	}
	if patch.OzonLastMessageID != nil {
		updates["ozon_last_message_id"] = *patch.OzonLastMessageID
	}
	if patch.ProductNmID != nil {
		updates["product_nm_id"] = *patch.ProductNmID
	}
	if len(updates) == 0 {
		return nil
	}
	return s.db.Model(&model.Chat{}).Where("id = ?", chatID).Updates(updates).Error
}

// UpsertChatMessage вставляет сообщение по нативному ID. Повторная вставка
// того же ID ничего не меняет - это гарантия идемпотентности прохода.
func (s *GormStore) UpsertChatMessage(msg *model.ChatMessage) (bool, error) {
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(msg)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) MessagesByChat(chatID string) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	err := s.db.Where("chat_id = ?", chatID).Order("timestamp ASC").Find(&msgs).Error
	return msgs, err
}

func (s *GormStore) ActiveSequenceByChat(chatID string) (*model.AutoSequence, error) {
	var seq model.AutoSequence
	err := s.db.Where("chat_id = ? AND status = ?", chatID, model.SequenceStatusActive).First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &seq, nil
}

func (s *GormStore) CreateSequence(seq *model.AutoSequence) error {
	return s.db.Create(seq).Error
}

func (s *GormStore) StopSequence(id, reason string) error {
	return s.db.Model(&model.AutoSequence{}).
		Where("id = ? AND status = ?", id, model.SequenceStatusActive).
		Updates(map[string]interface{}{
			"status":      model.SequenceStatusStopped,
			"stop_reason": reason,
		}).Error
}

func (s *GormStore) AdvanceSequence(id string, nextStep int, nextSendAt time.Time) error {
	return s.db.Model(&model.AutoSequence{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_step": nextStep,
			"next_send_at": nextSendAt,
		}).Error
}

func (s *GormStore) DueSequences(now time.Time, limit int) ([]model.AutoSequence, error) {
	var seqs []model.AutoSequence
	q := s.db.Where("status = ? AND next_send_at <= ?", model.SequenceStatusActive, now).
		Order("next_send_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&seqs).Error
	return seqs, err
}

func (s *GormStore) SettingsByOwner(ownerID string) (*model.UserSettings, error) {
	var settings model.UserSettings
	err := s.db.Where("owner_id = ?", ownerID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

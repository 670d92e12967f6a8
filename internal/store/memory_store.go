package store

import (
	"sort"
	"sync"
	"time"

	"sellerdesk/internal/model"
)

// MemoryStore реализация ChatStore в памяти. Используется в тестах
// оркестратора и планировщика вместо Postgres.
type MemoryStore struct {
	mu        sync.Mutex
	stores    map[string]*model.Store
	chats     map[string]*model.Chat
	messages  map[string]*model.ChatMessage
	sequences map[string]*model.AutoSequence
	settings  map[string]*model.UserSettings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stores:    map[string]*model.Store{},
		chats:     map[string]*model.Chat{},
		messages:  map[string]*model.ChatMessage{},
		sequences: map[string]*model.AutoSequence{},
		settings:  map[string]*model.UserSettings{},
	}
}

// PutStore добавляет магазин (подготовка данных теста)
func (s *MemoryStore) PutStore(st *model.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	s.stores[st.ID] = &cp
}

// PutSettings добавляет настройки владельца (подготовка данных теста)
func (s *MemoryStore) PutSettings(settings *model.UserSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *settings
	s.settings[settings.OwnerID] = &cp
}

// PutChat добавляет чат напрямую (подготовка данных теста)
func (s *MemoryStore) PutChat(chat *model.Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *chat
	s.chats[chat.ID] = &cp
}

func (s *MemoryStore) StoreByID(id string) (*model.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stores[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *MemoryStore) ActiveStores() ([]model.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Store
	for _, st := range s.stores {
		if st.Status == "active" {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) UpdateStoreSync(storeID string, patch StoreSyncPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stores[storeID]
	if !ok {
		return ErrNotFound
	}
	if patch.Status != nil {
		st.LastChatUpdateStatus = *patch.Status
	}
	if patch.Date != nil {
		d := *patch.Date
		st.LastChatUpdateDate = &d
	}
	if patch.Error != nil {
		e := *patch.Error
		st.LastChatUpdateError = &e
	}
	if patch.NextCursor != nil {
		c := *patch.NextCursor
		st.LastChatUpdateNext = &c
	}
	if patch.TotalChats != nil {
		st.TotalChats = *patch.TotalChats
	}
	if patch.TagCounts != nil {
		st.ChatTagCounts = patch.TagCounts
	}
	return nil
}

func (s *MemoryStore) ChatByID(id string) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *chat
	return &cp, nil
}

func (s *MemoryStore) ChatsByStore(storeID string) ([]model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Chat
	for _, chat := range s.chats {
		if chat.StoreID == storeID {
			out = append(out, *chat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpsertChat(chat *model.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.chats[chat.ID]
	if !ok {
		cp := *chat
		now := time.Now()
		cp.CreatedAt = now
		cp.UpdatedAt = now
		s.chats[chat.ID] = &cp
		return nil
	}
	// Конфликт: обогащаем только контекстные поля, как OnConflict в gorm-реализации
	existing.ClientName = chat.ClientName
	existing.ReplySign = chat.ReplySign
	existing.OzonChatType = chat.OzonChatType
	existing.OzonChatStatus = chat.OzonChatStatus
	existing.OzonUnreadCount = chat.OzonUnreadCount
	existing.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) UpdateChat(chatID string, patch ChatPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return ErrNotFound
	}
	if patch.Status != nil {
		chat.Status = *patch.Status
	}
	if patch.StatusUpdatedAt != nil {
		t := *patch.StatusUpdatedAt
		chat.StatusUpdatedAt = &t
	}
	if patch.Tag != nil {
		t := *patch.Tag
		chat.Tag = &t
	}
	if patch.TagUpdatedAt != nil {
		t := *patch.TagUpdatedAt
		chat.TagUpdatedAt = &t
	}
	if patch.CompletionReason != nil {
		r := *patch.CompletionReason
		chat.CompletionReason = &r
	}
	if patch.ClearCompletionReason {
		chat.CompletionReason = nil
	}
	if patch.LastMessageText != nil {
		t := *patch.LastMessageText
		chat.LastMessageText = &t
	}
	if patch.LastMessageDate != nil {
		d := *patch.LastMessageDate
		chat.LastMessageDate = &d
	}
	if patch.LastMessageSender != nil {
		sn := *patch.LastMessageSender
		chat.LastMessageSender = &sn
	}
	if patch.ClearDraft {
		chat.DraftReply = nil
		chat.DraftReplyThreadID = nil
		chat.DraftReplyGeneratedAt = nil
		chat.DraftReplyEdited = nil
	}
	if patch.OzonLastMessageID != nil {
		id := *patch.OzonLastMessageID
		chat.OzonLastMessageID = &id
	}
	if patch.ProductNmID != nil {
		v := *patch.ProductNmID
		chat.ProductNmID = &v
	}
	chat.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) UpsertChatMessage(msg *model.ChatMessage) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[msg.ID]; ok {
		return false, nil
	}
	cp := *msg
	cp.CreatedAt = time.Now()
	s.messages[msg.ID] = &cp
	return true, nil
}

func (s *MemoryStore) MessagesByChat(chatID string) ([]model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ChatMessage
	for _, msg := range s.messages {
		if msg.ChatID == chatID {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *MemoryStore) ActiveSequenceByChat(chatID string) (*model.AutoSequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seq := range s.sequences {
		if seq.ChatID == chatID && seq.Status == model.SequenceStatusActive {
			cp := *seq
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateSequence(seq *model.AutoSequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *seq
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.sequences[seq.ID] = &cp
	return nil
}

func (s *MemoryStore) StopSequence(id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.sequences[id]
	if !ok {
		return ErrNotFound
	}
	if seq.Status != model.SequenceStatusActive {
		return nil
	}
	seq.Status = model.SequenceStatusStopped
	r := reason
	seq.StopReason = &r
	seq.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) AdvanceSequence(id string, nextStep int, nextSendAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.sequences[id]
	if !ok {
		return ErrNotFound
	}
	seq.CurrentStep = nextStep
	seq.NextSendAt = nextSendAt
	seq.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) DueSequences(now time.Time, limit int) ([]model.AutoSequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.AutoSequence
	for _, seq := range s.sequences {
		if seq.Status == model.SequenceStatusActive && !seq.NextSendAt.After(now) {
			out = append(out, *seq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextSendAt.Before(out[j].NextSendAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) SettingsByOwner(ownerID string) (*model.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, ok := s.settings[ownerID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *settings
	return &cp, nil
}

// Sequences возвращает все серии (проверки в тестах)
func (s *MemoryStore) Sequences() []model.AutoSequence {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.AutoSequence
	for _, seq := range s.sequences {
		out = append(out, *seq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// MessageCount возвращает количество сообщений в хранилище (проверки в тестах)
func (s *MemoryStore) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

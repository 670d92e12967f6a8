package sequence

import (
	"errors"
	"math/rand"
	"time"

	"sellerdesk/internal/infrastructure/logger"
	"sellerdesk/internal/model"
	"sellerdesk/internal/store"

	"github.com/google/uuid"
)

// Manager создает и останавливает автосерии. Время и генератор случайных
// чисел инжектируются, чтобы тесты были детерминированными.
type Manager struct {
	store   store.ChatStore
	rng     *rand.Rand
	now     func() time.Time
	tzShift int
}

// NewManager создает менеджер автосерий
func NewManager(st store.ChatStore, tzShift int) *Manager {
	return &Manager{
		store:   st,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
		tzShift: tzShift,
	}
}

// NewManagerForTest создает менеджер с фиксированным временем и генератором
func NewManagerForTest(st store.ChatStore, tzShift int, now func() time.Time, rng *rand.Rand) *Manager {
	return &Manager{store: st, rng: rng, now: now, tzShift: tzShift}
}

// SequenceTypeFor возвращает семейство шаблонов для чата
func SequenceTypeFor(marketplace string, fourStar bool) string {
	switch {
	case marketplace == model.MarketplaceOzon && fourStar:
		return model.SequenceTypeOzonNoReply4Star
	case marketplace == model.MarketplaceOzon:
		return model.SequenceTypeOzonNoReply
	case fourStar:
		return model.SequenceTypeNoReply4Star
	default:
		return model.SequenceTypeNoReply
	}
}

// EnsureSequence создает автосерию для чата, если активной еще нет.
// На чат допускается не больше одной активной серии. Возвращает созданную
// серию либо nil, если активная уже существует.
func (m *Manager) EnsureSequence(chat *model.Chat, sequenceType string, settings *model.UserSettings) (*model.AutoSequence, error) {
	existing, err := m.store.ActiveSequenceByChat(chat.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	seq := &model.AutoSequence{
		ID:           uuid.NewString(),
		ChatID:       chat.ID,
		StoreID:      chat.StoreID,
		OwnerID:      chat.OwnerID,
		SequenceType: sequenceType,
		Templates:    TemplatesFor(sequenceType, settings),
		CurrentStep:  0,
		NextSendAt:   NextSlotTime(m.now(), m.rng, m.tzShift),
		Status:       model.SequenceStatusActive,
	}

	if err := m.store.CreateSequence(seq); err != nil {
		return nil, err
	}

	logger.Infof("Создана автосерия %s для чата %s, первый шаг %s", seq.ID, chat.ID, seq.NextSendAt.Format(time.RFC3339))
	return seq, nil
}

// StopForClientReply останавливает активную серию чата, потому что клиент
// ответил. Отсутствие активной серии не считается ошибкой.
func (m *Manager) StopForClientReply(chatID string) error {
	seq, err := m.store.ActiveSequenceByChat(chatID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	logger.Infof("Клиент ответил в чате %s, останавливаем автосерию %s", chatID, seq.ID)
	return m.store.StopSequence(seq.ID, model.StopReasonClientReplied)
}

// NextSendAt вычисляет время следующего шага от переданного момента
func (m *Manager) NextSendAt(from time.Time) time.Time {
	return NextSlotTime(from, m.rng, m.tzShift)
}

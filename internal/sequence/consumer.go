package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sellerdesk/internal/infrastructure/logger"
	"sellerdesk/internal/model"
	"sellerdesk/internal/store"

	"github.com/google/uuid"
)

// Sender отправляет сообщение продавца в чат маркетплейса
type Sender interface {
	Send(ctx context.Context, st *model.Store, chat *model.Chat, text string) error
}

// Settings отдает настройки владельца (напрямую из БД либо через кэш)
type Settings interface {
	SettingsByOwner(ownerID string) (*model.UserSettings, error)
}

// Consumer фоновый обработчик автосерий. Периодически выбирает серии
// с наступившим next_send_at, отправляет очередной шаг и планирует следующий.
type Consumer struct {
	store      store.ChatStore
	sender     Sender
	settings   Settings
	manager    *Manager
	checkPause time.Duration
	sendPause  time.Duration
	now        func() time.Time
}

// NewConsumer создает обработчик автосерий
func NewConsumer(st store.ChatStore, sender Sender, settings Settings, manager *Manager, checkPause, sendPause time.Duration) *Consumer {
	return &Consumer{
		store:      st,
		sender:     sender,
		settings:   settings,
		manager:    manager,
		checkPause: checkPause,
		sendPause:  sendPause,
		now:        time.Now,
	}
}

// Run запускает бесконечный цикл обработки. Вызывается в отдельной горутине.
func (c *Consumer) Run(ctx context.Context) {
	logger.Info("Запущен обработчик автосерий")
	for {
		select {
		case <-ctx.Done():
			logger.Info("Обработчик автосерий остановлен")
			return
		case <-time.After(c.checkPause):
		}

		sent, err := c.ProcessDue(ctx)
		if err != nil {
			logger.Error("Ошибка обработки автосерий: ", err)
		}
		if sent > 0 {
			logger.Infof("Автосерии: отправлено сообщений %d", sent)
		}
	}
}

// ProcessDue обрабатывает все серии с наступившим временем отправки.
// Возвращает количество отправленных сообщений.
func (c *Consumer) ProcessDue(ctx context.Context) (int, error) {
	due, err := c.store.DueSequences(c.now(), 100)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		if err := c.processSequence(ctx, &due[i]); err != nil {
			logger.Errorf("Автосерия %s: %v", due[i].ID, err)
			continue
		}
		sent++
		// Пауза между отправками, чтобы не упереться в лимиты API
		if i < len(due)-1 {
			time.Sleep(c.sendPause)
		}
	}

	return sent, nil
}

func (c *Consumer) processSequence(ctx context.Context, seq *model.AutoSequence) error {
	chat, err := c.store.ChatByID(seq.ChatID)
	if errors.Is(err, store.ErrNotFound) {
		// Чат исчез из базы, серию продолжать некому
		return c.store.StopSequence(seq.ID, model.StopReasonManual)
	}
	if err != nil {
		return err
	}

	// Страховка: если ответ клиента пришел между синхронизациями,
	// серию останавливаем здесь, не дожидаясь оркестратора
	if chat.LastMessageSender != nil && *chat.LastMessageSender == model.SenderClient {
		return c.store.StopSequence(seq.ID, model.StopReasonClientReplied)
	}

	st, err := c.store.StoreByID(seq.StoreID)
	if err != nil {
		return fmt.Errorf("магазин %s: %w", seq.StoreID, err)
	}

	// Все шаги отправлены: шлем финальное сообщение и завершаем серию
	if seq.CurrentStep >= len(seq.Templates) {
		settings, _ := c.settings.SettingsByOwner(seq.OwnerID)
		stopText := StopMessageFor(seq.SequenceType, settings)

		if err := c.sendStep(ctx, st, chat, stopText); err != nil {
			return err
		}
		return c.store.StopSequence(seq.ID, model.StopReasonCompleted)
	}

	step := seq.Templates[seq.CurrentStep]
	if err := c.sendStep(ctx, st, chat, step.Text); err != nil {
		return err
	}

	return c.store.AdvanceSequence(seq.ID, seq.CurrentStep+1, c.manager.NextSendAt(c.now()))
}

// sendStep отправляет текст в чат и фиксирует его в истории сообщений
func (c *Consumer) sendStep(ctx context.Context, st *model.Store, chat *model.Chat, text string) error {
	if err := c.sender.Send(ctx, st, chat, text); err != nil {
		return err
	}

	now := c.now()
	_, err := c.store.UpsertChatMessage(&model.ChatMessage{
		ID:          "auto_" + uuid.NewString(),
		ChatID:      chat.ID,
		StoreID:     chat.StoreID,
		OwnerID:     chat.OwnerID,
		Marketplace: chat.Marketplace,
		Text:        text,
		Sender:      model.SenderSeller,
		Timestamp:   now,
		IsAutoReply: true,
	})
	if err != nil {
		return err
	}

	sender := model.SenderSeller
	return c.store.UpdateChat(chat.ID, store.ChatPatch{
		LastMessageText:   &text,
		LastMessageDate:   &now,
		LastMessageSender: &sender,
	})
}

package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"sellerdesk/internal/classify"
	"sellerdesk/internal/infrastructure/logger"
	"sellerdesk/internal/model"
	"sellerdesk/internal/sequence"
	"sellerdesk/internal/store"
)

// ChatClassifier контракт внешнего классификатора диалогов.
// Ошибка классификации никогда не фатальна для прохода.
type ChatClassifier interface {
	Classify(ctx context.Context, chat *model.Chat, chatHistory, lastMessageText string) (*classify.Result, error)
}

// Notifier получает итоги синхронизаций. Ошибки доставки проглатываются.
type Notifier interface {
	SyncFinished(storeName, marketplace, summary string)
	SyncFailed(storeName, marketplace string, err error)
}

// Reporter пишет итоги проходов во внешний отчет
type Reporter interface {
	AppendSyncReport(storeName, marketplace, summary string) error
}

// SettingsProvider отдает настройки владельца (напрямую либо через кэш)
type SettingsProvider interface {
	SettingsByOwner(ownerID string) (*model.UserSettings, error)
}

// Counters счетчики одного прохода синхронизации
type Counters struct {
	ChatsProcessed   int
	ChatsSkipped     int
	ChatErrors       int
	NewMessages      int
	TriggersDetected int
	Classified       int
}

// Summary собирает человекочитаемый итог прохода
func (c Counters) Summary(marketplace string) string {
	return fmt.Sprintf(
		"Синхронизация %s завершена: чатов обработано %d, пропущено %d, ошибок %d, новых сообщений %d, триггеров %d, классифицировано %d",
		strings.ToUpper(marketplace),
		c.ChatsProcessed, c.ChatsSkipped, c.ChatErrors, c.NewMessages, c.TriggersDetected, c.Classified,
	)
}

// Service оркестратор синхронизации. Один экземпляр обслуживает все магазины,
// чаты внутри магазина обрабатываются последовательно.
type Service struct {
	store      store.ChatStore
	adapters   map[string]ChatSyncAdapter
	classifier ChatClassifier
	seqManager *sequence.Manager
	settings   SettingsProvider
	notifier   Notifier // nil - уведомления выключены
	reporter   Reporter // nil - отчеты выключены
	now        func() time.Time
	storePause time.Duration // Пауза между магазинами в массовой синхронизации
}

// NewService создает оркестратор синхронизации
func NewService(st store.ChatStore, adapters []ChatSyncAdapter, classifier ChatClassifier, seqManager *sequence.Manager, settings SettingsProvider) *Service {
	byName := make(map[string]ChatSyncAdapter, len(adapters))
	for _, a := range adapters {
		byName[a.Marketplace()] = a
	}
	return &Service{
		store:      st,
		adapters:   byName,
		classifier: classifier,
		seqManager: seqManager,
		settings:   settings,
		now:        time.Now,
		storePause: 2 * time.Second,
	}
}

// SetNotifier подключает уведомления об итогах синхронизаций
func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

// SetReporter подключает внешний отчет о синхронизациях
func (s *Service) SetReporter(r Reporter) { s.reporter = r }

// SyncStore выполняет один полный проход синхронизации магазина по одному
// маркетплейсу. Возвращает итоговую строку для дашборда. Фатальные ошибки
// (магазин не найден, нет учетных данных, недоступен список чатов) пишутся
// в статус магазина и возвращаются вызывающему.
func (s *Service) SyncStore(ctx context.Context, storeID, marketplace string) (string, error) {
	st, err := s.store.StoreByID(storeID)
	if err != nil {
		return "", fmt.Errorf("магазин %s: %w", storeID, err)
	}

	adapter, ok := s.adapters[marketplace]
	if !ok {
		return "", fmt.Errorf("неизвестный маркетплейс %q", marketplace)
	}

	if !adapter.HasCredentials(st) {
		err := fmt.Errorf("у магазина %s не настроены учетные данные %s", storeID, marketplace)
		s.markError(storeID, err)
		return "", err
	}

	logger.Infof("Синхронизация %s магазина %s (%s)", marketplace, st.Name, storeID)
	s.markPending(storeID)

	summary, err := s.runPass(ctx, st, adapter)
	if err != nil {
		s.markError(storeID, err)
		if s.notifier != nil {
			s.notifier.SyncFailed(st.Name, marketplace, err)
		}
		return "", err
	}

	logger.Info(summary)
	if s.notifier != nil {
		s.notifier.SyncFinished(st.Name, marketplace, summary)
	}
	if s.reporter != nil {
		if rerr := s.reporter.AppendSyncReport(st.Name, marketplace, summary); rerr != nil {
			logger.Error("Ошибка записи отчета о синхронизации: ", rerr)
		}
	}

	return summary, nil
}

func (s *Service) markPending(storeID string) {
	status := model.SyncStatusPending
	now := s.now()
	if err := s.store.UpdateStoreSync(storeID, store.StoreSyncPatch{Status: &status, Date: &now}); err != nil {
		logger.Error("Не удалось пометить начало синхронизации: ", err)
	}
}

func (s *Service) markError(storeID string, passErr error) {
	status := model.SyncStatusError
	msg := passErr.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	now := s.now()
	if err := s.store.UpdateStoreSync(storeID, store.StoreSyncPatch{Status: &status, Date: &now, Error: &msg}); err != nil {
		logger.Error("Не удалось записать ошибку синхронизации: ", err)
	}
}

// runPass тело прохода: чаты, сообщения, переходы, триггеры, классификация,
// статистика. Пишет итоговый статус success вместе с курсором и агрегатами.
func (s *Service) runPass(ctx context.Context, st *model.Store, adapter ChatSyncAdapter) (string, error) {
	marketplace := adapter.Marketplace()
	var counters Counters

	remoteChats, err := adapter.ListActiveChats(ctx, st)
	if err != nil {
		return "", fmt.Errorf("список чатов %s: %w", marketplace, err)
	}
	logger.Infof("Магазин %s: активных чатов %s - %d", st.ID, marketplace, len(remoteChats))

	known, err := s.knownChats(st.ID, marketplace)
	if err != nil {
		return "", err
	}

	// Выгрузка идет до записи чатов: она читает только курсоры, а чат
	// с проваленной историей (OZON 403) не должен попасть в базу
	fetch, err := adapter.ListNewMessages(ctx, st, remoteChats, known)
	if err != nil {
		return "", fmt.Errorf("выгрузка сообщений %s: %w", marketplace, err)
	}
	counters.ChatErrors = fetch.ChatErrors

	// Чаты создаются раньше сообщений: списки и join-ы рассчитывают на
	// существование строки чата. Пропущенные чаты не создаются вовсе.
	for i := range remoteChats {
		if fetch.FailedChats[remoteChats[i].ID] {
			continue
		}
		if err := s.upsertRemoteChat(st, marketplace, &remoteChats[i]); err != nil {
			return "", fmt.Errorf("сохранение чата %s: %w", remoteChats[i].ID, err)
		}
	}

	known, err = s.knownChats(st.ID, marketplace)
	if err != nil {
		return "", err
	}

	s.enrichProducts(fetch.ChatProducts, known)

	sellerTouched, touched := s.persistMessages(st, fetch.Messages, known, &counters)

	s.detectTriggers(st, marketplace, sellerTouched, &counters)
	s.classifyChats(ctx, touched, &counters)

	if skipped := len(remoteChats) - counters.ChatsProcessed - counters.ChatErrors; skipped > 0 {
		counters.ChatsSkipped = skipped
	}

	if err := s.finishPass(st, marketplace, fetch.NextCursor, &counters); err != nil {
		return "", err
	}

	return counters.Summary(marketplace), nil
}

func (s *Service) upsertRemoteChat(st *model.Store, marketplace string, rc *RemoteChat) error {
	chat := &model.Chat{
		ID:              rc.ID,
		StoreID:         st.ID,
		OwnerID:         st.OwnerID,
		Marketplace:     marketplace,
		ClientName:      rc.ClientName,
		ReplySign:       rc.ReplySign,
		Status:          model.ChatStatusInbox,
		OzonChatType:    rc.OzonChatType,
		OzonChatStatus:  rc.OzonChatStatus,
		OzonUnreadCount: rc.OzonUnreadCount,
	}
	if rc.ProductNmID != "" {
		chat.ProductNmID = &rc.ProductNmID
	}
	return s.store.UpsertChat(chat)
}

// enrichProducts дописывает чатам без товара артикул, найденный в контексте
// сообщений. Название товара живет в каталоге дашборда и здесь не трогается.
func (s *Service) enrichProducts(products map[string]string, known map[string]*model.Chat) {
	for chatID, sku := range products {
		chat := known[chatID]
		if chat == nil || chat.ProductNmID != nil {
			continue
		}
		nmID := sku
		if err := s.store.UpdateChat(chatID, store.ChatPatch{ProductNmID: &nmID}); err != nil {
			logger.Errorf("Чат %s: ошибка записи артикула товара: %v", chatID, err)
		}
	}
}

func (s *Service) knownChats(storeID, marketplace string) (map[string]*model.Chat, error) {
	chats, err := s.store.ChatsByStore(storeID)
	if err != nil {
		return nil, fmt.Errorf("чтение чатов магазина: %w", err)
	}
	known := make(map[string]*model.Chat, len(chats))
	for i := range chats {
		if chats[i].Marketplace == marketplace {
			known[chats[i].ID] = &chats[i]
		}
	}
	return known, nil
}

// persistMessages сохраняет новые сообщения и применяет переходы статусов.
// Возвращает тексты новых сообщений продавца по чатам (для детектора
// триггеров) и множество чатов с любой новой активностью (для классификации).
func (s *Service) persistMessages(st *model.Store, messages []RemoteMessage, known map[string]*model.Chat, counters *Counters) (map[string][]string, map[string]bool) {
	grouped := make(map[string][]RemoteMessage)
	for _, msg := range messages {
		grouped[msg.ChatID] = append(grouped[msg.ChatID], msg)
	}

	chatIDs := make([]string, 0, len(grouped))
	for id := range grouped {
		chatIDs = append(chatIDs, id)
	}
	sort.Strings(chatIDs)

	sellerTouched := make(map[string][]string)
	touched := make(map[string]bool)

	for _, chatID := range chatIDs {
		msgs := grouped[chatID]
		sort.Slice(msgs, func(i, j int) bool {
			if msgs[i].SeqNo != msgs[j].SeqNo {
				return msgs[i].SeqNo < msgs[j].SeqNo
			}
			return msgs[i].Timestamp.Before(msgs[j].Timestamp)
		})

		chat := known[chatID]
		createdAny := false
		var newest RemoteMessage

		for _, msg := range msgs {
			created, err := s.store.UpsertChatMessage(&model.ChatMessage{
				ID:          msg.ID,
				ChatID:      msg.ChatID,
				StoreID:     st.ID,
				OwnerID:     st.OwnerID,
				Marketplace: messageMarketplace(&msg, chat),
				Text:        msg.Text,
				Sender:      msg.Sender,
				Timestamp:   msg.Timestamp,
				DownloadID:  optional(msg.DownloadID),
				IsAutoReply: false,
			})
			if err != nil {
				logger.Errorf("Чат %s: ошибка сохранения сообщения %s: %v", chatID, msg.ID, err)
				counters.ChatErrors++
				continue
			}
			if !created {
				continue
			}
			counters.NewMessages++
			createdAny = true
			newest = msg
			if msg.Sender == model.SenderSeller {
				sellerTouched[chatID] = append(sellerTouched[chatID], msg.Text)
			}
		}

		// Журнал событий WB может ссылаться на чаты вне списка активных -
		// сообщения сохранены, но переходы применять не к чему
		if chat == nil || !createdAny {
			continue
		}

		// Защита от повторов: переход срабатывает только если самое новое
		// сообщение действительно новее сохраненного курсора чата
		if !newerThanCursor(chat, &newest) {
			continue
		}

		if err := s.applyTransition(chat, &newest); err != nil {
			logger.Errorf("Чат %s: ошибка применения перехода: %v", chatID, err)
			counters.ChatErrors++
			continue
		}

		counters.ChatsProcessed++
		touched[chatID] = true
	}

	return sellerTouched, touched
}

// newerThanCursor сравнивает самое новое сообщение с курсором чата:
// для OZON это числовой ID последнего сообщения, для WB - время.
func newerThanCursor(chat *model.Chat, newest *RemoteMessage) bool {
	if newest.SeqNo > 0 {
		return chat.OzonLastMessageID == nil || newest.SeqNo > *chat.OzonLastMessageID
	}
	return chat.LastMessageDate == nil || newest.Timestamp.After(*chat.LastMessageDate)
}

func (s *Service) applyTransition(chat *model.Chat, newest *RemoteMessage) error {
	now := s.now()

	// Любое новое сообщение делает черновик ответа неактуальным
	patch := store.ChatPatch{
		LastMessageText:   &newest.Text,
		LastMessageDate:   &newest.Timestamp,
		LastMessageSender: &newest.Sender,
		ClearDraft:        true,
	}
	if newest.SeqNo > 0 {
		patch.OzonLastMessageID = &newest.SeqNo
	}

	t := NextStatus(chat.Status, newest.Sender)
	if t.ChangeStatus {
		patch.Status = &t.NewStatus
		patch.StatusUpdatedAt = &now
		if t.ClearCompletionReason {
			patch.ClearCompletionReason = true
		}
	}

	if err := s.store.UpdateChat(chat.ID, patch); err != nil {
		return err
	}

	if t.StopSequence {
		if err := s.seqManager.StopForClientReply(chat.ID); err != nil {
			logger.Errorf("Чат %s: ошибка остановки автосерии: %v", chat.ID, err)
		}
	}

	return nil
}

// detectTriggers ищет триггерные фразы в новых сообщениях продавца и
// запускает автосерии. Ошибки детектора не фатальны для прохода.
func (s *Service) detectTriggers(st *model.Store, marketplace string, sellerTouched map[string][]string, counters *Counters) {
	if len(sellerTouched) == 0 {
		return
	}

	settings, err := s.settings.SettingsByOwner(st.OwnerID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.Error("Ошибка чтения настроек владельца: ", err)
	}
	primary, secondary := TriggerPhrases(settings)

	chatIDs := make([]string, 0, len(sellerTouched))
	for id := range sellerTouched {
		chatIDs = append(chatIDs, id)
	}
	sort.Strings(chatIDs)

	for _, chatID := range chatIDs {
		match := DetectTrigger(sellerTouched[chatID], primary, secondary)
		if !match.Matched {
			continue
		}

		chat, err := s.store.ChatByID(chatID)
		if err != nil {
			logger.Errorf("Чат %s: ошибка чтения для триггера: %v", chatID, err)
			continue
		}
		if inDeletionWorkflow(chat.Tag) {
			continue
		}

		now := s.now()
		tag := model.TagDeletionCandidate
		status := model.ChatStatusAwaitingReply
		err = s.store.UpdateChat(chatID, store.ChatPatch{
			Tag:             &tag,
			TagUpdatedAt:    &now,
			Status:          &status,
			StatusUpdatedAt: &now,
		})
		if err != nil {
			logger.Errorf("Чат %s: ошибка применения триггера: %v", chatID, err)
			continue
		}
		chat.Tag = &tag
		chat.Status = status

		seqType := sequence.SequenceTypeFor(marketplace, match.FourStar)
		if _, err := s.seqManager.EnsureSequence(chat, seqType, settings); err != nil {
			logger.Errorf("Чат %s: ошибка создания автосерии: %v", chatID, err)
		}

		counters.TriggersDetected++
		logger.Infof("Чат %s: сработала триггерная фраза, запущена ветка %s", chatID, seqType)
	}
}

// classifyChats прогоняет чаты с новой активностью через классификатор.
// Ошибки классификации логируются и не прерывают проход.
func (s *Service) classifyChats(ctx context.Context, touched map[string]bool, counters *Counters) {
	if s.classifier == nil || len(touched) == 0 {
		return
	}

	chatIDs := make([]string, 0, len(touched))
	for id := range touched {
		chatIDs = append(chatIDs, id)
	}
	sort.Strings(chatIDs)

	for _, chatID := range chatIDs {
		chat, err := s.store.ChatByID(chatID)
		if err != nil {
			logger.Errorf("Чат %s: ошибка чтения для классификации: %v", chatID, err)
			continue
		}
		if inDeletionWorkflow(chat.Tag) {
			continue
		}

		history, lastText, err := s.chatHistoryText(chatID)
		if err != nil {
			logger.Errorf("Чат %s: ошибка сборки истории: %v", chatID, err)
			continue
		}

		result, err := s.classifier.Classify(ctx, chat, history, lastText)
		if err != nil {
			logger.Errorf("Чат %s: ошибка классификации: %v", chatID, err)
			continue
		}
		if result == nil || result.Tag == "" {
			continue
		}

		if chat.Tag == nil || *chat.Tag != result.Tag {
			now := s.now()
			err = s.store.UpdateChat(chatID, store.ChatPatch{Tag: &result.Tag, TagUpdatedAt: &now})
			if err != nil {
				logger.Errorf("Чат %s: ошибка сохранения тега: %v", chatID, err)
				continue
			}
		}
		counters.Classified++
	}
}

// chatHistoryText собирает историю диалога одной строкой для классификатора
func (s *Service) chatHistoryText(chatID string) (history, lastText string, err error) {
	msgs, err := s.store.MessagesByChat(chatID)
	if err != nil {
		return "", "", err
	}

	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		who := "Клиент"
		if m.Sender == model.SenderSeller {
			who = "Продавец"
		}
		text := m.Text
		if text == "" {
			text = "[Вложение]"
		}
		lines = append(lines, who+": "+text)
		lastText = m.Text
	}
	return strings.Join(lines, "\n"), lastText, nil
}

// finishPass пересчитывает агрегаты магазина и фиксирует успешное завершение
// вместе с новым курсором журнала событий.
func (s *Service) finishPass(st *model.Store, marketplace, nextCursor string, counters *Counters) error {
	allChats, err := s.store.ChatsByStore(st.ID)
	if err != nil {
		return fmt.Errorf("пересчет статистики: %w", err)
	}

	tagCounts := make(map[string]int, len(model.KnownTags))
	for _, tag := range model.KnownTags {
		tagCounts[tag] = 0
	}
	for i := range allChats {
		tag := model.TagUntagged
		if allChats[i].Tag != nil {
			tag = *allChats[i].Tag
		}
		if _, known := tagCounts[tag]; !known {
			tag = model.TagUntagged
		}
		tagCounts[tag]++
	}

	status := model.SyncStatusSuccess
	now := s.now()
	noError := ""
	total := len(allChats)
	patch := store.StoreSyncPatch{
		Status:     &status,
		Date:       &now,
		Error:      &noError,
		TotalChats: &total,
		TagCounts:  tagCounts,
	}
	if marketplace == model.MarketplaceWB && nextCursor != "" {
		patch.NextCursor = &nextCursor
	}

	if err := s.store.UpdateStoreSync(st.ID, patch); err != nil {
		return fmt.Errorf("запись итогов синхронизации: %w", err)
	}
	return nil
}

// SyncAllStores прогоняет синхронизацию всех активных магазинов по всем
// подключенным маркетплейсам. Ошибки отдельных магазинов не прерывают обход.
func (s *Service) SyncAllStores(ctx context.Context) (string, error) {
	stores, err := s.store.ActiveStores()
	if err != nil {
		return "", fmt.Errorf("чтение активных магазинов: %w", err)
	}

	synced, failed := 0, 0
	for i := range stores {
		st := &stores[i]
		for _, marketplace := range []string{model.MarketplaceWB, model.MarketplaceOzon} {
			adapter, ok := s.adapters[marketplace]
			if !ok || !adapter.HasCredentials(st) {
				continue
			}
			if _, err := s.SyncStore(ctx, st.ID, marketplace); err != nil {
				logger.Errorf("Магазин %s (%s): %v", st.ID, marketplace, err)
				failed++
			} else {
				synced++
			}

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.storePause):
			}
		}
	}

	summary := fmt.Sprintf("Массовая синхронизация завершена: успешно %d, с ошибками %d", synced, failed)
	logger.Info(summary)
	return summary, nil
}

// RunDailySync запускает ежедневную фоновую синхронизацию всех магазинов.
// Вызывается в отдельной горутине.
func (s *Service) RunDailySync(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	logger.Infof("Запущена периодическая синхронизация, интервал %s", interval)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Периодическая синхронизация остановлена")
			return
		case <-time.After(interval):
		}

		if _, err := s.SyncAllStores(ctx); err != nil {
			logger.Error("Ошибка массовой синхронизации: ", err)
		}
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// messageMarketplace возвращает маркетплейс сообщения: из чата, если он
// известен, иначе по признаку числового курсора OZON.
func messageMarketplace(m *RemoteMessage, chat *model.Chat) string {
	if chat != nil {
		return chat.Marketplace
	}
	if m.SeqNo > 0 {
		return model.MarketplaceOzon
	}
	return model.MarketplaceWB
}

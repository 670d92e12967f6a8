package web

import (
	"errors"
	"net/http"
	"time"

	"sellerdesk/internal/config"
	"sellerdesk/internal/infrastructure/logger"
	"sellerdesk/internal/model"
	"sellerdesk/internal/store"

	"github.com/gorilla/mux"
	initdata "github.com/telegram-mini-apps/init-data-golang"
)

// getValidatedData проверяет initData mini-app и возвращает разобранные данные
func getValidatedData(initDataStr, token string) (*initdata.InitData, error) {
	if initDataStr == "" {
		return nil, errors.New("отсутствует параметр initData")
	}

	expIn := 1 * time.Hour
	if err := initdata.Validate(initDataStr, token, expIn); err != nil {
		return nil, err
	}
	data, err := initdata.Parse(initDataStr)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (app *WebApp) validateTgRequest(w http.ResponseWriter, r *http.Request) *initdata.InitData {
	token := config.File.TelegramConfig.Token
	if token == "" {
		writeError(w, http.StatusServiceUnavailable, "telegram mini-app не настроен", "")
		return nil
	}

	data, err := getValidatedData(r.URL.Query().Get("initData"), token)
	if err != nil {
		logger.Warn("("+r.RemoteAddr+") Вход запрещен. Неверные телеграмм данные: ", err)
		writeError(w, http.StatusUnauthorized, "неверные телеграмм данные", err.Error())
		return nil
	}
	return data
}

type tgChatItem struct {
	ID                string     `json:"id"`
	Marketplace       string     `json:"marketplace"`
	ClientName        string     `json:"client_name"`
	Status            string     `json:"status"`
	Tag               *string    `json:"tag,omitempty"`
	LastMessageText   *string    `json:"last_message_text,omitempty"`
	LastMessageDate   *time.Time `json:"last_message_date,omitempty"`
	LastMessageSender *string    `json:"last_message_sender,omitempty"`
}

// HandleTgChats список чатов магазина для Telegram mini-app
func (app *WebApp) HandleTgChats(w http.ResponseWriter, r *http.Request) {
	data := app.validateTgRequest(w, r)
	if data == nil {
		return
	}

	storeID := r.URL.Query().Get("storeId")
	if storeID == "" {
		writeError(w, http.StatusBadRequest, "отсутствует параметр storeId", "")
		return
	}

	chats, err := app.store.ChatsByStore(storeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ошибка чтения чатов", err.Error())
		return
	}

	items := make([]tgChatItem, 0, len(chats))
	for _, chat := range chats {
		items = append(items, tgChatItem{
			ID:                chat.ID,
			Marketplace:       chat.Marketplace,
			ClientName:        chat.ClientName,
			Status:            chat.Status,
			Tag:               chat.Tag,
			LastMessageText:   chat.LastMessageText,
			LastMessageDate:   chat.LastMessageDate,
			LastMessageSender: chat.LastMessageSender,
		})
	}

	logger.Info("(", r.RemoteAddr, ") HandleTgChats Пользователь ", data.User.Username, "(", data.User.ID, ") запросил чаты магазина ", storeID)
	writeJSON(w, http.StatusOK, items)
}

type tgChatDetails struct {
	Chat     *model.Chat         `json:"chat"`
	Messages []model.ChatMessage `json:"messages"`
}

// HandleTgChatDetails чат с полной историей сообщений для Telegram mini-app
func (app *WebApp) HandleTgChatDetails(w http.ResponseWriter, r *http.Request) {
	data := app.validateTgRequest(w, r)
	if data == nil {
		return
	}

	chatID := mux.Vars(r)["chatId"]

	chat, err := app.store.ChatByID(chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "чат не найден", chatID)
			return
		}
		writeError(w, http.StatusInternalServerError, "ошибка чтения чата", err.Error())
		return
	}

	messages, err := app.store.MessagesByChat(chatID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ошибка чтения сообщений", err.Error())
		return
	}

	logger.Info("(", r.RemoteAddr, ") HandleTgChatDetails Пользователь ", data.User.Username, "(", data.User.ID, ") открыл чат ", chatID)
	writeJSON(w, http.StatusOK, tgChatDetails{Chat: chat, Messages: messages})
}

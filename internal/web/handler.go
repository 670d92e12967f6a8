package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"sellerdesk/internal/infrastructure/logger"
	"sellerdesk/internal/model"
	"sellerdesk/internal/store"

	"github.com/gorilla/mux"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Ошибка сериализации ответа: ", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}

// HandleUpdateDialogues запускает синхронизацию WB чатов магазина
func (app *WebApp) HandleUpdateDialogues(w http.ResponseWriter, r *http.Request) {
	app.handleSync(w, r, model.MarketplaceWB)
}

// HandleUpdateOzonDialogues запускает синхронизацию OZON чатов магазина
func (app *WebApp) HandleUpdateOzonDialogues(w http.ResponseWriter, r *http.Request) {
	app.handleSync(w, r, model.MarketplaceOzon)
}

func (app *WebApp) handleSync(w http.ResponseWriter, r *http.Request, marketplace string) {
	storeID := mux.Vars(r)["storeId"]

	summary, err := app.syncService.SyncStore(r.Context(), storeID, marketplace)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "магазин не найден", storeID)
			return
		}
		logger.Errorf("Синхронизация магазина %s: %v", storeID, err)
		writeError(w, http.StatusInternalServerError, "ошибка синхронизации", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: summary})
}

// HandleUpdateAllDialogues запускает синхронизацию всех активных магазинов
func (app *WebApp) HandleUpdateAllDialogues(w http.ResponseWriter, r *http.Request) {
	summary, err := app.syncService.SyncAllStores(r.Context())
	if err != nil {
		logger.Error("Массовая синхронизация: ", err)
		writeError(w, http.StatusInternalServerError, "ошибка массовой синхронизации", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: summary})
}

// HandleListChats возвращает чаты магазина для дашборда
func (app *WebApp) HandleListChats(w http.ResponseWriter, r *http.Request) {
	storeID := mux.Vars(r)["storeId"]

	if _, err := app.store.StoreByID(storeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "магазин не найден", storeID)
			return
		}
		writeError(w, http.StatusInternalServerError, "ошибка чтения магазина", err.Error())
		return
	}

	chats, err := app.store.ChatsByStore(storeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ошибка чтения чатов", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, chats)
}

// statusUpdateRequest тело ручного перевода статуса чата
type statusUpdateRequest struct {
	Status           string `json:"status" validate:"required,oneof=inbox in_progress awaiting_reply closed"`
	CompletionReason string `json:"completion_reason" validate:"omitempty,oneof=review_deleted review_upgraded no_reply old_dialog not_our_issue spam negative other"`
}

// HandleUpdateChatStatus переводит статус чата вручную (оператором с доски).
// Закрытие требует причину, открытие из closed очищает ее. Закрытие чата
// останавливает активную автосерию.
func (app *WebApp) HandleUpdateChatStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chatID := vars["chatId"]

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса", err.Error())
		return
	}
	if err := app.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "некорректные параметры", err.Error())
		return
	}
	if req.Status == model.ChatStatusClosed && req.CompletionReason == "" {
		writeError(w, http.StatusBadRequest, "для закрытия чата требуется причина завершения", "completion_reason")
		return
	}

	chat, err := app.store.ChatByID(chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "чат не найден", chatID)
			return
		}
		writeError(w, http.StatusInternalServerError, "ошибка чтения чата", err.Error())
		return
	}
	if chat.StoreID != vars["storeId"] {
		writeError(w, http.StatusNotFound, "чат не принадлежит магазину", chatID)
		return
	}

	now := time.Now()
	patch := store.ChatPatch{Status: &req.Status, StatusUpdatedAt: &now}
	if req.Status == model.ChatStatusClosed {
		patch.CompletionReason = &req.CompletionReason
	} else if chat.Status == model.ChatStatusClosed {
		// Открытие закрытого чата очищает причину завершения
		patch.ClearCompletionReason = true
	}

	if err := app.store.UpdateChat(chatID, patch); err != nil {
		writeError(w, http.StatusInternalServerError, "ошибка обновления чата", err.Error())
		return
	}

	if req.Status == model.ChatStatusClosed {
		if seq, err := app.store.ActiveSequenceByChat(chatID); err == nil {
			if err := app.store.StopSequence(seq.ID, model.StopReasonManual); err != nil {
				logger.Errorf("Чат %s: ошибка остановки автосерии: %v", chatID, err)
			}
		}
	}

	logger.Infof("Чат %s: статус переведен вручную в %s", chatID, req.Status)
	writeJSON(w, http.StatusOK, messageResponse{Message: "статус обновлен"})
}

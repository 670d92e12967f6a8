package web

import (
	"github.com/gorilla/mux"
)

// Маршрутизатор
func (app *WebApp) SetRoutes() *mux.Router {
	router := mux.NewRouter()

	// Ограничение количества запросов от одного IP
	router.Use(LimitMiddleware)

	// Синхронизации и управление чатами - под bearer-ключом
	api := router.PathPrefix("/stores").Subrouter()
	api.Use(AuthMiddleware)

	api.HandleFunc("/dialogues/update-all", app.HandleUpdateAllDialogues).Methods("POST")
	api.HandleFunc("/{storeId}/dialogues/update", app.HandleUpdateDialogues).Methods("POST")
	api.HandleFunc("/{storeId}/ozon-dialogues/update", app.HandleUpdateOzonDialogues).Methods("POST")

	api.HandleFunc("/{storeId}/chats", app.HandleListChats).Methods("GET")
	api.HandleFunc("/{storeId}/chats/{chatId}/status", app.HandleUpdateChatStatus).Methods("PATCH")

	// Эндпоинты Telegram mini-app, авторизация через initData
	router.HandleFunc("/tg/chats", app.HandleTgChats).Methods("GET")
	router.HandleFunc("/tg/chats/{chatId}", app.HandleTgChatDetails).Methods("GET")

	return router
}

package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sellerdesk/internal/model"
	"sellerdesk/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(ms *store.MemoryStore) *WebApp {
	return &WebApp{store: ms, validate: validator.New()}
}

func seedChat(ms *store.MemoryStore, status string) {
	ms.PutStore(&model.Store{ID: "s1", OwnerID: "o1", Name: "Магазин", Status: "active"})
	ms.PutChat(&model.Chat{
		ID:          "c1",
		StoreID:     "s1",
		OwnerID:     "o1",
		Marketplace: model.MarketplaceWB,
		Status:      status,
	})
}

func patchStatus(app *WebApp, storeID, chatID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, "/stores/"+storeID+"/chats/"+chatID+"/status", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"storeId": storeID, "chatId": chatID})
	w := httptest.NewRecorder()
	app.HandleUpdateChatStatus(w, req)
	return w
}

func TestHandleUpdateChatStatusClose(t *testing.T) {
	ms := store.NewMemoryStore()
	seedChat(ms, model.ChatStatusInProgress)
	require.NoError(t, ms.CreateSequence(&model.AutoSequence{
		ID:           "seq1",
		ChatID:       "c1",
		StoreID:      "s1",
		OwnerID:      "o1",
		SequenceType: model.SequenceTypeNoReply,
		Templates:    []model.SequenceMessage{{Day: 1, Text: "шаг"}},
		NextSendAt:   time.Now().Add(time.Hour),
		Status:       model.SequenceStatusActive,
	}))

	app := newTestApp(ms)
	w := patchStatus(app, "s1", "c1", `{"status":"closed","completion_reason":"review_deleted"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	chat, err := ms.ChatByID("c1")
	require.NoError(t, err)
	assert.Equal(t, model.ChatStatusClosed, chat.Status)
	require.NotNil(t, chat.CompletionReason)
	assert.Equal(t, model.CompletionReviewDeleted, *chat.CompletionReason)
	require.NotNil(t, chat.StatusUpdatedAt)

	// Закрытие чата останавливает активную автосерию
	seqs := ms.Sequences()
	require.Len(t, seqs, 1)
	assert.Equal(t, model.SequenceStatusStopped, seqs[0].Status)
	require.NotNil(t, seqs[0].StopReason)
	assert.Equal(t, model.StopReasonManual, *seqs[0].StopReason)
}

func TestHandleUpdateChatStatusCloseRequiresReason(t *testing.T) {
	ms := store.NewMemoryStore()
	seedChat(ms, model.ChatStatusInProgress)

	app := newTestApp(ms)
	w := patchStatus(app, "s1", "c1", `{"status":"closed"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	chat, err := ms.ChatByID("c1")
	require.NoError(t, err)
	assert.Equal(t, model.ChatStatusInProgress, chat.Status)
}

func TestHandleUpdateChatStatusReopenClearsReason(t *testing.T) {
	ms := store.NewMemoryStore()
	seedChat(ms, model.ChatStatusClosed)
	reason := model.CompletionOther
	require.NoError(t, ms.UpdateChat("c1", store.ChatPatch{CompletionReason: &reason}))

	app := newTestApp(ms)
	w := patchStatus(app, "s1", "c1", `{"status":"in_progress"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	chat, err := ms.ChatByID("c1")
	require.NoError(t, err)
	assert.Equal(t, model.ChatStatusInProgress, chat.Status)
	assert.Nil(t, chat.CompletionReason)
}

func TestHandleUpdateChatStatusValidation(t *testing.T) {
	ms := store.NewMemoryStore()
	seedChat(ms, model.ChatStatusInbox)
	app := newTestApp(ms)

	assert.Equal(t, http.StatusBadRequest, patchStatus(app, "s1", "c1", `{"status":"archived"}`).Code)
	assert.Equal(t, http.StatusBadRequest, patchStatus(app, "s1", "c1", `{"status":"closed","completion_reason":"whatever"}`).Code)
	assert.Equal(t, http.StatusBadRequest, patchStatus(app, "s1", "c1", `не json`).Code)
}

func TestHandleUpdateChatStatusWrongStore(t *testing.T) {
	ms := store.NewMemoryStore()
	seedChat(ms, model.ChatStatusInbox)
	app := newTestApp(ms)

	assert.Equal(t, http.StatusNotFound, patchStatus(app, "other", "c1", `{"status":"in_progress"}`).Code)
	assert.Equal(t, http.StatusNotFound, patchStatus(app, "s1", "missing", `{"status":"in_progress"}`).Code)
}

func TestHandleListChats(t *testing.T) {
	ms := store.NewMemoryStore()
	seedChat(ms, model.ChatStatusInbox)
	app := newTestApp(ms)

	req := httptest.NewRequest(http.MethodGet, "/stores/s1/chats", nil)
	req = mux.SetURLVars(req, map[string]string{"storeId": "s1"})
	w := httptest.NewRecorder()
	app.HandleListChats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"c1"`)

	req = httptest.NewRequest(http.MethodGet, "/stores/missing/chats", nil)
	req = mux.SetURLVars(req, map[string]string{"storeId": "missing"})
	w = httptest.NewRecorder()
	app.HandleListChats(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

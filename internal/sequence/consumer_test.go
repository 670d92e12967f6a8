package sequence

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"sellerdesk/internal/model"
	"sellerdesk/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender запоминает отправленные тексты вместо похода в API
type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(ctx context.Context, st *model.Store, chat *model.Chat, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

func seedConsumer(t *testing.T, seq *model.AutoSequence, chat *model.Chat) (*store.MemoryStore, *fakeSender, *Consumer) {
	t.Helper()

	ms := store.NewMemoryStore()
	ms.PutStore(&model.Store{ID: "s1", OwnerID: "o1", Name: "Магазин", Status: "active", APIToken: "t"})
	if chat != nil {
		ms.PutChat(chat)
	}
	if seq != nil {
		require.NoError(t, ms.CreateSequence(seq))
	}

	sender := &fakeSender{}
	manager := NewManagerForTest(ms, 3, time.Now, rand.New(rand.NewSource(1)))
	consumer := NewConsumer(ms, sender, ms, manager, time.Minute, 0)
	return ms, sender, consumer
}

func sellerChat() *model.Chat {
	sender := model.SenderSeller
	return &model.Chat{
		ID:                "c1",
		StoreID:           "s1",
		OwnerID:           "o1",
		Marketplace:       model.MarketplaceWB,
		Status:            model.ChatStatusAwaitingReply,
		ReplySign:         "sign",
		LastMessageSender: &sender,
	}
}

func activeSequence(step int) *model.AutoSequence {
	return &model.AutoSequence{
		ID:           "seq1",
		ChatID:       "c1",
		StoreID:      "s1",
		OwnerID:      "o1",
		SequenceType: model.SequenceTypeNoReply,
		Templates: []model.SequenceMessage{
			{Day: 1, Text: "первый шаг"},
			{Day: 2, Text: "второй шаг"},
		},
		CurrentStep: step,
		NextSendAt:  time.Now().Add(-time.Minute),
		Status:      model.SequenceStatusActive,
	}
}

func TestProcessDueSendsStepAndAdvances(t *testing.T) {
	ms, sender, consumer := seedConsumer(t, activeSequence(0), sellerChat())

	sent, err := consumer.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Equal(t, []string{"первый шаг"}, sender.sent)

	seqs := ms.Sequences()
	require.Len(t, seqs, 1)
	assert.Equal(t, model.SequenceStatusActive, seqs[0].Status)
	assert.Equal(t, 1, seqs[0].CurrentStep)
	assert.True(t, seqs[0].NextSendAt.After(time.Now()))

	// Отправленный шаг записан в историю чата как автоответ
	msgs, err := ms.MessagesByChat("c1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsAutoReply)
	assert.Equal(t, model.SenderSeller, msgs[0].Sender)
	assert.True(t, strings.HasPrefix(msgs[0].ID, "auto_"))
	assert.Equal(t, "первый шаг", msgs[0].Text)

	chat, err := ms.ChatByID("c1")
	require.NoError(t, err)
	require.NotNil(t, chat.LastMessageText)
	assert.Equal(t, "первый шаг", *chat.LastMessageText)
}

func TestProcessDueCompletesSequence(t *testing.T) {
	ms, sender, consumer := seedConsumer(t, activeSequence(2), sellerChat())

	sent, err := consumer.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	// Все шаги пройдены: уходит финальное сообщение, серия завершается
	require.Len(t, sender.sent, 1)
	assert.Equal(t, DefaultStopMessage, sender.sent[0])

	seqs := ms.Sequences()
	require.Len(t, seqs, 1)
	assert.Equal(t, model.SequenceStatusStopped, seqs[0].Status)
	require.NotNil(t, seqs[0].StopReason)
	assert.Equal(t, model.StopReasonCompleted, *seqs[0].StopReason)
}

func TestProcessDueStopsWhenClientReplied(t *testing.T) {
	chat := sellerChat()
	client := model.SenderClient
	chat.LastMessageSender = &client

	ms, sender, consumer := seedConsumer(t, activeSequence(0), chat)

	_, err := consumer.ProcessDue(context.Background())
	require.NoError(t, err)

	// Клиент уже ответил: ничего не шлем, серия остановлена
	assert.Empty(t, sender.sent)
	seqs := ms.Sequences()
	require.Len(t, seqs, 1)
	assert.Equal(t, model.SequenceStatusStopped, seqs[0].Status)
	require.NotNil(t, seqs[0].StopReason)
	assert.Equal(t, model.StopReasonClientReplied, *seqs[0].StopReason)
}

func TestProcessDueStopsWhenChatGone(t *testing.T) {
	ms, sender, consumer := seedConsumer(t, activeSequence(0), nil)

	_, err := consumer.ProcessDue(context.Background())
	require.NoError(t, err)

	assert.Empty(t, sender.sent)
	seqs := ms.Sequences()
	require.Len(t, seqs, 1)
	assert.Equal(t, model.SequenceStatusStopped, seqs[0].Status)
	require.NotNil(t, seqs[0].StopReason)
	assert.Equal(t, model.StopReasonManual, *seqs[0].StopReason)
}

func TestProcessDueSendErrorKeepsSequence(t *testing.T) {
	ms, sender, consumer := seedConsumer(t, activeSequence(0), sellerChat())
	sender.err = assert.AnError

	sent, err := consumer.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	// Ошибка отправки не двигает шаг: серия дождется следующей проверки
	seqs := ms.Sequences()
	require.Len(t, seqs, 1)
	assert.Equal(t, model.SequenceStatusActive, seqs[0].Status)
	assert.Equal(t, 0, seqs[0].CurrentStep)
}

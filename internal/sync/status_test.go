package sync

import (
	"testing"

	"sellerdesk/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestNextStatusClientMessage(t *testing.T) {
	tests := []struct {
		name        string
		current     string
		wantChange  bool
		wantClear   bool
	}{
		{"из inbox остаемся в inbox", model.ChatStatusInbox, false, false},
		{"из in_progress в inbox", model.ChatStatusInProgress, true, false},
		{"из awaiting_reply в inbox", model.ChatStatusAwaitingReply, true, false},
		{"из closed в inbox с очисткой причины", model.ChatStatusClosed, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NextStatus(tt.current, model.SenderClient)

			assert.Equal(t, tt.wantChange, tr.ChangeStatus)
			if tt.wantChange {
				assert.Equal(t, model.ChatStatusInbox, tr.NewStatus)
			}
			assert.Equal(t, tt.wantClear, tr.ClearCompletionReason)
			// Ответ клиента всегда останавливает автосерию
			assert.True(t, tr.StopSequence)
		})
	}
}

func TestNextStatusSellerMessage(t *testing.T) {
	tests := []struct {
		name       string
		current    string
		wantChange bool
		wantClear  bool
	}{
		{"из inbox в in_progress", model.ChatStatusInbox, true, false},
		{"из awaiting_reply в in_progress", model.ChatStatusAwaitingReply, true, false},
		{"из in_progress без изменений", model.ChatStatusInProgress, false, false},
		{"из closed в in_progress с очисткой причины", model.ChatStatusClosed, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NextStatus(tt.current, model.SenderSeller)

			assert.Equal(t, tt.wantChange, tr.ChangeStatus)
			if tt.wantChange {
				assert.Equal(t, model.ChatStatusInProgress, tr.NewStatus)
			}
			assert.Equal(t, tt.wantClear, tr.ClearCompletionReason)
			assert.False(t, tr.StopSequence)
		})
	}
}

func TestNextStatusUnknownSender(t *testing.T) {
	tr := NextStatus(model.ChatStatusInbox, "support")
	assert.False(t, tr.ChangeStatus)
	assert.False(t, tr.StopSequence)
}

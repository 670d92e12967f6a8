package classify

import (
	"context"
	"testing"

	"sellerdesk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDeletionIntent(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		candidate  bool
		confidence float64
		trigger    string
	}{
		{"обещание удалить отзыв", "хорошо, удалю отзыв после возврата", true, 0.98, "delete_promise"},
		{"обещание убрать отзыв", "уберу отзыв, если вернете деньги", true, 0.98, "remove_promise"},
		{"обещание изменить отзыв", "изменю отзыв на хороший", true, 0.95, "modify_promise"},
		{"обещание пятерки", "поставлю 5 звезд за компенсацию", true, 0.96, "5star_promise"},
		{"повышу оценку", "повышу оценку после замены", true, 0.94, "raise_rating"},
		{"требование возврата", "верните деньги за товар", true, 0.92, "refund_request"},
		{"компенсация", "какая будет компенсация?", true, 0.85, "compensation"},
		{"кешбэк", "обещали кешбэк за отзыв", true, 0.84, "cashback"},
		{"брак", "пришел брак, что делать", true, 0.82, "defect"},
		{"не работает - ниже порога", "кнопка не работает", false, 0.78, "not_working"},
		{"нейтральный текст", "когда приедет заказ?", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectDeletionIntent(tt.text)

			assert.Equal(t, tt.candidate, result.IsDeletionCandidate)
			assert.InDelta(t, tt.confidence, result.Confidence, 0.001)
			if tt.trigger != "" {
				assert.Contains(t, result.Triggers, tt.trigger)
			} else {
				assert.Empty(t, result.Triggers)
			}
		})
	}
}

func TestDetectDeletionIntentCaseInsensitive(t *testing.T) {
	result := DetectDeletionIntent("Удалю отзыв, без проблем")
	assert.True(t, result.IsDeletionCandidate)
}

func TestDetectDeletionIntentSpamCaps(t *testing.T) {
	result := DetectDeletionIntent("ВЕРНИТЕ ДЕНЬГИ НЕМЕДЛЕННО ИНАЧЕ ЖАЛОБА")

	assert.True(t, result.IsSpam())
	// Спам не попадает в кандидаты, даже если текст содержит триггеры
	assert.False(t, result.IsDeletionCandidate)
	assert.Equal(t, []string{"spam_caps"}, result.Triggers)
}

func TestClassifyWorkflowSkip(t *testing.T) {
	c := New("", 10)
	tag := model.TagDeletionOffered
	chat := &model.Chat{ID: "c1", Tag: &tag}

	result, err := c.Classify(context.Background(), chat, "Клиент: удалю отзыв", "удалю отзыв")
	require.NoError(t, err)
	// Чаты в воронке удаления не переклассифицируются
	assert.Nil(t, result)
}

func TestClassifyShortHistory(t *testing.T) {
	c := New("", 10)
	chat := &model.Chat{ID: "c1"}

	result, err := c.Classify(context.Background(), chat, "", "")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, model.TagUntagged, result.Tag)
}

func TestClassifyRegexFallback(t *testing.T) {
	c := New("", 10)
	chat := &model.Chat{ID: "c1"}
	history := "Клиент: товар ужасный\nПродавец: чем можем помочь?\nКлиент: удалю отзыв за возврат"

	result, err := c.Classify(context.Background(), chat, history, "удалю отзыв за возврат")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, model.TagDeletionCandidate, result.Tag)
	assert.InDelta(t, 0.98, result.Confidence, 0.001)
}

func TestClassifyRegexFallbackNeutral(t *testing.T) {
	c := New("", 10)
	chat := &model.Chat{ID: "c1"}
	history := "Клиент: когда приедет заказ?\nПродавец: завтра"

	result, err := c.Classify(context.Background(), chat, history, "когда приедет заказ?")
	require.NoError(t, err)
	require.NotNil(t, result)
	// Без AI нейтральный диалог получает active с низкой уверенностью
	assert.Equal(t, model.TagActive, result.Tag)
	assert.InDelta(t, 0.5, result.Confidence, 0.001)
}

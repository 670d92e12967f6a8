package sequence

import (
	"testing"

	"sellerdesk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestDefaultTemplates(t *testing.T) {
	for _, seqType := range []string{
		model.SequenceTypeNoReply,
		model.SequenceTypeNoReply4Star,
		model.SequenceTypeOzonNoReply,
		model.SequenceTypeOzonNoReply4Star,
	} {
		templates := TemplatesFor(seqType, nil)
		require.Len(t, templates, 14, seqType)

		// Дни идут подряд с единицы, тексты непустые
		for i, step := range templates {
			assert.Equal(t, i+1, step.Day, seqType)
			assert.NotEmpty(t, step.Text, seqType)
		}
	}
}

func TestTemplatesForFamilies(t *testing.T) {
	negative := TemplatesFor(model.SequenceTypeNoReply, nil)
	fourStar := TemplatesFor(model.SequenceTypeNoReply4Star, nil)
	assert.NotEqual(t, negative[0].Text, fourStar[0].Text)

	// OZON-семейства пока используют общие тексты
	assert.Equal(t, negative, TemplatesFor(model.SequenceTypeOzonNoReply, nil))
	assert.Equal(t, fourStar, TemplatesFor(model.SequenceTypeOzonNoReply4Star, nil))
}

func TestTemplatesForUserOverride(t *testing.T) {
	settings := &model.UserSettings{
		OwnerID:         "o1",
		NoReplyMessages: []model.SequenceMessage{{Day: 1, Text: "свой текст"}},
	}

	templates := TemplatesFor(model.SequenceTypeNoReply, settings)
	require.Len(t, templates, 1)
	assert.Equal(t, "свой текст", templates[0].Text)

	// Дополнительная ветка не задана - остаются встроенные шаблоны
	assert.Len(t, TemplatesFor(model.SequenceTypeNoReply4Star, settings), 14)
}

func TestStopMessageFor(t *testing.T) {
	assert.Equal(t, DefaultStopMessage, StopMessageFor(model.SequenceTypeNoReply, nil))
	assert.Equal(t, DefaultStopMessage4Star, StopMessageFor(model.SequenceTypeNoReply4Star, nil))
	assert.Equal(t, DefaultStopMessage4Star, StopMessageFor(model.SequenceTypeOzonNoReply4Star, nil))

	settings := &model.UserSettings{
		OwnerID:             "o1",
		NoReplyStopMessage:  strPtr("свое финальное сообщение"),
		NoReplyStopMessage2: strPtr(""),
	}
	assert.Equal(t, "свое финальное сообщение", StopMessageFor(model.SequenceTypeNoReply, settings))
	// Пустая строка не считается переопределением
	assert.Equal(t, DefaultStopMessage4Star, StopMessageFor(model.SequenceTypeNoReply4Star, settings))
}

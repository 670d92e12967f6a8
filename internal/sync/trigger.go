package sync

import (
	"strings"

	"sellerdesk/internal/model"
	"sellerdesk/internal/sequence"
)

// TriggerMatch результат детектора триггерных фраз
type TriggerMatch struct {
	Matched  bool
	FourStar bool // Сработала только дополнительная фраза (четырехзвездочная ветка)
}

// TriggerPhrases возвращает действующие триггерные фразы владельца.
// Дополнительная фраза выключена, пока явно не задана в настройках.
func TriggerPhrases(settings *model.UserSettings) (primary, secondary string) {
	primary = sequence.DefaultTriggerPhrase
	if settings != nil && settings.NoReplyTriggerPhrase != nil && *settings.NoReplyTriggerPhrase != "" {
		primary = *settings.NoReplyTriggerPhrase
	}
	if settings != nil && settings.NoReplyTriggerPhrase2 != nil && *settings.NoReplyTriggerPhrase2 != "" {
		secondary = *settings.NoReplyTriggerPhrase2
	}
	return primary, secondary
}

// DetectTrigger проверяет новые сообщения продавца на вхождение триггерных
// фраз. Основная фраза имеет приоритет над дополнительной, если совпали обе.
func DetectTrigger(newSellerTexts []string, primary, secondary string) TriggerMatch {
	primaryHit := false
	secondaryHit := false

	for _, text := range newSellerTexts {
		if primary != "" && strings.Contains(text, primary) {
			primaryHit = true
		}
		if secondary != "" && strings.Contains(text, secondary) {
			secondaryHit = true
		}
	}

	if primaryHit {
		return TriggerMatch{Matched: true}
	}
	if secondaryHit {
		return TriggerMatch{Matched: true, FourStar: true}
	}
	return TriggerMatch{}
}

// inDeletionWorkflow возвращает true, если чат уже в воронке удаления отзыва.
// Такие чаты не перезапускаются триггером повторно.
func inDeletionWorkflow(tag *string) bool {
	if tag == nil {
		return false
	}
	for _, t := range model.DeletionWorkflowTags {
		if *tag == t {
			return true
		}
	}
	return false
}

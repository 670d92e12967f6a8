// Пакет classify отвечает за классификацию диалогов для воронки удаления
// негативных отзывов. Быстрый путь - regex-детектор по последнему сообщению
// клиента, сложные случаи уходят во внешний AI классификатор, если он настроен.
package classify

import (
	"regexp"
	"strings"
)

// DeletionIntent результат regex-анализа сообщения
type DeletionIntent struct {
	IsDeletionCandidate bool
	Confidence          float64
	Triggers            []string
}

// IsSpam возвращает true, если сообщение похоже на спам
func (d *DeletionIntent) IsSpam() bool {
	for _, t := range d.Triggers {
		if t == "spam_caps" {
			return true
		}
	}
	return false
}

type rule struct {
	re         *regexp.Regexp
	trigger    string
	confidence float64
}

// Правила упорядочены по убыванию уверенности: прямые обещания удалить
// или исправить отзыв, обещания оценки, запросы компенсации, негатив.
var rules = []rule{
	{regexp.MustCompile(`удал[юуьа]\s*отзыв`), "delete_promise", 0.98},
	{regexp.MustCompile(`убер[уюа]\s*отзыв`), "remove_promise", 0.98},
	{regexp.MustCompile(`измен[юуьа]\s*отзыв`), "modify_promise", 0.95},
	{regexp.MustCompile(`исправл[юуьа]\s*отзыв`), "fix_promise", 0.95},

	{regexp.MustCompile(`поставл[юуьа]\s*5`), "5star_promise", 0.96},
	{regexp.MustCompile(`измен[юуьа].*5`), "change_to_5", 0.96},
	{regexp.MustCompile(`повыш[уюа]\s*оценк`), "raise_rating", 0.94},

	{regexp.MustCompile(`верните\s*деньги`), "refund_request", 0.92},
	{regexp.MustCompile(`хочу\s*возврат`), "want_refund", 0.90},
	{regexp.MustCompile(`компенсаци`), "compensation", 0.85},
	{regexp.MustCompile(`кешб[эе]к`), "cashback", 0.84},

	{regexp.MustCompile(`(верн[иьа]те.*деньги|возврат).*(удал|измен|убер).*отзыв`), "money_plus_deletion", 0.96},
	{regexp.MustCompile(`(если|при условии).*(поставл[юуьа]|измен[юуьа]).*5`), "condition_5stars", 0.94},

	{regexp.MustCompile(`брак`), "defect", 0.82},
	{regexp.MustCompile(`дефект`), "defect", 0.82},
	{regexp.MustCompile(`не\s*работает`), "not_working", 0.78},
}

// Анти-паттерн: длинный текст капсом почти всегда спам или накрутка
var spamCaps = regexp.MustCompile(`[А-ЯЁ\s]{10,}`)

// DetectDeletionIntent анализирует текст сообщения клиента и возвращает
// оценку намерения удалить или исправить отзыв. Кандидатом считается
// сообщение с уверенностью от 0.80.
func DetectDeletionIntent(messageText string) DeletionIntent {
	if spamCaps.MatchString(messageText) {
		return DeletionIntent{Triggers: []string{"spam_caps"}}
	}

	text := strings.ToLower(messageText)

	var result DeletionIntent
	for _, r := range rules {
		if r.re.MatchString(text) {
			result.Triggers = append(result.Triggers, r.trigger)
			if r.confidence > result.Confidence {
				result.Confidence = r.confidence
			}
		}
	}

	result.IsDeletionCandidate = result.Confidence >= 0.80
	return result
}

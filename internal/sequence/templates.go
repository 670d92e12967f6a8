// Пакет sequence реализует автосерии: многодневные цепочки напоминаний
// клиенту, который не ответил на первое сообщение продавца. Серия создается
// триггером, шаги отправляются раз в день в рабочие часы, любой ответ
// клиента останавливает серию.
package sequence

import "sellerdesk/internal/model"

// DefaultTriggerPhrase фраза первого обращения продавца. Сообщение продавца,
// содержащее эту фразу, помечает чат кандидатом на удаление отзыва и
// запускает автосерию. Переопределяется настройками владельца.
const DefaultTriggerPhrase = "Здравствуйте! Мы увидели ваш отзыв и хотели бы узнать подробнее — расскажите, пожалуйста, что именно вас расстроило?"

// DefaultStopMessage финальное сообщение после 14 дней без ответа
const DefaultStopMessage = `Здравствуйте! Мы так и не получили от вас ответа, но хотим, чтобы вы знали — ваш отзыв не остался без внимания.

Мы уже учли обратную связь по этому товару и работаем над улучшениями. Если в будущем захотите вернуться к разговору — мы всегда на связи.

Спасибо, что нашли время поделиться впечатлениями. Хорошего дня!`

// DefaultStopMessage4Star финальное сообщение ветки четырехзвездочных отзывов
const DefaultStopMessage4Star = `Здравствуйте! Видим, что вы не смогли ответить — ничего страшного.

Мы рады, что в целом товар вам понравился, и благодарны за честную оценку. Если когда-нибудь захотите рассказать, чего не хватило — пишите, мы всегда открыты.

Хорошего дня!`

// Шаблоны по умолчанию для негативных отзывов (1-3 звезды).
// Три фазы по нарастающей: выяснение, эмпатия, предложение решения.
var defaultTemplates = []model.SequenceMessage{
	// Фаза 1: выясняем, что случилось (день 1-4)
	{Day: 1, Text: "Здравствуйте! Мы увидели ваш отзыв и хотели бы разобраться. Расскажите, пожалуйста, что именно пошло не так?"},
	{Day: 2, Text: "Добрый день! Нам важно понять вашу ситуацию. Что именно вас расстроило в товаре? Мы хотим помочь."},
	{Day: 3, Text: "Здравствуйте! Мы не торопим с ответом — просто хотим убедиться, что вы знаете: мы готовы разобраться в ситуации."},
	{Day: 4, Text: "Добрый день! Мы по-прежнему хотим понять, что произошло. Ваша обратная связь поможет нам стать лучше."},
	// Фаза 2: эмпатия и готовность помочь (день 5-9)
	{Day: 5, Text: "Здравствуйте! Мы видим, что вы не смогли ответить — ничего страшного. Если товар не оправдал ожиданий, мы хотим это исправить."},
	{Day: 6, Text: "Добрый день! Мы относимся к каждому отзыву серьёзно. Если есть проблема — мы готовы предложить решение."},
	{Day: 7, Text: "Здравствуйте! Мы по-прежнему на связи и хотим помочь. Напишите, когда будет удобно — мы подстроимся."},
	{Day: 8, Text: "Добрый день! Мы понимаем, что у всех свои дела. Просто знайте — мы готовы помочь в любой момент."},
	{Day: 9, Text: "Здравствуйте! Напоминаем о себе. Мы по-прежнему хотим найти решение, которое вас устроит."},
	// Фаза 3: предложение и закрытие (день 10-14)
	{Day: 10, Text: "Добрый день! Мы готовы предложить компенсацию за доставленные неудобства. Напишите — и мы обсудим детали."},
	{Day: 11, Text: "Здравствуйте! Наше предложение помочь по-прежнему актуально. Мы хотим исправить ситуацию со своей стороны."},
	{Day: 12, Text: "Добрый день! Скоро мы закроем это обращение. Если хотите обсудить компенсацию — напишите нам."},
	{Day: 13, Text: "Здравствуйте! Это предпоследнее сообщение. Мы по-прежнему готовы к диалогу и хотим помочь."},
	{Day: 14, Text: "Добрый день! Мы закрываем обращение. Если в будущем захотите вернуться к разговору — мы на связи. Спасибо!"},
}

// Шаблоны по умолчанию для четырехзвездочных отзывов: без компенсаций,
// только выяснение, чего не хватило до пятерки.
var defaultTemplates4Star = []model.SequenceMessage{
	// Фаза 1: мягкое любопытство (день 1-4)
	{Day: 1, Text: "Здравствуйте! Спасибо за вашу оценку! Нам интересно — чего не хватило до идеала? Может, что-то можно было сделать лучше?"},
	{Day: 2, Text: "Добрый день! Мы видим, что товар вам скорее понравился, но что-то всё же смутило. Расскажете? Нам правда важно это понять."},
	{Day: 3, Text: "Здравствуйте! Возможно, дело в упаковке, комплектации или чём-то ещё? Мы хотим разобраться, чтобы стать лучше."},
	{Day: 4, Text: "Добрый день! Мы не торопим — просто хотели напомнить, что нам интересно ваше мнение. Что бы вы улучшили?"},
	// Фаза 2: теплота и предложение помощи (день 5-9)
	{Day: 5, Text: "Здравствуйте! Мы ценим, что вы нашли время оставить отзыв. Если что-то в товаре не устроило — мы готовы помочь это исправить."},
	{Day: 6, Text: "Добрый день! Хотели сказать — мы серьёзно относимся к каждому отзыву. Если есть что-то, что мы можем сделать для вас — напишите."},
	{Day: 7, Text: "Здравствуйте! Мы по-прежнему на связи. Если обнаружите, что с товаром что-то не так — обращайтесь, мы поможем."},
	{Day: 8, Text: "Добрый день! Просто напоминаем, что мы готовы бесплатно помочь с любым вопросом по товару. Ваше мнение для нас важно."},
	{Day: 9, Text: "Здравствуйте! Если у вас не было времени ответить — ничего страшного. Мы подождём, когда будет удобно."},
	// Фаза 3: мягкое закрытие (день 10-14)
	{Day: 10, Text: "Добрый день! Мы всё ещё рады помочь, если что-то в товаре можно улучшить. Напишите — и мы предложим решение."},
	{Day: 11, Text: "Здравствуйте! Наше предложение помочь по-прежнему в силе. Мы хотим, чтобы вы остались довольны покупкой."},
	{Day: 12, Text: "Добрый день! Скоро мы закроем это обращение, но если вы захотите обсудить товар — мы будем рады."},
	{Day: 13, Text: "Здравствуйте! Это предпоследнее сообщение от нас. Если есть что сказать — мы внимательно слушаем."},
	{Day: 14, Text: "Добрый день! Мы закрываем обращение, но если в будущем захотите вернуться к разговору — пишите. Спасибо за ваше время!"},
}

// TemplatesFor возвращает шаблоны серии для семейства с учетом
// пользовательских настроек. OZON-семейства используют общие шаблоны,
// пока для них не появятся отдельные тексты.
func TemplatesFor(sequenceType string, settings *model.UserSettings) []model.SequenceMessage {
	switch sequenceType {
	case model.SequenceTypeNoReply4Star, model.SequenceTypeOzonNoReply4Star:
		if settings != nil && len(settings.NoReplyMessages2) > 0 {
			return settings.NoReplyMessages2
		}
		return defaultTemplates4Star
	default:
		if settings != nil && len(settings.NoReplyMessages) > 0 {
			return settings.NoReplyMessages
		}
		return defaultTemplates
	}
}

// StopMessageFor возвращает финальное сообщение серии с учетом настроек
func StopMessageFor(sequenceType string, settings *model.UserSettings) string {
	switch sequenceType {
	case model.SequenceTypeNoReply4Star, model.SequenceTypeOzonNoReply4Star:
		if settings != nil && settings.NoReplyStopMessage2 != nil && *settings.NoReplyStopMessage2 != "" {
			return *settings.NoReplyStopMessage2
		}
		return DefaultStopMessage4Star
	default:
		if settings != nil && settings.NoReplyStopMessage != nil && *settings.NoReplyStopMessage != "" {
			return *settings.NoReplyStopMessage
		}
		return DefaultStopMessage
	}
}

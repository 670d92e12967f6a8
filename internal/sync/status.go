package sync

import "sellerdesk/internal/model"

// Transition решение машины статусов для одного чата
type Transition struct {
	ChangeStatus          bool
	NewStatus             string
	ClearCompletionReason bool
	StopSequence          bool // Остановить активную автосерию (клиент ответил)
}

// NextStatus чистая функция перехода статуса чата. Вычисляется один раз
// за проход по самому новому сообщению чата:
//
//	клиент пишет        -> inbox (из любого статуса кроме inbox)
//	продавец из closed  -> in_progress
//	продавец из inbox или awaiting_reply -> in_progress
//	продавец из in_progress -> без изменений
//
// Причина закрытия очищается при любом выходе из closed. Статус
// awaiting_reply выставляет только детектор триггеров, не машина.
func NextStatus(current, newestSender string) Transition {
	switch newestSender {
	case model.SenderClient:
		t := Transition{StopSequence: true}
		if current != model.ChatStatusInbox {
			t.ChangeStatus = true
			t.NewStatus = model.ChatStatusInbox
			t.ClearCompletionReason = current == model.ChatStatusClosed
		}
		return t

	case model.SenderSeller:
		switch current {
		case model.ChatStatusClosed:
			return Transition{ChangeStatus: true, NewStatus: model.ChatStatusInProgress, ClearCompletionReason: true}
		case model.ChatStatusInbox, model.ChatStatusAwaitingReply:
			return Transition{ChangeStatus: true, NewStatus: model.ChatStatusInProgress}
		}
	}

	return Transition{}
}

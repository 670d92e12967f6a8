package sequence

import (
	"math/rand"
	"time"
)

// Слоты отправки по московскому времени с весами. Утренние часы весят
// больше: ответы клиентов приходят днем, когда менеджеры на месте.
// Сумма весов равна 100.
var sendSlots = []struct {
	Hour   int
	Weight int
}{
	{10, 15},
	{11, 15},
	{12, 15},
	{13, 15},
	{14, 10},
	{15, 10},
	{16, 10},
	{17, 10},
}

// NextSlotTime выбирает случайный слот на завтра по взвешенному
// распределению. tzShift - смещение московского времени относительно UTC.
// Генератор случайных чисел передается параметром ради детерминизма в тестах.
func NextSlotTime(now time.Time, rng *rand.Rand, tzShift int) time.Time {
	totalWeight := 0
	for _, s := range sendSlots {
		totalWeight += s.Weight
	}

	pick := rng.Intn(totalWeight)
	selectedHour := sendSlots[0].Hour
	for _, slot := range sendSlots {
		pick -= slot.Weight
		if pick < 0 {
			selectedHour = slot.Hour
			break
		}
	}

	// Случайная минута внутри часа, чтобы отправки не сбивались в пачку
	minute := rng.Intn(60)

	tomorrow := now.UTC().AddDate(0, 0, 1)
	return time.Date(
		tomorrow.Year(), tomorrow.Month(), tomorrow.Day(),
		selectedHour-tzShift, minute, 0, 0, time.UTC,
	)
}

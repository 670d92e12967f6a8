package sequence

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextSlotTimeWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	now := time.Date(2026, 8, 28, 23, 30, 0, 0, time.UTC)

	for i := 0; i < 500; i++ {
		slot := NextSlotTime(now, rng, 3)

		// Всегда завтра
		assert.Equal(t, 2026, slot.Year())
		assert.Equal(t, time.August, slot.Month())
		assert.Equal(t, 29, slot.Day())

		// Рабочее окно 10:00-17:59 по МСК
		mskHour := slot.Hour() + 3
		assert.GreaterOrEqual(t, mskHour, 10)
		assert.LessOrEqual(t, mskHour, 17)

		assert.GreaterOrEqual(t, slot.Minute(), 0)
		assert.LessOrEqual(t, slot.Minute(), 59)
		assert.Zero(t, slot.Second())
	}
}

func TestNextSlotTimeWeightsFavorMorning(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	morning, afternoon := 0, 0
	for i := 0; i < 2000; i++ {
		slot := NextSlotTime(now, rng, 3)
		if slot.Hour()+3 <= 13 {
			morning++
		} else {
			afternoon++
		}
	}

	// Утренние слоты весят 60 из 100, разница должна быть заметной
	assert.Greater(t, morning, afternoon)
}

func TestNextSlotTimeDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	a := NextSlotTime(now, rand.New(rand.NewSource(1)), 3)
	b := NextSlotTime(now, rand.New(rand.NewSource(1)), 3)
	assert.Equal(t, a, b)
}

package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/leapcal/internal/calendar"
)

func TestFixedClock_StartsAtMidnight(t *testing.T) {
	day := calendar.FromYMD(2025, 6, 28)
	clock := NewFixedClock(day)
	assert.Equal(t, time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC), clock.Now())
	assert.Equal(t, day, clock.Today())
}

func TestFixedClock_Advance(t *testing.T) {
	clock := NewFixedClock(calendar.FromYMD(2016, 12, 31))

	clock.Advance(23 * time.Hour)
	assert.Equal(t, calendar.FromYMD(2016, 12, 31), clock.Today())

	clock.Advance(time.Hour)
	assert.Equal(t, calendar.FromYMD(2017, 1, 1), clock.Today())
}

func TestFixedClock_Set(t *testing.T) {
	clock := NewFixedClock(calendar.FromYMD(2000, 1, 1))
	clock.Set(calendar.Epoch)
	assert.Equal(t, calendar.Epoch, clock.Today())
}

func TestFixedClock_ThreadSafe(t *testing.T) {
	clock := NewFixedClock(calendar.FromYMD(2000, 1, 1))
	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			clock.Advance(time.Hour)
			_ = clock.Today()
		}()
	}
	wg.Wait()

	assert.Equal(t, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(numGoroutines*time.Hour), clock.Now())
}

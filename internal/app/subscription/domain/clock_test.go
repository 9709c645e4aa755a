package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestZonedClock_TodayFollowsZone(t *testing.T) {
	// 23:30 UTC on Jan 1 is already Jan 2 in UTC+1
	utc := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)
	lagos := time.FixedZone("WAT", 60*60)

	clock := ZonedClock{Clock: FixedClock{FixedTime: utc}, Location: lagos}

	assert.Equal(t, date(2024, 1, 2), Today(clock.Now()))
	assert.True(t, clock.Now().Equal(utc))
}

func TestZonedClock_NilLocation(t *testing.T) {
	utc := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)
	clock := ZonedClock{Clock: FixedClock{FixedTime: utc}}

	assert.Equal(t, date(2024, 1, 1), Today(clock.Now()))
}

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAverageCompletionHours(t *testing.T) {
	start := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, 0.0, AverageCompletionHours(nil))

	assert.Equal(t, 2.0, AverageCompletionHours([]CompletionSpan{
		{CreatedAt: start, CompletedAt: start.Add(2 * time.Hour)},
	}))

	assert.Equal(t, 3.0, AverageCompletionHours([]CompletionSpan{
		{CreatedAt: start, CompletedAt: start.Add(2 * time.Hour)},
		{CreatedAt: start, CompletedAt: start.Add(4 * time.Hour)},
	}))

	assert.Equal(t, 0.33, AverageCompletionHours([]CompletionSpan{
		{CreatedAt: start, CompletedAt: start.Add(20 * time.Minute)},
	}))
}

func TestRepairLogDuration(t *testing.T) {
	start := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	log := RepairLog{StartedAt: start}
	assert.Nil(t, log.Duration())

	done := start.Add(90 * time.Minute)
	log.CompletedAt = &done
	if assert.NotNil(t, log.Duration()) {
		assert.Equal(t, 1.5, *log.Duration())
	}
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func worker(id string, cat Category, loc string, available bool) WorkerProfile {
	return WorkerProfile{
		WorkerID:     id,
		Categories:   []Category{cat},
		LocationKeys: []string{loc},
		Available:    available,
	}
}

func cleaningJob(loc string) *JobRequest {
	return &JobRequest{
		ID:           "job-1",
		Category:     CategoryCleaning,
		LocationKey:  loc,
		PayTerms:     "2000 fixed",
		ScheduledFor: time.Now().Add(2 * time.Hour),
		RequesterID:  "req-1",
	}
}

func TestMatchCategoryAndLocation(t *testing.T) {
	m := NewMatcher()
	workers := []WorkerProfile{
		worker("w1", CategoryCleaning, "tver", true),
		worker("w2", CategoryCleaning, "moscow", true),  // wrong location
		worker("w3", CategoryPlumbing, "tver", true),    // wrong category
		worker("w4", CategoryCleaning, "tver", false),   // unavailable
	}

	got := m.Match(cleaningJob("tver"), workers)
	assert.Equal(t, []string{"w1"}, got)
}

func TestMatchEmptyResultIsNormal(t *testing.T) {
	m := NewMatcher()
	got := m.Match(cleaningJob("tver"), nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMatchDeterministicOrder(t *testing.T) {
	m := NewMatcher()
	workers := []WorkerProfile{
		worker("w3", CategoryCleaning, "tver", true),
		worker("w1", CategoryCleaning, "tver", true),
		worker("w2", CategoryCleaning, "tver", true),
	}
	job := cleaningJob("tver")

	first := m.Match(job, workers)
	assert.Equal(t, []string{"w1", "w2", "w3"}, first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, m.Match(job, workers))
	}
}

func TestMatchMultiCategoryWorker(t *testing.T) {
	m := NewMatcher()
	w := WorkerProfile{
		WorkerID:     "w1",
		Categories:   []Category{CategoryLoader, CategoryCleaning},
		LocationKeys: []string{"moscow", "tver"},
		Available:    true,
	}
	got := m.Match(cleaningJob("tver"), []WorkerProfile{w})
	assert.Equal(t, []string{"w1"}, got)
}

func TestExactLocationNormalizes(t *testing.T) {
	assert.True(t, ExactLocation("Tver", []string{"tver"}))
	assert.True(t, ExactLocation("  tver ", []string{"TVER"}))
	assert.False(t, ExactLocation("tver", []string{"tve"}))
	assert.False(t, ExactLocation("velikiy novgorod", []string{"novgorod"}))
}

func TestContainsLocation(t *testing.T) {
	// The substring predicate reproduces the source behavior, including
	// its ambiguity for nested names.
	assert.True(t, ContainsLocation("tver, lenina 5", []string{"tver"}))
	assert.False(t, ContainsLocation("moscow, arbat 1", []string{"tver"}))
	assert.False(t, ContainsLocation("anywhere", []string{""}))
}

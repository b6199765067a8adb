package domain

import (
	"sort"
	"strings"
)

// LocationMatcher decides whether a job's location key is covered by a
// worker's location tokens. The predicate is pluggable so deployments can
// swap token equality for substring or geo-radius matching without touching
// the coordinator.
type LocationMatcher func(jobLocation string, workerLocations []string) bool

// NormalizeLocation lowercases and collapses a location token.
func NormalizeLocation(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ExactLocation matches when the job's normalized key equals one of the
// worker's normalized tokens. This is the default predicate.
func ExactLocation(jobLocation string, workerLocations []string) bool {
	key := NormalizeLocation(jobLocation)
	for _, loc := range workerLocations {
		if NormalizeLocation(loc) == key {
			return true
		}
	}
	return false
}

// ContainsLocation matches when one of the worker's tokens appears inside
// the job's location key. Kept for deployments that feed free-text
// addresses; ambiguous for city names contained in other names.
func ContainsLocation(jobLocation string, workerLocations []string) bool {
	key := NormalizeLocation(jobLocation)
	for _, loc := range workerLocations {
		tok := NormalizeLocation(loc)
		if tok != "" && strings.Contains(key, tok) {
			return true
		}
	}
	return false
}

// Matcher computes the eligible worker set for a job from a directory
// snapshot. Matching is category AND location over available workers only.
type Matcher struct {
	Location LocationMatcher
}

// NewMatcher returns a Matcher with the default exact-token location
// predicate.
func NewMatcher() Matcher {
	return Matcher{Location: ExactLocation}
}

// Match returns the worker ids eligible for the job, sorted for
// reproducibility. An empty result is a normal outcome, not an error.
func (m Matcher) Match(job *JobRequest, workers []WorkerProfile) []string {
	loc := m.Location
	if loc == nil {
		loc = ExactLocation
	}

	eligible := make([]string, 0, len(workers))
	for i := range workers {
		w := &workers[i]
		if !w.Available {
			continue
		}
		if !w.HasCategory(job.Category) {
			continue
		}
		if !loc(job.LocationKey, w.LocationKeys) {
			continue
		}
		eligible = append(eligible, w.WorkerID)
	}
	sort.Strings(eligible)
	return eligible
}

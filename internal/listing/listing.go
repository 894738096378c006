// Package listing matches domain selectors against the university list and
// orders the list for the selection view.
package listing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"collegedecision/internal/datespec"
	"collegedecision/internal/decision"
	"collegedecision/internal/model"
)

// ErrNotFound is returned when a selector matches no record.
var ErrNotFound = errors.New("university not found")

// PopularDomains is the hand-curated popularity order used when explicit
// priorities do not decide a comparison.
var PopularDomains = []string{
	"harvard.edu",
	"stanford.edu",
	"mit.edu",
	"yale.edu",
	"princeton.edu",
	"columbia.edu",
	"upenn.edu",
	"cornell.edu",
	"dartmouth.edu",
	"brown.edu",
	"berkeley.edu",
	"ucla.edu",
	"uchicago.edu",
	"duke.edu",
	"northwestern.edu",
	"caltech.edu",
}

// NormalizeDomain strips scheme, a leading www., trailing slashes and
// surrounding whitespace, and lowercases the rest.
func NormalizeDomain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimRight(s, "/")
	return strings.TrimSpace(s)
}

// FindByDomain returns the first record whose domain matches the normalized
// selector.
func FindByDomain(list []model.University, selector string) (model.University, error) {
	want := NormalizeDomain(selector)
	if want != "" {
		for _, u := range list {
			if strings.EqualFold(NormalizeDomain(u.Domain), want) {
				return u, nil
			}
		}
	}
	return model.University{}, fmt.Errorf("%w: %q", ErrNotFound, selector)
}

// Sorter orders universities for display. Build one with NewSorter.
type Sorter struct {
	rank map[string]int
}

// NewSorter builds a sorter with a custom popularity order. An empty list
// falls back to PopularDomains.
func NewSorter(popular []string) *Sorter {
	if len(popular) == 0 {
		popular = PopularDomains
	}
	rank := make(map[string]int, len(popular))
	for i, d := range popular {
		d = NormalizeDomain(d)
		if _, dup := rank[d]; !dup {
			rank[d] = i
		}
	}
	return &Sorter{rank: rank}
}

var defaultSorter = NewSorter(nil)

// Sort orders list for the selection view using the default popularity
// order. The input slice is not modified.
func Sort(list []model.University, now time.Time) []model.University {
	return defaultSorter.Sort(list, now)
}

type sortKey struct {
	passed  bool
	prio    *int
	popular int // -1 when not popular
	day     time.Time
	dayOK   bool
}

// Sort orders list in three tiers: not-passed before passed, then explicit
// priority / popularity, then regular calendar date. Ties keep input order.
func (s *Sorter) Sort(list []model.University, now time.Time) []model.University {
	out := make([]model.University, len(list))
	copy(out, list)

	idx := make([]int, len(out))
	ks := make([]sortKey, len(out))
	for i := range out {
		idx[i] = i
		ks[i] = s.key(out[i], now)
	}

	sort.SliceStable(idx, func(a, b int) bool {
		return s.less(ks[idx[a]], ks[idx[b]])
	})

	sorted := make([]model.University, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

func (s *Sorter) key(u model.University, now time.Time) sortKey {
	k := sortKey{
		passed:  decision.Classify(u, now).IsPassed,
		prio:    u.Priority,
		popular: -1,
	}
	if r, ok := s.rank[NormalizeDomain(u.Domain)]; ok {
		k.popular = r
	}
	if d, err := datespec.Day(u.NotificationRegular); err == nil {
		k.day, k.dayOK = d, true
	}
	return k
}

func (s *Sorter) less(a, b sortKey) bool {
	if a.passed != b.passed {
		return !a.passed
	}

	switch {
	case a.prio != nil && b.prio != nil:
		if *a.prio != *b.prio {
			return *a.prio < *b.prio
		}
	case a.prio != nil:
		return true
	case b.prio != nil:
		return false
	default:
		ap, bp := a.popular >= 0, b.popular >= 0
		if ap != bp {
			return ap
		}
		if ap && a.popular != b.popular {
			return a.popular < b.popular
		}
	}

	if a.dayOK != b.dayOK {
		return a.dayOK
	}
	if a.dayOK && !a.day.Equal(b.day) {
		return a.day.Before(b.day)
	}
	return false
}

package listing

import (
	"collegedecision/internal/model"
	"collegedecision/internal/suggest"
)

// Conflict returns the record in list that candidate collides with. Two
// records collide when their normalized domains are equal or their
// normalized names are equal.
func Conflict(list []model.University, candidate model.University) (model.University, bool) {
	domain := NormalizeDomain(candidate.Domain)
	name := suggest.NormalizeName(candidate.Name)
	for _, u := range list {
		if domain != "" && NormalizeDomain(u.Domain) == domain {
			return u, true
		}
		if name != "" && suggest.NormalizeName(u.Name) == name {
			return u, true
		}
	}
	return model.University{}, false
}

// Merge appends custom records to the static list. Static records win: a
// custom record that collides with a static one, or with an earlier custom
// one, is skipped. The static slice is never modified.
func Merge(static, custom []model.University) []model.University {
	out := make([]model.University, 0, len(static)+len(custom))
	out = append(out, static...)
	for _, c := range custom {
		if _, clash := Conflict(out, c); clash {
			continue
		}
		c.Custom = true
		out = append(out, c)
	}
	return out
}

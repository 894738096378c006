package ics

import (
	"collegedecision/internal/datespec"
	"collegedecision/internal/model"
)

// Universities rebuilds university records from events written by Export.
// Events without a domain are ignored; early and regular events of the same
// domain are folded into one record. Records keep first-seen order.
func Universities(events []Event) []model.University {
	byDomain := make(map[string]*model.University)
	order := make([]string, 0)

	for _, ev := range events {
		if ev.Domain == "" || (ev.Kind != KindEarly && ev.Kind != KindRegular) {
			continue
		}
		u, ok := byDomain[ev.Domain]
		if !ok {
			u = &model.University{Name: ev.Name, Domain: ev.Domain}
			if u.Name == "" {
				u.Name = ev.Domain
			}
			byDomain[ev.Domain] = u
			order = append(order, ev.Domain)
		}

		date := datespec.Format(ev.Start)
		switch ev.Kind {
		case KindEarly:
			u.NotificationEarly = date
			u.ShowEarly = true
		case KindRegular:
			u.NotificationRegular = date
			u.Time = clockOf(ev.Start)
		}
	}

	out := make([]model.University, 0, len(order))
	for _, d := range order {
		u := *byDomain[d]
		if u.NotificationRegular == "" {
			continue
		}
		out = append(out, u)
	}
	return out
}

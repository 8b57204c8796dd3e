package domain

import (
	"sort"
	"time"
)

type ThreadGroups struct {
	Today     []Thread `json:"today"`
	Yesterday []Thread `json:"yesterday"`
	Last7Days []Thread `json:"last7days"`
	Older     []Thread `json:"older"`
}

// GroupThreads reparte los threads por antigüedad de updatedAt respecto a now.
// Los días se cortan a medianoche en la zona de now.
func GroupThreads(threads []Thread, now time.Time) ThreadGroups {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	yesterday := today.AddDate(0, 0, -1)
	sevenDaysAgo := today.AddDate(0, 0, -7)

	groups := ThreadGroups{
		Today:     []Thread{},
		Yesterday: []Thread{},
		Last7Days: []Thread{},
		Older:     []Thread{},
	}
	for _, t := range threads {
		updated := t.UpdatedAt.In(loc)
		day := time.Date(updated.Year(), updated.Month(), updated.Day(), 0, 0, 0, 0, loc)
		switch {
		case day.Equal(today):
			groups.Today = append(groups.Today, t)
		case day.Equal(yesterday):
			groups.Yesterday = append(groups.Yesterday, t)
		case !updated.Before(sevenDaysAgo):
			groups.Last7Days = append(groups.Last7Days, t)
		default:
			groups.Older = append(groups.Older, t)
		}
	}
	for _, g := range [][]Thread{groups.Today, groups.Yesterday, groups.Last7Days, groups.Older} {
		sort.SliceStable(g, func(i, j int) bool {
			return g[i].UpdatedAt.After(g[j].UpdatedAt)
		})
	}
	return groups
}

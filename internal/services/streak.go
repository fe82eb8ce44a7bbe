package services

import (
	"sort"
	"time"
)

type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// ComputeStreaks measures runs of consecutive calendar days in days.
// Duplicates collapse to one day. Current is the length of the run ending on
// today; when today has no activity it is 0 even if yesterday extends a run.
func ComputeStreaks(days []time.Time, today time.Time) Streak {
	if len(days) == 0 {
		return Streak{}
	}
	seen := make(map[time.Time]struct{}, len(days))
	unique := make([]time.Time, 0, len(days))
	for _, d := range days {
		c := civil(d)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].Before(unique[j]) })

	todayDay := civil(today)
	var st Streak
	run := 0
	for i, d := range unique {
		if i > 0 && unique[i-1].AddDate(0, 0, 1).Equal(d) {
			run++
		} else {
			run = 1
		}
		if run > st.Longest {
			st.Longest = run
		}
		if d.Equal(todayDay) {
			st.Current = run
		}
	}
	return st
}

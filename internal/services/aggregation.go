package services

import (
	"sort"
	"time"
)

type DayPoints struct {
	Date   string `json:"date"`
	Points int    `json:"points"`
}

type WeekPoints struct {
	WeekStart string `json:"week_start"`
	Points    int    `json:"points"`
}

type AutonomyPoint struct {
	Date  string  `json:"date"`
	Score float64 `json:"score"`
}

type KindCount struct {
	Type  EntryKind `json:"type"`
	Count int       `json:"count"`
}

// TotalXP sums the score of every entry, without any date bound.
func TotalXP(entries []*Entry, rules PointRules) int {
	total := 0
	for _, e := range entries {
		total += rules.Score(*e)
	}
	return total
}

// PointsByDay groups entries dated within [from, to] by day and sums their
// scores. Only days with at least one entry appear, oldest first.
func PointsByDay(entries []*Entry, from, to time.Time, rules PointRules) []DayPoints {
	byDay := map[string]int{}
	for _, e := range entries {
		if !withinDays(e.Date, from, to) {
			continue
		}
		byDay[dayKey(e.Date)] += rules.Score(*e)
	}
	out := make([]DayPoints, 0, len(byDay))
	for d, p := range byDay {
		out = append(out, DayPoints{Date: d, Points: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func sumDayPoints(days []DayPoints) int {
	total := 0
	for _, d := range days {
		total += d.Points
	}
	return total
}

// WeeklyPoints totals the last n ISO weeks up to and including the week of
// today, oldest first.
func WeeklyPoints(entries []*Entry, today time.Time, n int, rules PointRules) []WeekPoints {
	if n <= 0 {
		return []WeekPoints{}
	}
	out := make([]WeekPoints, n)
	current := WeekStart(today)
	for i := 0; i < n; i++ {
		ws := current.AddDate(0, 0, -7*i)
		out[n-1-i] = WeekPoints{
			WeekStart: ws.Format(DayLayout),
			Points:    sumDayPoints(PointsByDay(entries, ws, WeekEnd(ws), rules)),
		}
	}
	return out
}

// MonthlyPoints totals the calendar month containing today.
func MonthlyPoints(entries []*Entry, today time.Time, rules PointRules) int {
	first, last := MonthBounds(today)
	return sumDayPoints(PointsByDay(entries, first, last, rules))
}

// AutonomyTrend lists every entry that carries an autonomy score, by date.
// Entries without a score are skipped rather than counted as 0.
func AutonomyTrend(entries []*Entry) []AutonomyPoint {
	scored := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e.AutonomyScore != nil {
			scored = append(scored, e)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return civil(scored[i].Date).Before(civil(scored[j].Date)) })
	out := make([]AutonomyPoint, 0, len(scored))
	for _, e := range scored {
		out = append(out, AutonomyPoint{Date: dayKey(e.Date), Score: *e.AutonomyScore})
	}
	return out
}

// EntryTypeDistribution counts entries per kind. All kinds are present, in
// EntryKinds order, even with a zero count.
func EntryTypeDistribution(entries []*Entry) []KindCount {
	counts := make(map[EntryKind]int, len(EntryKinds))
	for _, e := range entries {
		counts[e.Kind]++
	}
	out := make([]KindCount, 0, len(EntryKinds))
	for _, k := range EntryKinds {
		out = append(out, KindCount{Type: k, Count: counts[k]})
	}
	return out
}

// ActivityDays returns the day of every entry, duplicates included.
func ActivityDays(entries []*Entry) []time.Time {
	out := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Date)
	}
	return out
}

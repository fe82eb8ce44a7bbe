package services

import "sort"

type WeekCompliance struct {
	WeekStart string  `json:"week_start"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Pct       float64 `json:"pct"`
}

type WeekAutonomy struct {
	WeekStart string  `json:"week_start"`
	Avg       float64 `json:"avg"`
}

// Correlation holds three series aligned on the same week starts, so callers
// can zip them by position.
type Correlation struct {
	ComplianceByWeek []WeekCompliance `json:"compliance_by_week"`
	WeeklyXP         []WeekPoints     `json:"weekly_xp"`
	WeeklyAutonomy   []WeekAutonomy   `json:"weekly_autonomy"`
}

// BuildCorrelation buckets the experiment's compliance log and the entries
// dated within [StartDate, EndDate] into every ISO week touching that range.
// Compliance records are matched by week alone; entries are first restricted
// to the experiment range. Empty weeks report 0 for pct and avg.
func BuildCorrelation(exp *Experiment, entries []*Entry, rules PointRules) *Correlation {
	start, end := civil(exp.StartDate), civil(exp.EndDate)
	weeks := WeeksCovering(start, end)
	index := make(map[string]int, len(weeks))
	out := &Correlation{
		ComplianceByWeek: make([]WeekCompliance, len(weeks)),
		WeeklyXP:         make([]WeekPoints, len(weeks)),
		WeeklyAutonomy:   make([]WeekAutonomy, len(weeks)),
	}
	for i, w := range weeks {
		label := w.Format(DayLayout)
		index[label] = i
		out.ComplianceByWeek[i].WeekStart = label
		out.WeeklyXP[i].WeekStart = label
		out.WeeklyAutonomy[i].WeekStart = label
	}

	for _, rec := range exp.ComplianceLog {
		i, ok := index[WeekStart(rec.Date).Format(DayLayout)]
		if !ok {
			continue
		}
		out.ComplianceByWeek[i].Total++
		if rec.Completed {
			out.ComplianceByWeek[i].Completed++
		}
	}
	for i := range out.ComplianceByWeek {
		wc := &out.ComplianceByWeek[i]
		if wc.Total > 0 {
			wc.Pct = float64(wc.Completed) / float64(wc.Total) * 100
		}
	}

	sums := make([]float64, len(weeks))
	counts := make([]int, len(weeks))
	for _, e := range entries {
		if !withinDays(e.Date, start, end) {
			continue
		}
		i, ok := index[WeekStart(e.Date).Format(DayLayout)]
		if !ok {
			continue
		}
		out.WeeklyXP[i].Points += rules.Score(*e)
		if e.AutonomyScore != nil {
			sums[i] += *e.AutonomyScore
			counts[i]++
		}
	}
	for i := range out.WeeklyAutonomy {
		if counts[i] > 0 {
			out.WeeklyAutonomy[i].Avg = sums[i] / float64(counts[i])
		}
	}
	return out
}

// UpsertComplianceRecord replaces the record for rec's day, or inserts it,
// and returns the log sorted by day ascending. The input slice is not modified.
func UpsertComplianceRecord(log []ComplianceRecord, rec ComplianceRecord) []ComplianceRecord {
	rec.Date = civil(rec.Date)
	out := make([]ComplianceRecord, 0, len(log)+1)
	replaced := false
	for _, r := range log {
		if civil(r.Date).Equal(rec.Date) {
			if !replaced {
				out = append(out, rec)
				replaced = true
			}
			continue
		}
		out = append(out, r)
	}
	if !replaced {
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return civil(out[i].Date).Before(civil(out[j].Date)) })
	return out
}

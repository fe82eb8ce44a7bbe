package services

import (
	"context"
	"time"
)

type DashboardLevel struct {
	LevelProgress
	TotalXP int `json:"total_xp"`
}

type Dashboard struct {
	LevelProgress         DashboardLevel  `json:"level_progress"`
	Streak                Streak          `json:"streak"`
	WeeklyPoints          []WeekPoints    `json:"weekly_points"`
	MonthlyPoints         int             `json:"monthly_points"`
	AutonomyTrend         []AutonomyPoint `json:"autonomy_trend"`
	EntryTypeDistribution []KindCount     `json:"entry_type_distribution"`
}

// GamificationSummary is the flat header view of the dashboard.
type GamificationSummary struct {
	TotalXP          int `json:"total_xp"`
	Level            int `json:"level"`
	CurrentLevelXP   int `json:"current_level_xp"`
	NextLevelXP      int `json:"next_level_xp"`
	XPInCurrentLevel int `json:"xp_in_current_level"`
	Streak           int `json:"streak"`
	LongestStreak    int `json:"longest_streak"`
}

type DashboardService struct {
	entries EntryLister
	rules   PointRules
	curve   LevelCurve
	weeks   int
	loc     *time.Location
	now     func() time.Time
}

func NewDashboardService(entries EntryLister, rules PointRules, curve LevelCurve, weeks int, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	if weeks <= 0 {
		weeks = 8
	}
	return &DashboardService{
		entries: entries,
		rules:   rules,
		curve:   curve,
		weeks:   weeks,
		loc:     loc,
		now:     time.Now,
	}
}

func (s *DashboardService) today() time.Time {
	return DayOf(s.now(), s.loc)
}

// allEntries reads the whole history; every figure is derived from it.
func (s *DashboardService) allEntries(ctx context.Context, userID string) ([]*Entry, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	return s.entries.ListEntries(ctx, userID, EntryQuery{})
}

func (s *DashboardService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	entries, err := s.allEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := s.today()
	total := TotalXP(entries, s.rules)
	return &Dashboard{
		LevelProgress:         DashboardLevel{LevelProgress: s.curve.Progress(total), TotalXP: total},
		Streak:                ComputeStreaks(ActivityDays(entries), today),
		WeeklyPoints:          WeeklyPoints(entries, today, s.weeks, s.rules),
		MonthlyPoints:         MonthlyPoints(entries, today, s.rules),
		AutonomyTrend:         AutonomyTrend(entries),
		EntryTypeDistribution: EntryTypeDistribution(entries),
	}, nil
}

func (s *DashboardService) Gamification(ctx context.Context, userID string) (*GamificationSummary, error) {
	entries, err := s.allEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	total := TotalXP(entries, s.rules)
	lp := s.curve.Progress(total)
	st := ComputeStreaks(ActivityDays(entries), s.today())
	return &GamificationSummary{
		TotalXP:          total,
		Level:            lp.Level,
		CurrentLevelXP:   lp.CurrentLevelXP,
		NextLevelXP:      lp.NextLevelXP,
		XPInCurrentLevel: lp.XPInCurrentLevel,
		Streak:           st.Current,
		LongestStreak:    st.Longest,
	}, nil
}

func (s *DashboardService) Legend() []LegendItem {
	return s.rules.Legend()
}

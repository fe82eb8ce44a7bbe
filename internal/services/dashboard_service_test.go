package services

import (
	"context"
	"testing"
	"time"
)

func TestDashboardAggregates(t *testing.T) {
	ctx := context.Background()
	entries := newEntryStubStore()
	for _, e := range sampleEntries() {
		e.UserID = "u1"
		entries.entries[e.ID] = e
	}
	svc := NewDashboardService(entries, DefaultPointRules(), DefaultLevelCurve(), 3, time.UTC)
	svc.now = func() time.Time { return time.Date(2024, 1, 2, 20, 0, 0, 0, time.UTC) }

	d, err := svc.Dashboard(ctx, "u1")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.LevelProgress.TotalXP != 15 || d.LevelProgress.Level != 1 || d.LevelProgress.XPInCurrentLevel != 15 {
		t.Fatalf("unexpected level progress %+v", d.LevelProgress)
	}
	if d.Streak.Current != 3 || d.Streak.Longest != 3 {
		t.Fatalf("unexpected streak %+v", d.Streak)
	}
	if len(d.WeeklyPoints) != 3 || d.WeeklyPoints[2].WeekStart != "2024-01-01" || d.WeeklyPoints[2].Points != 15 {
		t.Fatalf("unexpected weekly points %+v", d.WeeklyPoints)
	}
	if d.MonthlyPoints != 15 {
		t.Fatalf("monthly points %d, want 15", d.MonthlyPoints)
	}
	if len(d.AutonomyTrend) != 3 || len(d.EntryTypeDistribution) != 3 {
		t.Fatalf("unexpected trend/distribution %+v %+v", d.AutonomyTrend, d.EntryTypeDistribution)
	}
	if entries.lastQ.Limit != 0 || entries.lastQ.From != nil {
		t.Fatalf("dashboard must read full history, got %+v", entries.lastQ)
	}
}

func TestDashboardUsesConfiguredTimezone(t *testing.T) {
	ctx := context.Background()
	entries := newEntryStubStore()
	entries.entries["a"] = &Entry{ID: "a", UserID: "u1", Date: day(2024, 1, 1), Kind: KindIncident}
	loc := time.FixedZone("UTC-3", -3*3600)
	svc := NewDashboardService(entries, DefaultPointRules(), DefaultLevelCurve(), 0, loc)
	// 01:00 UTC on the 2nd is still the 1st in UTC-3.
	svc.now = func() time.Time { return time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC) }

	g, err := svc.Gamification(ctx, "u1")
	if err != nil {
		t.Fatalf("Gamification: %v", err)
	}
	if g.Streak != 1 || g.LongestStreak != 1 || g.TotalXP != 3 {
		t.Fatalf("unexpected summary %+v", g)
	}
}

func TestGamificationEmptyHistory(t *testing.T) {
	svc := NewDashboardService(newEntryStubStore(), DefaultPointRules(), DefaultLevelCurve(), 8, nil)
	g, err := svc.Gamification(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Gamification: %v", err)
	}
	if g.Level != 1 || g.TotalXP != 0 || g.NextLevelXP != 282 || g.Streak != 0 {
		t.Fatalf("unexpected empty summary %+v", g)
	}
	if len(svc.Legend()) != 5 {
		t.Fatalf("expected five legend items")
	}
	if _, err := svc.Dashboard(context.Background(), ""); err == nil {
		t.Fatalf("expected unauthorized without user")
	}
}

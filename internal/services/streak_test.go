package services

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeStreaksEmpty(t *testing.T) {
	if got := ComputeStreaks(nil, day(2024, 1, 3)); got != (Streak{}) {
		t.Fatalf("expected zero streak, got %+v", got)
	}
}

func TestComputeStreaksEndingToday(t *testing.T) {
	today := day(2024, 1, 3)
	got := ComputeStreaks([]time.Time{day(2024, 1, 1), day(2024, 1, 2), today}, today)
	if got.Current != 3 || got.Longest != 3 {
		t.Fatalf("expected 3/3, got %+v", got)
	}
}

func TestComputeStreaksWithoutToday(t *testing.T) {
	got := ComputeStreaks([]time.Time{day(2024, 1, 1), day(2024, 1, 2), day(2024, 1, 3)}, day(2024, 1, 4))
	if got.Current != 0 || got.Longest != 3 {
		t.Fatalf("expected 0/3, got %+v", got)
	}
}

func TestComputeStreaksDuplicatesAndOrder(t *testing.T) {
	today := day(2024, 3, 10)
	dates := []time.Time{
		today,
		day(2024, 3, 9).Add(15 * time.Hour),
		day(2024, 3, 9).Add(2 * time.Hour),
		day(2024, 3, 1),
		day(2024, 3, 2),
		day(2024, 3, 3),
		day(2024, 3, 4),
		day(2024, 3, 2),
	}
	got := ComputeStreaks(dates, today.Add(20*time.Hour))
	if got.Current != 2 {
		t.Fatalf("expected current 2, got %d", got.Current)
	}
	if got.Longest != 4 {
		t.Fatalf("expected longest 4, got %d", got.Longest)
	}
}

func TestComputeStreaksGapBreaksRun(t *testing.T) {
	today := day(2024, 1, 5)
	got := ComputeStreaks([]time.Time{day(2024, 1, 1), day(2024, 1, 3), today}, today)
	if got.Current != 1 || got.Longest != 1 {
		t.Fatalf("expected 1/1, got %+v", got)
	}
}

func TestComputeStreaksAcrossMonthBoundary(t *testing.T) {
	today := day(2024, 3, 1)
	got := ComputeStreaks([]time.Time{day(2024, 2, 28), day(2024, 2, 29), today}, today)
	if got.Current != 3 {
		t.Fatalf("expected leap-day run of 3, got %+v", got)
	}
}

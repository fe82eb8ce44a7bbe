package services

import (
	"sort"
	"testing"
)

func TestLevelFromTotalXPZero(t *testing.T) {
	got := LevelFromTotalXP(0)
	if got.Level != 1 || got.XPInCurrentLevel != 0 {
		t.Fatalf("unexpected progress %+v", got)
	}
	if got.NextLevelXP != 282 {
		t.Fatalf("expected 282 xp for level 2, got %d", got.NextLevelXP)
	}
}

func TestLevelFromTotalXPThresholds(t *testing.T) {
	cases := []struct {
		total, level, inLevel, next int
	}{
		{281, 1, 281, 282},
		{282, 2, 0, 519},
		{800, 2, 518, 519},
		{801, 3, 0, 800},
		{1601, 4, 0, 1118},
	}
	for _, c := range cases {
		got := LevelFromTotalXP(c.total)
		if got.Level != c.level || got.XPInCurrentLevel != c.inLevel || got.NextLevelXP != c.next {
			t.Fatalf("LevelFromTotalXP(%d)=%+v, want level %d in-level %d next %d", c.total, got, c.level, c.inLevel, c.next)
		}
		if got.CurrentLevelXP != got.XPInCurrentLevel {
			t.Fatalf("current level xp should mirror xp in level: %+v", got)
		}
	}
}

func TestLevelFromTotalXPNegativeClamps(t *testing.T) {
	if got := LevelFromTotalXP(-50); got != LevelFromTotalXP(0) {
		t.Fatalf("negative xp should behave like 0, got %+v", got)
	}
}

func TestLevelCurveStrictlyIncreasing(t *testing.T) {
	c := DefaultLevelCurve()
	for l := 1; l < 200; l++ {
		if c.XPRequiredForLevel(l+1) <= c.XPRequiredForLevel(l) {
			t.Fatalf("curve not increasing at level %d", l)
		}
	}
}

// The forward search must agree with inverting the cumulative table directly.
func TestLevelProgressMatchesInverse(t *testing.T) {
	c := DefaultLevelCurve()
	thresholds := make([]int, 0, 64)
	for l := 1; l <= 60; l++ {
		thresholds = append(thresholds, c.CumulativeXP(l))
	}
	prev := 0
	for total := 0; total <= 60000; total += 37 {
		idx := sort.Search(len(thresholds), func(i int) bool { return thresholds[i] > total })
		want := idx
		got := c.Progress(total)
		if got.Level != want {
			t.Fatalf("Progress(%d).Level=%d, inverse says %d", total, got.Level, want)
		}
		if got.XPInCurrentLevel != total-thresholds[want-1] {
			t.Fatalf("Progress(%d) in-level xp %d, want %d", total, got.XPInCurrentLevel, total-thresholds[want-1])
		}
		if got.Level < prev {
			t.Fatalf("level decreased at %d", total)
		}
		prev = got.Level
	}
}

func TestLevelAtExactCumulative(t *testing.T) {
	c := DefaultLevelCurve()
	for l := 2; l <= 25; l++ {
		at := c.CumulativeXP(l)
		if got := c.Progress(at).Level; got != l {
			t.Fatalf("Progress(%d).Level=%d, want %d", at, got, l)
		}
		if got := c.Progress(at - 1).Level; got != l-1 {
			t.Fatalf("Progress(%d).Level=%d, want %d", at-1, got, l-1)
		}
	}
}

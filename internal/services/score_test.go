package services

import "testing"

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestScoreEntry(t *testing.T) {
	cases := []struct {
		name  string
		entry Entry
		want  int
	}{
		{"empty project", Entry{Kind: KindProject}, 0},
		{"deep work only", Entry{Kind: KindProject, DeepWorkBlockCompleted: true}, 2},
		{"incident", Entry{Kind: KindIncident}, 3},
		{"incident with interruption", Entry{Kind: KindIncident, InterruptionManagedWell: true}, 4},
		{"study with learning", Entry{Kind: KindStudy, Learned: "goroutine leaks"}, 4},
		{"study without learning", Entry{Kind: KindStudy}, 0},
		{"project difficulty 3", Entry{Kind: KindProject, Difficulty: intPtr(3)}, 0},
		{"project difficulty 4", Entry{Kind: KindProject, Difficulty: intPtr(4)}, 5},
		{"large project all flags", Entry{Kind: KindProject, Difficulty: intPtr(5), DeepWorkBlockCompleted: true, InterruptionManagedWell: true}, 8},
		{"learned ignored on project", Entry{Kind: KindProject, Learned: "x"}, 0},
		{"difficulty ignored on incident", Entry{Kind: KindIncident, Difficulty: intPtr(5)}, 3},
		{"everything on study", Entry{Kind: KindStudy, Learned: "x", DeepWorkBlockCompleted: true, InterruptionManagedWell: true}, 7},
	}
	for _, c := range cases {
		if got := ScoreEntry(c.entry); got != c.want {
			t.Fatalf("%s: ScoreEntry=%d, want %d", c.name, got, c.want)
		}
	}
}

func TestScoreUsesConfiguredRules(t *testing.T) {
	rules := PointRules{DeepWorkBlock: 10, IncidentResolved: 20, AppliedLearning: 30, LargeTaskCompleted: 40, LargeTaskMinDifficulty: 2, InterruptionManaged: 50}
	e := Entry{Kind: KindProject, Difficulty: intPtr(2), DeepWorkBlockCompleted: true, InterruptionManagedWell: true}
	if got := rules.Score(e); got != 100 {
		t.Fatalf("Score=%d, want 100", got)
	}
}

func TestLegendMatchesRules(t *testing.T) {
	legend := DefaultPointRules().Legend()
	if len(legend) != 5 {
		t.Fatalf("expected 5 legend items, got %d", len(legend))
	}
	sum := 0
	for _, it := range legend {
		sum += it.Points
	}
	if sum != 15 {
		t.Fatalf("legend points sum %d, want 15", sum)
	}
}

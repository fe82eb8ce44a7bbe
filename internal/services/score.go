package services

// PointRules holds the point values of the scoring legend. Every rule is
// independent and additive.
type PointRules struct {
	DeepWorkBlock          int `yaml:"deepWorkBlock" json:"deep_work_block"`
	IncidentResolved       int `yaml:"incidentResolved" json:"incident_resolved"`
	AppliedLearning        int `yaml:"appliedLearning" json:"applied_learning"`
	LargeTaskCompleted     int `yaml:"largeTaskCompleted" json:"large_task_completed"`
	LargeTaskMinDifficulty int `yaml:"largeTaskMinDifficulty" json:"large_task_min_difficulty"`
	InterruptionManaged    int `yaml:"interruptionManaged" json:"interruption_managed"`
}

func DefaultPointRules() PointRules {
	return PointRules{
		DeepWorkBlock:          2,
		IncidentResolved:       3,
		AppliedLearning:        4,
		LargeTaskCompleted:     5,
		LargeTaskMinDifficulty: 4,
		InterruptionManaged:    1,
	}
}

// Score returns the points earned by one entry. A missing difficulty counts
// as 0 and an empty learned text never triggers the learning rule.
func (r PointRules) Score(e Entry) int {
	points := 0
	if e.DeepWorkBlockCompleted {
		points += r.DeepWorkBlock
	}
	if e.Kind == KindIncident {
		points += r.IncidentResolved
	}
	if e.Kind == KindStudy && e.Learned != "" {
		points += r.AppliedLearning
	}
	difficulty := 0
	if e.Difficulty != nil {
		difficulty = *e.Difficulty
	}
	if e.Kind == KindProject && difficulty >= r.LargeTaskMinDifficulty {
		points += r.LargeTaskCompleted
	}
	if e.InterruptionManagedWell {
		points += r.InterruptionManaged
	}
	return points
}

// ScoreEntry scores e with the default legend.
func ScoreEntry(e Entry) int {
	return DefaultPointRules().Score(e)
}

type LegendItem struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Points int    `json:"points"`
}

// Legend describes the rules in display order.
func (r PointRules) Legend() []LegendItem {
	return []LegendItem{
		{Key: "deep_work_block", Label: "legend.deep_work_block", Points: r.DeepWorkBlock},
		{Key: "incident_resolved", Label: "legend.incident_resolved", Points: r.IncidentResolved},
		{Key: "applied_learning", Label: "legend.applied_learning", Points: r.AppliedLearning},
		{Key: "large_task_completed", Label: "legend.large_task_completed", Points: r.LargeTaskCompleted},
		{Key: "interruption_managed", Label: "legend.interruption_managed", Points: r.InterruptionManaged},
	}
}

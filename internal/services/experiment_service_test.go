package services

import (
	"context"
	"testing"
	"time"
)

func newTestExperimentService(store ExperimentStore, entries EntryLister) *ExperimentService {
	svc := NewExperimentService(store, entries, DefaultPointRules(), time.UTC)
	svc.idGen = func() string { return "x1" }
	svc.now = func() time.Time { return time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestExperimentCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestExperimentService(newExperimentStubStore(), newEntryStubStore())

	cases := []ExperimentInput{
		{TargetMetric: "xp", StartDate: "2024-01-01", EndDate: "2024-01-31"},
		{Name: "no slack", StartDate: "2024-01-01", EndDate: "2024-01-31"},
		{Name: "no slack", TargetMetric: "xp", StartDate: "2024-01-01"},
		{Name: "no slack", TargetMetric: "xp", StartDate: "2024-02-01", EndDate: "2024-01-01"},
	}
	for i, in := range cases {
		if _, err := svc.Create(ctx, "u1", in); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	exp, err := svc.Create(ctx, "u1", ExperimentInput{Name: " no slack ", TargetMetric: "autonomy", StartDate: "2024-01-01", EndDate: "2024-01-01"})
	if err != nil {
		t.Fatalf("single-day experiment should be valid: %v", err)
	}
	if exp.Name != "no slack" || len(exp.ComplianceLog) != 0 || exp.ComplianceLog == nil {
		t.Fatalf("unexpected experiment %+v", exp)
	}
}

func TestExperimentUpdateRevalidatesRange(t *testing.T) {
	ctx := context.Background()
	store := newExperimentStubStore()
	svc := newTestExperimentService(store, newEntryStubStore())
	exp, err := svc.Create(ctx, "u1", ExperimentInput{Name: "pomodoro", TargetMetric: "xp", StartDate: "2024-01-10", EndDate: "2024-01-20"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	early := "2024-01-05"
	if _, err := svc.Update(ctx, "u1", exp.ID, ExperimentPatch{EndDate: &early}); err == nil {
		t.Fatalf("expected end before start to be rejected")
	}
	later := "2024-01-31"
	desc := "25/5"
	got, err := svc.Update(ctx, "u1", exp.ID, ExperimentPatch{EndDate: &later, Description: &desc})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !got.EndDate.Equal(day(2024, 1, 31)) || got.Description != "25/5" || got.Name != "pomodoro" {
		t.Fatalf("unexpected update %+v", got)
	}
	if _, err := svc.Update(ctx, "u2", exp.ID, ExperimentPatch{}); !IsNotFound(err) {
		t.Fatalf("expected not found for other user, got %v", err)
	}
}

func TestExperimentLogComplianceUpserts(t *testing.T) {
	ctx := context.Background()
	store := newExperimentStubStore()
	svc := newTestExperimentService(store, newEntryStubStore())
	exp, err := svc.Create(ctx, "u1", ExperimentInput{Name: "no phone", TargetMetric: "autonomy", StartDate: "2024-01-01", EndDate: "2024-01-14"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	loggedAt := time.Date(2024, 1, 12, 18, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return loggedAt }
	yes, no := true, false
	if _, err := svc.LogCompliance(ctx, "u1", exp.ID, ComplianceInput{Date: "2024-01-03", Completed: &no}); err != nil {
		t.Fatalf("LogCompliance: %v", err)
	}
	if _, err := svc.LogCompliance(ctx, "u1", exp.ID, ComplianceInput{Date: "2024-01-02", Completed: &yes}); err != nil {
		t.Fatalf("LogCompliance: %v", err)
	}
	got, err := svc.LogCompliance(ctx, "u1", exp.ID, ComplianceInput{Date: "2024-01-03", Completed: &yes, Value: floatPtr(2)})
	if err != nil {
		t.Fatalf("LogCompliance: %v", err)
	}
	if len(got.ComplianceLog) != 2 {
		t.Fatalf("expected one record per day, got %+v", got.ComplianceLog)
	}
	if !got.ComplianceLog[0].Date.Equal(day(2024, 1, 2)) || !got.ComplianceLog[1].Completed {
		t.Fatalf("log not sorted or not replaced: %+v", got.ComplianceLog)
	}
	if !got.UpdatedAt.Equal(loggedAt) || !got.CreatedAt.Equal(exp.CreatedAt) {
		t.Fatalf("compliance should stamp updated_at from the service clock, got %v", got.UpdatedAt)
	}

	if _, err := svc.LogCompliance(ctx, "u1", exp.ID, ComplianceInput{Date: "2024-01-03"}); err == nil {
		t.Fatalf("expected completed required")
	}
	if _, err := svc.LogCompliance(ctx, "u1", "missing", ComplianceInput{Date: "2024-01-03", Completed: &yes}); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestExperimentCorrelation(t *testing.T) {
	ctx := context.Background()
	entries := newEntryStubStore()
	entries.entries["a"] = &Entry{ID: "a", UserID: "u1", Date: day(2024, 1, 2), Kind: KindIncident, AutonomyScore: floatPtr(6)}
	entries.entries["b"] = &Entry{ID: "b", UserID: "u1", Date: day(2024, 1, 20), Kind: KindIncident}
	store := newExperimentStubStore()
	svc := newTestExperimentService(store, entries)
	exp, err := svc.Create(ctx, "u1", ExperimentInput{Name: "focus", TargetMetric: "xp", StartDate: "2024-01-01", EndDate: "2024-01-14"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	c, err := svc.Correlation(ctx, "u1", exp.ID)
	if err != nil {
		t.Fatalf("Correlation: %v", err)
	}
	if len(c.WeeklyXP) != 2 || c.WeeklyXP[0].Points != 3 || c.WeeklyXP[1].Points != 0 {
		t.Fatalf("unexpected weekly xp %+v", c.WeeklyXP)
	}
	if entries.lastQ.Limit != 0 || entries.lastQ.From == nil || entries.lastQ.To == nil {
		t.Fatalf("correlation should read the whole range uncapped: %+v", entries.lastQ)
	}
	if _, err := svc.Correlation(ctx, "u2", exp.ID); !IsNotFound(err) {
		t.Fatalf("expected not found for other user, got %v", err)
	}
}

func TestExperimentDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestExperimentService(newExperimentStubStore(), newEntryStubStore())
	exp, err := svc.Create(ctx, "u1", ExperimentInput{Name: "x", TargetMetric: "xp", StartDate: "2024-01-01", EndDate: "2024-01-02"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, "u1", exp.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, "u1", exp.ID); !IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	list, err := svc.List(ctx, "u1")
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v %v", list, err)
	}
}

package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/devlevel/internal/services"
)

func TestMemoryStoreComplianceStampsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.InsertExperiment(ctx, &services.Experiment{
		ID: "x1", UserID: "u1", Name: "focus", TargetMetric: "autonomy",
		StartDate: created, EndDate: created.AddDate(0, 0, 13), CreatedAt: created, UpdatedAt: created,
	}))

	loggedAt := created.Add(50 * time.Hour)
	day := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	got, err := store.UpsertComplianceRecord(ctx, "u1", "x1", services.ComplianceRecord{Date: day, Completed: true}, loggedAt)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.UpdatedAt.Equal(loggedAt))
	require.Len(t, got.ComplianceLog, 1)

	again, err := store.GetExperiment(ctx, "u1", "x1")
	require.NoError(t, err)
	require.True(t, again.UpdatedAt.Equal(loggedAt))

	foreign, err := store.UpsertComplianceRecord(ctx, "u2", "x1", services.ComplianceRecord{Date: day, Completed: false}, loggedAt)
	require.NoError(t, err)
	require.Nil(t, foreign)
}

package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/tidymind/tidymind/pkg/db"
)

func setupTestRepo(t *testing.T) *db.Repository {
	t.Helper()
	database, err := db.NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return db.NewRepository(database)
}

func createJob(t *testing.T, repo *db.Repository, def db.JobDefinition) int64 {
	t.Helper()
	if def.PayloadJSON == "" {
		def.PayloadJSON = "{}"
	}
	if def.Timezone == "" {
		def.Timezone = "UTC"
	}
	id, err := repo.CreateJob(&def)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return id
}

func TestRecoverStrandedReschedules(t *testing.T) {
	repo := setupTestRepo(t)

	// An enabled job with no next run time is the state a crash between
	// claim and completion leaves behind.
	id := createJob(t, repo, db.JobDefinition{
		Name:         "Nightly merge",
		ActionType:   ActionProcessPending,
		ScheduleKind: "daily",
		ScheduleExpr: "03:00",
		Enabled:      true,
	})

	s := NewService(repo, time.Second, 10)
	now := time.Now().UTC()
	s.recoverStranded(now)

	got, err := repo.GetJobByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.NextRunAt == nil {
		t.Fatal("expected next run to be restored")
	}
	if !got.NextRunAt.After(now) {
		t.Errorf("next run %v should be after %v", got.NextRunAt, now)
	}
	if !got.Enabled {
		t.Error("job should stay enabled")
	}
}

func TestRecoverStrandedDisablesExpiredOneshot(t *testing.T) {
	repo := setupTestRepo(t)

	id := createJob(t, repo, db.JobDefinition{
		Name:         "One-off export",
		ActionType:   ActionExportNotes,
		ScheduleKind: "oneshot",
		ScheduleExpr: "2020-01-01T00:00:00Z",
		Enabled:      true,
	})

	s := NewService(repo, time.Second, 10)
	s.recoverStranded(time.Now().UTC())

	got, err := repo.GetJobByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Enabled {
		t.Error("expired oneshot should be disabled")
	}
	if got.NextRunAt != nil {
		t.Errorf("expired oneshot should have no next run, got %v", got.NextRunAt)
	}
}

func TestRecoverStrandedLeavesScheduledJobsAlone(t *testing.T) {
	repo := setupTestRepo(t)

	future := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	id := createJob(t, repo, db.JobDefinition{
		Name:         "Weekly export",
		ActionType:   ActionExportNotes,
		ScheduleKind: "weekly",
		ScheduleExpr: "mon 06:00",
		Enabled:      true,
		NextRunAt:    &future,
	})

	s := NewService(repo, time.Second, 10)
	s.recoverStranded(time.Now().UTC())

	got, err := repo.GetJobByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.NextRunAt == nil || !got.NextRunAt.Equal(future) {
		t.Errorf("next run changed: got %v, want %v", got.NextRunAt, future)
	}
}

func TestRunOnceExecutesDueJob(t *testing.T) {
	repo := setupTestRepo(t)

	past := time.Now().UTC().Add(-time.Minute)
	id := createJob(t, repo, db.JobDefinition{
		Name:         "Merge now",
		ActionType:   ActionProcessPending,
		ScheduleKind: "interval",
		ScheduleExpr: "1h",
		Enabled:      true,
		NextRunAt:    &past,
	})

	s := NewService(repo, time.Second, 10)
	ran := 0
	s.RegisterAction(ActionProcessPending, func(ctx context.Context, def db.JobDefinition) (string, error) {
		ran++
		return "ok", nil
	})

	s.runOnce(context.Background())

	if ran != 1 {
		t.Fatalf("action ran %d times, want 1", ran)
	}
	got, err := repo.GetJobByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.LastRunAt == nil {
		t.Error("expected last run to be recorded")
	}
	if got.NextRunAt == nil {
		t.Error("expected job to be rescheduled after the run")
	}
}

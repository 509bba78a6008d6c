package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tidymind/tidymind/pkg/db"
)

// Built-in action types the scheduler knows how to run.
const (
	ActionProcessPending = "process_pending"
	ActionExportNotes    = "export_notes"
	ActionGitSync        = "git_sync"
)

// ActionTypes lists every runnable action type.
var ActionTypes = []string{ActionProcessPending, ActionExportNotes, ActionGitSync}

// ValidActionType reports whether name is a known action type.
func ValidActionType(name string) bool {
	for _, t := range ActionTypes {
		if name == t {
			return true
		}
	}
	return false
}

// ActionFunc executes one job.
type ActionFunc func(ctx context.Context, def db.JobDefinition) (string, error)

// Service runs persisted scheduled jobs.
type Service struct {
	repo         *db.Repository
	pollInterval time.Duration
	claimLimit   int

	mu      sync.RWMutex
	actions map[string]ActionFunc

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewService creates a new job scheduler service.
func NewService(repo *db.Repository, pollInterval time.Duration, claimLimit int) *Service {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	if claimLimit <= 0 {
		claimLimit = 10
	}
	return &Service{
		repo:         repo,
		pollInterval: pollInterval,
		claimLimit:   claimLimit,
		actions:      make(map[string]ActionFunc),
		stop:         make(chan struct{}),
	}
}

// RegisterAction registers a runnable job action.
func (s *Service) RegisterAction(name string, fn ActionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[name] = fn
}

// Start begins the polling loop.
func (s *Service) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop stops the polling loop and waits for shutdown.
func (s *Service) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Service) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	// Repair jobs left half-claimed by a previous crash, then run one
	// immediate tick.
	s.recoverStranded(time.Now().UTC())
	s.runOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.runOnce(context.Background())
		case <-s.stop:
			return
		}
	}
}

// recoverStranded reschedules enabled jobs that have no next run time.
// Claiming clears next_run_at before the action executes, so a crash
// between the claim and the run completion leaves the job in that state
// permanently.
func (s *Service) recoverStranded(now time.Time) {
	defs, err := s.repo.ListJobs()
	if err != nil {
		log.Printf("jobs: failed to list definitions for recovery: %v", err)
		return
	}
	for i := range defs {
		def := defs[i]
		if !def.Enabled || def.NextRunAt != nil {
			continue
		}
		next, err := NextRun(def.ScheduleKind, def.ScheduleExpr, def.Timezone, now)
		if err != nil {
			log.Printf("jobs: cannot reschedule stranded id=%d: %v", def.ID, err)
			continue
		}
		if next == nil {
			// A oneshot whose time already passed has nothing left to run.
			def.Enabled = false
		}
		def.NextRunAt = next
		if err := s.repo.UpdateJob(&def); err != nil {
			log.Printf("jobs: failed to reschedule stranded id=%d: %v", def.ID, err)
			continue
		}
		if next != nil {
			log.Printf("jobs: rescheduled stranded job id=%d (%s) for %s", def.ID, def.Name, next.Format(time.RFC3339))
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	now := time.Now().UTC()
	defs, err := s.repo.ClaimDueJobs(now, s.claimLimit)
	if err != nil {
		log.Printf("jobs: failed to claim due definitions: %v", err)
		return
	}
	for _, def := range defs {
		s.execute(ctx, def, now)
	}
}

func (s *Service) execute(ctx context.Context, def db.JobDefinition, now time.Time) {
	runID, err := s.repo.InsertJobRun(def.ID, now)
	if err != nil {
		log.Printf("jobs: failed to create run for id=%d: %v", def.ID, err)
		return
	}

	s.mu.RLock()
	action := s.actions[def.ActionType]
	s.mu.RUnlock()

	status := "success"
	runErr := ""
	output := ""
	if action == nil {
		status = "failed"
		runErr = fmt.Sprintf("unknown action_type: %s", def.ActionType)
	} else {
		result, execErr := action(ctx, def)
		output = result
		if execErr != nil {
			status = "failed"
			runErr = execErr.Error()
		}
	}

	nextRun, nextErr := NextRun(def.ScheduleKind, def.ScheduleExpr, def.Timezone, now)
	if nextErr != nil {
		status = "failed"
		if runErr == "" {
			runErr = nextErr.Error()
		} else {
			runErr = runErr + "; next run calc failed: " + nextErr.Error()
		}
		nextRun = nil
	}

	enabled := def.Enabled
	if def.ScheduleKind == "oneshot" {
		enabled = false
	}

	if err := s.repo.CompleteJobRun(runID, def.ID, status, runErr, output, time.Now().UTC(), enabled, now, nextRun); err != nil {
		log.Printf("jobs: failed to complete run=%d id=%d: %v", runID, def.ID, err)
	}
}

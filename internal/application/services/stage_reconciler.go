package services

import (
	"context"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/solutionshark/backend/internal/domain"
	"github.com/solutionshark/backend/internal/infrastructure/persistence"
	"github.com/solutionshark/backend/pkg/constants"
)

const DefaultReconcilerSchedule = "@every 1m"

// StageReconciler periodically re-derives solution stages from their
// approval aggregates and repairs drift. Decisions already move stages
// inline; this is a consistency backstop.
type StageReconciler struct {
	approvals *persistence.ApprovalRepository
	solutions *persistence.SolutionRepository
	txManager *persistence.TransactionManager
	schedule  string

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewStageReconciler creates a reconciler with the given cron schedule
// (e.g. "@every 1m")
func NewStageReconciler(
	approvals *persistence.ApprovalRepository,
	solutions *persistence.SolutionRepository,
	txManager *persistence.TransactionManager,
	schedule string,
) *StageReconciler {
	if schedule == "" {
		schedule = DefaultReconcilerSchedule
	}
	return &StageReconciler{
		approvals: approvals,
		solutions: solutions,
		txManager: txManager,
		schedule:  schedule,
	}
}

// Start schedules the reconciliation job. Safe to call once.
func (r *StageReconciler) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(r.schedule, r.runOnce); err != nil {
		return err
	}
	c.Start()

	r.cron = c
	r.running = true
	log.Printf("⏰ Stage reconciler started (schedule %s)", r.schedule)
	return nil
}

// Stop halts scheduling and waits for a running pass to finish
func (r *StageReconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.running = false
	log.Println("⏰ Stage reconciler stopped")
}

// runOnce reconciles every solution that has approvals
func (r *StageReconciler) runOnce() {
	ctx := context.Background()

	ids, err := r.approvals.ListSolutionIDsWithApprovals(ctx)
	if err != nil {
		log.Printf("⚠️ Stage reconciler failed to list solutions: %v", err)
		return
	}

	repaired := 0
	for _, id := range ids {
		changed, err := r.ReconcileSolution(ctx, id)
		if err != nil {
			log.Printf("⚠️ Stage reconciler failed for solution %s: %v", id, err)
			continue
		}
		if changed {
			repaired++
		}
	}
	if repaired > 0 {
		log.Printf("🔧 Stage reconciler repaired %d solution(s)", repaired)
	}
}

// ReconcileSolution re-derives one solution's stage inside a transaction
// that locks the solution row. Returns whether the stage was changed.
func (r *StageReconciler) ReconcileSolution(ctx context.Context, solutionID string) (bool, error) {
	changed := false

	err := r.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		solution, err := r.solutions.GetByIDForUpdate(txCtx, solutionID)
		if err != nil {
			return err
		}
		if solution == nil {
			// Solution deleted since the id list was taken
			return nil
		}

		counts, err := r.approvals.CountBySolution(txCtx, solutionID)
		if err != nil {
			return err
		}

		derived, ok := domain.DeriveStage(counts.Total, counts.Pending, counts.Rejected)
		if !ok || string(derived) == solution.Stage {
			return nil
		}

		if err := r.solutions.UpdateStage(txCtx, solutionID, string(derived), constants.SystemActor); err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
}

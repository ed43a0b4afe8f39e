package services

import (
	"os"

	"github.com/solutionshark/backend/internal/infrastructure/database"
	"github.com/solutionshark/backend/internal/infrastructure/persistence"
)

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	db *database.Connection

	TxManager  *persistence.TransactionManager
	Matcher    *ConditionMatcher
	Solution   *SolutionService
	Workflow   *WorkflowService
	Approval   *ApprovalService
	Reconciler *StageReconciler
}

// NewServiceManager creates a new service manager with all dependencies wired
func NewServiceManager(db *database.Connection) *ServiceManager {
	sm := &ServiceManager{
		db: db,
	}

	// Initialize services in dependency order
	sm.TxManager = persistence.NewTransactionManager(db)
	sm.Matcher = NewConditionMatcher()

	solutionRepo := persistence.NewSolutionRepository(db.DB())
	workflowRepo := persistence.NewWorkflowRepository(db.DB())
	approvalRepo := persistence.NewApprovalRepository(db.DB())

	sm.Solution = NewSolutionService(solutionRepo, approvalRepo, sm.TxManager)
	sm.Workflow = NewWorkflowService(workflowRepo, approvalRepo, sm.Matcher, sm.TxManager)
	sm.Approval = NewApprovalService(approvalRepo, solutionRepo, workflowRepo, sm.Matcher, sm.TxManager)
	sm.Reconciler = NewStageReconciler(approvalRepo, solutionRepo, sm.TxManager, os.Getenv("RECONCILER_SCHEDULE"))

	return sm
}

// StartReconciler starts the background stage reconciliation job.
// Call this during server startup.
func (sm *ServiceManager) StartReconciler() error {
	return sm.Reconciler.Start()
}

// StopReconciler stops the background stage reconciliation job gracefully.
// Call this during server shutdown.
func (sm *ServiceManager) StopReconciler() {
	sm.Reconciler.Stop()
}

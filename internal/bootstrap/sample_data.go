package bootstrap

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/solutionshark/backend/internal/domain/models"
	"github.com/solutionshark/backend/internal/infrastructure/database"
	"github.com/solutionshark/backend/internal/infrastructure/persistence"
	"github.com/solutionshark/backend/pkg/constants"
	"github.com/solutionshark/backend/pkg/utils"
)

// SeedSampleData inserts a demo workflow and solution when SEED_SAMPLE_DATA
// is set. It is idempotent: a non-empty workflow table skips the seed.
func SeedSampleData(db *database.Connection) error {
	if os.Getenv("SEED_SAMPLE_DATA") != "true" {
		return nil
	}

	ctx := context.Background()
	workflows := persistence.NewWorkflowRepository(db.DB())
	solutions := persistence.NewSolutionRepository(db.DB())

	existing, err := workflows.List(ctx, models.WorkflowFilters{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Println("⏭️  Sample data seed skipped (workflows already present)")
		return nil
	}

	log.Println("📦 Seeding sample data...")
	now := time.Now()

	minApprovals := 1
	workflow := &models.ApprovalWorkflow{
		ID:          utils.GenerateID(),
		Name:        "High Value Deal Review",
		Description: "Required review for solutions above 100k",
		IsActive:    true,
		Steps: []models.ApprovalStep{
			{
				ID:                utils.GenerateID(),
				Name:              "Finance Review",
				Type:              string(constants.StepTypeApprove),
				Order:             1,
				IsRequired:        true,
				AssignedApprovers: []string{"finance-lead"},
			},
			{
				ID:                utils.GenerateID(),
				Name:              "Executive Sign-off",
				Type:              string(constants.StepTypeApprove),
				Order:             2,
				AssignedApprovers: []string{"coo"},
			},
		},
		Rules: []models.ApprovalRule{
			{
				ID:           utils.GenerateID(),
				Name:         "Sequential review",
				Type:         string(constants.RuleTypeSequential),
				MinApprovals: &minApprovals,
				Order:        1,
			},
		},
		ConditionRules: []models.ConditionRule{
			{
				ID:       utils.GenerateID(),
				Field:    "budget",
				Operator: "greater_than",
				Value:    "100000",
				Order:    1,
			},
		},
		CreatedBy: constants.SystemActor,
		CreatedAt: now,
		UpdatedAt: now,
	}

	txManager := persistence.NewTransactionManager(db)
	err = txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		return workflows.Insert(txCtx, workflow)
	})
	if err != nil {
		return err
	}

	solution := &models.Solution{
		ID:             utils.GenerateID(),
		Name:           "Harbor Expansion Proposal",
		Customer:       "Port Authority",
		Opportunity:    "OPP-1042",
		EstimatedValue: 250000,
		Currency:       "USD",
		Stage:          string(constants.StageDraft),
		Status:         "active",
		Owner:          "sales-lead",
		ProjectType:    "infrastructure",
		Priority:       constants.PriorityHigh,
		Description:    "Phase one of the harbor logistics expansion.",
		CreatedAt:      now,
		CreatedBy:      constants.SystemActor,
		UpdatedAt:      now,
		LastModifiedBy: constants.SystemActor,
	}
	if err := solutions.Insert(ctx, solution); err != nil {
		return err
	}

	log.Printf("✅ Sample data seeded (workflow %s, solution %s)", workflow.ID, solution.ID)
	return nil
}

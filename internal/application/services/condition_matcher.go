package services

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/solutionshark/backend/internal/domain/models"
	"github.com/solutionshark/backend/pkg/constants"
	apperrors "github.com/solutionshark/backend/pkg/errors"
)

// operatorExpressions maps each condition operator to the expression it
// evaluates. Every rule runs one of these against a {field, value} env.
var operatorExpressions = map[string]string{
	constants.OperatorEquals:             "field == value",
	constants.OperatorNotEquals:          "field != value",
	constants.OperatorContains:           "field contains value",
	constants.OperatorGreaterThan:        "field > value",
	constants.OperatorLessThan:           "field < value",
	constants.OperatorGreaterThanOrEqual: "field >= value",
	constants.OperatorLessThanOrEqual:    "field <= value",
}

var ordinalOperators = map[string]bool{
	constants.OperatorGreaterThan:        true,
	constants.OperatorLessThan:           true,
	constants.OperatorGreaterThanOrEqual: true,
	constants.OperatorLessThanOrEqual:    true,
}

// priorityRank orders priorities for ordinal comparison
var priorityRank = map[string]float64{
	constants.PriorityLow:    1,
	constants.PriorityMedium: 2,
	constants.PriorityHigh:   3,
}

// ConditionMatcher decides whether a workflow applies to a solution by
// evaluating the workflow's condition rules conjunctively. Compiled
// programs are cached per operator and operand kind.
type ConditionMatcher struct {
	programCache map[string]*vm.Program
	mu           sync.RWMutex
}

func NewConditionMatcher() *ConditionMatcher {
	return &ConditionMatcher{
		programCache: make(map[string]*vm.Program),
	}
}

// Matches reports whether all condition rules hold for the solution.
// An empty rule set matches every solution.
func (m *ConditionMatcher) Matches(solution *models.Solution, rules []models.ConditionRule) (bool, error) {
	for _, rule := range rules {
		ok, err := m.evaluate(solution, rule)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// ValidateRule rejects condition rules that could never be evaluated, so
// bad rules fail at workflow save time rather than at submission time.
func (m *ConditionMatcher) ValidateRule(rule models.ConditionRule) error {
	if _, ok := operatorExpressions[rule.Operator]; !ok {
		return apperrors.NewInvalidConditionError(rule.Field, rule.Operator, rule.Value,
			"unknown operator")
	}

	switch rule.Field {
	case constants.ConditionFieldBudget:
		if _, err := strconv.ParseFloat(rule.Value, 64); err != nil {
			return apperrors.NewInvalidConditionError(rule.Field, rule.Operator, rule.Value,
				"budget conditions require a numeric value")
		}
		if rule.Operator == constants.OperatorContains {
			return apperrors.NewInvalidConditionError(rule.Field, rule.Operator, rule.Value,
				"contains does not apply to numeric fields")
		}
	case constants.ConditionFieldPriority:
		if ordinalOperators[rule.Operator] {
			if _, ok := priorityRank[rule.Value]; !ok {
				return apperrors.NewInvalidConditionError(rule.Field, rule.Operator, rule.Value,
					"priority comparisons require low, medium or high")
			}
		}
	case constants.ConditionFieldProjectType, constants.ConditionFieldStatus,
		constants.ConditionFieldDepartment, constants.ConditionFieldCategory:
		if ordinalOperators[rule.Operator] {
			return apperrors.NewInvalidConditionError(rule.Field, rule.Operator, rule.Value,
				"ordering comparisons do not apply to text fields")
		}
	}

	return nil
}

func (m *ConditionMatcher) evaluate(solution *models.Solution, rule models.ConditionRule) (bool, error) {
	expression, ok := operatorExpressions[rule.Operator]
	if !ok {
		return false, apperrors.NewInvalidConditionError(rule.Field, rule.Operator, rule.Value,
			"unknown operator")
	}

	env, known, err := m.buildEnv(solution, rule)
	if err != nil {
		return false, err
	}
	if !known {
		// Fields the solution does not carry match permissively
		return true, nil
	}

	program, err := m.getProgram(rule.Operator, expression, env)
	if err != nil {
		return false, apperrors.NewInvalidConditionError(rule.Field, rule.Operator, rule.Value, err.Error())
	}

	output, err := expr.Run(program, env)
	if err != nil {
		return false, apperrors.NewInvalidConditionError(rule.Field, rule.Operator, rule.Value, err.Error())
	}

	result, ok := output.(bool)
	if !ok {
		return false, apperrors.NewInvalidConditionError(rule.Field, rule.Operator, rule.Value,
			fmt.Sprintf("expression returned %T, expected bool", output))
	}
	return result, nil
}

// buildEnv resolves the rule's field against the solution and coerces both
// operands to a comparable kind. known is false for fields the solution
// does not model.
func (m *ConditionMatcher) buildEnv(solution *models.Solution, rule models.ConditionRule) (map[string]interface{}, bool, error) {
	switch rule.Field {
	case constants.ConditionFieldBudget:
		value, err := strconv.ParseFloat(rule.Value, 64)
		if err != nil {
			return nil, false, apperrors.NewInvalidConditionError(rule.Field, rule.Operator, rule.Value,
				"budget conditions require a numeric value")
		}
		return map[string]interface{}{"field": solution.EstimatedValue, "value": value}, true, nil

	case constants.ConditionFieldPriority:
		if ordinalOperators[rule.Operator] {
			valueRank, ok := priorityRank[rule.Value]
			if !ok {
				return nil, false, apperrors.NewInvalidConditionError(rule.Field, rule.Operator, rule.Value,
					"priority comparisons require low, medium or high")
			}
			fieldRank, ok := priorityRank[solution.Priority]
			if !ok {
				// Solutions without a recognized priority never outrank a threshold
				fieldRank = 0
			}
			return map[string]interface{}{"field": fieldRank, "value": valueRank}, true, nil
		}
		return map[string]interface{}{"field": solution.Priority, "value": rule.Value}, true, nil

	case constants.ConditionFieldProjectType:
		return map[string]interface{}{"field": solution.ProjectType, "value": rule.Value}, true, nil

	case constants.ConditionFieldStatus:
		return map[string]interface{}{"field": solution.Status, "value": rule.Value}, true, nil

	default:
		// department, category and anything else the solution does not carry
		return nil, false, nil
	}
}

func (m *ConditionMatcher) getProgram(operator, expression string, env map[string]interface{}) (*vm.Program, error) {
	_, numeric := env["field"].(float64)
	key := operator
	if numeric {
		key += "#number"
	} else {
		key += "#string"
	}

	m.mu.RLock()
	if prog, ok := m.programCache[key]; ok {
		m.mu.RUnlock()
		return prog, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double check
	if prog, ok := m.programCache[key]; ok {
		return prog, nil
	}

	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, err
	}

	m.programCache[key] = program
	return program, nil
}

// Package engine provides standardized error types for rule operations.
package engine

import "errors"

// Errors returned by rule mutations. Evaluation never returns an error:
// every evaluation attempt yields a WorkflowExecution record instead.
var (
	// ErrRuleNotFound indicates an operation referenced a missing rule id.
	ErrRuleNotFound = errors.New("workflow rule not found")

	// ErrNameRequired indicates a rule was created or patched with an empty name.
	ErrNameRequired = errors.New("rule name is required")

	// ErrUnknownTrigger indicates a trigger kind outside the supported set.
	ErrUnknownTrigger = errors.New("unknown trigger kind")
)

// IsNotFound checks if an error indicates a missing rule.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound)
}

// IsValidationError checks if an error is a validation failure that
// should surface as HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNameRequired) || errors.Is(err, ErrUnknownTrigger)
}

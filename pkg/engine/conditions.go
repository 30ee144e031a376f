package engine

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gestia/automate/pkg/models"
)

// matchConditions evaluates a rule's conditions as a logical AND over
// the ordered list. Every condition is evaluated even after the first
// miss so the result is deterministic regardless of field lookups.
// An empty list is vacuously true.
func matchConditions(conditions []models.Condition, eventCtx models.EventContext) bool {
	matched := true

	for _, condition := range conditions {
		if !evaluateCondition(condition, eventCtx) {
			matched = false
		}
	}

	return matched
}

// evaluateCondition applies one predicate to the event context. Unknown
// operators evaluate to false (fail-closed).
func evaluateCondition(condition models.Condition, eventCtx models.EventContext) bool {
	value := eventCtx[condition.Field]

	switch condition.Operator {
	case models.OperatorEquals:
		return valuesEqual(value, condition.Value)
	case models.OperatorNotEquals:
		return !valuesEqual(value, condition.Value)
	case models.OperatorContains:
		// Defined only when the field carries a value; an absent or
		// empty field is a miss, not an error.
		if isEmptyValue(value) {
			return false
		}

		return strings.Contains(
			strings.ToLower(stringify(value)),
			strings.ToLower(stringify(condition.Value)),
		)
	case models.OperatorGreaterThan:
		ordering, ok := compareValues(value, condition.Value)

		return ok && ordering > 0
	case models.OperatorLessThan:
		ordering, ok := compareValues(value, condition.Value)

		return ok && ordering < 0
	case models.OperatorIsEmpty:
		return isEmptyValue(value)
	case models.OperatorIsNotEmpty:
		return !isEmptyValue(value)
	default:
		return false
	}
}

// valuesEqual is strict value equality with no cross-type coercion,
// except that numbers compare by value regardless of their Go type:
// JSON decoding yields float64 while Go callers pass ints.
func valuesEqual(a, b any) bool {
	aNum, aOk := toNumber(a)
	bNum, bOk := toNumber(b)

	if aOk && bOk {
		return aNum == bNum
	}

	if aOk != bOk {
		return false
	}

	return reflect.DeepEqual(a, b)
}

// compareValues returns the ordering of a against b and whether the two
// are comparable at all. The rule, in order: numeric comparison when
// both are numbers, time comparison when both are RFC 3339 strings,
// lexicographic comparison when both are strings, otherwise not
// comparable.
func compareValues(a, b any) (int, bool) {
	aNum, aOk := toNumber(a)
	bNum, bOk := toNumber(b)

	if aOk && bOk {
		switch {
		case aNum < bNum:
			return -1, true
		case aNum > bNum:
			return 1, true
		default:
			return 0, true
		}
	}

	aStr, aOk := a.(string)
	bStr, bOk := b.(string)

	if !aOk || !bOk {
		return 0, false
	}

	aTime, aErr := time.Parse(time.RFC3339, aStr)
	bTime, bErr := time.Parse(time.RFC3339, bStr)

	if aErr == nil && bErr == nil {
		return aTime.Compare(bTime), true
	}

	return strings.Compare(aStr, bStr), true
}

// isEmptyValue reports whether a field value counts as empty: nil, the
// empty string, false, or numeric zero.
func isEmptyValue(value any) bool {
	if value == nil {
		return true
	}

	if str, ok := value.(string); ok {
		return str == ""
	}

	if b, ok := value.(bool); ok {
		return !b
	}

	if num, ok := toNumber(value); ok {
		return num == 0
	}

	return false
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func stringify(value any) string {
	return fmt.Sprintf("%v", value)
}

package rules

import (
	"fmt"
	"reflect"
	"strings"
)

// FieldValue resolves a rule field to the entity's current value for it.
// Implementations return nil for fields the entity doesn't carry; a nil value
// matches nothing except notEquals against a non-nil rule value.
type FieldValue func(f Field) any

// Evaluate applies a single rule predicate to an entity value. It is total:
// malformed input fails the predicate instead of panicking, and unknown
// operators are fail-closed.
func Evaluate(entityValue any, op Operator, ruleValue any) bool {
	if entityValue == nil {
		return op == OpNotEquals && ruleValue != nil
	}

	switch op {
	case OpEquals:
		return reflect.DeepEqual(entityValue, ruleValue)

	case OpNotEquals:
		return !reflect.DeepEqual(entityValue, ruleValue)

	case OpContains:
		s, ok := entityValue.(string)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(stringify(ruleValue)))

	case OpStartsWith:
		s, ok := entityValue.(string)
		if !ok {
			return false
		}
		return strings.HasPrefix(strings.ToLower(s), strings.ToLower(stringify(ruleValue)))

	case OpGreaterThan:
		ev, ok1 := toFloat(entityValue)
		rv, ok2 := toFloat(ruleValue)
		return ok1 && ok2 && ev > rv

	case OpLessThan:
		ev, ok1 := toFloat(entityValue)
		rv, ok2 := toFloat(ruleValue)
		return ok1 && ok2 && ev < rv

	case OpIn:
		if ruleValue == nil {
			return false
		}
		list := reflect.ValueOf(ruleValue)
		if list.Kind() != reflect.Slice {
			return false
		}
		for i := 0; i < list.Len(); i++ {
			if reflect.DeepEqual(entityValue, list.Index(i).Interface()) {
				return true
			}
		}
		return false
	}

	// Unknown operator: fail closed.
	return false
}

// MatchRules reports whether every rule in the set matches the entity. An
// empty rule set matches nothing — a territory with no rules would otherwise
// capture every entity.
func MatchRules(ruleSet []Rule, get FieldValue) bool {
	if len(ruleSet) == 0 {
		return false
	}
	for _, r := range ruleSet {
		if !Evaluate(get(r.Field), r.Operator, r.Value) {
			return false
		}
	}
	return true
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Package rules implements the territory rule model and its predicate
// evaluator. Everything here is pure: no database access, no side effects.
package rules

import (
	"fmt"
	"reflect"
	"strconv"
)

// Field identifies the entity attribute a rule tests.
type Field string

const (
	FieldRegion        Field = "region"
	FieldState         Field = "state"
	FieldCountry       Field = "country"
	FieldIndustry      Field = "industry"
	FieldCompanySize   Field = "companySize"
	FieldAnnualRevenue Field = "annualRevenue"
)

// Operator identifies the comparison a rule applies.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "notEquals"
	OpContains    Operator = "contains"
	OpStartsWith  Operator = "startsWith"
	OpGreaterThan Operator = "greaterThan"
	OpLessThan    Operator = "lessThan"
	OpIn          Operator = "in"
)

// Valid reports whether f is a known rule field.
func (f Field) Valid() bool {
	switch f {
	case FieldRegion, FieldState, FieldCountry, FieldIndustry, FieldCompanySize, FieldAnnualRevenue:
		return true
	}
	return false
}

// Valid reports whether op is a known rule operator.
func (op Operator) Valid() bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpStartsWith, OpGreaterThan, OpLessThan, OpIn:
		return true
	}
	return false
}

// Rule is a single field/operator/value condition. A territory's rule set is
// evaluated as a conjunction of its rules. Value is untyped on the wire
// (string, number or array depending on the operator).
type Rule struct {
	ID       string   `json:"id,omitempty"`
	Field    Field    `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Validate rejects rules the evaluator would silently never match: unknown
// field/operator enums and value shapes that don't fit the operator. The
// evaluator itself stays fail-closed, so without this check a typo in a rule
// definition would just make the territory unmatchable with no feedback.
func (r Rule) Validate() error {
	if !r.Field.Valid() {
		return fmt.Errorf("unknown rule field %q", string(r.Field))
	}
	if !r.Operator.Valid() {
		return fmt.Errorf("unknown rule operator %q", string(r.Operator))
	}

	switch r.Operator {
	case OpIn:
		if r.Value == nil || reflect.ValueOf(r.Value).Kind() != reflect.Slice {
			return fmt.Errorf("operator %q requires an array value", string(r.Operator))
		}
	case OpGreaterThan, OpLessThan:
		if _, ok := toFloat(r.Value); !ok {
			return fmt.Errorf("operator %q requires a numeric value", string(r.Operator))
		}
	case OpContains, OpStartsWith:
		if r.Value == nil {
			return fmt.Errorf("operator %q requires a value", string(r.Operator))
		}
		if reflect.ValueOf(r.Value).Kind() == reflect.Slice {
			return fmt.Errorf("operator %q requires a scalar value", string(r.Operator))
		}
	default:
		if r.Value == nil {
			return fmt.Errorf("operator %q requires a value", string(r.Operator))
		}
	}

	return nil
}

// ValidateAll validates a full rule set, reporting the position of the first
// invalid rule.
func ValidateAll(ruleSet []Rule) error {
	for i, r := range ruleSet {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

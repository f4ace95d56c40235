package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_Equals(t *testing.T) {
	t.Run("matches identical strings", func(t *testing.T) {
		assert.True(t, Evaluate("CA", OpEquals, "CA"))
	})

	t.Run("case sensitive", func(t *testing.T) {
		assert.False(t, Evaluate("ca", OpEquals, "CA"))
	})

	t.Run("no type coercion", func(t *testing.T) {
		// "5000" (string) is not equal to 5000 (number)
		assert.False(t, Evaluate("5000", OpEquals, float64(5000)))
		assert.False(t, Evaluate(float64(1), OpEquals, "1"))
	})

	t.Run("matches identical numbers", func(t *testing.T) {
		assert.True(t, Evaluate(float64(42), OpEquals, float64(42)))
	})
}

func TestEvaluate_NotEquals(t *testing.T) {
	assert.True(t, Evaluate("CA", OpNotEquals, "NY"))
	assert.False(t, Evaluate("CA", OpNotEquals, "CA"))

	t.Run("nil entity value only matches non-nil rule value", func(t *testing.T) {
		assert.True(t, Evaluate(nil, OpNotEquals, "CA"))
		assert.False(t, Evaluate(nil, OpNotEquals, nil))
	})
}

func TestEvaluate_NilEntityValue(t *testing.T) {
	// Absent fields never match anything except notEquals.
	for _, op := range []Operator{OpEquals, OpContains, OpStartsWith, OpGreaterThan, OpLessThan, OpIn} {
		assert.False(t, Evaluate(nil, op, "anything"), "operator %s", op)
	}
}

func TestEvaluate_Contains(t *testing.T) {
	t.Run("case insensitive substring", func(t *testing.T) {
		assert.True(t, Evaluate("Software & Technology", OpContains, "software"))
		assert.True(t, Evaluate("Healthcare", OpContains, "CARE"))
	})

	t.Run("no match", func(t *testing.T) {
		assert.False(t, Evaluate("Retail", OpContains, "tech"))
	})

	t.Run("non-string entity value fails", func(t *testing.T) {
		assert.False(t, Evaluate(float64(1000), OpContains, "10"))
	})

	t.Run("non-string rule value is stringified", func(t *testing.T) {
		assert.True(t, Evaluate("Top 500 Companies", OpContains, float64(500)))
	})
}

func TestEvaluate_StartsWith(t *testing.T) {
	assert.True(t, Evaluate("California", OpStartsWith, "cal"))
	assert.False(t, Evaluate("California", OpStartsWith, "fornia"))
	assert.False(t, Evaluate(true, OpStartsWith, "t"))
}

func TestEvaluate_GreaterThanLessThan(t *testing.T) {
	t.Run("numeric comparison", func(t *testing.T) {
		assert.True(t, Evaluate(float64(1000000), OpGreaterThan, float64(500000)))
		assert.False(t, Evaluate(float64(1000000), OpLessThan, float64(500000)))
		assert.True(t, Evaluate(float64(100), OpLessThan, float64(200)))
	})

	t.Run("numeric strings are coerced", func(t *testing.T) {
		assert.True(t, Evaluate("1000", OpGreaterThan, "999"))
		assert.True(t, Evaluate("1000", OpGreaterThan, float64(999)))
	})

	t.Run("non-numeric input fails instead of panicking", func(t *testing.T) {
		assert.False(t, Evaluate("large", OpGreaterThan, float64(10)))
		assert.False(t, Evaluate(float64(10), OpLessThan, "small"))
	})

	t.Run("equal values match neither direction", func(t *testing.T) {
		assert.False(t, Evaluate(float64(10), OpGreaterThan, float64(10)))
		assert.False(t, Evaluate(float64(10), OpLessThan, float64(10)))
	})
}

func TestEvaluate_In(t *testing.T) {
	t.Run("membership in string array", func(t *testing.T) {
		sizes := []any{"1001-5000", "5001+"}
		assert.True(t, Evaluate("5001+", OpIn, sizes))
		assert.False(t, Evaluate("51-200", OpIn, sizes))
	})

	t.Run("typed slices work too", func(t *testing.T) {
		assert.True(t, Evaluate("US", OpIn, []string{"US", "CA", "MX"}))
	})

	t.Run("no coercion across types", func(t *testing.T) {
		assert.False(t, Evaluate("5", OpIn, []any{float64(5)}))
	})

	t.Run("non-array rule value fails", func(t *testing.T) {
		assert.False(t, Evaluate("CA", OpIn, "CA"))
		assert.False(t, Evaluate("CA", OpIn, nil))
	})
}

func TestEvaluate_UnknownOperator(t *testing.T) {
	assert.False(t, Evaluate("CA", Operator("matches"), "CA"))
	assert.False(t, Evaluate("CA", Operator(""), "CA"))
}

func TestMatchRules(t *testing.T) {
	company := map[Field]any{
		FieldState:         "CA",
		FieldCountry:       "US",
		FieldIndustry:      "Software",
		FieldCompanySize:   "5001+",
		FieldAnnualRevenue: float64(25000000),
	}
	get := func(f Field) any { return company[f] }

	t.Run("all rules must match", func(t *testing.T) {
		ruleSet := []Rule{
			{Field: FieldState, Operator: OpEquals, Value: "CA"},
			{Field: FieldAnnualRevenue, Operator: OpGreaterThan, Value: float64(1000000)},
		}
		assert.True(t, MatchRules(ruleSet, get))
	})

	t.Run("one failing rule fails the set", func(t *testing.T) {
		ruleSet := []Rule{
			{Field: FieldState, Operator: OpEquals, Value: "CA"},
			{Field: FieldCountry, Operator: OpEquals, Value: "DE"},
		}
		assert.False(t, MatchRules(ruleSet, get))
	})

	t.Run("empty rule set never matches", func(t *testing.T) {
		assert.False(t, MatchRules(nil, get))
		assert.False(t, MatchRules([]Rule{}, get))
	})

	t.Run("absent field fails the set", func(t *testing.T) {
		ruleSet := []Rule{{Field: FieldRegion, Operator: OpEquals, Value: "West"}}
		assert.False(t, MatchRules(ruleSet, get))
	})
}

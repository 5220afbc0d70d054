package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func leadRecord() map[string]any {
	return map[string]any{
		"firstName": "Jane",
		"email":     "jane@example.com",
		"state":     "CA",
		"zipCode":   "94107",
		"metaData": map[string]any{
			"campaign": "summer-2026",
			"score":    72.0,
			"tracking": map[string]any{
				"source": "facebook",
			},
		},
	}
}

func TestParseFieldRef(t *testing.T) {
	t.Run("Direct field", func(t *testing.T) {
		ref := ParseFieldRef("state", "")
		assert.Equal(t, FieldDirect, ref.Kind)
		assert.Equal(t, "state", ref.Name)
	})

	t.Run("MetaData field", func(t *testing.T) {
		ref := ParseFieldRef("metaData.campaign", "")
		assert.Equal(t, FieldMetaData, ref.Kind)
		assert.Equal(t, "campaign", ref.Name)
	})

	t.Run("Custom dotted path", func(t *testing.T) {
		ref := ParseFieldRef("custom", "metaData.tracking.source")
		assert.Equal(t, FieldCustom, ref.Kind)
		assert.Equal(t, []string{"metaData", "tracking", "source"}, ref.Path)
	})
}

func TestFieldRef_Resolve(t *testing.T) {
	data := leadRecord()

	t.Run("Direct attribute", func(t *testing.T) {
		v, ok := ParseFieldRef("state", "").Resolve(data)
		assert.True(t, ok)
		assert.Equal(t, "CA", v)
	})

	t.Run("MetaData key", func(t *testing.T) {
		v, ok := ParseFieldRef("metaData.campaign", "").Resolve(data)
		assert.True(t, ok)
		assert.Equal(t, "summer-2026", v)
	})

	t.Run("Custom nested path", func(t *testing.T) {
		v, ok := ParseFieldRef("custom", "metaData.tracking.source").Resolve(data)
		assert.True(t, ok)
		assert.Equal(t, "facebook", v)
	})

	t.Run("Missing intermediate segment resolves to not found", func(t *testing.T) {
		v, ok := ParseFieldRef("custom", "metaData.missing.source").Resolve(data)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("Missing direct attribute", func(t *testing.T) {
		_, ok := ParseFieldRef("ssn", "").Resolve(data)
		assert.False(t, ok)
	})

	t.Run("Walking through a scalar stops", func(t *testing.T) {
		_, ok := ParseFieldRef("custom", "state.deeper").Resolve(data)
		assert.False(t, ok)
	})
}

func TestCondition_Evaluate(t *testing.T) {
	patterns := NewPatternCache()
	data := leadRecord()

	cases := []struct {
		name string
		cond Condition
		want bool
	}{
		{"equals passes", Condition{Field: "state", Operator: OperatorEquals, Value: "CA"}, true},
		{"equals fails", Condition{Field: "state", Operator: OperatorEquals, Value: "NY"}, false},
		{"equals numeric", Condition{Field: "metaData.score", Operator: OperatorEquals, Value: "72"}, true},
		{"not_equals passes", Condition{Field: "state", Operator: OperatorNotEquals, Value: "NY"}, true},
		{"not_equals on missing field passes", Condition{Field: "ssn", Operator: OperatorNotEquals, Value: "x"}, true},
		{"greater_than numeric", Condition{Field: "metaData.score", Operator: OperatorGreaterThan, Value: "50"}, true},
		{"greater_than numeric fails", Condition{Field: "metaData.score", Operator: OperatorGreaterThan, Value: "90"}, false},
		{"less_than lexicographic", Condition{Field: "firstName", Operator: OperatorLessThan, Value: "Karl"}, true},
		{"contains substring", Condition{Field: "email", Operator: OperatorContains, Value: "@example."}, true},
		{"contains on non-string fails", Condition{Field: "metaData.score", Operator: OperatorContains, Value: "7"}, false},
		{"not_contains passes", Condition{Field: "email", Operator: OperatorNotContains, Value: "spam"}, true},
		{"not_contains on missing field fails", Condition{Field: "ssn", Operator: OperatorNotContains, Value: "x"}, false},
		{"matches regex", Condition{Field: "zipCode", Operator: OperatorMatches, Value: `^94\d{3}$`}, true},
		{"not_matches regex", Condition{Field: "zipCode", Operator: OperatorNotMatches, Value: `^10\d{3}$`}, true},
		{"malformed regex fails closed", Condition{Field: "zipCode", Operator: OperatorMatches, Value: `([`}, false},
		{"malformed regex fails closed under negation", Condition{Field: "zipCode", Operator: OperatorNotMatches, Value: `([`}, false},
		{"unknown operator fails closed", Condition{Field: "state", Operator: "bogus", Value: "CA"}, false},
		{"custom path rule", Condition{Field: "custom", CustomKey: "metaData.tracking.source", Operator: OperatorEquals, Value: "facebook"}, true},
		{"custom path missing segment", Condition{Field: "custom", CustomKey: "metaData.tracking.medium", Operator: OperatorEquals, Value: "cpc"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cond.Evaluate(data, patterns))
		})
	}
}

func TestEvaluateAll(t *testing.T) {
	patterns := NewPatternCache()
	data := leadRecord()

	t.Run("All rules must pass", func(t *testing.T) {
		conditions := []Condition{
			{Field: "state", Operator: OperatorEquals, Value: "CA"},
			{Field: "email", Operator: OperatorContains, Value: "@"},
		}
		assert.True(t, EvaluateAll(conditions, data, patterns))

		conditions = append(conditions, Condition{Field: "state", Operator: OperatorEquals, Value: "NY"})
		assert.False(t, EvaluateAll(conditions, data, patterns))
	})

	t.Run("Empty rule set passes", func(t *testing.T) {
		assert.True(t, EvaluateAll(nil, data, patterns))
	})
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "12.5", Stringify(12.5))
	assert.Equal(t, "45", Stringify(45.0))
	assert.Equal(t, "7", Stringify(7))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "CA", Stringify("CA"))
}

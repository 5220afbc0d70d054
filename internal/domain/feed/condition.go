package feed

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

// Operator is a comparison applied by a condition rule
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "not_contains"
	OperatorMatches     Operator = "matches"
	OperatorNotMatches  Operator = "not_matches"
)

// IsValid returns true if the operator is one the evaluator understands
func (o Operator) IsValid() bool {
	switch o {
	case OperatorEquals, OperatorNotEquals,
		OperatorGreaterThan, OperatorLessThan,
		OperatorContains, OperatorNotContains,
		OperatorMatches, OperatorNotMatches:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Field References
// ---------------------------------------------------------------------------

// FieldRefKind discriminates the three ways a rule can address lead data
type FieldRefKind int

const (
	// FieldDirect addresses a top-level lead attribute by name
	FieldDirect FieldRefKind = iota
	// FieldMetaData addresses a key inside the lead's metaData mapping
	FieldMetaData
	// FieldCustom addresses an arbitrary dotted path over the full record
	FieldCustom
)

// FieldRef is a resolved reference into the flattened lead record
type FieldRef struct {
	Kind FieldRefKind
	Name string
	Path []string
}

// ParseFieldRef classifies a rule's field specifier. The literal field
// name "custom" selects the dotted customKey path; a "metaData." prefix
// selects the metaData mapping; anything else is a direct attribute.
func ParseFieldRef(field, customKey string) FieldRef {
	switch {
	case field == "custom":
		return FieldRef{Kind: FieldCustom, Path: strings.Split(customKey, ".")}
	case strings.HasPrefix(field, "metaData."):
		return FieldRef{Kind: FieldMetaData, Name: strings.TrimPrefix(field, "metaData.")}
	default:
		return FieldRef{Kind: FieldDirect, Name: field}
	}
}

// Resolve looks the reference up in the given record. The second return
// is false when any path segment is missing; resolution never errors.
func (r FieldRef) Resolve(data map[string]any) (any, bool) {
	switch r.Kind {
	case FieldMetaData:
		meta, ok := data["metaData"].(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := meta[r.Name]
		return v, ok
	case FieldCustom:
		return walkPath(data, r.Path)
	default:
		v, ok := data[r.Name]
		return v, ok
	}
}

// walkPath descends a nested structure one segment at a time,
// short-circuiting as soon as a segment cannot be resolved
func walkPath(v any, path []string) (any, bool) {
	current := v
	for _, segment := range path {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// ---------------------------------------------------------------------------
// Condition
// ---------------------------------------------------------------------------

// Condition is one eligibility rule on a feed. A feed's rule set passes
// only when every condition passes.
type Condition struct {
	Field     string   `json:"field"`
	Operator  Operator `json:"operator"`
	Value     string   `json:"value"`
	CustomKey string   `json:"customKey,omitempty"`
}

// Evaluate applies the condition to the flattened lead record.
// Evaluation never errors: unknown operators, missing fields, non-string
// values under substring operators, and malformed regular expressions all
// fail closed.
func (c Condition) Evaluate(data map[string]any, patterns *PatternCache) bool {
	resolved, found := ParseFieldRef(c.Field, c.CustomKey).Resolve(data)

	switch c.Operator {
	case OperatorEquals:
		return found && looseEquals(resolved, c.Value)
	case OperatorNotEquals:
		return !found || !looseEquals(resolved, c.Value)
	case OperatorGreaterThan:
		return found && compare(resolved, c.Value) > 0
	case OperatorLessThan:
		return found && compare(resolved, c.Value) < 0
	case OperatorContains:
		s, ok := resolved.(string)
		return ok && strings.Contains(s, c.Value)
	case OperatorNotContains:
		s, ok := resolved.(string)
		return ok && !strings.Contains(s, c.Value)
	case OperatorMatches:
		re, err := patterns.Get(c.Value)
		if err != nil {
			return false
		}
		return found && re.MatchString(Stringify(resolved))
	case OperatorNotMatches:
		re, err := patterns.Get(c.Value)
		if err != nil {
			return false
		}
		return found && !re.MatchString(Stringify(resolved))
	default:
		// Unknown operators reject the feed rather than letting a
		// misconfigured rule wave every lead through
		return false
	}
}

// EvaluateAll applies a full rule set, requiring every rule to pass
func EvaluateAll(conditions []Condition, data map[string]any, patterns *PatternCache) bool {
	for _, c := range conditions {
		if !c.Evaluate(data, patterns) {
			return false
		}
	}
	return true
}

// looseEquals compares a resolved value against a configured string,
// numerically when both sides are numeric
func looseEquals(resolved any, value string) bool {
	if a, b, ok := bothNumeric(resolved, value); ok {
		return a == b
	}
	return Stringify(resolved) == value
}

// compare orders a resolved value against a configured string:
// numerically when both sides parse as numbers, lexicographically
// otherwise. Returns -1, 0 or 1.
func compare(resolved any, value string) int {
	if a, b, ok := bothNumeric(resolved, value); ok {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(Stringify(resolved), value)
}

func bothNumeric(resolved any, value string) (float64, float64, bool) {
	b, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, 0, false
	}
	switch n := resolved.(type) {
	case float64:
		return n, b, true
	case float32:
		return float64(n), b, true
	case int:
		return float64(n), b, true
	case int64:
		return float64(n), b, true
	case string:
		a, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, 0, false
		}
		return a, b, true
	default:
		return 0, 0, false
	}
}

// Stringify renders a resolved value the way templates and rule
// comparisons expect: numbers without a trailing ".0", nil as empty.
func Stringify(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case bool:
		return strconv.FormatBool(n)
	default:
		return fmt.Sprintf("%v", n)
	}
}

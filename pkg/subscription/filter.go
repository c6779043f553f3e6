package subscription

import (
	"fmt"
	"regexp"
	"strings"
)

// FilterOperator is the comparison applied by a filter rule.
type FilterOperator string

const (
	OperatorEquals     FilterOperator = "equals"
	OperatorContains   FilterOperator = "contains"
	OperatorStartsWith FilterOperator = "startsWith"
	OperatorEndsWith   FilterOperator = "endsWith"
	OperatorRegex      FilterOperator = "regex"
)

// Valid reports whether the operator is known.
func (o FilterOperator) Valid() bool {
	switch o {
	case OperatorEquals, OperatorContains, OperatorStartsWith, OperatorEndsWith, OperatorRegex:
		return true
	}
	return false
}

// FilterRule is one content condition a notification payload must satisfy.
// Rules combine with AND semantics: all must match.
type FilterRule struct {
	Field         string         `json:"field"`
	Operator      FilterOperator `json:"operator"`
	Value         string         `json:"value"`
	CaseSensitive bool           `json:"case_sensitive,omitempty"`
}

func (r FilterRule) validate() error {
	if r.Field == "" {
		return fmt.Errorf("filter rule field is required")
	}
	if !r.Operator.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFilterOperator, r.Operator)
	}
	return nil
}

// Matches evaluates the rule against a payload. A missing field or an
// invalid regex fails the rule rather than raising an error.
func (r FilterRule) Matches(payload map[string]any) bool {
	raw, ok := payload[r.Field]
	if !ok {
		return false
	}

	field := fmt.Sprint(raw)
	value := r.Value
	if !r.CaseSensitive {
		field = strings.ToLower(field)
		value = strings.ToLower(value)
	}

	switch r.Operator {
	case OperatorEquals:
		return field == value
	case OperatorContains:
		return strings.Contains(field, value)
	case OperatorStartsWith:
		return strings.HasPrefix(field, value)
	case OperatorEndsWith:
		return strings.HasSuffix(field, value)
	case OperatorRegex:
		pattern := r.Value
		if !r.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(fmt.Sprint(raw))
	}
	return false
}

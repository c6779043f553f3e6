package template

import (
	"fmt"
	"regexp"
	"slices"
	"time"
)

// VariableType is the declared type of a template variable.
type VariableType string

const (
	VariableString  VariableType = "string"
	VariableNumber  VariableType = "number"
	VariableBoolean VariableType = "boolean"
	VariableDate    VariableType = "date"
	VariableObject  VariableType = "object"
)

// Valid reports whether the variable type is known.
func (t VariableType) Valid() bool {
	switch t {
	case VariableString, VariableNumber, VariableBoolean, VariableDate, VariableObject:
		return true
	}
	return false
}

var variableNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Constraints narrows the accepted values of a variable beyond its type.
// Length and pattern constraints apply to string values; Options restricts
// the value to an explicit allow-list.
type Constraints struct {
	MinLength *int     `json:"min_length,omitempty" yaml:"min_length"`
	MaxLength *int     `json:"max_length,omitempty" yaml:"max_length"`
	Pattern   string   `json:"pattern,omitempty" yaml:"pattern"`
	Options   []string `json:"options,omitempty" yaml:"options"`
}

// Variable is a typed, optionally-required named slot a template's rendering
// depends on.
type Variable struct {
	Name         string       `json:"name" yaml:"name"`
	Type         VariableType `json:"type" yaml:"type"`
	Required     bool         `json:"required" yaml:"required"`
	DefaultValue any          `json:"default_value,omitempty" yaml:"default"`
	Constraints  *Constraints `json:"constraints,omitempty" yaml:"validation"`
}

// validate checks the variable declaration itself, not a supplied value.
func (v Variable) validate() error {
	if !variableNamePattern.MatchString(v.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidVariableName, v.Name)
	}
	if !v.Type.Valid() {
		return fmt.Errorf("%w: %q for variable %q", ErrInvalidVariableType, v.Type, v.Name)
	}
	if v.Constraints != nil && v.Constraints.Pattern != "" {
		if _, err := regexp.Compile(v.Constraints.Pattern); err != nil {
			return fmt.Errorf("%w: variable %q: %v", ErrInvalidVariablePattern, v.Name, err)
		}
	}
	return nil
}

// CheckValue validates a supplied value against the declared type and
// constraints. Each failure mode produces a distinct message so callers can
// surface precise feedback.
func (v Variable) CheckValue(value any) error {
	if err := v.checkType(value); err != nil {
		return err
	}
	return v.checkConstraints(value)
}

func (v Variable) checkType(value any) error {
	switch v.Type {
	case VariableString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("variable %q: expected string, got %T", v.Name, value)
		}
	case VariableNumber:
		if !isNumeric(value) {
			return fmt.Errorf("variable %q: expected number, got %T", v.Name, value)
		}
	case VariableBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("variable %q: expected boolean, got %T", v.Name, value)
		}
	case VariableDate:
		switch t := value.(type) {
		case time.Time:
		case string:
			if _, err := time.Parse(time.RFC3339, t); err != nil {
				return fmt.Errorf("variable %q: expected RFC3339 date, got %q", v.Name, t)
			}
		default:
			return fmt.Errorf("variable %q: expected date, got %T", v.Name, value)
		}
	case VariableObject:
		switch value.(type) {
		case map[string]any, []any:
		default:
			return fmt.Errorf("variable %q: expected object, got %T", v.Name, value)
		}
	}
	return nil
}

func (v Variable) checkConstraints(value any) error {
	c := v.Constraints
	if c == nil {
		return nil
	}

	if s, ok := value.(string); ok {
		if c.MinLength != nil && len(s) < *c.MinLength {
			return fmt.Errorf("variable %q: value shorter than minimum length %d", v.Name, *c.MinLength)
		}
		if c.MaxLength != nil && len(s) > *c.MaxLength {
			return fmt.Errorf("variable %q: value longer than maximum length %d", v.Name, *c.MaxLength)
		}
		if c.Pattern != "" {
			// Pattern validity is checked at declaration time.
			re, err := regexp.Compile(c.Pattern)
			if err == nil && !re.MatchString(s) {
				return fmt.Errorf("variable %q: value does not match pattern %q", v.Name, c.Pattern)
			}
		}
	}

	if len(c.Options) > 0 {
		if !slices.Contains(c.Options, fmt.Sprint(value)) {
			return fmt.Errorf("variable %q: value not in allowed options %v", v.Name, c.Options)
		}
	}

	return nil
}

func isNumeric(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

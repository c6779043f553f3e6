package renderer

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// evalContext carries everything a single evaluation pass needs: the
// variable scope plus the locale and timezone used by {{format}} tags.
type evalContext struct {
	vars     map[string]any
	locale   string
	location *time.Location
}

func (ec evalContext) withVars(vars map[string]any) evalContext {
	ec.vars = vars
	return ec
}

// evaluate renders tpl against the context. Unresolvable tags are left in
// the output byte for byte, so a typo in a template is visible rather than
// silently swallowed.
func evaluate(tpl string, ec evalContext) string {
	var b strings.Builder
	b.Grow(len(tpl))

	for len(tpl) > 0 {
		open := strings.Index(tpl, "{{")
		if open < 0 {
			b.WriteString(tpl)
			break
		}
		b.WriteString(tpl[:open])
		tpl = tpl[open:]

		end := strings.Index(tpl, "}}")
		if end < 0 {
			// Unterminated tag stays literal.
			b.WriteString(tpl)
			break
		}
		tag := strings.TrimSpace(tpl[2:end])
		consumed := tpl[:end+2]
		after := tpl[end+2:]

		switch {
		case strings.HasPrefix(tag, "#if "):
			body, rest, ok := extractBlock(after, "if")
			if !ok {
				b.WriteString(consumed)
				tpl = after
				continue
			}
			cond := strings.TrimSpace(strings.TrimPrefix(tag, "#if "))
			if v, found := lookupPath(ec.vars, cond); found && isTruthy(v) {
				b.WriteString(evaluate(body, ec))
			}
			tpl = rest

		case strings.HasPrefix(tag, "#each "):
			body, rest, ok := extractBlock(after, "each")
			if !ok {
				b.WriteString(consumed)
				tpl = after
				continue
			}
			path := strings.TrimSpace(strings.TrimPrefix(tag, "#each "))
			v, _ := lookupPath(ec.vars, path)
			items := toSlice(v)
			for i, item := range items {
				b.WriteString(evaluate(body, ec.withVars(loopScope(ec.vars, item, i, len(items)))))
			}
			tpl = rest

		case strings.HasPrefix(tag, "format "):
			if out, ok := evalFormat(tag, ec); ok {
				b.WriteString(out)
			} else {
				b.WriteString(consumed)
			}
			tpl = after

		case strings.HasPrefix(tag, "/"):
			// Stray closing tag without a matching open stays literal.
			b.WriteString(consumed)
			tpl = after

		default:
			if v, found := lookupPath(ec.vars, tag); found {
				b.WriteString(stringify(v))
			} else {
				b.WriteString(consumed)
			}
			tpl = after
		}
	}

	return b.String()
}

// extractBlock scans s for the close tag of the named block kind, skipping
// over nested blocks of the same kind. It returns the block body and the
// remainder after the close tag.
func extractBlock(s, kind string) (body, rest string, ok bool) {
	openTok := "{{#" + kind + " "
	closeTok := "{{/" + kind + "}}"

	depth := 1
	pos := 0
	for {
		nextOpen := strings.Index(s[pos:], openTok)
		nextClose := strings.Index(s[pos:], closeTok)
		if nextClose < 0 {
			return "", "", false
		}
		if nextOpen >= 0 && nextOpen < nextClose {
			depth++
			pos += nextOpen + len(openTok)
			continue
		}
		depth--
		abs := pos + nextClose
		if depth == 0 {
			return s[:abs], s[abs+len(closeTok):], true
		}
		pos = abs + len(closeTok)
	}
}

// lookupPath resolves a dotted path against nested map[string]any values.
// The @-prefixed loop and system variables are plain keys in the scope.
func lookupPath(vars map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")
	var current any = vars
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// isTruthy mirrors the truthiness rules templates are written against:
// nil, false, numeric zero, empty strings, and empty collections are falsy.
func isTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int32:
		return t != 0
	case int64:
		return t != 0
	case float32:
		return t != 0
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	}
	return true
}

// toSlice normalizes loopable values to []any; anything else iterates zero
// times.
func toSlice(v any) []any {
	if v == nil {
		return nil
	}
	if items, ok := v.([]any); ok {
		return items
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

// loopScope builds the per-iteration scope: parent variables, the element's
// own fields when it is an object, the element itself as "this", and the
// loop metadata variables.
func loopScope(parent map[string]any, item any, index, total int) map[string]any {
	scope := make(map[string]any, len(parent)+4)
	for k, v := range parent {
		scope[k] = v
	}
	if fields, ok := item.(map[string]any); ok {
		for k, v := range fields {
			scope[k] = v
		}
	}
	scope["this"] = item
	scope["@index"] = index
	scope["@first"] = index == 0
	scope["@last"] = index == total-1
	return scope
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

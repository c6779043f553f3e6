package renderer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// formatTagPattern matches `format <path> "<spec>"` inside a tag body.
var formatTagPattern = regexp.MustCompile(`^format\s+(\S+)\s+"([^"]*)"$`)

// dateTokenReplacer maps the template date tokens onto Go reference-time
// layout fragments. The tokens are part of the persisted template format.
var dateTokenReplacer = strings.NewReplacer(
	"YYYY", "2006",
	"MM", "01",
	"DD", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
)

// evalFormat handles a {{format path "spec"}} tag. It reports false when the
// tag is malformed, the path is unresolved, or the value does not fit the
// spec, in which case the tag stays literal in the output.
func evalFormat(tag string, ec evalContext) (string, bool) {
	m := formatTagPattern.FindStringSubmatch(tag)
	if m == nil {
		return "", false
	}
	path, spec := m[1], m[2]

	v, found := lookupPath(ec.vars, path)
	if !found {
		return "", false
	}

	switch spec {
	case "currency", "percent", "decimal":
		f, ok := toFloat(v)
		if !ok {
			return "", false
		}
		return formatNumber(f, spec, ec.locale), true
	case "uppercase", "lowercase", "capitalize", "title":
		return formatString(stringify(v), spec, ec.locale), true
	default:
		t, ok := toTime(v, ec.location)
		if !ok {
			return "", false
		}
		return t.In(ec.location).Format(dateTokenReplacer.Replace(spec)), true
	}
}

func formatNumber(v float64, spec, locale string) string {
	tag := language.Make(locale)
	p := message.NewPrinter(tag)

	switch spec {
	case "currency":
		unit, conf := currency.FromTag(tag)
		if conf == language.No {
			unit = currency.USD
		}
		return p.Sprint(currency.Symbol(unit.Amount(v)))
	case "percent":
		return p.Sprint(number.Percent(v))
	default:
		return p.Sprint(number.Decimal(v))
	}
}

func formatString(s, spec, locale string) string {
	switch spec {
	case "uppercase":
		return strings.ToUpper(s)
	case "lowercase":
		return strings.ToLower(s)
	case "capitalize":
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	default:
		return cases.Title(language.Make(locale)).String(s)
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

func toTime(v any, loc *time.Location) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.ParseInLocation("2006-01-02", t, loc); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

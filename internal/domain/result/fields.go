package result

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Text renders a stored field value as a string. Multi-valued fields are
// joined with sep.
func Text(v any, sep string) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case []string:
		return strings.Join(t, sep)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, Text(e, sep))
		}
		return strings.Join(parts, sep)
	default:
		return fmt.Sprint(t)
	}
}

// Int reads an integer field value. Multi-valued fields yield their first element.
func Int(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	case []any:
		if len(t) == 0 {
			return 0, false
		}
		return Int(t[0])
	default:
		return 0, false
	}
}

// Text returns a passthrough field rendered as text, lists joined by ", ".
func (d *Document) Text(name string) string {
	return Text(d.Fields[name], ", ")
}

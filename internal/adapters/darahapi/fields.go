package darahapi

import (
	"encoding/json"
	"html"
	"strconv"
	"strings"
	"sync"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/microcosm-cc/bluemonday"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
)

// exprCache maps expression text to its compiled jmespath.JMESPath.
var exprCache sync.Map

var strictPolicy = bluemonday.StrictPolicy()

// Record reads display fields out of one untyped item with JMESPath expressions.
// Upstream payload shapes are not fixed, so every accessor has a fallback.
type Record struct {
	raw any
}

// NewRecord wraps a decoded JSON value.
func NewRecord(raw any) Record { return Record{raw: raw} }

func compileExpr(expr string) (jmespath.JMESPath, error) {
	if v, ok := exprCache.Load(expr); ok {
		return v.(jmespath.JMESPath), nil
	}
	compiled, err := jmespath.Compile(expr)
	if err != nil {
		return nil, err
	}
	exprCache.Store(expr, compiled)
	return compiled, nil
}

// lookup evaluates expr. Invalid expressions and evaluation errors read as missing.
func (r Record) lookup(expr string) any {
	if r.raw == nil {
		return nil
	}
	compiled, err := compileExpr(expr)
	if err != nil {
		return nil
	}
	v, err := compiled.Search(r.raw)
	if err != nil {
		return nil
	}
	return v
}

// String returns the field as text, or model.Placeholder when absent or empty.
func (r Record) String(expr string) string {
	return r.StringOr(expr, model.Placeholder)
}

// StringOr returns the field as text, or fallback when absent or empty.
func (r Record) StringOr(expr, fallback string) string {
	s := stringify(r.lookup(expr))
	if s == "" {
		return fallback
	}
	return s
}

// Text is String with any markup stripped; used for free text authored upstream.
func (r Record) Text(expr string) string {
	s := stringify(r.lookup(expr))
	if s == "" {
		return model.Placeholder
	}
	clean := strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
	if clean == "" {
		return model.Placeholder
	}
	return clean
}

// Int returns the field as an integer, or 0.
func (r Record) Int(expr string) int64 {
	switch v := r.lookup(expr).(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Float returns the field as a float, or 0.
func (r Record) Float(expr string) float64 {
	switch v := r.lookup(expr).(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Bool returns the field as a boolean, or false.
func (r Record) Bool(expr string) bool {
	switch v := r.lookup(expr).(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	default:
		return false
	}
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", time.DateOnly}

// Time returns the field parsed as a timestamp, or the zero time.
func (r Record) Time(expr string) time.Time {
	s, ok := r.lookup(expr).(string)
	if !ok {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

package helper

import "time"

// Record field values decoded from JSON arrive loosely typed: numbers as
// float64, relation fields as [id, display name] pairs, timestamps as
// strings. These helpers coerce them without panicking on surprises.

// Server-side timestamp layouts.
const (
	DatetimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"
)

func Int64(v interface{}) (rv int64, ok bool) {
	if v == nil {
		return
	}
	fv, ok := v.(float64)
	if !ok {
		return
	}
	rv = int64(fv)
	return
}

func Float64(v interface{}) (rv float64, ok bool) {
	if v == nil {
		return
	}
	rv, ok = v.(float64)
	return
}

func String(v interface{}) (rv string, ok bool) {
	if v == nil {
		return
	}
	rv, ok = v.(string)
	return
}

func Bool(v interface{}) (rv bool, ok bool) {
	if v == nil {
		return
	}
	rv, ok = v.(bool)
	return
}

// Many2One unpacks a relation field, which the server renders as a
// two-element [id, display name] array. An unset relation arrives as the
// JSON value false and reports ok = false.
func Many2One(v interface{}) (id int64, name string, ok bool) {
	pair, ok := v.([]interface{})
	if !ok || len(pair) != 2 {
		ok = false
		return
	}
	id, ok = Int64(pair[0])
	if !ok {
		return
	}
	name, ok = String(pair[1])
	return
}

func Int64s(v interface{}) (rv []int64, ok bool) {
	vec, ok := v.([]interface{})
	if !ok {
		return
	}
	var n int64
	for _, item := range vec {
		n, ok = Int64(item)
		if !ok {
			return
		}
		rv = append(rv, n)
	}
	return
}

func Strings(v interface{}) (rv []string, ok bool) {
	vec, ok := v.([]interface{})
	if !ok {
		return
	}
	var s string
	for _, item := range vec {
		s, ok = String(item)
		if !ok {
			return
		}
		rv = append(rv, s)
	}
	return
}

// Time parses a server timestamp in datetime or date form.
func Time(v interface{}) (rv time.Time, ok bool) {
	s, ok := String(v)
	if !ok {
		return
	}
	for _, layout := range []string{DatetimeLayout, DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

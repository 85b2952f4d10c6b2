package odoostub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// matcher evaluates one compiled domain against a row.
type matcher func(map[string]interface{}) bool

func matchAll(map[string]interface{}) bool { return true }

// compileDomain turns the prefix-notation filter into a predicate. Terms
// left over after the explicit operators are conjunctive, matching the real
// server's implicit AND.
func compileDomain(domain []interface{}) (matcher, error) {
	if len(domain) == 0 {
		return matchAll, nil
	}
	var parts []matcher
	rest := domain
	for len(rest) > 0 {
		var m matcher
		var err error
		m, rest, err = parseTerm(rest)
		if err != nil {
			return nil, err
		}
		parts = append(parts, m)
	}
	return func(row map[string]interface{}) bool {
		for _, m := range parts {
			if !m(row) {
				return false
			}
		}
		return true
	}, nil
}

func parseTerm(terms []interface{}) (matcher, []interface{}, error) {
	switch t := terms[0].(type) {
	case string:
		switch t {
		case "&", "|":
			if len(terms) < 3 {
				return nil, nil, errors.Errorf("operator %q needs two operands", t)
			}
			a, rest, err := parseTerm(terms[1:])
			if err != nil {
				return nil, nil, err
			}
			if len(rest) == 0 {
				return nil, nil, errors.Errorf("operator %q needs two operands", t)
			}
			b, rest, err := parseTerm(rest)
			if err != nil {
				return nil, nil, err
			}
			if t == "&" {
				return func(row map[string]interface{}) bool { return a(row) && b(row) }, rest, nil
			}
			return func(row map[string]interface{}) bool { return a(row) || b(row) }, rest, nil
		case "!":
			if len(terms) < 2 {
				return nil, nil, errors.New(`operator "!" needs an operand`)
			}
			a, rest, err := parseTerm(terms[1:])
			if err != nil {
				return nil, nil, err
			}
			return func(row map[string]interface{}) bool { return !a(row) }, rest, nil
		default:
			return nil, nil, errors.Errorf("unknown operator %q", t)
		}
	case []interface{}:
		if len(t) != 3 {
			return nil, nil, errors.Errorf("condition has %d elements, want 3", len(t))
		}
		field, ok := t[0].(string)
		if !ok {
			return nil, nil, errors.New("condition field is not a string")
		}
		op, ok := t[1].(string)
		if !ok {
			return nil, nil, errors.New("condition operator is not a string")
		}
		value := t[2]
		return func(row map[string]interface{}) bool {
			return compare(row[field], op, value)
		}, terms[1:], nil
	default:
		return nil, nil, errors.Errorf("unsupported domain term %T", terms[0])
	}
}

func compare(have interface{}, op string, want interface{}) bool {
	switch op {
	case "=", "==":
		return equalValue(have, want)
	case "!=", "<>":
		return !equalValue(have, want)
	case ">":
		return lessValue(want, have)
	case "<":
		return lessValue(have, want)
	case ">=":
		return !lessValue(have, want)
	case "<=":
		return !lessValue(want, have)
	case "like":
		hs, _ := have.(string)
		ws, _ := want.(string)
		return strings.Contains(hs, strings.Trim(ws, "%"))
	case "ilike":
		hs, _ := have.(string)
		ws, _ := want.(string)
		return strings.Contains(strings.ToLower(hs), strings.ToLower(strings.Trim(ws, "%")))
	case "in":
		set, _ := want.([]interface{})
		for _, item := range set {
			if equalValue(have, item) {
				return true
			}
		}
		return false
	case "not in":
		set, _ := want.([]interface{})
		for _, item := range set {
			if equalValue(have, item) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func equalValue(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func lessValue(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa < fb
		}
	}
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}

func parseSort(spec string) (field string, desc bool) {
	parts := strings.Fields(spec)
	if len(parts) == 0 {
		return "", false
	}
	return parts[0], len(parts) > 1 && strings.EqualFold(parts[1], "desc")
}

// callReadGroup aggregates rows grouped by the first groupby spec. Numeric
// fields are summed; "__count" carries the group size. Supported kwargs:
// orderby ("field desc"), limit.
func (s *Server) callReadGroup(w http.ResponseWriter, id uint64, model string, args []json.RawMessage, kwargs map[string]interface{}) {
	var domain []interface{}
	var fields, groupBy []string
	if len(args) < 3 ||
		json.Unmarshal(args[0], &domain) != nil ||
		json.Unmarshal(args[1], &fields) != nil ||
		json.Unmarshal(args[2], &groupBy) != nil {
		writeError(w, id, 400, "read_group expects domain, fields and groupby")
		return
	}
	if len(groupBy) == 0 {
		writeError(w, id, 400, "read_group needs a groupby field")
		return
	}

	rows, serr := s.selectLocked(model, domain)
	if serr != nil {
		writeError(w, id, serr.code, serr.message)
		return
	}

	spec := groupBy[0]
	field := spec
	monthly := false
	if cut := strings.Index(spec, ":"); cut >= 0 {
		monthly = spec[cut+1:] == "month"
		field = spec[:cut]
	}

	type group struct {
		display interface{}
		sums    map[string]float64
		count   int64
	}
	groups := map[string]*group{}
	var order []string
	for _, row := range rows {
		value := row[field]
		display := value
		if monthly {
			if str, ok := value.(string); ok && len(str) >= 7 {
				display = str[:7]
			}
		}
		key := fmt.Sprintf("%v", display)
		g := groups[key]
		if g == nil {
			g = &group{display: display, sums: map[string]float64{}}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
		for _, f := range fields {
			if n, ok := toFloat(row[f]); ok {
				g.sums[f] += n
			}
		}
	}
	sort.Strings(order)

	out := make([]map[string]interface{}, 0, len(order))
	for _, key := range order {
		g := groups[key]
		row := map[string]interface{}{
			spec:      g.display,
			"__count": g.count,
		}
		for _, f := range fields {
			row[f] = g.sums[f]
		}
		out = append(out, row)
	}

	if orderby, ok := kwargs["orderby"].(string); ok && orderby != "" {
		f, desc := parseSort(orderby)
		sort.SliceStable(out, func(i, j int) bool {
			if desc {
				return lessValue(out[j][f], out[i][f])
			}
			return lessValue(out[i][f], out[j][f])
		})
	}
	if limit, ok := toFloat(kwargs["limit"]); ok && int(limit) > 0 && int(limit) < len(out) {
		out = out[:int(limit)]
	}

	writeResult(w, id, out)
}

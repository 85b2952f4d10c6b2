package proto

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Logical prefix operators understood by the server's query engine.
const (
	OpAnd = "&"
	OpOr  = "|"
	OpNot = "!"
)

// Condition is one (field, operator, value) triplet of a domain filter.
// It marshals to the three-element array form the server expects.
type Condition struct {
	Field    string
	Operator string
	Value    interface{}
}

func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]interface{}{c.Field, c.Operator, c.Value})
}

// Domain is an ordered sequence of conditions and prefix operators forming
// a query predicate. The client never interprets it; it is validated for
// shape and passed through to the server unmodified. A nil Domain matches
// everything.
type Domain []interface{}

// Where starts a domain with a single condition.
func Where(field, operator string, value interface{}) Domain {
	return Domain{Condition{Field: field, Operator: operator, Value: value}}
}

// And appends a condition; consecutive conditions are implicitly conjunctive
// on the server side.
func (d Domain) And(field, operator string, value interface{}) Domain {
	return append(d, Condition{Field: field, Operator: operator, Value: value})
}

// Or prefixes the domain with a disjunction operator and appends a condition.
func (d Domain) Or(field, operator string, value interface{}) Domain {
	out := make(Domain, 0, len(d)+2)
	out = append(out, OpOr)
	out = append(out, d...)
	return append(out, Condition{Field: field, Operator: operator, Value: value})
}

// Validate checks that every element of the domain is either a known prefix
// operator or a well-formed triplet. Meaning is left entirely to the server;
// unknown field names and operators pass.
func (d Domain) Validate() error {
	for i, term := range d {
		switch t := term.(type) {
		case Condition:
			if t.Field == "" || t.Operator == "" {
				return errors.Errorf("domain term %d: empty field or operator", i)
			}
		case string:
			if t != OpAnd && t != OpOr && t != OpNot {
				return errors.Errorf("domain term %d: unknown operator %q", i, t)
			}
		case []interface{}:
			// The decoded wire form of a triplet.
			if len(t) != 3 {
				return errors.Errorf("domain term %d: triplet has %d elements", i, len(t))
			}
		default:
			return errors.Errorf("domain term %d: unsupported type %T", i, term)
		}
	}
	return nil
}

// Package validation checks submitted form values against an explicit
// per-entity schema and reports field-level messages.
package validation

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"backend-yatube/internal/apperr"
)

type Rule struct {
	Check   func(value string) bool
	Message string
}

type Field struct {
	Name  string
	Rules []Rule
}

// Schema is an ordered list of fields. Rules of a field run in order and stop at
// the first failure, so each field reports at most one message per pass.
type Schema []Field

type Result struct {
	Errors map[string][]string `json:"errors,omitempty"`
}

func (r *Result) Add(field, message string) {
	if r.Errors == nil {
		r.Errors = map[string][]string{}
	}
	r.Errors[field] = append(r.Errors[field], message)
}

func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns nil for a valid result and an apperr validation error otherwise.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return apperr.Validation(r.Errors)
}

func (s Schema) Validate(values map[string]string) Result {
	var res Result
	for _, f := range s {
		v := values[f.Name]
		for _, rule := range f.Rules {
			if !rule.Check(v) {
				res.Add(f.Name, rule.Message)
				break
			}
		}
	}
	return res
}

func Required(message string) Rule {
	return Rule{
		Check:   func(v string) bool { return strings.TrimSpace(v) != "" },
		Message: message,
	}
}

func MaxLen(n int, message string) Rule {
	return Rule{
		Check:   func(v string) bool { return utf8.RuneCountInString(v) <= n },
		Message: message,
	}
}

func Matches(re *regexp.Regexp, message string) Rule {
	return Rule{
		Check:   func(v string) bool { return v == "" || re.MatchString(v) },
		Message: message,
	}
}

// OptionalID accepts an empty value or a positive integer.
func OptionalID(message string) Rule {
	return Rule{
		Check: func(v string) bool {
			if strings.TrimSpace(v) == "" {
				return true
			}
			id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			return err == nil && id > 0
		},
		Message: message,
	}
}

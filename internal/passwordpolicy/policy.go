// Package passwordpolicy checks candidate passwords against the portal's
// composition rules.
package passwordpolicy

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const MinLength = 8

// Rule identifies a single composition requirement.
type Rule string

const (
	RuleMinLength Rule = "min_length"
	RuleUppercase Rule = "uppercase"
	RuleLowercase Rule = "lowercase"
	RuleDigit     Rule = "digit"
	RuleSpecial   Rule = "special"
)

var ruleMessages = map[Rule]string{
	RuleMinLength: "password must be at least 8 characters long",
	RuleUppercase: "password must contain at least one uppercase letter",
	RuleLowercase: "password must contain at least one lowercase letter",
	RuleDigit:     "password must contain at least one digit",
	RuleSpecial:   "password must contain at least one special character",
}

// Message returns the human readable description of the rule.
func (r Rule) Message() string {
	return ruleMessages[r]
}

// ViolationError lists every rule a candidate broke, in rule order.
type ViolationError struct {
	Violations []Rule
}

func (e *ViolationError) Error() string {
	msgs := e.Messages()
	return "password policy violation: " + strings.Join(msgs, "; ")
}

func (e *ViolationError) Messages() []string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message())
	}
	return msgs
}

// Has reports whether rule r is among the violations.
func (e *ViolationError) Has(r Rule) bool {
	for _, v := range e.Violations {
		if v == r {
			return true
		}
	}
	return false
}

// Validate returns nil when candidate satisfies every rule, otherwise a
// *ViolationError naming all broken rules.
func Validate(candidate string) error {
	var upper, lower, digit, special bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r):
			special = true
		}
	}

	var violations []Rule
	if utf8.RuneCountInString(candidate) < MinLength {
		violations = append(violations, RuleMinLength)
	}
	if !upper {
		violations = append(violations, RuleUppercase)
	}
	if !lower {
		violations = append(violations, RuleLowercase)
	}
	if !digit {
		violations = append(violations, RuleDigit)
	}
	if !special {
		violations = append(violations, RuleSpecial)
	}

	if len(violations) == 0 {
		return nil
	}
	return &ViolationError{Violations: violations}
}

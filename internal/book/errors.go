package book

import (
	"errors"
	"fmt"
	"strings"
)

// Violation rules.
const (
	RuleRequired  = "required"
	RuleMaxLength = "max"
	RuleType      = "type"
	RuleRange     = "range"
	RuleUnique    = "unique"
	RuleUnknown   = "unknown"
)

// ErrConstraintViolation matches any *ConstraintViolation with errors.Is.
var ErrConstraintViolation = errors.New("constraint violation")

// Violation describes one failed field rule. Index is the position of the
// offending record in the committed batch.
type Violation struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("record %d: %s: %s", v.Index, v.Field, v.Message)
}

// ConstraintViolation is returned by Session.Commit when any staged record
// breaks a declared constraint. Nothing from the batch has been persisted.
type ConstraintViolation struct {
	Violations []Violation
}

func (e *ConstraintViolation) Error() string {
	if len(e.Violations) == 0 {
		return ErrConstraintViolation.Error()
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return ErrConstraintViolation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ConstraintViolation) Is(target error) bool {
	return target == ErrConstraintViolation
}

// Only reports whether every violation has the given rule.
func (e *ConstraintViolation) Only(rule string) bool {
	if len(e.Violations) == 0 {
		return false
	}
	for _, v := range e.Violations {
		if v.Rule != rule {
			return false
		}
	}
	return true
}

// Fields returns the distinct field names that failed, in order of first appearance.
func (e *ConstraintViolation) Fields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range e.Violations {
		if !seen[v.Field] {
			seen[v.Field] = true
			out = append(out, v.Field)
		}
	}
	return out
}

func violate(index int, field, rule, message string) Violation {
	return Violation{Index: index, Field: field, Rule: rule, Message: message}
}

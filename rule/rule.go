// File: rule/rule.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package rule defines the rule record evaluated by the engine facade.
package rule

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmptyID         = errors.New("rule: empty id")
	ErrEmptyExpression = errors.New("rule: empty expression")
	ErrDuplicateID     = errors.New("rule: duplicate id")
)

// Rule is a named condition. Higher Priority means more important.
type Rule struct {
	ID         string `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	Expression string `yaml:"expression" json:"expression"`
	Priority   int    `yaml:"priority" json:"priority"`
	Active     bool   `yaml:"active" json:"active"`
}

// New returns an active rule with a random UUID.
func New(name, expression string, priority int) Rule {
	return Rule{
		ID:         uuid.NewString(),
		Name:       name,
		Expression: expression,
		Priority:   priority,
		Active:     true,
	}
}

// Validate checks the fields the engine relies on.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(r.Expression) == "" {
		return fmt.Errorf("%w (id %s)", ErrEmptyExpression, r.ID)
	}
	return nil
}

func (r Rule) String() string {
	return fmt.Sprintf("Rule { id: %s, name: %s, priority: %d }", r.ID, r.Name, r.Priority)
}

// SortByPriority orders rules by descending priority, keeping input order
// among equals.
func SortByPriority(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
}

// Active returns the active rules of rs, preserving order.
func Active(rs []Rule) []Rule {
	out := make([]Rule, 0, len(rs))
	for _, r := range rs {
		if r.Active {
			out = append(out, r)
		}
	}
	return out
}

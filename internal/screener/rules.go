package screener

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wonny/stockscreen/backend/internal/contracts"
)

var (
	// ErrUnknownFilter is returned when a key has no definition
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrRuleNotFound is returned when a rule id is not in the set
	ErrRuleNotFound = errors.New("rule not found")
)

// RuleSet is the ordered collection of a user's active rules
type RuleSet struct {
	reg   *Registry
	rules []contracts.Rule
	newID func() string
}

// NewRuleSet creates an empty rule set over reg
func NewRuleSet(reg *Registry) *RuleSet {
	return &RuleSet{
		reg:   reg,
		newID: func() string { return uuid.NewString() },
	}
}

// RuleSetFrom validates existing rules against the registry and wraps them.
// Rules without an id get one.
func RuleSetFrom(reg *Registry, rules []contracts.Rule) (*RuleSet, error) {
	set := NewRuleSet(reg)
	for _, rule := range rules {
		if _, ok := reg.Definition(rule.Key); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, rule.Key)
		}
		rule = rule.Clone()
		if rule.ID == "" {
			rule.ID = set.newID()
		}
		set.rules = append(set.rules, rule)
	}
	return set, nil
}

// Add activates the filter key with the definition's default params.
// If the key is already active the existing rule is returned unchanged.
func (s *RuleSet) Add(key string) (contracts.Rule, error) {
	def, ok := s.reg.Definition(key)
	if !ok {
		return contracts.Rule{}, fmt.Errorf("%w: %s", ErrUnknownFilter, key)
	}

	for _, rule := range s.rules {
		if rule.Key == key {
			return rule.Clone(), nil
		}
	}

	params := make(map[string]string, len(def.DefaultParams))
	for k, v := range def.DefaultParams {
		params[k] = v
	}

	rule := contracts.Rule{ID: s.newID(), Key: key, Params: params}
	s.rules = append(s.rules, rule)
	return rule.Clone(), nil
}

// Update merges params into the rule with the given id
func (s *RuleSet) Update(id string, params map[string]string) error {
	for i := range s.rules {
		if s.rules[i].ID != id {
			continue
		}
		if s.rules[i].Params == nil {
			s.rules[i].Params = make(map[string]string, len(params))
		}
		for k, v := range params {
			s.rules[i].Params[k] = v
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
}

// Remove deletes the rule with the given id, keeping the order of the rest
func (s *RuleSet) Remove(id string) error {
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
}

// Clear removes every rule
func (s *RuleSet) Clear() {
	s.rules = nil
}

// Len returns the number of active rules
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Rules returns a copy of the active rules in insertion order
func (s *RuleSet) Rules() []contracts.Rule {
	out := make([]contracts.Rule, len(s.rules))
	for i, rule := range s.rules {
		out[i] = rule.Clone()
	}
	return out
}

// ByCategory returns the active rules whose definition has category c
func (s *RuleSet) ByCategory(c contracts.Category) []contracts.Rule {
	out := make([]contracts.Rule, 0)
	for _, rule := range s.rules {
		if cat, ok := s.reg.CategoryOf(rule); ok && cat == c {
			out = append(out, rule.Clone())
		}
	}
	return out
}

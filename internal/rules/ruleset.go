package rules

import "slices"

// RuleSet is an ordered, read-only collection of rules.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet validates rules and returns them as a RuleSet. The empty set is
// valid and matches nothing.
func NewRuleSet(rules ...Rule) (*RuleSet, error) {
	for _, rule := range rules {
		if err := rule.validate(); err != nil {
			return nil, err
		}
	}
	return &RuleSet{rules: slices.Clone(rules)}, nil
}

// Build assembles extension rules and an optional script rule. The script
// rule is consulted before the extension rules when scriptFirst is set.
func Build(extension []Rule, script *Rule, scriptFirst bool) (*RuleSet, error) {
	all := make([]Rule, 0, len(extension)+1)
	if script != nil && scriptFirst {
		all = append(all, *script)
	}
	all = append(all, extension...)
	if script != nil && !scriptFirst {
		all = append(all, *script)
	}
	return NewRuleSet(all...)
}

// Rules returns a copy of the ordered rules.
func (s *RuleSet) Rules() []Rule {
	if s == nil {
		return nil
	}
	return slices.Clone(s.rules)
}

func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Destinations lists every folder the set is known to sort into, in first
// appearance order: extension destinations and declared script destinations.
func (s *RuleSet) Destinations() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		if _, ok := seen[name]; ok || name == "" {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, rule := range s.rules {
		switch m := rule.Matcher.(type) {
		case ExtensionEquals:
			add(rule.Destination)
		case ScriptPredicate:
			for _, dest := range m.Destinations {
				add(dest)
			}
		}
	}
	return out
}

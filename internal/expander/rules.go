package expander

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/rules.yaml
var rulesYAML []byte

// RuleConfig is one suffix rule as written in YAML.
type RuleConfig struct {
	Name     string   `yaml:"name"`
	Pattern  string   `yaml:"pattern"`
	Variants []string `yaml:"variants"`
}

// RulesConfig holds the synonym rules loaded from YAML
type RulesConfig struct {
	SuffixRules []RuleConfig `yaml:"suffix_rules"`
	CodePattern string       `yaml:"code_pattern"`
}

// Rule is a compiled suffix rule. Variants may reference capture groups
// ("${1} port").
type Rule struct {
	Name     string
	Pattern  *regexp.Regexp
	Variants []string
}

// LoadRulesConfig parses a rules document.
func LoadRulesConfig(data []byte) (*RulesConfig, error) {
	cfg := &RulesConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse synonym rules: %w", err)
	}
	return cfg, nil
}

// Compile turns the YAML form into ready-to-run rules.
func (c *RulesConfig) Compile() ([]Rule, *regexp.Regexp, error) {
	rules := make([]Rule, 0, len(c.SuffixRules))
	for _, rc := range c.SuffixRules {
		re, err := regexp.Compile(rc.Pattern)
		if err != nil {
			return nil, nil, fmt.Errorf("rule %q: %w", rc.Name, err)
		}
		if len(rc.Variants) == 0 {
			return nil, nil, fmt.Errorf("rule %q has no variants", rc.Name)
		}
		rules = append(rules, Rule{Name: rc.Name, Pattern: re, Variants: rc.Variants})
	}

	code, err := regexp.Compile(c.CodePattern)
	if err != nil {
		return nil, nil, fmt.Errorf("code pattern: %w", err)
	}
	return rules, code, nil
}

var (
	defaultOnce     sync.Once
	defaultRules    []Rule
	defaultCodeExpr *regexp.Regexp
)

func loadDefaults() {
	cfg, err := LoadRulesConfig(rulesYAML)
	if err != nil {
		panic(err)
	}
	defaultRules, defaultCodeExpr, err = cfg.Compile()
	if err != nil {
		panic(err)
	}
}

// Rules returns the built-in rule table in evaluation order.
func Rules() []Rule {
	defaultOnce.Do(loadDefaults)
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}

// Synonyms flattens the rule table into groups of interchangeable words, the
// shape search engines expect. Only literal alternatives are kept.
func Synonyms() map[string][]string {
	groups := map[string][]string{}
	for _, r := range Rules() {
		var words []string
		for _, v := range r.Variants {
			if !strings.Contains(v, "$") {
				words = append(words, v)
			}
		}
		for _, w := range words {
			for _, other := range words {
				if other != w {
					groups[w] = append(groups[w], other)
				}
			}
		}
	}
	return groups
}

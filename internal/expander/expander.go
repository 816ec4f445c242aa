// Package expander derives the matchable token set of a POI.
package expander

import (
	"regexp"
	"strings"

	"github.com/place-resolver/app/models"
	"github.com/place-resolver/internal/normalizer"
)

// Expander applies suffix synonym rules and code extraction to raw POI strings.
type Expander struct {
	rules       []Rule
	codePattern *regexp.Regexp
}

// New builds an Expander over an explicit rule table.
func New(rules []Rule, codePattern *regexp.Regexp) *Expander {
	return &Expander{rules: rules, codePattern: codePattern}
}

// Default returns an Expander over the embedded rule table.
func Default() *Expander {
	defaultOnce.Do(loadDefaults)
	return New(defaultRules, defaultCodeExpr)
}

// BuildTokens expands p with the embedded rule table.
func BuildTokens(p models.POI) []string {
	return Default().BuildTokens(p)
}

// BuildTokens returns the deduplicated token set of p in first-seen order.
// Every candidate contributes its raw form and its normalized form.
func (e *Expander) BuildTokens(p models.POI) []string {
	sources := make([]string, 0, 4+len(p.KeywordsKo))
	sources = append(sources, p.NameKo, p.Name, p.City, p.Country)
	sources = append(sources, p.KeywordsKo...)

	seen := make(map[string]struct{})
	var tokens []string
	add := func(s string) {
		if strings.TrimSpace(s) == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		tokens = append(tokens, s)
	}

	for _, raw := range sources {
		for _, c := range e.Expand(raw) {
			add(c)
			add(normalizer.Normalize(c))
		}
	}
	return tokens
}

// Expand returns the candidates for one raw string: the string itself, one
// entry per variant of every matching rule, and any bracketed codes. Rules see
// only the raw string, so their outputs never combine.
func (e *Expander) Expand(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	out := []string{raw}
	for _, r := range e.rules {
		if !r.Pattern.MatchString(raw) {
			continue
		}
		for _, v := range r.Variants {
			out = append(out, r.Pattern.ReplaceAllString(raw, v))
		}
	}

	if e.codePattern != nil {
		for _, m := range e.codePattern.FindAllStringSubmatch(raw, -1) {
			if len(m) > 1 {
				out = append(out, m[1])
			}
		}
	}
	return out
}

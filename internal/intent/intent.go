// Package intent classifies chat utterances and extracts the slots the
// handlers need (origin, destination, country, category).
package intent

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Intent is the coarse category of a request.
type Intent string

const (
	Navigate Intent = "navigate"
	Nearby   Intent = "nearby"
	Show     Intent = "show"
	General  Intent = "general"
)

// Mode is the input tab selected by the client. ModeAuto leaves the decision
// to the rule table.
type Mode string

const (
	ModeAuto    Mode = ""
	ModeGo      Mode = "go"
	ModeShow    Mode = "show"
	ModeGeneral Mode = "general"
)

// ParseMode maps client input to a Mode. Unknown values mean ModeAuto.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeGo, "navigate", "directions":
		return ModeGo
	case ModeShow, "photos":
		return ModeShow
	case ModeGeneral, "free":
		return ModeGeneral
	default:
		return ModeAuto
	}
}

// Rule pairs keyword patterns with the intent it selects. Pattern runs on
// the lower-cased text with whitespace removed, so Korean keywords match
// however they are spaced. Words runs on the lower-cased text as typed and
// only matches whole Latin words.
type Rule struct {
	Intent  Intent
	Pattern *regexp.Regexp
	Words   *regexp.Regexp
}

var (
	nearbyKeywords = []string{"근처", "주변", "가까운", "인근"}
	nearbyWords    = []string{"nearby", "near", "around"}

	navigateKeywords = []string{"어떻게가", "가는법", "가는길", "길찾기", "길안내", "가려면", "까지", "경로", "→", "->"}
	navigateWords    = []string{"route", "directions", "how to get", "navigate"}

	showKeywords = []string{"보여줘", "보여주세요", "보여줄래", "사진", "이미지"}
	showWords    = []string{"show me", "photo", "photos", "picture", "pictures"}
)

// DefaultRules returns the rule table in evaluation order. NEARBY is tested
// before NAVIGATE, so "공항 근처 어떻게 가" is a nearby search.
func DefaultRules() []Rule {
	return []Rule{
		{Intent: Nearby, Pattern: buildKeywordRegex(nearbyKeywords), Words: buildWordRegex(nearbyWords)},
		{Intent: Navigate, Pattern: buildKeywordRegex(navigateKeywords), Words: buildWordRegex(navigateWords)},
		{Intent: Show, Pattern: buildKeywordRegex(showKeywords), Words: buildWordRegex(showWords)},
	}
}

// matches reports whether either pattern of r fires.
func (r Rule) matches(compact, lower string) bool {
	if r.Pattern != nil && r.Pattern.MatchString(compact) {
		return true
	}
	return r.Words != nil && r.Words.MatchString(lower)
}

// buildKeywordRegex compiles a case-insensitive alternation with the longest
// keyword first.
func buildKeywordRegex(keywords []string) *regexp.Regexp {
	sorted := append([]string(nil), keywords...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len([]rune(sorted[i])) > len([]rune(sorted[j]))
	})

	quoted := make([]string, len(sorted))
	for i, k := range sorted {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile("(?i)(?:" + strings.Join(quoted, "|") + ")")
}

// buildWordRegex is buildKeywordRegex for Latin phrases: each phrase must
// start and end on a word boundary, and its spaces match any whitespace.
func buildWordRegex(words []string) *regexp.Regexp {
	sorted := append([]string(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	quoted := make([]string, len(sorted))
	for i, w := range sorted {
		quoted[i] = strings.Join(strings.Fields(regexp.QuoteMeta(w)), `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Classifier evaluates an ordered rule table. The first matching rule wins.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a Classifier over rules.
func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

var defaultClassifier = NewClassifier(DefaultRules())

// Detect classifies text with the default rule table.
func Detect(text string) Intent {
	return defaultClassifier.Detect(text)
}

// Resolve classifies text with the default rule table, honoring an explicit mode.
func Resolve(text string, mode Mode) Intent {
	return defaultClassifier.Resolve(text, mode)
}

// Detect returns the intent of the first rule matching text, or General.
func (c *Classifier) Detect(text string) Intent {
	compact := compactLower(text)
	if compact == "" {
		return General
	}
	lower := strings.ToLower(text)
	for _, r := range c.rules {
		if r.matches(compact, lower) {
			return r.Intent
		}
	}
	return General
}

// Resolve lets an explicit client mode override the rule table.
func (c *Classifier) Resolve(text string, mode Mode) Intent {
	switch mode {
	case ModeGo:
		return Navigate
	case ModeShow:
		return Show
	case ModeGeneral:
		return General
	default:
		return c.Detect(text)
	}
}

// Rules returns a copy of the rule table.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

func compactLower(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

package models

import (
	"github.com/place-resolver/internal/intent"
	"github.com/place-resolver/internal/links"
)

// ResultKind tells the presentation layer how to render a ChatResult.
type ResultKind string

// Result kinds
const (
	KindText     ResultKind = "text"     // clarification or help
	KindLinks    ResultKind = "links"    // resolved answer with links
	KindFallback ResultKind = "fallback" // place not found, generic search link
)

// ChatResult is the structured answer to one chat utterance.
type ChatResult struct {
	Intent         intent.Intent `bson:"intent" json:"intent"`
	Kind           ResultKind    `bson:"kind" json:"kind"`
	Text           string        `bson:"text" json:"text"`                                   // Intro line
	Links          []links.Link  `bson:"links,omitempty" json:"links,omitempty"`             // Link block
	Hint           string        `bson:"hint,omitempty" json:"hint,omitempty"`               // Closing line
	Suggestions    []string      `bson:"suggestions,omitempty" json:"suggestions,omitempty"` // Did-you-mean names
	Slots          intent.Slots  `bson:"slots" json:"slots"`
	POI            *POI          `bson:"poi,omitempty" json:"poi,omitempty"` // Resolved place
	DatasetVersion string        `bson:"dataset_version" json:"dataset_version"`
}

// HasLinks reports whether the result carries at least one actionable link.
func (r *ChatResult) HasLinks() bool {
	return r != nil && len(r.Links) > 0
}

// IsValidKind reports whether Kind is one of the known kinds.
func (r *ChatResult) IsValidKind() bool {
	switch r.Kind {
	case KindText, KindLinks, KindFallback:
		return true
	default:
		return false
	}
}

// Package chat turns one utterance into a structured answer: it classifies
// the request, resolves places and builds map links.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/place-resolver/app/models"
	"github.com/place-resolver/internal/intent"
	"github.com/place-resolver/internal/links"
	"github.com/place-resolver/internal/poi"
	"github.com/place-resolver/internal/resolver"
	"go.uber.org/zap"
)

// DefaultSuggestionLimit caps the did-you-mean list on not-found answers.
const DefaultSuggestionLimit = 3

// RelatedPlaceLimit caps the place list offered for a vague destination.
const RelatedPlaceLimit = 6

// Trip is optional context the caller already knows about the user's trip.
type Trip struct {
	Country     string `json:"country,omitempty" bson:"country,omitempty"`
	Destination string `json:"destination,omitempty" bson:"destination,omitempty"`
}

// Request is one chat turn.
type Request struct {
	Text string
	Mode intent.Mode
	Trip *Trip
}

// Engine dispatches requests to the per-intent handlers. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	source          resolver.SnapshotSource
	resolver        *resolver.Resolver
	classifier      *intent.Classifier
	suggester       resolver.Suggester
	suggestionLimit int
	logger          *zap.Logger
}

// NewEngine creates an Engine over source. A nil suggester disables
// suggestions on not-found answers.
func NewEngine(source resolver.SnapshotSource, suggester resolver.Suggester, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		source:          source,
		resolver:        resolver.New(source),
		classifier:      intent.NewClassifier(intent.DefaultRules()),
		suggester:       suggester,
		suggestionLimit: DefaultSuggestionLimit,
		logger:          logger,
	}
}

// turn carries what one request needs across handlers.
type turn struct {
	ctx   context.Context
	text  string
	mode  intent.Mode
	slots intent.Slots
	trip  *Trip
	snap  *poi.Snapshot
}

// Handle answers one request. It never fails: every path ends in a message,
// and every not-found path carries a search link.
func (e *Engine) Handle(ctx context.Context, req Request) *models.ChatResult {
	t := &turn{
		ctx:   ctx,
		text:  strings.TrimSpace(req.Text),
		mode:  req.Mode,
		slots: intent.ExtractSlots(req.Text),
		trip:  req.Trip,
		snap:  e.source.Snapshot(),
	}
	applyTrip(&t.slots, req.Trip)

	in := e.classifier.Resolve(t.text, req.Mode)

	var res *models.ChatResult
	switch in {
	case intent.Navigate:
		res = e.navigate(t)
	case intent.Show:
		res = e.show(t)
	case intent.Nearby:
		res = e.nearby(t)
	default:
		res = &models.ChatResult{Kind: models.KindText, Text: msgHelp}
	}

	res.Intent = in
	res.Slots = t.slots
	if t.snap != nil {
		res.DatasetVersion = t.snap.Version()
	}

	e.logger.Debug("Chat handled",
		zap.String("intent", string(in)),
		zap.String("kind", string(res.Kind)),
		zap.Int("links", len(res.Links)))
	return res
}

// HandleNavigate answers a directions request on the current snapshot.
func (e *Engine) HandleNavigate(ctx context.Context, text string) *models.ChatResult {
	return e.handleAs(ctx, text, intent.ModeGo)
}

// HandleShow answers a show-me request on the current snapshot. Text without
// a show phrase is treated as the place itself.
func (e *Engine) HandleShow(ctx context.Context, text string) *models.ChatResult {
	return e.handleAs(ctx, text, intent.ModeShow)
}

// HandleNearby answers a nearby category search on the current snapshot.
func (e *Engine) HandleNearby(ctx context.Context, text string) *models.ChatResult {
	t := &turn{ctx: ctx, text: strings.TrimSpace(text), slots: intent.ExtractSlots(text), snap: e.source.Snapshot()}
	res := e.nearby(t)
	res.Intent = intent.Nearby
	res.Slots = t.slots
	if t.snap != nil {
		res.DatasetVersion = t.snap.Version()
	}
	return res
}

func (e *Engine) handleAs(ctx context.Context, text string, mode intent.Mode) *models.ChatResult {
	return e.Handle(ctx, Request{Text: text, Mode: mode})
}

func (e *Engine) navigate(t *turn) *models.ChatResult {
	dest := t.slots.Destination
	if dest == "" {
		return &models.ChatResult{Kind: models.KindText, Text: msgClarifyNavigate}
	}

	match := e.resolver.ResolveIn(t.snap, dest)
	if match == nil {
		if res := e.relatedPlaces(t, dest); res != nil {
			return res
		}
		return e.notFound(t, dest)
	}
	target := match.POI.CanonicalName()

	origin, originLabel := e.origin(t)

	var intro string
	if originLabel != "" {
		intro = fmt.Sprintf(msgNavigateFound, originLabel, match.POI.DisplayName())
	} else {
		intro = fmt.Sprintf(msgNavigateFoundNoFrom, match.POI.DisplayName())
	}

	var out []links.Link
	for _, mode := range travelModes(links.InferMode(t.text)) {
		out = append(out, links.Link{
			Label: modeLabel(mode),
			URL:   links.DirectionsURL(origin, target, mode),
			Mode:  mode,
		})
	}

	p := match.POI
	return &models.ChatResult{
		Kind:  models.KindLinks,
		Text:  intro,
		Links: out,
		Hint:  msgNavigateHint,
		POI:   &p,
	}
}

// origin returns the value for the link and the label for the intro. A
// resolved origin uses its canonical name; an unresolved one keeps the
// user's text; the device location leaves the link origin empty.
func (e *Engine) origin(t *turn) (string, string) {
	if t.slots.OriginIsHere {
		return "", hereLabel
	}
	raw := t.slots.Origin
	if raw == "" {
		return "", ""
	}
	if m := e.resolver.ResolveIn(t.snap, raw); m != nil {
		return m.POI.CanonicalName(), raw
	}
	return raw, raw
}

// travelModes lists driving and transit with the inferred mode first.
// Walking is only offered when asked for.
func travelModes(inferred links.TravelMode) []links.TravelMode {
	switch inferred {
	case links.Walking:
		return []links.TravelMode{links.Walking, links.Driving, links.Transit}
	case links.Transit:
		return []links.TravelMode{links.Transit, links.Driving}
	default:
		return []links.TravelMode{links.Driving, links.Transit}
	}
}

func modeLabel(mode links.TravelMode) string {
	switch mode {
	case links.Transit:
		return labelTransit
	case links.Walking:
		return labelWalking
	default:
		return labelDriving
	}
}

func (e *Engine) show(t *turn) *models.ChatResult {
	target := intent.ExtractShowTarget(t.text)
	if target == "" && t.mode == intent.ModeShow {
		target = t.text
	}
	if target == "" {
		return &models.ChatResult{Kind: models.KindText, Text: msgClarifyShow}
	}

	if intent.ContainsCategoryWord(target) {
		return &models.ChatResult{
			Kind: models.KindLinks,
			Text: fmt.Sprintf(msgShowCategory, target),
			Links: []links.Link{
				{Label: labelMap, URL: links.SearchURL(target)},
				{Label: labelPhotos, URL: links.ImageSearchURL(target)},
			},
			Hint: msgShowHint,
		}
	}

	match := e.resolver.ResolveIn(t.snap, target)
	if match == nil {
		return e.notFound(t, target)
	}

	name := match.POI.CanonicalName()
	p := match.POI
	return &models.ChatResult{
		Kind: models.KindLinks,
		Text: fmt.Sprintf(msgShowFound, p.DisplayName()),
		Links: []links.Link{
			{Label: labelMap, URL: links.SearchURL(name)},
			{Label: labelPhotos, URL: links.ImageSearchURL(name)},
			{Label: labelDriving, URL: links.DirectionsURL("", name, links.Driving), Mode: links.Driving},
		},
		Hint: msgShowHint,
		POI:  &p,
	}
}

func (e *Engine) nearby(t *turn) *models.ChatResult {
	keyword := t.slots.CategoryKeyword
	if keyword == "" {
		keyword = t.slots.NearbyKeyword
	}
	if keyword == "" {
		return &models.ChatResult{Kind: models.KindText, Text: msgClarifyNearby}
	}

	anchor := nearbyAnchor(t.slots, t.trip)

	query, text := keyword, fmt.Sprintf(msgNearbyHere, keyword)
	if anchor != "" {
		query = anchor + " " + keyword
		text = fmt.Sprintf(msgNearbyAnchor, anchor, keyword)
	}

	return &models.ChatResult{
		Kind:  models.KindLinks,
		Text:  text,
		Links: []links.Link{{Label: fmt.Sprintf(labelSearch, query), URL: links.SearchURL(query)}},
		Hint:  msgNearbyHint,
	}
}

// nearbyAnchor picks the place a nearby search is biased to: city, then
// destination, then country, then the trip destination.
func nearbyAnchor(s intent.Slots, trip *Trip) string {
	candidates := []string{s.City, s.Destination, s.Country}
	if trip != nil {
		candidates = append(candidates, trip.Destination)
	}
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || intent.IsHere(c) {
			continue
		}
		return c
	}
	return ""
}

// relatedPlaces answers a destination such as "미국 크루즈 터미널" or a bare
// country name with that country's airports or cruise terminals, each with a
// directions link. It returns nil when the destination names no country or
// is not vague, or when the dataset has nothing to offer.
func (e *Engine) relatedPlaces(t *turn, dest string) *models.ChatResult {
	country, countryOnly := intent.CountryByName(dest)
	kinds := resolver.KindsNamed(dest)
	if !countryOnly {
		if len(kinds) == 0 {
			return nil
		}
		var ok bool
		if country, ok = e.destinationCountry(t, dest); !ok {
			return nil
		}
	}

	places := resolver.Places(t.snap, resolver.PlaceFilter{
		Countries: country.Spellings(),
		Kinds:     kinds,
		Limit:     RelatedPlaceLimit,
	})
	if len(places) == 0 {
		return nil
	}

	origin, _ := e.origin(t)
	mode := links.InferMode(t.text)

	res := &models.ChatResult{
		Kind:  models.KindFallback,
		Text:  fmt.Sprintf(msgRelatedPlaces, dest),
		Links: []links.Link{{Label: fmt.Sprintf(labelSearch, dest), URL: links.SearchURL(dest)}},
		Hint:  msgRelatedHint,
	}
	for _, p := range places {
		label := p.Label
		if p.City != "" {
			label += " · " + p.City
		}
		res.Links = append(res.Links, links.Link{
			Label: label,
			URL:   links.DirectionsURL(origin, p.Value, mode),
			Mode:  mode,
		})
		res.Suggestions = append(res.Suggestions, p.Label)
	}
	return res
}

// destinationCountry finds the country a destination phrase names, directly
// or through a city, and falls back to the trip country.
func (e *Engine) destinationCountry(t *turn, dest string) (intent.Country, bool) {
	if s := intent.ExtractSlots(dest); s.CountryCode != "" {
		return intent.CountryByCode(s.CountryCode)
	}
	if t.trip == nil || strings.TrimSpace(t.trip.Country) == "" {
		return intent.Country{}, false
	}
	if c, ok := intent.CountryByName(t.trip.Country); ok {
		return c, true
	}
	return intent.CountryByCode(t.trip.Country)
}

// notFound answers with a generic search for the literal phrase and, when
// available, a few close names from the dataset.
func (e *Engine) notFound(t *turn, phrase string) *models.ChatResult {
	res := &models.ChatResult{
		Kind:  models.KindFallback,
		Text:  fmt.Sprintf(msgNotFound, phrase),
		Links: []links.Link{{Label: fmt.Sprintf(labelSearch, phrase), URL: links.SearchURL(phrase)}},
	}

	if e.suggester == nil {
		return res
	}
	suggestions, err := e.suggester.Suggest(t.ctx, phrase, e.suggestionLimit)
	if err != nil {
		e.logger.Warn("Suggestion lookup failed", zap.String("phrase", phrase), zap.Error(err))
		return res
	}
	if len(suggestions) > 0 {
		res.Suggestions = suggestions
		res.Hint = msgNotFoundHint
	}
	return res
}

// applyTrip fills slots the utterance left empty from the trip context.
func applyTrip(s *intent.Slots, trip *Trip) {
	if trip == nil || s.Country != "" || strings.TrimSpace(trip.Country) == "" {
		return
	}
	if c, ok := intent.CountryByName(trip.Country); ok {
		s.Country, s.CountryCode = c.Name, c.Code
		return
	}
	if c, ok := intent.CountryByCode(trip.Country); ok {
		s.Country, s.CountryCode = c.Name, c.Code
		return
	}
	s.Country = strings.TrimSpace(trip.Country)
}

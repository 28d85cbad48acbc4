package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/logger"
)

// Check is one fact-checking rule. Rules are pure functions of the
// candidate and the prepared passages.
type Check interface {
	// Kind is the violation kind the rule emits.
	Kind() domain.ViolationKind

	// Run returns the rule's violations in narrative order.
	Run(ev *evidence, c *domain.NarrativeCandidate) []domain.Violation
}

// FactChecker compares a narrative candidate against the passages it was
// drafted from. For identical inputs it returns identical violations.
type FactChecker struct {
	checks []Check
	judge  *Judge
}

// NewFactChecker creates a fact checker with the built-in rules.
// The judge is optional (can be nil).
func NewFactChecker(settings domain.CheckerSettings, judge *Judge) *FactChecker {
	defaults := domain.DefaultCheckerSettings()
	if settings.EntityThreshold <= 0 || settings.EntityThreshold > 1 {
		settings.EntityThreshold = defaults.EntityThreshold
	}
	if settings.DialogueThreshold <= 0 || settings.DialogueThreshold > 1 {
		settings.DialogueThreshold = defaults.DialogueThreshold
	}

	phrases := append([]string{}, defaultDriftPhrases...)
	for _, p := range settings.DriftPhrases {
		if p = normalise(p); p != "" {
			phrases = append(phrases, p)
		}
	}

	return &FactChecker{
		checks: []Check{
			entityCheck{threshold: settings.EntityThreshold},
			dialogueCheck{threshold: settings.DialogueThreshold},
			eventCheck{threshold: settings.EntityThreshold},
			themeCheck{phrases: phrases},
			timelineCheck{},
		},
		judge: judge,
	}
}

// Check returns the candidate's violations, deduplicated by kind and span.
// An empty result means the candidate is acceptable.
func (f *FactChecker) Check(
	ctx context.Context, candidate domain.NarrativeCandidate, passages []domain.Passage,
) ([]domain.Violation, error) {
	ev := newEvidence(passages)

	var found []domain.Violation
	for _, c := range f.checks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vs := c.Run(ev, &candidate)
		if len(vs) > 0 {
			logger.Debug("Check %s: %d violation(s)", c.Kind(), len(vs))
		}
		found = append(found, vs...)
	}

	if f.judge != nil {
		vs, err := f.judge.Review(ctx, candidate, passages)
		if err != nil {
			return nil, err
		}
		found = append(found, vs...)
	}

	return dedupeViolations(found), nil
}

func dedupeViolations(vs []domain.Violation) []domain.Violation {
	type key struct {
		kind domain.ViolationKind
		span string
	}
	seen := make(map[key]bool, len(vs))
	var out []domain.Violation
	for _, v := range vs {
		k := key{v.Kind, normalise(v.OffendingSpan)}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

// entityCheck flags named figures that appear in no passage.
type entityCheck struct {
	threshold float64
}

func (entityCheck) Kind() domain.ViolationKind { return domain.ViolationFabricatedEntity }

func (c entityCheck) Run(ev *evidence, cand *domain.NarrativeCandidate) []domain.Violation {
	names := narrativeEntities(cand.NarrativeText, ev.lowercase)
	if fig := strings.TrimSpace(cand.CentralFigure); fig != "" {
		names = append([]string{fig}, names...)
	}

	var out []domain.Violation
	for _, name := range names {
		if ev.mentions(name, c.threshold) {
			continue
		}
		out = append(out, domain.Violation{
			Kind:          domain.ViolationFabricatedEntity,
			Description:   fmt.Sprintf("%q does not appear in any retrieved passage", name),
			OffendingSpan: name,
		})
	}
	return out
}

// quotePattern matches double and single quoted speech. A single quote opens
// only after a non-letter, and a quote mark followed by a letter is an
// apostrophe, so contractions and possessives are not taken for quotes.
var quotePattern = regexp.MustCompile(`"([^"]+)"|“([^”]+)”|‘((?:[^’]|’\p{L})+)’|(^|[^\p{L}\p{N}])'((?:[^']|'\p{L})+)'`)

// dialogueCheck flags quoted speech that no passage contains or closely paraphrases.
type dialogueCheck struct {
	threshold float64
}

func (dialogueCheck) Kind() domain.ViolationKind { return domain.ViolationInventedDialogue }

func (c dialogueCheck) Run(ev *evidence, cand *domain.NarrativeCandidate) []domain.Violation {
	var out []domain.Violation
	for _, m := range quotePattern.FindAllStringSubmatch(cand.NarrativeText, -1) {
		quote := strings.TrimSpace(m[1] + m[2] + m[3] + m[5])
		if quote == "" || ev.contains(quote) {
			continue
		}
		qs := distinct(contentStems(quote))
		if len(qs) == 0 {
			continue
		}
		if best := bestOverlap(ev, qs); best >= c.threshold {
			continue
		}
		out = append(out, domain.Violation{
			Kind:          domain.ViolationInventedDialogue,
			Description:   "quoted speech is not found or paraphrased in the passages",
			OffendingSpan: quote,
		})
	}
	return out
}

// bestOverlap returns the highest fraction of stems found in any one passage.
func bestOverlap(ev *evidence, stems []string) float64 {
	var best float64
	for _, idx := range ev.byPassage {
		found := 0
		for _, st := range stems {
			for _, i := range idx {
				if ev.sentences[i].stems[st] {
					found++
					break
				}
			}
		}
		best = max(best, float64(found)/float64(len(stems)))
	}
	return best
}

func distinct(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// eventCheck flags "X did Y" claims about known figures that no passage supports.
type eventCheck struct {
	threshold float64
}

func (eventCheck) Kind() domain.ViolationKind { return domain.ViolationUnsourcedEvent }

func (c eventCheck) Run(ev *evidence, cand *domain.NarrativeCandidate) []domain.Violation {
	known := make(map[string]bool)
	for _, name := range narrativeEntities(cand.NarrativeText, ev.lowercase) {
		if ev.mentions(name, c.threshold) {
			known[entityKey(name)] = true
		}
	}
	if fig := strings.TrimSpace(cand.CentralFigure); fig != "" && ev.mentions(fig, c.threshold) {
		known[entityKey(fig)] = true
	}

	var out []domain.Violation
	for _, s := range sentences(cand.NarrativeText) {
		for _, e := range clauseEvents(stripQuotes(s)) {
			if !known[e.subject] || c.supported(ev, e) {
				continue
			}
			out = append(out, domain.Violation{
				Kind:          domain.ViolationUnsourcedEvent,
				Description:   fmt.Sprintf("no passage shows %s doing this", e.subject),
				OffendingSpan: s,
			})
		}
	}
	return out
}

// supported looks for a passage sentence naming the subject whose window
// (the sentence and the one after it) carries the verb or most of the object.
func (c eventCheck) supported(ev *evidence, e event) bool {
	for _, idx := range ev.byPassage {
		for n, i := range idx {
			if !ev.sentences[i].mentions(e.subject, c.threshold) {
				continue
			}
			window := []evidenceSentence{ev.sentences[i]}
			if n+1 < len(idx) {
				window = append(window, ev.sentences[idx[n+1]])
			}
			if windowSupports(window, e) {
				return true
			}
		}
	}
	return false
}

func windowSupports(window []evidenceSentence, e event) bool {
	objHits := 0
	for _, o := range e.object {
		for _, s := range window {
			if s.stems[o] {
				objHits++
				break
			}
		}
	}
	for _, s := range window {
		if s.stems[e.verb] {
			return true
		}
	}
	return len(e.object) > 0 && objHits*2 >= len(e.object)
}

func stripQuotes(s string) string {
	return quotePattern.ReplaceAllString(s, "$4")
}

// defaultDriftPhrases are known phrasings that invert or trivialise a
// teaching. They are flagged unless a passage uses them too.
var defaultDriftPhrases = []string{
	"the end justifies the means",
	"winning is everything",
	"follow your heart no matter what",
	"revenge is justified",
	"it is okay to give up",
	"it's okay to give up",
	"you deserve to be rewarded",
	"success is all that matters",
	"money brings happiness",
	"happily ever after",
	"do whatever makes you happy",
	"only the strong survive",
}

// moralFiller are words that carry no teaching of their own.
var moralFiller = toSet(
	"lesson", "teach", "teaches", "taught", "story", "moral", "always", "never", "life", "people",
	"learn", "learns", "remember", "important", "true", "truly", "way", "things", "thing", "others",
)

var directivePattern = regexp.MustCompile(
	`(?i)\b(should|must|ought to|shall|never|do not|don't|cannot|can't)\s+(?:(not|never)\s+)?(\p{L}+)`)

// themeCheck flags morals and phrasings that drift from or invert the passages.
type themeCheck struct {
	phrases []string
}

func (themeCheck) Kind() domain.ViolationKind { return domain.ViolationThematicDrift }

func (c themeCheck) Run(ev *evidence, cand *domain.NarrativeCandidate) []domain.Violation {
	var out []domain.Violation
	text := normalise(cand.NarrativeText + " " + cand.Moral)
	for _, p := range c.phrases {
		if strings.Contains(text, p) && !ev.contains(p) {
			out = append(out, domain.Violation{
				Kind:          domain.ViolationThematicDrift,
				Description:   "phrasing is a known distortion of the teaching",
				OffendingSpan: p,
			})
		}
	}

	moral := strings.TrimSpace(cand.Moral)
	if moral == "" {
		return out
	}

	var key []string
	for _, t := range tokens(moral) {
		if !stopwords[t] && !moralFiller[t] {
			key = append(key, stem(t))
		}
	}
	anchored := false
	for _, k := range key {
		if ev.stems[k] {
			anchored = true
			break
		}
	}
	if len(key) > 0 && !anchored {
		out = append(out, domain.Violation{
			Kind:          domain.ViolationThematicDrift,
			Description:   "none of the moral's key terms appear in the passages",
			OffendingSpan: moral,
		})
		return out
	}

	// Later statements win when the passages disagree with themselves.
	stated := make(map[string]bool)
	for i := range ev.passages {
		for _, d := range directives(ev.passages[i].Text) {
			stated[d.verb] = d.negated
		}
	}
	for _, d := range directives(moral) {
		if was, ok := stated[d.verb]; ok && was != d.negated {
			out = append(out, domain.Violation{
				Kind:          domain.ViolationThematicDrift,
				Description:   fmt.Sprintf("moral reverses what the passages say about %q", d.verb),
				OffendingSpan: moral,
			})
			break
		}
	}
	return out
}

// directive is a "should"/"never" style instruction about a verb.
type directive struct {
	verb    string
	negated bool
}

var negativeModals = toSet("never", "do not", "don't", "cannot", "can't")

// directives returns the instructions in text, in order.
func directives(text string) []directive {
	var out []directive
	for _, m := range directivePattern.FindAllStringSubmatch(text, -1) {
		verb := strings.ToLower(m[3])
		if stopwords[verb] {
			continue
		}
		out = append(out, directive{
			verb:    stem(verb),
			negated: m[2] != "" || negativeModals[strings.ToLower(m[1])],
		})
	}
	return out
}

// timelineCheck flags narratives that reverse an order the passages state.
type timelineCheck struct{}

func (timelineCheck) Kind() domain.ViolationKind { return domain.ViolationTimelineError }

func (timelineCheck) Run(ev *evidence, cand *domain.NarrativeCandidate) []domain.Violation {
	var pairs []orderedPair
	for _, idx := range ev.byPassage {
		texts := make([]string, len(idx))
		for n, i := range idx {
			texts[n] = ev.sentences[i].text
		}
		pairs = append(pairs, explicitOrder(texts)...)
	}
	if len(pairs) == 0 {
		return nil
	}

	type position struct {
		sentence, offset int
		text             string
	}
	told := make(map[[2]string]position)
	for n, s := range sentences(cand.NarrativeText) {
		for _, e := range clauseEvents(stripQuotes(s)) {
			k := [2]string{e.subject, e.verb}
			if _, ok := told[k]; !ok {
				told[k] = position{sentence: n, offset: e.offset, text: s}
			}
		}
	}

	var out []domain.Violation
	for _, p := range pairs {
		a, okA := told[[2]string{p.first.subject, p.first.verb}]
		b, okB := told[[2]string{p.second.subject, p.second.verb}]
		if !okA || !okB {
			continue
		}
		if b.sentence < a.sentence || (b.sentence == a.sentence && b.offset < a.offset) {
			out = append(out, domain.Violation{
				Kind: domain.ViolationTimelineError,
				Description: fmt.Sprintf("%s %s is told before %s %s, the passages order them the other way",
					p.second.subject, p.second.verb, p.first.subject, p.first.verb),
				OffendingSpan: b.text,
			})
		}
	}
	return out
}

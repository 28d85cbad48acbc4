package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/parable/internal/core/domain"
)

// honorifics are titles that do not identify a figure on their own.
var honorifics = toSet(
	"lord", "king", "queen", "prince", "princess", "sage", "saint", "sri", "shri",
	"sir", "god", "goddess", "master", "son", "mother", "father", "brother", "sister",
)

var capitalRunPattern = regexp.MustCompile(`\p{Lu}[\p{L}'’-]*(?:[ \t]+\p{Lu}[\p{L}'’-]*)*`)

// evidence is the passage set prepared once per check.
type evidence struct {
	passages  []domain.Passage
	padded    string // " tok tok tok " over every passage
	vocab     []string
	stems     map[string]bool
	sentences []evidenceSentence
	byPassage [][]int // sentence indexes per passage
	lowercase map[string]bool
}

type evidenceSentence struct {
	passage int
	text    string
	padded  string
	stems   map[string]bool
	tokens  []string
}

func newEvidence(passages []domain.Passage) *evidence {
	ev := &evidence{
		passages:  passages,
		stems:     make(map[string]bool),
		byPassage: make([][]int, len(passages)),
		lowercase: make(map[string]bool),
	}
	seen := make(map[string]bool)
	var all []string
	for i := range passages {
		for w := range lowercaseWords(passages[i].Text) {
			ev.lowercase[w] = true
		}
		for _, s := range sentences(passages[i].Text) {
			toks := tokens(s)
			ev.byPassage[i] = append(ev.byPassage[i], len(ev.sentences))
			ev.sentences = append(ev.sentences, evidenceSentence{
				passage: i,
				text:    s,
				padded:  " " + strings.Join(toks, " ") + " ",
				stems:   stemSet(s),
				tokens:  toks,
			})
			all = append(all, toks...)
			for _, t := range toks {
				ev.stems[stem(t)] = true
				if !seen[t] {
					seen[t] = true
					ev.vocab = append(ev.vocab, t)
				}
			}
		}
	}
	sort.Strings(ev.vocab)
	ev.padded = " " + strings.Join(all, " ") + " "
	return ev
}

// contains reports whether the token sequence of phrase occurs verbatim.
func (ev *evidence) contains(phrase string) bool {
	toks := tokens(phrase)
	if len(toks) == 0 {
		return false
	}
	return strings.Contains(ev.padded, " "+strings.Join(toks, " ")+" ")
}

// mentions reports whether the figure named by entity occurs in the passages,
// either verbatim or with every identifying token fuzzily matched.
func (ev *evidence) mentions(entity string, threshold float64) bool {
	if ev.contains(entity) {
		return true
	}
	for _, t := range identifying(entity) {
		if !fuzzyIn(t, ev.vocab, threshold) {
			return false
		}
	}
	return len(identifying(entity)) > 0
}

// identifying returns the tokens of an entity that are not honorifics.
// An entity made only of honorifics is identified by all of them.
func identifying(entity string) []string {
	toks := tokens(entity)
	var out []string
	for _, t := range toks {
		if !honorifics[t] && !stopwords[t] {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return toks
	}
	return out
}

// entityKey reduces an entity to the token used to match events.
func entityKey(entity string) string {
	ids := identifying(entity)
	if len(ids) == 0 {
		return ""
	}
	return ids[len(ids)-1]
}

func fuzzyIn(token string, vocab []string, threshold float64) bool {
	for _, v := range vocab {
		if v == token || similarity(v, token) >= threshold {
			return true
		}
	}
	return false
}

// mentions reports whether a passage sentence names the subject key.
func (s evidenceSentence) mentions(key string, threshold float64) bool {
	if strings.Contains(s.padded, " "+key+" ") {
		return true
	}
	return fuzzyIn(key, s.tokens, threshold)
}

// openers are ordinary words that often start a sentence.
var openers = toSet(
	"suddenly", "later", "soon", "finally", "meanwhile", "afterwards", "eventually", "next", "again",
	"still", "long", "many", "once", "there", "here", "yes", "no", "now", "today", "tomorrow", "yesterday",
	"everyone", "everything", "nobody", "nothing", "someone", "something", "anyone", "none", "another",
	"perhaps", "indeed", "thus", "hence", "therefore", "however", "moreover", "instead", "together",
	"without", "despite", "though", "although", "whenever", "wherever", "since", "unless", "whether",
	"across", "around", "behind", "beside", "beyond", "inside", "outside", "within", "among", "amid",
	"beneath", "above", "below", "toward", "towards", "along", "nearby", "far", "alone", "never",
	"overcome", "seeing", "hearing", "looking", "feeling", "knowing", "remembering", "realising",
	"realizing", "turning", "standing", "sitting", "kneeling", "rising", "returning", "weeping",
	"angered", "ashamed", "afraid", "moved", "filled", "troubled", "humbled", "frightened", "startled",
	"astonished", "confused", "determined", "inspired", "encouraged", "reassured", "defeated",
	"quietly", "slowly", "quickly", "gently", "calmly", "sadly", "silently", "immediately", "gradually",
	"truly", "surely", "certainly", "clearly",
)

// modalNames are auxiliaries that double as given names ("Will", "May").
var modalNames = toSet("will", "may")

// ordinaryOpener reports whether w, capitalised only because it opens a
// sentence or quotation, is an ordinary word rather than a name. next is the
// lowercased word that follows it. lower holds words seen in lower case.
func ordinaryOpener(w, next string, lower map[string]bool) bool {
	if modalNames[w] {
		return next == "" || stopwords[next]
	}
	return stopwords[w] || openers[w] || lower[w]
}

// pronounI reports whether w is the pronoun "I" or a contraction of it.
func pronounI(w string) bool {
	if i := strings.IndexAny(w, "'’"); i > 0 {
		w = w[:i]
	}
	return w == "I"
}

// narrativeEntities returns the named figures in a narrative, first-seen order.
// Mid-sentence capitalised runs are always figures. A run that opens a
// sentence or quotation loses its leading ordinary words first, and a lone
// word opening a quotation is left to the dialogue check. known holds words
// the passages use in lower case and may be nil.
func narrativeEntities(text string, known map[string]bool) []string {
	sents := sentences(text)

	lower := lowercaseWords(text)
	for w := range known {
		lower[w] = true
	}

	midCapitals := make(map[string]bool)
	for _, s := range sents {
		for _, loc := range capitalRunPattern.FindAllStringIndex(s, -1) {
			if startsSentence(s, loc[0]) || startsQuote(s, loc[0]) {
				continue
			}
			for _, f := range strings.Fields(s[loc[0]:loc[1]]) {
				if !pronounI(f) {
					midCapitals[fieldKey(f)] = true
				}
			}
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, s := range sents {
		for _, loc := range capitalRunPattern.FindAllStringIndex(s, -1) {
			raw := s[loc[0]:loc[1]]
			fields := dropPronounI(strings.Fields(raw))
			switch {
			case startsQuote(s, loc[0]):
				if len(fields) == 1 && !midCapitals[fieldKey(fields[0])] {
					continue
				}
				fields = trimLeadingOpeners(fields, s[loc[1]:], lower, midCapitals)
			case startsSentence(s, loc[0]):
				fields = trimLeadingOpeners(fields, s[loc[1]:], lower, midCapitals)
			}
			if len(fields) == 0 {
				continue
			}
			run := strings.Join(fields, " ")
			key := strings.Join(tokens(run), " ")
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, strings.TrimRight(trimPossessive(run), "'’"))
		}
	}
	return out
}

func fieldKey(f string) string {
	return strings.Join(tokens(f), " ")
}

func dropPronounI(fields []string) []string {
	out := fields[:0:0]
	for _, f := range fields {
		if !pronounI(f) {
			out = append(out, f)
		}
	}
	return out
}

// startsSentence reports whether position i opens a sentence or clause.
func startsSentence(s string, i int) bool {
	prev := strings.TrimRight(s[:i], " \t")
	return prev == "" || strings.HasSuffix(prev, ":") || strings.HasSuffix(prev, ";")
}

// startsQuote reports whether position i is the first word of a quotation.
func startsQuote(s string, i int) bool {
	prev := strings.TrimRight(s[:i], " \t")
	if prev == "" {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(prev)
	switch r {
	case '“', '‘':
		return true
	case '"', '\'':
		return strings.Count(prev, string(r))%2 == 1
	}
	return false
}

// trimLeadingOpeners drops ordinary words capitalised only by position, as in
// "The Pandavas" or "Later Arjuna". rest is the text after the run. Words
// capitalised elsewhere mid-sentence are kept.
func trimLeadingOpeners(fields []string, rest string, lower, midCapitals map[string]bool) []string {
	for len(fields) > 0 {
		w := fieldKey(fields[0])
		if midCapitals[w] {
			break
		}
		next := strings.ToLower(wordPattern.FindString(rest))
		if len(fields) > 1 {
			next = strings.ToLower(fields[1])
		}
		if !ordinaryOpener(w, next, lower) {
			break
		}
		fields = fields[1:]
	}
	return fields
}

func trimPossessive(s string) string {
	return strings.TrimSuffix(strings.TrimSuffix(s, "'s"), "’s")
}

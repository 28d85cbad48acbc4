package services

import (
	"regexp"
	"strings"
)

// event is an "X did Y" claim found in a clause.
type event struct {
	subject string   // entity key, lowercased
	verb    string   // stemmed
	object  []string // stemmed content words after the verb
	offset  int
}

func (e event) same(o event) bool {
	return e.subject == o.subject && e.verb == o.verb
}

const (
	verbWindow   = 4
	objectWindow = 3
)

// clauseEvents extracts subject/verb pairs where a capitalised name is
// followed, within a few words and without intervening punctuation, by a
// lower-case content word. Only the first word of the clause can be an
// ordinary word capitalised by position.
func clauseEvents(clause string) []event {
	locs := wordPattern.FindAllStringIndex(clause, -1)
	var out []event
	for i, loc := range locs {
		w := clause[loc[0]:loc[1]]
		if !isCapitalised(w) || hasPossessive(w) {
			continue
		}
		subject := strings.ToLower(w)
		if honorifics[subject] || (i == 0 && ordinaryOpener(subject, nextWord(clause, locs, i), nil)) {
			continue
		}
		for j := i + 1; j < len(locs) && j <= i+verbWindow; j++ {
			if strings.ContainsAny(clause[locs[j-1][1]:locs[j][0]], ",;:.!?\"“”") {
				break
			}
			cand := clause[locs[j][0]:locs[j][1]]
			lower := strings.ToLower(cand)
			if isCapitalised(cand) || stopwords[lower] {
				continue
			}
			ev := event{subject: subject, verb: stem(lower), offset: loc[0]}
			for k := j + 1; k < len(locs) && len(ev.object) < objectWindow; k++ {
				t := strings.ToLower(trimPossessive(clause[locs[k][0]:locs[k][1]]))
				if !stopwords[t] {
					ev.object = append(ev.object, stem(t))
				}
			}
			out = append(out, ev)
			break
		}
	}
	return out
}

func nextWord(clause string, locs [][]int, i int) string {
	if i+1 >= len(locs) {
		return ""
	}
	return strings.ToLower(clause[locs[i+1][0]:locs[i+1][1]])
}

func hasPossessive(w string) bool {
	return strings.HasSuffix(w, "'s") || strings.HasSuffix(w, "’s")
}

// Sequencing markers.
var (
	followsMarkers = toSet("then", "afterwards", "thereafter", "later", "finally", "thereupon", "next")
	afterLeadIn    = regexp.MustCompile(`(?i)^after\s+([^,]+),\s*(.+)$`)
	splitThen      = regexp.MustCompile(`(?i)^(.+?)(?:,\s*|\s+and\s+)then\s+(.+)$`)
	splitBefore    = regexp.MustCompile(`(?i)^(.+?)\s+before\s+(.+)$`)
	splitAfter     = regexp.MustCompile(`(?i)^(.+?)\s+after\s+(.+)$`)
	splitBecause   = regexp.MustCompile(`(?i)^(.+?)\s+because\s+(.+)$`)
)

// orderedPair says that the events of first happened before those of second.
type orderedPair struct {
	first, second event
}

// explicitOrder returns every event ordering a passage states outright:
// sequencing markers between consecutive sentences and temporal or causal
// connectives inside one sentence.
func explicitOrder(passageSentences []string) []orderedPair {
	var pairs []orderedPair
	for i, s := range passageSentences {
		pairs = append(pairs, sentenceOrder(s)...)
		if i == 0 {
			continue
		}
		toks := tokens(s)
		if len(toks) > 0 && (followsMarkers[toks[0]] || strings.HasPrefix(strings.ToLower(s), "after that")) {
			pairs = append(pairs, cross(clauseEvents(passageSentences[i-1]), clauseEvents(s))...)
		}
	}
	return pairs
}

func sentenceOrder(s string) []orderedPair {
	if m := afterLeadIn.FindStringSubmatch(s); m != nil {
		return cross(clauseEvents(m[1]), clauseEvents(m[2]))
	}
	if m := splitThen.FindStringSubmatch(s); m != nil {
		return cross(clauseEvents(m[1]), clauseEvents(m[2]))
	}
	if m := splitBefore.FindStringSubmatch(s); m != nil {
		return cross(clauseEvents(m[1]), clauseEvents(m[2]))
	}
	if m := splitAfter.FindStringSubmatch(s); m != nil {
		return cross(clauseEvents(m[2]), clauseEvents(m[1]))
	}
	if m := splitBecause.FindStringSubmatch(s); m != nil {
		return cross(clauseEvents(m[2]), clauseEvents(m[1]))
	}
	return nil
}

func cross(first, second []event) []orderedPair {
	var out []orderedPair
	for _, a := range first {
		for _, b := range second {
			if !a.same(b) {
				out = append(out, orderedPair{first: a, second: b})
			}
		}
	}
	return out
}

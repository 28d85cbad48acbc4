package services

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	wordPattern     = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)?`)
	sentencePattern = regexp.MustCompile(`[^.!?\n]+[.!?]*["”’]?`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// stopwords are ignored when comparing content words.
var stopwords = toSet(
	"a", "about", "after", "again", "against", "all", "also", "am", "an", "and", "any", "are", "as", "at",
	"be", "because", "been", "before", "being", "between", "both", "but", "by",
	"can", "could", "did", "do", "does", "doing", "down", "during",
	"each", "even", "every", "few", "for", "from", "further",
	"had", "has", "have", "having", "he", "her", "here", "hers", "herself", "him", "himself", "his", "how",
	"i", "if", "in", "into", "is", "it", "its", "itself", "just",
	"let", "like", "may", "me", "might", "more", "most", "must", "my", "myself",
	"no", "nor", "not", "now", "of", "off", "on", "once", "one", "only", "or", "other", "our", "ours",
	"ourselves", "out", "over", "own",
	"said", "same", "says", "shall", "she", "should", "so", "some", "such",
	"than", "that", "the", "their", "theirs", "them", "themselves", "then", "there", "these", "they",
	"this", "those", "through", "thus", "thy", "thee", "thou", "to", "too",
	"under", "until", "up", "upon", "us", "very",
	"was", "we", "were", "what", "when", "where", "which", "while", "who", "whom", "why", "will", "with",
	"would", "ye", "yet", "you", "your", "yours", "yourself",
)

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// normalise lowercases text and collapses whitespace and curly quotes.
func normalise(s string) string {
	s = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`).Replace(s)
	return strings.TrimSpace(spacePattern.ReplaceAllString(strings.ToLower(s), " "))
}

// words returns the word tokens of s with their original case.
func words(s string) []string {
	return wordPattern.FindAllString(s, -1)
}

// lowercaseWords returns the tokens of s that are written in lower case.
func lowercaseWords(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range words(s) {
		if isCapitalised(w) {
			continue
		}
		for _, t := range tokens(w) {
			out[t] = true
		}
	}
	return out
}

// tokens returns lowercased word tokens with possessives removed.
func tokens(s string) []string {
	raw := words(s)
	out := make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.ToLower(w)
		w = strings.TrimSuffix(strings.TrimSuffix(w, "'s"), "’s")
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// contentStems returns the stems of the non-stopword tokens of s, in order.
func contentStems(s string) []string {
	var out []string
	for _, t := range tokens(s) {
		if stopwords[t] {
			continue
		}
		out = append(out, stem(t))
	}
	return out
}

// stemSet returns the set of stems for every token of s.
func stemSet(s string) map[string]bool {
	toks := tokens(s)
	set := make(map[string]bool, len(toks))
	for _, t := range toks {
		set[stem(t)] = true
	}
	return set
}

// sentences splits text into trimmed, non-empty sentences.
func sentences(text string) []string {
	raw := sentencePattern.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" && strings.IndexFunc(s, unicode.IsLetter) >= 0 {
			out = append(out, s)
		}
	}
	return out
}

// stem strips common English inflections. It is crude and
// only needs to map the same word form to the same key on both sides.
func stem(w string) string {
	n := utf8.RuneCountInString(w)
	switch {
	case n > 5 && strings.HasSuffix(w, "ing"):
		w = undouble(strings.TrimSuffix(w, "ing"))
	case n > 4 && strings.HasSuffix(w, "ied"):
		w = strings.TrimSuffix(w, "ied") + "y"
	case n > 4 && strings.HasSuffix(w, "ies"):
		w = strings.TrimSuffix(w, "ies") + "y"
	case n > 4 && strings.HasSuffix(w, "ed"):
		w = undouble(strings.TrimSuffix(w, "ed"))
	case n > 4 && strings.HasSuffix(w, "es") && !strings.HasSuffix(w, "ses"):
		w = strings.TrimSuffix(w, "s")
	case n > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		w = strings.TrimSuffix(w, "s")
	}
	return strings.TrimSuffix(w, "e")
}

func undouble(w string) string {
	n := len(w)
	if n >= 2 && w[n-1] == w[n-2] && !strings.ContainsRune("aeiouls", rune(w[n-1])) {
		return w[:n-1]
	}
	return w
}

// similarity returns 1 - levenshtein(a, b) / max(len(a), len(b)).
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// isCapitalised reports whether w starts with an upper-case letter.
func isCapitalised(w string) bool {
	r, _ := utf8.DecodeRuneInString(w)
	return unicode.IsUpper(r)
}

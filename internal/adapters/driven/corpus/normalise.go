package corpus

import (
	"html"
	"regexp"
	"strings"
)

// normaliser converts raw file content into plain prose. It also returns
// a title found in the content, or "" when there is none.
type normaliser func(raw string) (content, title string)

// normalisers is keyed by lower-case file extension. Anything else is
// read as plain text.
var normalisers = map[string]normaliser{
	".md":       normaliseMarkdown,
	".markdown": normaliseMarkdown,
	".html":     normaliseHTML,
	".htm":      normaliseHTML,
}

func normalise(ext, raw string) (content, title string) {
	raw = strings.TrimPrefix(raw, "\ufeff")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	if fn, ok := normalisers[ext]; ok {
		return fn(raw)
	}
	return strings.TrimSpace(raw), ""
}

var (
	mdCodeBlock    = regexp.MustCompile("(?s)```.*?```")
	mdInlineCode   = regexp.MustCompile("`([^`]+)`")
	mdImage        = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLink         = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdHeading      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdTitle        = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	mdEmphasis     = regexp.MustCompile(`(\*\*|__|\*|\b_)([^*_\n]+?)(\*\*|__|\*|_\b)`)
	mdBlockquote   = regexp.MustCompile(`(?m)^>\s?`)
	mdRule         = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	mdListMarker   = regexp.MustCompile(`(?m)^[ \t]*([-*+]|\d+\.)[ \t]+`)
	multiNewlines  = regexp.MustCompile(`\n{3,}`)
	htmlTitle      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	htmlComment    = regexp.MustCompile(`(?s)<!--.*?-->`)
	htmlBlock      = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)\b[^>]*>`)
	htmlTag        = regexp.MustCompile(`<[^>]+>`)
	horizontalRuns = regexp.MustCompile(`[ \t]+`)

	// htmlDropped elements are removed with their content.
	htmlDropped = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`),
		regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`),
		regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`),
	}
)

// normaliseMarkdown strips formatting but keeps the words. The first
// level-one heading becomes the title.
func normaliseMarkdown(raw string) (string, string) {
	var title string
	if m := mdTitle.FindStringSubmatch(raw); m != nil {
		title = strings.TrimSpace(m[1])
	}

	s := mdCodeBlock.ReplaceAllString(raw, "")
	s = mdImage.ReplaceAllString(s, "")
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdInlineCode.ReplaceAllString(s, "$1")
	s = mdRule.ReplaceAllString(s, "")
	s = mdHeading.ReplaceAllString(s, "")
	s = mdBlockquote.ReplaceAllString(s, "")
	s = mdListMarker.ReplaceAllString(s, "")
	s = mdEmphasis.ReplaceAllString(s, "$2")
	s = multiNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s), title
}

// normaliseHTML keeps readable text, one block element per line, and
// takes the title from <title>.
func normaliseHTML(raw string) (string, string) {
	var title string
	if m := htmlTitle.FindStringSubmatch(raw); m != nil {
		title = strings.TrimSpace(html.UnescapeString(m[1]))
	}

	s := raw
	for _, re := range htmlDropped {
		s = re.ReplaceAllString(s, "")
	}
	s = htmlComment.ReplaceAllString(s, "")
	s = htmlBlock.ReplaceAllString(s, "\n")
	s = htmlTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = horizontalRuns.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n"), title
}

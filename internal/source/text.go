package source

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// markupTags are the elements that count as real markup in a snippet.
var markupTags = map[string]bool{
	"a": true, "abbr": true, "article": true, "b": true, "blockquote": true,
	"code": true, "div": true, "em": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "i": true, "li": true, "mark": true, "nav": true,
	"noscript": true, "ol": true, "p": true, "pre": true, "script": true,
	"section": true, "small": true, "span": true, "strong": true, "style": true,
	"sub": true, "sup": true, "table": true, "td": true, "th": true,
	"time": true, "title": true, "tr": true, "u": true, "ul": true,
}

// voidTags are markup elements that never carry a closing tag.
var voidTags = map[string]bool{
	"br": true, "hr": true, "img": true, "meta": true, "link": true, "wbr": true,
}

// CleanText reduces an HTML-bearing snippet to plain text with runs of
// whitespace collapsed to single spaces. Text whose angle brackets are not
// known markup (comparisons, placeholders) keeps every character.
func CleanText(s string) string {
	if strings.ContainsRune(s, '<') {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil && hasMarkup(doc, s) {
			doc.Find("script, style").Remove()
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// hasMarkup reports whether the parsed document holds a known element that
// is well formed in src: a void element, or one whose closing tag is present.
func hasMarkup(doc *goquery.Document, src string) bool {
	lower := strings.ToLower(src)
	found := false
	doc.Find("head *, body *").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		name := goquery.NodeName(sel)
		if voidTags[name] || (markupTags[name] && strings.Contains(lower, "</"+name)) {
			found = true
			return false
		}
		return true
	})
	return found
}

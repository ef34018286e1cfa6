package analyzer

import (
	"html"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	subHeadingPattern = regexp.MustCompile(`<h[23][^>]*>(.*?)</h[23]>`)
	headingPattern    = regexp.MustCompile(`<h[2-6][^>]*>.*?</h[2-6]>`)
	paragraphPattern  = regexp.MustCompile(`<p[^>]*>.*?</p>`)
)

// stripTags removes anything that looks like a tag and decodes entities.
// It is a best-effort pass and never fails on malformed markup.
func stripTags(content string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(content, ""))
}

// VisibleText returns the tag-stripped, entity-decoded text of content
func VisibleText(content string) string {
	return stripTags(content)
}

// WordCount counts whitespace separated words of the visible text
func WordCount(content string) int {
	return len(strings.Fields(stripTags(content)))
}

// ReadingTime estimates minutes needed to read content at 200 words per
// minute, never less than one. Halves round to even.
func ReadingTime(content string) int {
	minutes := int(math.RoundToEven(float64(WordCount(content)) / 200))
	if minutes < 1 {
		return 1
	}
	return minutes
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// subHeadings returns the inner markup of every h2/h3 in lowercased content
func subHeadings(content string) []string {
	matches := subHeadingPattern.FindAllStringSubmatch(strings.ToLower(content), -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func countHeadings(content string) int {
	return len(headingPattern.FindAllStringIndex(content, -1))
}

func countParagraphs(content string) int {
	return len(paragraphPattern.FindAllStringIndex(content, -1))
}

// internalLinkPattern matches href attributes pointing at the site itself:
// root-relative paths or any URL on domain
func internalLinkPattern(domain string) *regexp.Regexp {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return regexp.MustCompile(`(?i)href=["']/`)
	}
	return regexp.MustCompile(`(?i)href=["'](?:/|(?:https?://)?(?:www\.)?` + regexp.QuoteMeta(domain) + `)`)
}

func countInternalLinks(content, domain string) int {
	return len(internalLinkPattern(domain).FindAllStringIndex(content, -1))
}

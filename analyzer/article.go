package analyzer

import (
	"strings"
)

// leadWords is how many words count as the opening of an article
const leadWords = 150

// ScoreArticle scores an article. siteDomain is the host treated as
// internal when counting links, in addition to root-relative hrefs.
func ScoreArticle(article Article, keywords KeywordConfig, siteDomain string) ScoreResult {
	s := newScoreSheet()
	focus := strings.TrimSpace(article.FocusKeyword)

	scoreArticleTitle(s, article.Title, focus)
	scoreMetaDescription(s, article.MetaDescription, focus)
	scoreFocusKeyword(s, article.Content, focus)
	scoreContentLength(s, article.Content)
	scoreArticleImage(s, article, focus)
	scoreInternalLinks(s, article.Content, siteDomain)
	scoreStructure(s, article.Content)

	return s.result(ArticleGradeScale)
}

func containsFold(text, sub string) bool {
	return strings.Contains(foldKeyword(text), foldKeyword(sub))
}

func scoreArticleTitle(s *scoreSheet, title, focus string) {
	if title == "" {
		s.issue("Missing title")
		s.check(SeverityDanger, "✗ Missing title")
		return
	}

	n := runeLen(title)
	switch {
	case n >= 30 && n <= 60:
		s.add(10)
		s.check(SeveritySuccess, "✓ Title length is optimal (%d characters)", n)
	case n >= 20 && n < 30:
		s.add(7)
		s.check(SeverityInfo, "ℹ Title is a bit short (%d/30 characters)", n)
		s.recommend("Expand the title to 30-60 characters")
	case n > 60 && n <= 70:
		s.add(7)
		s.check(SeverityWarning, "⚠ Title is a bit long (%d/60 characters)", n)
		s.recommend("Shorten the title to 30-60 characters")
	default:
		s.add(3)
		s.issue("Title is too short or too long")
		s.check(SeverityDanger, "✗ Title length is not optimal (%d characters)", n)
		s.recommend("Keep the title at 30-60 characters so it displays fully in search results")
	}

	if focus == "" {
		return
	}
	if containsFold(title, focus) {
		s.add(10)
		s.check(SeveritySuccess, "✓ Keyword %q appears in the title", focus)
		return
	}
	s.recommend("❗ Add keyword %q to the title", focus)
	s.check(SeverityDanger, "✗ Keyword missing from the title")
}

func scoreMetaDescription(s *scoreSheet, desc, focus string) {
	if desc == "" {
		s.issue("Missing meta description")
		s.recommend("❗ Add a 120-160 character meta description")
		s.check(SeverityDanger, "✗ Missing meta description")
		return
	}

	n := runeLen(desc)
	switch {
	case n >= 120 && n <= 160:
		s.add(10)
		s.check(SeveritySuccess, "✓ Meta description length is optimal (%d characters)", n)
	case n >= 100 && n < 120:
		s.add(7)
		s.check(SeverityInfo, "ℹ Meta description is a bit short (%d/120 characters)", n)
	case n > 160 && n <= 180:
		s.add(7)
		s.check(SeverityWarning, "⚠ Meta description is a bit long (%d/160 characters)", n)
	default:
		s.add(3)
		s.issue("Meta description length is not optimal")
		s.check(SeverityWarning, "⚠ Meta description: %d characters", n)
		s.recommend("Keep the meta description at 120-160 characters")
	}

	if focus == "" {
		return
	}
	if containsFold(desc, focus) {
		s.add(5)
		s.check(SeveritySuccess, "✓ Keyword appears in the meta description")
		return
	}
	s.recommend("Add the keyword to the meta description")
	s.check(SeverityInfo, "ℹ Consider adding the keyword to the meta description")
}

func scoreFocusKeyword(s *scoreSheet, content, focus string) {
	if focus == "" {
		s.issue("No focus keyword")
		s.recommend("❗❗ Choose a focus keyword to optimize for")
		s.check(SeverityDanger, "✗ No focus keyword")
		return
	}

	keyword := foldKeyword(focus)
	text := foldKeyword(stripTags(content))

	if text != "" {
		occurrences := strings.Count(text, keyword)
		words := strings.Fields(text)
		density := 0.0
		if len(words) > 0 {
			density = float64(occurrences) / float64(len(words)) * 100
		}

		switch {
		case density >= 0.5 && density <= 2.5:
			s.add(10)
			s.check(SeveritySuccess, "✓ Keyword density is optimal: %.1f%% (%d times)", density, occurrences)
		case density >= 0.1 && density < 0.5:
			s.add(6)
			s.check(SeverityInfo, "ℹ Keyword density is low: %.1f%% (%d times)", density, occurrences)
			s.recommend("Use keyword %q more often (current density: %.1f%%)", keyword, density)
		case density > 2.5:
			s.add(4)
			s.check(SeverityWarning, "⚠ Keyword density is high: %.1f%% (spam risk)", density)
			s.recommend("Reduce keyword density to 0.5-2.5%% (current: %.1f%%)", density)
		default:
			s.issue("Keyword appears too rarely")
			s.check(SeverityDanger, "✗ Keyword appears only %d times", occurrences)
			s.recommend("❗ Add keyword %q to the content (at least 3-5 times)", keyword)
		}

		lead := words
		if len(lead) > leadWords {
			lead = lead[:leadWords]
		}
		if strings.Contains(strings.Join(lead, " "), keyword) {
			s.add(8)
			s.check(SeveritySuccess, "✓ Keyword appears in the opening (first %d words)", leadWords)
		} else {
			s.recommend("❗ Add the keyword to the first paragraph")
			s.check(SeverityDanger, "✗ Keyword missing from the opening")
		}
	}

	if content == "" {
		return
	}
	headings := subHeadings(content)
	found := false
	for _, h := range headings {
		if strings.Contains(foldKeyword(h), keyword) {
			found = true
			break
		}
	}
	switch {
	case found:
		s.add(7)
		s.check(SeveritySuccess, "✓ Keyword appears in a sub-heading (H2/H3)")
	case len(headings) > 0:
		s.recommend("Add the keyword to at least one sub-heading (H2/H3)")
		s.check(SeverityWarning, "⚠ Keyword missing from sub-headings")
	default:
		s.issue("No sub-headings (H2/H3)")
		s.recommend("Add sub-headings (H2, H3) containing the keyword")
		s.check(SeverityDanger, "✗ No sub-headings (H2/H3)")
	}
}

func scoreContentLength(s *scoreSheet, content string) {
	if content == "" {
		s.issue("No content")
		s.check(SeverityDanger, "✗ No content")
		return
	}

	n := WordCount(content)
	switch {
	case n >= 1000:
		s.add(15)
		s.check(SeveritySuccess, "✓ Content is long and detailed (%d words)", n)
	case n >= 800:
		s.add(13)
		s.check(SeveritySuccess, "✓ Content is complete (%d words)", n)
	case n >= 500:
		s.add(10)
		s.check(SeverityInfo, "ℹ Content is fair (%d words)", n)
		s.recommend("Expand the content to 800-1000 words")
	case n >= 300:
		s.add(5)
		s.check(SeverityWarning, "⚠ Content is a bit short (%d words)", n)
		s.recommend("❗ Content should be at least 500-800 words")
	default:
		s.issue("Content is too short")
		s.check(SeverityDanger, "✗ Content is too short (%d words)", n)
		s.recommend("❗❗ Write more content (at least 500 words)")
	}
}

func scoreArticleImage(s *scoreSheet, article Article, focus string) {
	if !article.HasImage() {
		s.recommend("Add a featured image to the article")
		s.check(SeverityWarning, "⚠ No featured image")
		return
	}

	if article.ImageSEO == nil || article.ImageSEO.AltText == "" {
		s.add(3)
		s.recommend("❗ Add alt text to the featured image")
		s.check(SeverityWarning, "⚠ Featured image has no alt text")
		return
	}

	if focus != "" && containsFold(article.ImageSEO.AltText, focus) {
		s.add(10)
		s.check(SeveritySuccess, "✓ Image alt text contains the keyword")
		return
	}
	s.add(7)
	s.check(SeverityInfo, "ℹ Image has alt text without the keyword")
	if focus != "" {
		s.recommend("Add keyword %q to the image alt text", focus)
	}
}

func scoreInternalLinks(s *scoreSheet, content, domain string) {
	if content == "" {
		return
	}

	n := countInternalLinks(content, domain)
	switch {
	case n >= 3:
		s.add(10)
		s.check(SeveritySuccess, "✓ %d internal links", n)
	case n == 2:
		s.add(7)
		s.check(SeverityInfo, "ℹ %d internal links (3 or more recommended)", n)
		s.recommend("Add 1-2 more internal links")
	case n == 1:
		s.add(4)
		s.check(SeverityWarning, "⚠ Only 1 internal link")
		s.recommend("❗ Add at least 2-3 links to other articles or products")
	default:
		s.issue("No internal links")
		s.recommend("❗❗ Add 2-3 internal links to related articles or products")
		s.check(SeverityDanger, "✗ No internal links")
	}
}

func scoreStructure(s *scoreSheet, content string) {
	if content == "" {
		return
	}

	headings := countHeadings(content)
	switch {
	case headings >= 3:
		s.add(3)
		s.check(SeveritySuccess, "✓ %d sub-headings (H2-H6)", headings)
	case headings >= 1:
		s.add(2)
		s.recommend("Add sub-headings (H2, H3) to improve structure")
		s.check(SeverityInfo, "ℹ %d sub-headings (3 or more recommended)", headings)
	default:
		s.recommend("❗ Add sub-headings (H2, H3) to break up the content")
		s.check(SeverityWarning, "⚠ No sub-headings")
	}

	paragraphs := countParagraphs(content)
	switch {
	case paragraphs >= 5:
		s.add(2)
		s.check(SeveritySuccess, "✓ Content is split into %d paragraphs", paragraphs)
	case paragraphs >= 3:
		s.add(1)
		s.check(SeverityInfo, "ℹ %d paragraphs", paragraphs)
	}
}

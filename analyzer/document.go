package analyzer

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// contentSelectors are tried in order to find the main body of a page
var contentSelectors = []string{"article", "main", "[role='main']", "body"}

// ArticleFromHTML builds an Article from a complete HTML page: the title
// tag, the meta description, the main content block and its lead image.
func ArticleFromHTML(r io.Reader, focusKeyword string) (Article, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Article{}, fmt.Errorf("parse html: %w", err)
	}

	article := Article{
		Title:           pageTitle(doc),
		MetaDescription: metaContent(doc, "meta[name='description']", "meta[property='og:description']"),
		FocusKeyword:    strings.TrimSpace(focusKeyword),
	}

	body := mainContent(doc)
	if body != nil {
		article.Content, err = body.Html()
		if err != nil {
			return Article{}, fmt.Errorf("render content: %w", err)
		}
		article.Content = strings.TrimSpace(article.Content)
	}

	if img := leadImage(body); img != nil {
		src, _ := img.Attr("src")
		article.Image = strings.TrimSpace(src)
		if alt, ok := img.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			title, _ := img.Attr("title")
			article.ImageSEO = &ImageSEO{
				AltText: strings.TrimSpace(alt),
				Title:   strings.TrimSpace(title),
			}
		}
	}
	if article.Image == "" {
		article.Image = metaContent(doc, "meta[property='og:image']")
	}

	return article, nil
}

func pageTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if t := metaContent(doc, "meta[property='og:title']"); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func mainContent(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	return nil
}

func leadImage(body *goquery.Selection) *goquery.Selection {
	if body == nil {
		return nil
	}
	var found *goquery.Selection
	body.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if src, _ := s.Attr("src"); strings.TrimSpace(src) != "" {
			found = s
			return false
		}
		return true
	})
	return found
}

package utils

import (
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EnhanceHTMLContent adds lazy loading and referrer attributes to images and
// opens external links in a new tab. Input must already be sanitized.
func EnhanceHTMLContent(htmlStr string) template.HTML {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return template.HTML(htmlStr)
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
		s.AddClass("img-fluid")
	})

	doc.Find("a[href^='http']").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("target", "_blank")
		s.SetAttr("rel", "noopener noreferrer")
	})

	// goquery wraps fragments in html/body
	html, _ := doc.Find("body").Html()
	if html == "" {
		html, _ = doc.Html()
	}

	return template.HTML(html)
}

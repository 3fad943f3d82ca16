// Package views loads the HTML templates into a gin renderer.
package views

import (
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"github.com/gin-contrib/multitemplate"
)

// Pages lists every renderable view, keyed by the name handlers pass to Render.
var Pages = []string{
	"auth/signin.html",
	"auth/signup.html",
	"restaurants/index.html",
	"restaurants/show.html",
	"restaurants/dashboard.html",
	"restaurants/feeds.html",
	"restaurants/top.html",
	"users/profile.html",
	"users/edit.html",
	"users/top.html",
	"admin/categories.html",
	"error.html",
}

func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...any) (map[string]any, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo": timeAgo,
		"date": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
	}
}

func timeAgo(t time.Time) string {
	seconds := int(time.Since(t).Seconds())
	switch {
	case seconds < 60:
		return "just now"
	case seconds < 3600:
		return plural(seconds/60, "minute")
	case seconds < 86400:
		return plural(seconds/3600, "hour")
	case seconds < 2592000:
		return plural(seconds/86400, "day")
	case seconds < 31536000:
		return plural(seconds/2592000, "month")
	}
	return plural(seconds/31536000, "year")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// Load builds a renderer where each page is parsed together with every
// layout and partial. The base layout must sort first in layouts/.
func Load(templatesDir string) (multitemplate.Render, error) {
	r := multitemplate.New()

	layouts, err := filepath.Glob(filepath.Join(templatesDir, "layouts", "*.html"))
	if err != nil {
		return nil, err
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layouts found in %s", templatesDir)
	}
	partials, err := filepath.Glob(filepath.Join(templatesDir, "partials", "*.html"))
	if err != nil {
		return nil, err
	}

	funcMap := FuncMap()
	for _, page := range Pages {
		files := make([]string, 0, len(layouts)+len(partials)+1)
		files = append(files, layouts...)
		files = append(files, partials...)
		files = append(files, filepath.Join(templatesDir, "views", page))

		tmpl, err := template.New(filepath.Base(files[0])).Funcs(funcMap).ParseFiles(files...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		r.Add(page, tmpl)
	}
	return r, nil
}

// Package content holds the static text of the four views. The web and
// terminal surfaces render the same Site.
package content

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// View slugs, in navigation order.
const (
	Home        = "home"
	Predict     = "predict"
	Explanation = "explanation"
	Disclaimer  = "disclaimer"
)

var requiredViews = []string{Home, Predict, Explanation, Disclaimer}

//go:embed pages.yaml
var defaultPages []byte

type Site struct {
	Title string `yaml:"title"`
	Pages []Page `yaml:"pages"`
}

type Page struct {
	Slug       string    `yaml:"slug"`
	Nav        string    `yaml:"nav"`
	Title      string    `yaml:"title"`
	Paragraphs []string  `yaml:"paragraphs"`
	Sections   []Section `yaml:"sections"`
	Notice     string    `yaml:"notice"`
}

type Section struct {
	Heading    string   `yaml:"heading"`
	Paragraphs []string `yaml:"paragraphs"`
	Items      []string `yaml:"items"`
	Closing    []string `yaml:"closing"`
	Contact    string   `yaml:"contact"`
}

// Default returns the embedded site content.
func Default() (*Site, error) {
	return Parse(defaultPages)
}

// MustDefault is Default for package initialisation; the embedded file is
// covered by tests.
func MustDefault() *Site {
	site, err := Default()
	if err != nil {
		panic(err)
	}
	return site
}

// Parse decodes and checks a pages document. All four views must be present
// exactly once.
func Parse(data []byte) (*Site, error) {
	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("parse pages: %w", err)
	}

	seen := make(map[string]bool, len(site.Pages))
	for i, p := range site.Pages {
		if p.Slug == "" || p.Title == "" || p.Nav == "" {
			return nil, fmt.Errorf("page %d: slug, nav and title are required", i)
		}
		if seen[p.Slug] {
			return nil, fmt.Errorf("page %q defined twice", p.Slug)
		}
		seen[p.Slug] = true
	}
	for _, slug := range requiredViews {
		if !seen[slug] {
			return nil, fmt.Errorf("missing page %q", slug)
		}
	}
	return &site, nil
}

// Page looks a view up by slug.
func (s *Site) Page(slug string) (Page, bool) {
	for _, p := range s.Pages {
		if p.Slug == slug {
			return p, true
		}
	}
	return Page{}, false
}

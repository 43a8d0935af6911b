package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"HiCGallery/internal/model"
)

// Site describes what the gallery front end shows around the cases: the
// heading and the curated categories in display order.
type Site struct {
	Title             string         `yaml:"title" toml:"title"`
	Tagline           string         `yaml:"tagline" toml:"tagline"`
	GroupPrefixLength int            `yaml:"group_prefix_length" toml:"group_prefix_length"`
	Categories        []CategorySpec `yaml:"categories" toml:"categories"`
}

type CategorySpec struct {
	Type        string `yaml:"type" toml:"type"`
	Slug        string `yaml:"slug" toml:"slug"`
	Name        string `yaml:"name" toml:"name"`
	Description string `yaml:"description" toml:"description"`
}

func DefaultSite() Site {
	return Site{
		Title:             "Hi-C Gallery",
		Tagline:           "Explore Hi-C contact maps by category → case → annotated views.",
		GroupPrefixLength: 2,
		Categories: []CategorySpec{
			{Type: string(model.TypeInversion), Slug: "inversions", Name: "Inversions"},
			{Type: string(model.TypeTranslocation), Slug: "translocations", Name: "Translocations"},
			{Type: string(model.TypeDuplication), Slug: "duplications", Name: "Duplications"},
		},
	}
}

// LoadSite reads a site file, picking the decoder from its extension. An empty
// path yields the defaults. Fields left unset in the file keep their defaults.
func LoadSite(path string) (Site, error) {
	site := DefaultSite()
	if path == "" {
		return site, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Site{}, fmt.Errorf("site config load failed (%s): %w", path, err)
	}

	var parsed Site
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &parsed)
	case ".toml":
		err = toml.Unmarshal(data, &parsed)
	default:
		return Site{}, fmt.Errorf("site config %s: unsupported extension (want .yaml, .yml or .toml)", path)
	}
	if err != nil {
		return Site{}, fmt.Errorf("site config parse failed (%s): %w", path, err)
	}

	if parsed.Title != "" {
		site.Title = parsed.Title
	}
	if parsed.Tagline != "" {
		site.Tagline = parsed.Tagline
	}
	if parsed.GroupPrefixLength != 0 {
		site.GroupPrefixLength = parsed.GroupPrefixLength
	}
	if parsed.Categories != nil {
		site.Categories = parsed.Categories
	}
	for i := range site.Categories {
		site.Categories[i] = site.Categories[i].withDefaults()
	}

	if err := ValidateSite(site); err != nil {
		return Site{}, fmt.Errorf("site config %s invalid: %w", path, err)
	}
	return site, nil
}

func (c CategorySpec) withDefaults() CategorySpec {
	t := model.ParseType(c.Type)
	c.Type = string(t)
	if c.Slug == "" {
		c.Slug = t.DefaultSlug()
	}
	if c.Name == "" {
		c.Name = Capitalize(c.Slug)
	}
	return c
}

func ValidateSite(site Site) error {
	if site.GroupPrefixLength <= 0 {
		return fmt.Errorf("group_prefix_length must be positive, got %d", site.GroupPrefixLength)
	}
	seen := make(map[string]bool, len(site.Categories))
	slugs := make(map[string]bool, len(site.Categories))
	for i, c := range site.Categories {
		if strings.TrimSpace(c.Type) == "" {
			return fmt.Errorf("categories[%d]: type is required", i)
		}
		if seen[c.Type] {
			return fmt.Errorf("categories[%d]: duplicate type %q", i, c.Type)
		}
		seen[c.Type] = true
		if c.Slug != "" && slugs[c.Slug] {
			return fmt.Errorf("categories[%d]: duplicate slug %q", i, c.Slug)
		}
		slugs[c.Slug] = true
	}
	return nil
}

// Category returns the configured category for t, or a derived one for types the
// site file does not list.
func (s Site) Category(t model.Type) (CategorySpec, bool) {
	for _, c := range s.Categories {
		if c.Type == string(t) {
			return c, true
		}
	}
	return CategorySpec{Type: string(t)}.withDefaults(), false
}

func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

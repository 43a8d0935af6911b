package model

import "strings"

// Type is the rearrangement category of a case. The set is open: the three
// known values get curated names, anything else is accepted as-is.
type Type string

const (
	TypeInversion     Type = "inversion"
	TypeTranslocation Type = "translocation"
	TypeDuplication   Type = "duplication"
)

// ParseType normalises a filename token into a Type.
func ParseType(token string) Type {
	return Type(strings.ToLower(strings.TrimSpace(token)))
}

func (t Type) String() string {
	return string(t)
}

// DefaultSlug pluralises the type the way the front end expects it.
func (t Type) DefaultSlug() string {
	s := string(t)
	if strings.HasSuffix(s, "s") {
		return s
	}
	return s + "s"
}

type Manifest struct {
	Title      string     `json:"title"`
	Tagline    string     `json:"tagline"`
	Categories []Category `json:"categories"`
}

type Category struct {
	Slug        string  `json:"slug"`
	Type        Type    `json:"type"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CoverImage  *string `json:"coverImage"`
	Groups      []Group `json:"groups"`
}

type Group struct {
	Key   string `json:"key"`
	Cases []Case `json:"cases"`
}

type Case struct {
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	SpeciesID   string  `json:"speciesId"`
	AuthorID    string  `json:"authorId"`
	Type        Type    `json:"type"`
	Description string  `json:"description"`
	CoverImage  string  `json:"coverImage"`
	Entries     []Entry `json:"images"`
}

type Entry struct {
	Index   int    `json:"index"`
	Src     string `json:"src"`
	Thumb   string `json:"thumb,omitempty"`
	Alt     string `json:"alt"`
	Caption string `json:"caption"`
}

// CaseCount returns the number of cases across all categories.
func (m *Manifest) CaseCount() int {
	n := 0
	for _, c := range m.Categories {
		for _, g := range c.Groups {
			n += len(g.Cases)
		}
	}
	return n
}

// FindCategory looks a category up by type, then by slug.
func (m *Manifest) FindCategory(name string) (*Category, bool) {
	for i := range m.Categories {
		if string(m.Categories[i].Type) == name {
			return &m.Categories[i], true
		}
	}
	for i := range m.Categories {
		if m.Categories[i].Slug == name {
			return &m.Categories[i], true
		}
	}
	return nil, false
}

// FindCase looks a case up by folder slug.
func (m *Manifest) FindCase(slug string) (*Case, bool) {
	for i := range m.Categories {
		for j := range m.Categories[i].Groups {
			g := &m.Categories[i].Groups[j]
			for k := range g.Cases {
				if g.Cases[k].Slug == slug {
					return &g.Cases[k], true
				}
			}
		}
	}
	return nil, false
}

func (c *Category) FindGroup(key string) (*Group, bool) {
	for i := range c.Groups {
		if c.Groups[i].Key == key {
			return &c.Groups[i], true
		}
	}
	return nil, false
}

func (c *Case) EntryByIndex(index int) (*Entry, bool) {
	for i := range c.Entries {
		if c.Entries[i].Index == index {
			return &c.Entries[i], true
		}
	}
	return nil, false
}

// Package naming holds the folder and file grammar of the images/ tree.
//
//	images/<speciesID>_<authorID>/<type>_<speciesID>_<authorID>_<XX>.png
//	images/<speciesID>_<authorID>/<type>_<speciesID>_<authorID>_<XX>.txt
//	images/<speciesID>_<authorID>/cover.png
//
// The folder may also carry a "case_" prefix.
package naming

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"HiCGallery/internal/model"
)

const (
	CasePrefix   = "case_"
	ImageExt     = ".png"
	CaptionExt   = ".txt"
	CoverName    = "cover.png"
	DefaultWidth = 2
)

var (
	caseDirRe = regexp.MustCompile(`^(?:case_)?([A-Za-z0-9]+)_([A-Za-z0-9]+)$`)
	imageRe   = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9-]*)_([A-Za-z0-9]+)_([A-Za-z0-9]+)_(\d{2})\.(?i:png)$`)
)

type CaseDir struct {
	Name      string
	SpeciesID string
	AuthorID  string
}

// Base is the folder name without the optional case_ prefix.
func (c CaseDir) Base() string {
	return c.SpeciesID + "_" + c.AuthorID
}

// DisplayName joins species and author with a spaced em dash.
func (c CaseDir) DisplayName() string {
	return c.SpeciesID + " — " + c.AuthorID
}

type Image struct {
	Name      string
	Type      model.Type
	SpeciesID string
	AuthorID  string
	IndexText string
	Index     int
}

// Base is the file name without extension.
func (i Image) Base() string {
	return strings.TrimSuffix(i.Name, path.Ext(i.Name))
}

// CaptionName is the caption file expected next to the image.
func (i Image) CaptionName() string {
	return i.Base() + CaptionExt
}

// Alt is the alt text the front end shows for the image.
func (i Image) Alt() string {
	return i.SpeciesID + "_" + i.AuthorID + " " + i.IndexText
}

func ParseCaseDir(name string) (CaseDir, error) {
	m := caseDirRe.FindStringSubmatch(name)
	if m == nil {
		return CaseDir{}, fmt.Errorf("bad case folder name %q (expected <speciesID>_<authorID> or case_<speciesID>_<authorID>)", name)
	}
	return CaseDir{Name: name, SpeciesID: m[1], AuthorID: m[2]}, nil
}

func ParseImage(name string) (Image, error) {
	m := imageRe.FindStringSubmatch(name)
	if m == nil {
		return Image{}, fmt.Errorf("bad file name %q (expected <type>_<speciesID>_<authorID>_XX.png)", name)
	}
	idx, err := strconv.Atoi(m[4])
	if err != nil {
		return Image{}, fmt.Errorf("bad index in %q: %w", name, err)
	}
	return Image{
		Name:      name,
		Type:      model.ParseType(m[1]),
		SpeciesID: m[2],
		AuthorID:  m[3],
		IndexText: m[4],
		Index:     idx,
	}, nil
}

func IsImage(name string) bool {
	return strings.EqualFold(path.Ext(name), ImageExt)
}

func IsCaption(name string) bool {
	return strings.EqualFold(path.Ext(name), CaptionExt)
}

func IsCover(name string) bool {
	return strings.EqualFold(name, CoverName)
}

func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// GroupKey derives the ToLID prefix used by the gallery's browse modes.
func GroupKey(speciesID string, width int) string {
	if width <= 0 || len(speciesID) <= width {
		return speciesID
	}
	return speciesID[:width]
}

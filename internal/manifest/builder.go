// Package manifest scans the images/ tree and produces the gallery manifest
// the static front end loads.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"HiCGallery/config"
	"HiCGallery/internal/metrics"
	"HiCGallery/internal/model"
	"HiCGallery/internal/naming"
	"HiCGallery/internal/validator"
)

type Options struct {
	// Root is the site root; every path in the manifest is relative to it.
	Root string
	// ImagesDir holds the case folders, relative to Root unless absolute.
	ImagesDir string
	// ThumbsDir, relative to Root, enables thumb paths on entries.
	ThumbsDir string
	Site      config.Site
}

// MalformedCaseWarning records a case folder the builder left out.
type MalformedCaseWarning struct {
	Case       string
	Violations []validator.Violation
	Err        error
}

func (w MalformedCaseWarning) Error() string {
	if w.Err != nil {
		return fmt.Sprintf("[%s] malformed case skipped: %v", w.Case, w.Err)
	}
	msgs := make([]string, 0, len(w.Violations))
	for _, v := range w.Violations {
		msgs = append(msgs, string(v.Kind)+": "+v.Message)
	}
	return fmt.Sprintf("[%s] malformed case skipped: %s", w.Case, strings.Join(msgs, "; "))
}

func (w MalformedCaseWarning) Unwrap() error {
	return w.Err
}

func (w MalformedCaseWarning) kinds() []string {
	kinds := make([]string, 0, len(w.Violations))
	for _, v := range w.Violations {
		kinds = append(kinds, string(v.Kind))
	}
	return kinds
}

type Builder struct {
	opts   Options
	logger *zap.Logger
}

func NewBuilder(opts Options, logger *zap.Logger) *Builder {
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.ImagesDir == "" {
		opts.ImagesDir = config.DefaultImagesDir
	}
	if opts.Site.GroupPrefixLength == 0 {
		site := config.DefaultSite()
		if opts.Site.Categories == nil {
			opts.Site.Categories = site.Categories
		}
		if opts.Site.Title == "" {
			opts.Site.Title = site.Title
		}
		if opts.Site.Tagline == "" {
			opts.Site.Tagline = site.Tagline
		}
		opts.Site.GroupPrefixLength = site.GroupPrefixLength
	}
	if opts.ThumbsDir != "" {
		opts.ThumbsDir = rootRel(opts.Root, opts.ThumbsDir)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{opts: opts, logger: logger}
}

// rootRel makes an absolute p relative to root. Relative paths are already
// relative to root and are returned as they are.
func rootRel(root, p string) string {
	if !filepath.IsAbs(p) {
		return p
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return p
	}
	rel, err := filepath.Rel(absRoot, p)
	if err != nil {
		return p
	}
	return rel
}

func (b *Builder) imagesPath() string {
	if filepath.IsAbs(b.opts.ImagesDir) {
		return b.opts.ImagesDir
	}
	return filepath.Join(b.opts.Root, b.opts.ImagesDir)
}

// relPath turns a file under the images dir into a slash path relative to
// the site root.
func (b *Builder) relPath(caseName, file string) string {
	rel := rootRel(b.opts.Root, b.opts.ImagesDir)
	return path.Join(filepath.ToSlash(rel), caseName, file)
}

// Build scans the images dir and assembles the manifest. Malformed cases are
// logged, returned as warnings and left out; only I/O failures that prevent
// any output are returned as errors.
func (b *Builder) Build(ctx context.Context) (*model.Manifest, []MalformedCaseWarning, error) {
	start := time.Now()
	m := b.emptyManifest()

	dirs, err := os.ReadDir(b.imagesPath())
	if errors.Is(err, fs.ErrNotExist) {
		b.logger.Warn("images directory not found, writing empty manifest", zap.String("dir", b.imagesPath()))
		metrics.RecordBuild(0, 0, time.Since(start))
		return m, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read images dir: %w", err)
	}

	var (
		cases    []model.Case
		warnings []MalformedCaseWarning
	)
	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if !d.IsDir() || naming.IsHidden(d.Name()) {
			continue
		}
		c, warn := b.buildCase(d.Name())
		if warn != nil {
			b.logger.Warn("skipping malformed case",
				zap.String("case", warn.Case),
				zap.Strings("violations", warn.kinds()),
				zap.Error(warn))
			warnings = append(warnings, *warn)
			continue
		}
		cases = append(cases, c)
	}

	b.assemble(m, cases)
	metrics.RecordBuild(len(cases), len(warnings), time.Since(start))
	b.logger.Debug("manifest built",
		zap.Int("cases", len(cases)),
		zap.Int("skipped", len(warnings)),
		zap.Duration("took", time.Since(start)))
	return m, warnings, nil
}

func (b *Builder) emptyManifest() *model.Manifest {
	m := &model.Manifest{
		Title:      b.opts.Site.Title,
		Tagline:    b.opts.Site.Tagline,
		Categories: []model.Category{},
	}
	for _, spec := range b.opts.Site.Categories {
		m.Categories = append(m.Categories, newCategory(spec))
	}
	return m
}

func newCategory(spec config.CategorySpec) model.Category {
	return model.Category{
		Slug:        spec.Slug,
		Type:        model.ParseType(spec.Type),
		Name:        spec.Name,
		Description: spec.Description,
		Groups:      []model.Group{},
	}
}

func (b *Builder) buildCase(name string) (model.Case, *MalformedCaseWarning) {
	dir := filepath.Join(b.imagesPath(), name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return model.Case{}, &MalformedCaseWarning{Case: name, Err: err}
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}

	res := validator.Validate(name, files)
	if !res.Passed() {
		return model.Case{}, &MalformedCaseWarning{Case: name, Violations: res.Violations}
	}
	caseDir, err := naming.ParseCaseDir(name)
	if err != nil {
		return model.Case{}, &MalformedCaseWarning{Case: name, Err: err}
	}

	captions := make(map[string]string)
	var (
		images []naming.Image
		cover  string
	)
	for _, f := range files {
		switch {
		case naming.IsHidden(f):
		case naming.IsCover(f):
			cover = f
		case naming.IsCaption(f):
			captions[strings.TrimSuffix(f, path.Ext(f))] = f
		case naming.IsImage(f):
			img, err := naming.ParseImage(f)
			if err != nil {
				return model.Case{}, &MalformedCaseWarning{Case: name, Err: err}
			}
			images = append(images, img)
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Index < images[j].Index })

	c := model.Case{
		Slug:      name,
		Name:      caseDir.DisplayName(),
		SpeciesID: caseDir.SpeciesID,
		AuthorID:  caseDir.AuthorID,
		Type:      images[0].Type,
		Entries:   make([]model.Entry, 0, len(images)),
	}
	for _, img := range images {
		text, err := os.ReadFile(filepath.Join(dir, captions[img.Base()]))
		if err != nil {
			return model.Case{}, &MalformedCaseWarning{Case: name, Err: fmt.Errorf("read caption for %s: %w", img.Name, err)}
		}
		entry := model.Entry{
			Index:   img.Index,
			Src:     b.relPath(name, img.Name),
			Alt:     img.Alt(),
			Caption: strings.TrimSpace(string(text)),
		}
		if b.opts.ThumbsDir != "" {
			entry.Thumb = ThumbPath(b.opts.ThumbsDir, name, img.Name)
		}
		c.Entries = append(c.Entries, entry)
	}

	if cover != "" {
		c.CoverImage = b.relPath(name, cover)
	} else {
		c.CoverImage = c.Entries[0].Src
	}
	return c, nil
}

// ThumbPath is where the thumbnail for an entry lives, relative to the site root.
func ThumbPath(thumbsDir, caseName, file string) string {
	return path.Join(filepath.ToSlash(thumbsDir), caseName, file)
}

func (b *Builder) assemble(m *model.Manifest, cases []model.Case) {
	byType := make(map[model.Type][]model.Case)
	for _, c := range cases {
		byType[c.Type] = append(byType[c.Type], c)
	}

	configured := make(map[model.Type]bool)
	for _, c := range m.Categories {
		configured[c.Type] = true
	}
	var extra []model.Type
	for t := range byType {
		if !configured[t] {
			extra = append(extra, t)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	slugs := make(map[string]bool, len(m.Categories)+len(extra))
	for _, c := range m.Categories {
		slugs[c.Slug] = true
	}
	for _, t := range extra {
		spec, _ := b.opts.Site.Category(t)
		spec.Slug = uniqueSlug(spec.Slug, slugs)
		slugs[spec.Slug] = true
		m.Categories = append(m.Categories, newCategory(spec))
	}

	for i := range m.Categories {
		cat := &m.Categories[i]
		cat.Groups = groupCases(byType[cat.Type], b.opts.Site.GroupPrefixLength)
		if len(cat.Groups) > 0 {
			cover := cat.Groups[0].Cases[0].CoverImage
			cat.CoverImage = &cover
		}
	}
}

// uniqueSlug returns slug, or slug-2, slug-3 ... when it is already taken.
func uniqueSlug(slug string, taken map[string]bool) string {
	if !taken[slug] {
		return slug
	}
	for n := 2; ; n++ {
		s := fmt.Sprintf("%s-%d", slug, n)
		if !taken[s] {
			return s
		}
	}
}

func groupCases(cases []model.Case, width int) []model.Group {
	byKey := make(map[string][]model.Case)
	for _, c := range cases {
		key := naming.GroupKey(c.SpeciesID, width)
		byKey[key] = append(byKey[key], c)
	}

	groups := make([]model.Group, 0, len(byKey))
	for key, cs := range byKey {
		sort.Slice(cs, func(i, j int) bool { return caseLess(cs[i], cs[j]) })
		groups = append(groups, model.Group{Key: key, Cases: cs})
	}
	sort.Slice(groups, func(i, j int) bool { return foldLess(groups[i].Key, groups[j].Key) })
	return groups
}

func caseLess(a, b model.Case) bool {
	if a.SpeciesID != b.SpeciesID {
		return foldLess(a.SpeciesID, b.SpeciesID)
	}
	if a.AuthorID != b.AuthorID {
		return foldLess(a.AuthorID, b.AuthorID)
	}
	return a.Slug < b.Slug
}

// foldLess orders case-insensitively and falls back to byte order so the
// result is total.
func foldLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"HiCGallery/config"
	"HiCGallery/internal/model"
	"HiCGallery/internal/validator"
)

// addCase writes a case folder. Each image gets a caption holding its base
// name, padded with whitespace the builder must trim.
func addCase(t *testing.T, root, name string, images ...string) {
	t.Helper()
	dir := filepath.Join(root, "images", name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, img := range images {
		require.NoError(t, os.WriteFile(filepath.Join(dir, img), []byte("png"), 0o644))
		base := img[:len(img)-len(filepath.Ext(img))]
		require.NoError(t, os.WriteFile(filepath.Join(dir, base+".txt"), []byte("  caption "+base+"\n"), 0o644))
	}
}

func newTestBuilder(t *testing.T, root string) *Builder {
	return NewBuilder(Options{Root: root, ImagesDir: "images", Site: config.DefaultSite()}, zaptest.NewLogger(t))
}

func TestBuild_SingleCase(t *testing.T) {
	root := t.TempDir()
	addCase(t, root, "asm123_Genoscope",
		"inversion_asm123_Genoscope_01.png",
		"inversion_asm123_Genoscope_02.png")

	m, warnings, err := newTestBuilder(t, root).Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 1, m.CaseCount())

	cat, ok := m.FindCategory("inversion")
	require.True(t, ok)
	assert.Equal(t, "inversions", cat.Slug)
	require.Len(t, cat.Groups, 1)
	assert.Equal(t, "as", cat.Groups[0].Key)

	want := model.Case{
		Slug:       "asm123_Genoscope",
		Name:       "asm123 — Genoscope",
		SpeciesID:  "asm123",
		AuthorID:   "Genoscope",
		Type:       model.TypeInversion,
		CoverImage: "images/asm123_Genoscope/inversion_asm123_Genoscope_01.png",
		Entries: []model.Entry{
			{Index: 1, Src: "images/asm123_Genoscope/inversion_asm123_Genoscope_01.png", Alt: "asm123_Genoscope 01", Caption: "caption inversion_asm123_Genoscope_01"},
			{Index: 2, Src: "images/asm123_Genoscope/inversion_asm123_Genoscope_02.png", Alt: "asm123_Genoscope 02", Caption: "caption inversion_asm123_Genoscope_02"},
		},
	}
	if diff := cmp.Diff(want, cat.Groups[0].Cases[0]); diff != "" {
		t.Fatalf("case mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, cat.CoverImage)
	assert.Equal(t, want.CoverImage, *cat.CoverImage)

	res, err := validator.ValidateDir(filepath.Join(root, "images", "asm123_Genoscope"))
	require.NoError(t, err)
	assert.True(t, res.Passed())
}

func TestBuild_InconsistentTypeIsSkipped(t *testing.T) {
	root := t.TempDir()
	addCase(t, root, "asm123_Genoscope",
		"inversion_asm123_Genoscope_01.png",
		"translocation_asm123_Genoscope_02.png")
	addCase(t, root, "xyz9_Sanger", "duplication_xyz9_Sanger_01.png")

	m, warnings, err := newTestBuilder(t, root).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "asm123_Genoscope", warnings[0].Case)
	require.Len(t, warnings[0].Violations, 1)
	assert.Equal(t, validator.InconsistentTypeError, warnings[0].Violations[0].Kind)
	assert.Contains(t, warnings[0].Error(), "malformed case skipped")

	assert.Equal(t, 1, m.CaseCount())
	_, found := m.FindCase("asm123_Genoscope")
	assert.False(t, found)
	c, found := m.FindCase("xyz9_Sanger")
	require.True(t, found)
	assert.Equal(t, model.TypeDuplication, c.Type)
}

func TestBuild_EntriesSortedByIndex(t *testing.T) {
	root := t.TempDir()
	// Type tokens differing only in case fold to one type, and their upper
	// case names list before the lower case ones.
	addCase(t, root, "asm123_Genoscope",
		"inversion_asm123_Genoscope_02.png",
		"Inversion_asm123_Genoscope_10.png",
		"Inversion_asm123_Genoscope_01.png")

	listed, err := os.ReadDir(filepath.Join(root, "images", "asm123_Genoscope"))
	require.NoError(t, err)
	require.Equal(t, "Inversion_asm123_Genoscope_01.png", listed[0].Name())
	require.Equal(t, "Inversion_asm123_Genoscope_10.png", listed[2].Name())

	m, _, err := newTestBuilder(t, root).Build(context.Background())
	require.NoError(t, err)
	c, ok := m.FindCase("asm123_Genoscope")
	require.True(t, ok)
	var got []int
	for _, e := range c.Entries {
		got = append(got, e.Index)
	}
	assert.Equal(t, []int{1, 2, 10}, got)
	assert.Equal(t, model.TypeInversion, c.Type)
}

func TestBuild_Deterministic(t *testing.T) {
	root := t.TempDir()
	addCase(t, root, "bbb1_Zeta", "inversion_bbb1_Zeta_01.png")
	addCase(t, root, "aaa1_Beta", "inversion_aaa1_Beta_01.png")
	addCase(t, root, "case_aaa1_Alpha", "inversion_aaa1_Alpha_01.png")
	addCase(t, root, "abc2_Gamma", "misjoin_abc2_Gamma_01.png")

	b := newTestBuilder(t, root)
	first, _, err := b.Build(context.Background())
	require.NoError(t, err)
	second, _, err := b.Build(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("rebuild differs (-first +second):\n%s", diff)
	}

	out1 := filepath.Join(root, "a.json")
	out2 := filepath.Join(root, "b.json")
	require.NoError(t, WriteFile(out1, first))
	require.NoError(t, WriteFile(out2, second))
	data1, err := os.ReadFile(out1)
	require.NoError(t, err)
	data2, err := os.ReadFile(out2)
	require.NoError(t, err)
	assert.Equal(t, data1, data2)

	inv, ok := first.FindCategory("inversions")
	require.True(t, ok)
	require.Len(t, inv.Groups, 2)
	assert.Equal(t, "aa", inv.Groups[0].Key)
	assert.Equal(t, "bb", inv.Groups[1].Key)
	var slugs []string
	for _, c := range inv.Groups[0].Cases {
		slugs = append(slugs, c.Slug)
	}
	assert.Equal(t, []string{"case_aaa1_Alpha", "aaa1_Beta"}, slugs)
}

func TestBuild_CategoryOrderAndCustomTypes(t *testing.T) {
	root := t.TempDir()
	addCase(t, root, "abc2_Gamma", "misjoin_abc2_Gamma_01.png")
	addCase(t, root, "abc3_Delta", "contamination_abc3_Delta_01.png")

	m, _, err := newTestBuilder(t, root).Build(context.Background())
	require.NoError(t, err)

	var slugs []string
	for _, c := range m.Categories {
		slugs = append(slugs, c.Slug)
	}
	assert.Equal(t, []string{"inversions", "translocations", "duplications", "contaminations", "misjoins"}, slugs)
	assert.Nil(t, m.Categories[0].CoverImage)
	assert.NotNil(t, m.Categories[0].Groups)
	assert.Equal(t, "Misjoins", m.Categories[4].Name)
}

func TestBuild_CustomTypeSlugDoesNotCollide(t *testing.T) {
	root := t.TempDir()
	addCase(t, root, "asm123_Genoscope", "inversion_asm123_Genoscope_01.png")
	addCase(t, root, "xyz9_Sanger", "inversions_xyz9_Sanger_01.png")

	m, _, err := newTestBuilder(t, root).Build(context.Background())
	require.NoError(t, err)

	var slugs []string
	for _, c := range m.Categories {
		slugs = append(slugs, c.Slug)
	}
	assert.Equal(t, []string{"inversions", "translocations", "duplications", "inversions-2"}, slugs)

	byType, ok := m.FindCategory("inversions")
	require.True(t, ok)
	assert.Equal(t, model.Type("inversions"), byType.Type)
	bySlug, ok := m.FindCategory("inversions-2")
	require.True(t, ok)
	assert.Equal(t, "xyz9_Sanger", bySlug.Groups[0].Cases[0].Slug)
}

func TestBuild_AbsoluteThumbsDir(t *testing.T) {
	root := t.TempDir()
	addCase(t, root, "asm123_Genoscope", "inversion_asm123_Genoscope_01.png")

	b := NewBuilder(Options{Root: root, ImagesDir: filepath.Join(root, "images"), ThumbsDir: filepath.Join(root, "public", "thumbs")}, nil)
	m, _, err := b.Build(context.Background())
	require.NoError(t, err)
	c, ok := m.FindCase("asm123_Genoscope")
	require.True(t, ok)
	assert.Equal(t, "images/asm123_Genoscope/inversion_asm123_Genoscope_01.png", c.Entries[0].Src)
	assert.Equal(t, "public/thumbs/asm123_Genoscope/inversion_asm123_Genoscope_01.png", c.Entries[0].Thumb)
}

func TestBuild_CoverAndThumbs(t *testing.T) {
	root := t.TempDir()
	addCase(t, root, "asm123_Genoscope", "inversion_asm123_Genoscope_01.png")
	require.NoError(t, os.WriteFile(filepath.Join(root, "images", "asm123_Genoscope", "cover.png"), []byte("png"), 0o644))

	b := NewBuilder(Options{Root: root, ImagesDir: "images", ThumbsDir: "thumbs"}, nil)
	m, _, err := b.Build(context.Background())
	require.NoError(t, err)
	c, ok := m.FindCase("asm123_Genoscope")
	require.True(t, ok)
	assert.Equal(t, "images/asm123_Genoscope/cover.png", c.CoverImage)
	assert.Equal(t, "thumbs/asm123_Genoscope/inversion_asm123_Genoscope_01.png", c.Entries[0].Thumb)
	assert.Equal(t, "Hi-C Gallery", m.Title)
}

func TestBuild_MissingImagesDir(t *testing.T) {
	m, warnings, err := newTestBuilder(t, t.TempDir()).Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Len(t, m.Categories, 3)
	assert.Zero(t, m.CaseCount())

	data, err := Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"groups": []`)
	assert.Contains(t, string(data), `"coverImage": null`)
}

func TestBuild_Cancelled(t *testing.T) {
	root := t.TempDir()
	addCase(t, root, "asm123_Genoscope", "inversion_asm123_Genoscope_01.png")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := newTestBuilder(t, root).Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteFileReplacesWhole(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "site", "data.json")
	m := &model.Manifest{Title: "A", Categories: []model.Category{}}
	require.NoError(t, WriteFile(out, m))
	m.Title = "B"
	require.NoError(t, WriteFile(out, m))

	got, err := ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Title)

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

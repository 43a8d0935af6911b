package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"HiCGallery/config"
	"HiCGallery/internal/inbox"
	"HiCGallery/internal/manifest"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// useSite points the command globals at a fresh site root.
func useSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	cfg = &config.Config{
		Root:      root,
		ImagesDir: config.DefaultImagesDir,
		InboxDir:  config.DefaultInboxDir,
		Output:    config.DefaultOutput,
		ThumbSize: config.DefaultThumbSize,
		Port:      config.DefaultPort,
	}
	site = config.DefaultSite()
	logger = zap.NewNop()
	t.Cleanup(func() {
		buildOut, buildThumbs, buildThumbSize = "", "", 0
		checkJSON, inboxJSON = false, false
		serveAddr, serveWatch, serveCacheTTL = "", false, 0
		publishManifest = ""
	})
	return root
}

func newTestCmd(ctx context.Context) (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetContext(ctx)
	return cmd, &buf
}

func addGoodCase(t *testing.T, root string) string {
	t.Helper()
	dir := filepath.Join(root, "images", "asm123_Genoscope")
	writeFile(t, filepath.Join(dir, "inversion_asm123_Genoscope_01.png"), "png")
	writeFile(t, filepath.Join(dir, "inversion_asm123_Genoscope_01.txt"), "Inversion on chr2.\n")
	return dir
}

func addBadCase(t *testing.T, root string) string {
	t.Helper()
	dir := filepath.Join(root, "images", "xyz9_Sanger")
	writeFile(t, filepath.Join(dir, "inversion_xyz9_Sanger_01.png"), "png")
	return dir
}

func TestBuildWritesManifest(t *testing.T) {
	root := useSite(t)
	addGoodCase(t, root)
	addBadCase(t, root)

	cmd, out := newTestCmd(context.Background())
	require.NoError(t, runBuild(cmd, nil))

	m, err := manifest.ReadFile(filepath.Join(root, "data.json"))
	require.NoError(t, err)
	assert.Equal(t, 1, m.CaseCount())
	c, ok := m.FindCase("asm123_Genoscope")
	require.True(t, ok)
	require.Len(t, c.Entries, 1)
	assert.Equal(t, "Inversion on chr2.", c.Entries[0].Caption)
	assert.Contains(t, out.String(), "1 skipped")
}

func TestBuildCustomOutput(t *testing.T) {
	root := useSite(t)
	addGoodCase(t, root)
	buildOut = "public/manifest.json"

	cmd, _ := newTestCmd(context.Background())
	require.NoError(t, runBuild(cmd, nil))
	assert.FileExists(t, filepath.Join(root, "public", "manifest.json"))
}

func TestBuildRejectsThumbsOutsideRoot(t *testing.T) {
	root := useSite(t)
	addGoodCase(t, root)
	buildThumbs = filepath.Join(t.TempDir(), "thumbs")

	cmd, _ := newTestCmd(context.Background())
	err := runBuild(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the site root")
	assert.NoFileExists(t, filepath.Join(root, "data.json"))
}

func TestCheck(t *testing.T) {
	root := useSite(t)
	good := addGoodCase(t, root)
	addBadCase(t, root)

	cmd, out := newTestCmd(context.Background())
	err := runCheck(cmd, nil)
	require.ErrorIs(t, err, errValidationFailed)
	assert.Contains(t, out.String(), "FAIL")
	assert.Contains(t, out.String(), "MissingCaptionError")

	cmd, out = newTestCmd(context.Background())
	require.NoError(t, runCheck(cmd, []string{good}))
	assert.Contains(t, out.String(), "PASS")
}

func TestCheckJSON(t *testing.T) {
	root := useSite(t)
	addGoodCase(t, root)
	checkJSON = true

	cmd, out := newTestCmd(context.Background())
	require.NoError(t, runCheck(cmd, nil))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "asm123_Genoscope", got[0]["case"])
}

func TestCheckWithoutImagesDir(t *testing.T) {
	useSite(t)
	cmd, _ := newTestCmd(context.Background())
	err := runCheck(cmd, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errValidationFailed)
	assert.Contains(t, err.Error(), "missing images directory")
}

func TestCheckEmptyImagesDir(t *testing.T) {
	root := useSite(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "images"), 0o755))
	cmd, out := newTestCmd(context.Background())
	require.NoError(t, runCheck(cmd, nil))
	assert.Contains(t, out.String(), "No cases found.")
}

func TestInbox(t *testing.T) {
	root := useSite(t)
	writeFile(t, filepath.Join(root, "inbox", "new-inversion", "map.png"), "png")
	writeFile(t, filepath.Join(root, "inbox", "new-inversion", "notes.md"), "01: inversion on chr1")
	writeFile(t, filepath.Join(root, "inbox", "loose", "map.png"), "png")

	cmd, out := newTestCmd(context.Background())
	require.NoError(t, runInbox(cmd, nil))
	assert.Contains(t, out.String(), "new-inversion: 1 image(s), ready")
	assert.Contains(t, out.String(), "loose: 1 image(s), needs attention")

	inboxJSON = true
	cmd, out = newTestCmd(context.Background())
	require.NoError(t, runInbox(cmd, nil))
	var subs []inbox.Submission
	require.NoError(t, json.Unmarshal(out.Bytes(), &subs))
	assert.Len(t, subs, 2)
}

func TestInboxEmpty(t *testing.T) {
	useSite(t)
	cmd, out := newTestCmd(context.Background())
	require.NoError(t, runInbox(cmd, nil))
	assert.Contains(t, out.String(), "is empty")
}

func TestPublishNeedsDatabase(t *testing.T) {
	useSite(t)
	cmd, _ := newTestCmd(context.Background())
	err := runPublish(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres is not configured")
}

func TestServeStopsWhenContextEnds(t *testing.T) {
	useSite(t)
	serveAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd, _ := newTestCmd(ctx)
	require.NoError(t, runServe(cmd, nil))
}

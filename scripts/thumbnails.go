package scripts

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/nfnt/resize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"HiCGallery/internal/model"
)

// compressImage writes a PNG thumbnail of inputPath bounded by size on both
// sides. Aspect ratio is kept and small images are not upscaled.
func compressImage(inputPath string, outputPath string, size uint) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return fmt.Errorf("decode %s: %w", inputPath, err)
	}
	if format != "png" {
		return fmt.Errorf("unsupported format %q for file: %s", format, inputPath)
	}

	m := resize.Thumbnail(size, size, img, resize.Lanczos3)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := png.Encode(out, m); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", outputPath, err)
	}
	return out.Close()
}

// upToDate reports whether thumb exists and is not older than src.
func upToDate(src, thumb string) bool {
	ti, err := os.Stat(thumb)
	if err != nil {
		return false
	}
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	return !ti.ModTime().Before(si.ModTime())
}

// GenerateThumbnails renders the thumbnail of every manifest entry that has a
// thumb path and no fresh thumbnail on disk. Paths are resolved against root.
// It returns how many thumbnails were written.
func GenerateThumbnails(ctx context.Context, root string, m *model.Manifest, size uint, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var rendered atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, cat := range m.Categories {
		for _, grp := range cat.Groups {
			for _, c := range grp.Cases {
				for _, e := range c.Entries {
					e := e // per-iteration copy (go.mod targets Go 1.21 loop semantics)
					if e.Thumb == "" {
						continue
					}
					src := filepath.Join(root, filepath.FromSlash(e.Src))
					dst := filepath.Join(root, filepath.FromSlash(e.Thumb))
					if upToDate(src, dst) {
						continue
					}
					g.Go(func() error {
						if err := ctx.Err(); err != nil {
							return err
						}
						logger.Debug("rendering thumbnail", zap.String("src", e.Src), zap.String("thumb", e.Thumb))
						if err := compressImage(src, dst, size); err != nil {
							return fmt.Errorf("thumbnail for %s: %w", e.Src, err)
						}
						rendered.Add(1)
						return nil
					})
				}
			}
		}
	}
	if err := g.Wait(); err != nil {
		return int(rendered.Load()), err
	}
	return int(rendered.Load()), nil
}

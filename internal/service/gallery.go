package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"HiCGallery/internal/manifest"
	"HiCGallery/internal/metrics"
	"HiCGallery/internal/model"
	"HiCGallery/internal/validator"
)

var ErrNotFound = errors.New("not found")

const manifestKey = "manifest"

type GalleryService interface {
	Manifest(ctx context.Context) (*model.Manifest, error)
	Categories(ctx context.Context) ([]model.Category, error)
	CasesInGroup(ctx context.Context, category, group string) ([]model.Case, error)
	EntryByNumber(ctx context.Context, caseSlug, number string) (*model.Entry, error)
	Validate(name string, files []string) validator.Result
	Invalidate()
}

// ManifestBuilder is the part of manifest.Builder the service needs.
type ManifestBuilder interface {
	Build(ctx context.Context) (*model.Manifest, []manifest.MalformedCaseWarning, error)
}

type galleryServiceImpl struct {
	builder ManifestBuilder
	cache   *cache.Cache
	logger  *zap.Logger
}

// NewGalleryService builds manifests on demand and keeps the last one for ttl.
func NewGalleryService(builder ManifestBuilder, ttl time.Duration, logger *zap.Logger) GalleryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &galleryServiceImpl{
		builder: builder,
		cache:   cache.New(ttl, 2*ttl),
		logger:  logger,
	}
}

func (s *galleryServiceImpl) Manifest(ctx context.Context) (*model.Manifest, error) {
	if cached, ok := s.cache.Get(manifestKey); ok {
		return cached.(*model.Manifest), nil
	}

	m, warnings, err := s.builder.Build(ctx)
	if err != nil {
		s.logger.Error("manifest build failed", zap.Error(err))
		return nil, err
	}
	if len(warnings) > 0 {
		s.logger.Info("manifest built with skipped cases", zap.Int("skipped", len(warnings)))
	}
	s.cache.SetDefault(manifestKey, m)
	return m, nil
}

func (s *galleryServiceImpl) Categories(ctx context.Context) ([]model.Category, error) {
	m, err := s.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	return m.Categories, nil
}

func (s *galleryServiceImpl) CasesInGroup(ctx context.Context, category, group string) ([]model.Case, error) {
	if category == "" || group == "" {
		return nil, errors.New("category and group cannot be empty")
	}
	m, err := s.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	cat, ok := m.FindCategory(category)
	if !ok {
		return nil, fmt.Errorf("category %q: %w", category, ErrNotFound)
	}
	g, ok := cat.FindGroup(group)
	if !ok {
		return nil, fmt.Errorf("group %q in %q: %w", group, category, ErrNotFound)
	}
	return g.Cases, nil
}

func (s *galleryServiceImpl) EntryByNumber(ctx context.Context, caseSlug, number string) (*model.Entry, error) {
	idx, err := strconv.Atoi(number)
	if err != nil {
		return nil, fmt.Errorf("image number %q: %w", number, ErrNotFound)
	}
	m, err := s.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := m.FindCase(caseSlug)
	if !ok {
		return nil, fmt.Errorf("case %q: %w", caseSlug, ErrNotFound)
	}
	e, ok := c.EntryByIndex(idx)
	if !ok {
		return nil, fmt.Errorf("image %d in %q: %w", idx, caseSlug, ErrNotFound)
	}
	return e, nil
}

func (s *galleryServiceImpl) Validate(name string, files []string) validator.Result {
	res := validator.Validate(name, files)
	metrics.RecordValidation(res.Passed())
	return res
}

func (s *galleryServiceImpl) Invalidate() {
	s.cache.Delete(manifestKey)
}

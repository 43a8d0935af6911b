package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"HiCGallery/internal/model"
)

// Schema mirrors the manifest tree. Positions keep the manifest order so a
// reader can rebuild the same document with ORDER BY.
const Schema = `
CREATE TABLE IF NOT EXISTS categories (
	id          SERIAL PRIMARY KEY,
	type        TEXT NOT NULL UNIQUE,
	slug        TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	cover_image TEXT,
	position    INT  NOT NULL
);
CREATE TABLE IF NOT EXISTS tolid_groups (
	id          SERIAL PRIMARY KEY,
	category_id INT  NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
	key         TEXT NOT NULL,
	position    INT  NOT NULL,
	UNIQUE (category_id, key)
);
CREATE TABLE IF NOT EXISTS cases (
	id          SERIAL PRIMARY KEY,
	group_id    INT  NOT NULL REFERENCES tolid_groups(id) ON DELETE CASCADE,
	slug        TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	species_id  TEXT NOT NULL,
	author_id   TEXT NOT NULL,
	type        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	cover_image TEXT NOT NULL,
	position    INT  NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	id       SERIAL PRIMARY KEY,
	case_id  INT  NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	idx      INT  NOT NULL,
	src      TEXT NOT NULL,
	thumb    TEXT NOT NULL DEFAULT '',
	alt      TEXT NOT NULL,
	caption  TEXT NOT NULL,
	UNIQUE (case_id, idx)
);
`

const (
	upsertCategory = `
		INSERT INTO categories (type, slug, name, description, cover_image, position)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (type) DO UPDATE SET slug = excluded.slug, name = excluded.name,
			description = excluded.description, cover_image = excluded.cover_image, position = excluded.position`

	upsertGroup = `
		INSERT INTO tolid_groups (category_id, key, position)
		VALUES ((SELECT id FROM categories WHERE type = $1), $2, $3)
		ON CONFLICT (category_id, key) DO UPDATE SET position = excluded.position`

	upsertCase = `
		INSERT INTO cases (group_id, slug, name, species_id, author_id, type, description, cover_image, position)
		VALUES ((SELECT g.id FROM tolid_groups g
		         JOIN categories c ON g.category_id = c.id
		         WHERE c.type = $1 AND g.key = $2), $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (slug) DO UPDATE SET group_id = excluded.group_id, name = excluded.name,
			species_id = excluded.species_id, author_id = excluded.author_id, type = excluded.type,
			description = excluded.description, cover_image = excluded.cover_image, position = excluded.position`

	upsertEntry = `
		INSERT INTO entries (case_id, idx, src, thumb, alt, caption)
		VALUES ((SELECT id FROM cases WHERE slug = $1), $2, $3, $4, $5, $6)
		ON CONFLICT (case_id, idx) DO UPDATE SET src = excluded.src, thumb = excluded.thumb,
			alt = excluded.alt, caption = excluded.caption`

	deleteStaleEntries = `
		DELETE FROM entries e USING cases c
		WHERE e.case_id = c.id AND c.slug = $1 AND e.idx <> ALL($2)`

	deleteStaleCases      = `DELETE FROM cases WHERE slug <> ALL($1)`
	deleteEmptyGroups     = `DELETE FROM tolid_groups g WHERE NOT EXISTS (SELECT 1 FROM cases c WHERE c.group_id = g.id)`
	deleteStaleCategories = `DELETE FROM categories WHERE type <> ALL($1)`
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SyncStats counts what a Sync wrote.
type SyncStats struct {
	Categories   int
	Groups       int
	Cases        int
	Entries      int
	RemovedCases int64
}

type GalleryRepository struct {
	db *sql.DB
}

func NewGalleryRepository(db *sql.DB) *GalleryRepository {
	return &GalleryRepository{db: db}
}

func (r *GalleryRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Sync makes the tables match m in one transaction. Cases, groups and
// categories missing from m are removed.
func (r *GalleryRepository) Sync(ctx context.Context, m *model.Manifest) (SyncStats, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return SyncStats{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stats, err := syncTx(ctx, tx, m)
	if err != nil {
		return SyncStats{}, err
	}
	if err := tx.Commit(); err != nil {
		return SyncStats{}, fmt.Errorf("commit: %w", err)
	}
	return stats, nil
}

func syncTx(ctx context.Context, ex execer, m *model.Manifest) (SyncStats, error) {
	var stats SyncStats
	types := make([]string, 0, len(m.Categories))
	slugs := []string{}

	for ci, cat := range m.Categories {
		types = append(types, string(cat.Type))
		if _, err := ex.ExecContext(ctx, upsertCategory,
			string(cat.Type), cat.Slug, cat.Name, cat.Description, nullable(cat.CoverImage), ci); err != nil {
			return stats, fmt.Errorf("category %s: %w", cat.Type, err)
		}
		stats.Categories++

		for gi, g := range cat.Groups {
			if _, err := ex.ExecContext(ctx, upsertGroup, string(cat.Type), g.Key, gi); err != nil {
				return stats, fmt.Errorf("group %s/%s: %w", cat.Type, g.Key, err)
			}
			stats.Groups++

			for ki, c := range g.Cases {
				slugs = append(slugs, c.Slug)
				if _, err := ex.ExecContext(ctx, upsertCase,
					string(cat.Type), g.Key, c.Slug, c.Name, c.SpeciesID, c.AuthorID,
					string(c.Type), c.Description, c.CoverImage, ki); err != nil {
					return stats, fmt.Errorf("case %s: %w", c.Slug, err)
				}
				stats.Cases++

				indexes := make([]int64, 0, len(c.Entries))
				for _, e := range c.Entries {
					indexes = append(indexes, int64(e.Index))
					if _, err := ex.ExecContext(ctx, upsertEntry,
						c.Slug, e.Index, e.Src, e.Thumb, e.Alt, e.Caption); err != nil {
						return stats, fmt.Errorf("entry %s #%02d: %w", c.Slug, e.Index, err)
					}
					stats.Entries++
				}
				if _, err := ex.ExecContext(ctx, deleteStaleEntries, c.Slug, pq.Array(indexes)); err != nil {
					return stats, fmt.Errorf("prune entries of %s: %w", c.Slug, err)
				}
			}
		}
	}

	res, err := ex.ExecContext(ctx, deleteStaleCases, pq.Array(slugs))
	if err != nil {
		return stats, fmt.Errorf("prune cases: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		stats.RemovedCases = n
	}
	if _, err := ex.ExecContext(ctx, deleteEmptyGroups); err != nil {
		return stats, fmt.Errorf("prune groups: %w", err)
	}
	if _, err := ex.ExecContext(ctx, deleteStaleCategories, pq.Array(types)); err != nil {
		return stats, fmt.Errorf("prune categories: %w", err)
	}
	return stats, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

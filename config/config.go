package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultRoot       = "."
	DefaultImagesDir  = "images"
	DefaultInboxDir   = "inbox"
	DefaultOutput     = "data.json"
	DefaultPort       = "8000"
	DefaultThumbSize  = 320
	DefaultLogLevel   = "info"
	DefaultPgSSLMode  = "disable"
	DefaultEnvFile    = ".env"
	DefaultSiteConfig = ""
)

type Config struct {
	Root       string
	ImagesDir  string
	InboxDir   string
	Output     string
	SiteConfig string
	ThumbsDir  string
	ThumbSize  int
	Port       string
	BaseURL    string
	LogLevel   string

	PgHost    string
	PgPort    string
	PgUser    string
	PgPass    string
	PgDBName  string
	PgSSLMode string
}

// Load reads .env when present and then the process environment. A missing
// .env is normal in CI and is not an error.
func Load() (*Config, error) {
	return LoadFile(DefaultEnvFile)
}

func LoadFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	thumbSize := DefaultThumbSize
	if raw := strings.TrimSpace(os.Getenv("GALLERY_THUMB_SIZE")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("GALLERY_THUMB_SIZE must be a positive integer, got %q", raw)
		}
		thumbSize = n
	}

	return &Config{
		Root:       getEnv("GALLERY_ROOT", DefaultRoot),
		ImagesDir:  getEnv("GALLERY_IMAGES_DIR", DefaultImagesDir),
		InboxDir:   getEnv("GALLERY_INBOX_DIR", DefaultInboxDir),
		Output:     getEnv("GALLERY_OUTPUT", DefaultOutput),
		SiteConfig: getEnv("GALLERY_SITE_CONFIG", DefaultSiteConfig),
		ThumbsDir:  getEnv("GALLERY_THUMBS_DIR", ""),
		ThumbSize:  thumbSize,
		Port:       getEnv("PORT", DefaultPort),
		BaseURL:    os.Getenv("BASE_URL"),
		LogLevel:   getEnv("LOG_LEVEL", DefaultLogLevel),
		PgHost:     os.Getenv("PG_HOST"),
		PgPort:     os.Getenv("PG_PORT"),
		PgUser:     os.Getenv("PG_USER"),
		PgPass:     os.Getenv("PG_PASS"),
		PgDBName:   os.Getenv("PG_DBNAME"),
		PgSSLMode:  getEnv("PG_SSLMODE", DefaultPgSSLMode),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// ImagesPath is the images directory resolved against the site root.
func (c *Config) ImagesPath() string {
	return c.resolve(c.ImagesDir)
}

func (c *Config) InboxPath() string {
	return c.resolve(c.InboxDir)
}

func (c *Config) OutputPath() string {
	return c.resolve(c.Output)
}

func (c *Config) ThumbsPath() string {
	if c.ThumbsDir == "" {
		return ""
	}
	return c.resolve(c.ThumbsDir)
}

// WithinRoot reports whether p, resolved against the root, lies inside it.
func (c *Config) WithinRoot(p string) bool {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(c.resolve(p))
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// SitePath is the site config file resolved against the root, or "" when unset.
func (c *Config) SitePath() string {
	if c.SiteConfig == "" {
		return ""
	}
	return c.resolve(c.SiteConfig)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// HasDatabase reports whether enough Postgres settings are present to connect.
func (c *Config) HasDatabase() bool {
	return c.PgHost != "" && c.PgDBName != ""
}

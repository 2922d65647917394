package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/common/security"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/platform/config"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		content TEXT,
		sentiment TEXT,
		scraped_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT UNIQUE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS article_tags (
		article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (article_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS scraper_profiles (
		id TEXT PRIMARY KEY,
		owner_id TEXT REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		url TEXT NOT NULL,
		selector TEXT NOT NULL,
		default_limit INT NOT NULL DEFAULT 0,
		description TEXT,
		is_shared BOOLEAN NOT NULL DEFAULT FALSE,
		is_preinstalled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS filter_presets (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		bundle JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (owner_id, name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_owner ON articles(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_scraper_profiles_owner ON scraper_profiles(owner_id)`,
}

// Preinstalled scraper profiles shipped with the system. Fixed ids keep the
// seed idempotent across restarts. These rows have no owner, are readable by
// everyone, and can never be deleted.
var preinstalledProfiles = []struct {
	id, name, slug, url, selector string
}{
	{"pre-0001", "Hacker News", "hacker-news", "https://news.ycombinator.com/", ".titleline > a"},
	{"pre-0002", "BBC News", "bbc-news", "https://www.bbc.com/news", "h2[data-testid='card-headline']"},
	{"pre-0003", "Reuters Tech", "reuters-tech", "https://www.reuters.com/technology/", "a[data-testid='Heading']"},
	{"pre-0004", "Ars Technica", "ars-technica", "https://arstechnica.com/", "h2 > a"},
}

// EnsureSchema creates all tables and indexes if they do not exist and seeds
// the preinstalled scraper profiles.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	for _, p := range preinstalledProfiles {
		_, err := db.ExecContext(ctx, `
			INSERT INTO scraper_profiles (id, owner_id, name, slug, url, selector, is_shared, is_preinstalled)
			VALUES ($1, NULL, $2, $3, $4, $5, TRUE, TRUE)
			ON CONFLICT (id) DO NOTHING`,
			p.id, p.name, p.slug, p.url, p.selector)
		if err != nil {
			return fmt.Errorf("seeding preinstalled profile %s: %w", p.slug, err)
		}
	}
	return nil
}

// BootstrapAdmin creates the initial admin account when the users table is
// empty. It is a no-op on an already-populated database or when no bootstrap
// password is configured.
func BootstrapAdmin(ctx context.Context, db *sql.DB, cfg *config.Config, id string) (bool, error) {
	if cfg.BootstrapAdminPassword == "" {
		return false, nil
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	hash, err := security.HashPassword(cfg.BootstrapAdminPassword)
	if err != nil {
		return false, fmt.Errorf("hashing bootstrap password: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, 'admin', TRUE)`,
		id, cfg.BootstrapAdminUsername, cfg.BootstrapAdminEmail, hash)
	if err != nil {
		return false, fmt.Errorf("creating bootstrap admin: %w", err)
	}
	return true, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/authz"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
)

type ScraperRepository interface {
	Create(ctx context.Context, profile *model.ScraperProfile) error
	FindByID(ctx context.Context, id string) (*model.ScraperProfile, error)
	List(ctx context.Context, scope authz.Scope, limit, offset int) ([]model.ScraperProfile, int, error)
	// Update never writes is_preinstalled; the flag is immutable once set.
	Update(ctx context.Context, profile *model.ScraperProfile) error
	SetShared(ctx context.Context, id string, shared bool) error
	// Delete refuses preinstalled rows at the SQL level as well, so even a
	// buggy caller cannot remove them.
	Delete(ctx context.Context, id string) error
}

type pgScraperRepository struct {
	db *sql.DB
}

func NewPgScraperRepository(db *sql.DB) ScraperRepository {
	return &pgScraperRepository{db: db}
}

const scraperColumns = `id, owner_id, name, slug, url, selector, default_limit, description, is_shared, is_preinstalled, created_at, updated_at`

func (r *pgScraperRepository) Create(ctx context.Context, p *model.ScraperProfile) error {
	query := `INSERT INTO scraper_profiles
	          (id, owner_id, name, slug, url, selector, default_limit, description, is_shared, is_preinstalled)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.OwnerID, p.Name, p.Slug, p.URL, p.Selector,
		p.DefaultLimit, p.Description, p.IsShared, p.IsPreinstalled)
	if err != nil {
		return fmt.Errorf("pgScraperRepository.Create: %w", err)
	}
	return nil
}

func (r *pgScraperRepository) FindByID(ctx context.Context, id string) (*model.ScraperProfile, error) {
	query := `SELECT ` + scraperColumns + ` FROM scraper_profiles WHERE id = $1`
	p := &model.ScraperProfile{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Slug, &p.URL, &p.Selector,
		&p.DefaultLimit, &p.Description, &p.IsShared, &p.IsPreinstalled,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgScraperRepository.FindByID: %w", err)
	}
	return p, nil
}

func (r *pgScraperRepository) List(ctx context.Context, scope authz.Scope, limit, offset int) ([]model.ScraperProfile, int, error) {
	var baseQuery strings.Builder
	baseQuery.WriteString(`SELECT ` + scraperColumns + ` FROM scraper_profiles`)

	var countQuery strings.Builder
	countQuery.WriteString(`SELECT COUNT(*) FROM scraper_profiles`)

	var args []interface{}
	argID := 1

	if !scope.Unrestricted {
		var where string
		if scope.IncludeShared {
			where = fmt.Sprintf(" WHERE (owner_id = $%d OR is_shared = TRUE OR is_preinstalled = TRUE)", argID)
		} else {
			// Owner-only listing; preinstalled rows have no owner and drop
			// out naturally.
			where = fmt.Sprintf(" WHERE owner_id = $%d", argID)
		}
		baseQuery.WriteString(where)
		countQuery.WriteString(where)
		args = append(args, scope.OwnerID)
		argID++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery.String(), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgScraperRepository.List count: %w", err)
	}

	baseQuery.WriteString(fmt.Sprintf(" ORDER BY is_preinstalled DESC, name LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, baseQuery.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgScraperRepository.List: %w", err)
	}
	defer rows.Close()

	var profiles []model.ScraperProfile
	for rows.Next() {
		var p model.ScraperProfile
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Slug, &p.URL, &p.Selector,
			&p.DefaultLimit, &p.Description, &p.IsShared, &p.IsPreinstalled,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("pgScraperRepository.List scan: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, total, rows.Err()
}

func (r *pgScraperRepository) Update(ctx context.Context, p *model.ScraperProfile) error {
	query := `UPDATE scraper_profiles SET
	          name = $1, slug = $2, url = $3, selector = $4, default_limit = $5,
	          description = $6, is_shared = $7, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $8`
	res, err := r.db.ExecContext(ctx, query,
		p.Name, p.Slug, p.URL, p.Selector, p.DefaultLimit, p.Description, p.IsShared, p.ID)
	if err != nil {
		return fmt.Errorf("pgScraperRepository.Update: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgScraperRepository) SetShared(ctx context.Context, id string, shared bool) error {
	query := `UPDATE scraper_profiles SET is_shared = $1, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $2 AND is_preinstalled = FALSE`
	res, err := r.db.ExecContext(ctx, query, shared, id)
	if err != nil {
		return fmt.Errorf("pgScraperRepository.SetShared: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgScraperRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM scraper_profiles WHERE id = $1 AND is_preinstalled = FALSE`, id)
	if err != nil {
		return fmt.Errorf("pgScraperRepository.Delete: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/authz"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
)

type ArticleRepository interface {
	Create(ctx context.Context, tx *sql.Tx, article *model.Article) error
	FindByID(ctx context.Context, id string) (*model.Article, error)
	// List applies the visibility scope and the filter bundle before
	// pagination; rows a caller cannot see never reach the page boundary.
	List(ctx context.Context, scope authz.Scope, filter model.FilterBundle, limit, offset int) ([]model.Article, int, error)
	Update(ctx context.Context, article *model.Article) error
	Delete(ctx context.Context, id string) error

	FindOrCreateTag(ctx context.Context, tx *sql.Tx, name, slugged string) (*model.Tag, error)
	LinkTag(ctx context.Context, tx *sql.Tx, articleID, tagID string) error
	ClearTags(ctx context.Context, tx *sql.Tx, articleID string) error
	GetTagsByArticleID(ctx context.Context, articleID string) ([]model.Tag, error)
	// ListTags returns the distinct tags attached to articles the scope can
	// see.
	ListTags(ctx context.Context, scope authz.Scope) ([]model.Tag, error)
}

type pgArticleRepository struct {
	db *sql.DB
}

func NewPgArticleRepository(db *sql.DB) ArticleRepository {
	return &pgArticleRepository{db: db}
}

const articleColumns = `id, owner_id, title, url, content, sentiment, scraped_at, created_at, updated_at`

func (r *pgArticleRepository) Create(ctx context.Context, tx *sql.Tx, a *model.Article) error {
	query := `INSERT INTO articles (id, owner_id, title, url, content, sentiment, scraped_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, a.ID, a.OwnerID, a.Title, a.URL, a.Content, a.Sentiment, a.ScrapedAt)
	} else {
		_, err = r.db.ExecContext(ctx, query, a.ID, a.OwnerID, a.Title, a.URL, a.Content, a.Sentiment, a.ScrapedAt)
	}
	if err != nil {
		return fmt.Errorf("pgArticleRepository.Create: %w", err)
	}
	return nil
}

func (r *pgArticleRepository) FindByID(ctx context.Context, id string) (*model.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`
	a := &model.Article{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.OwnerID, &a.Title, &a.URL, &a.Content, &a.Sentiment,
		&a.ScrapedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgArticleRepository.FindByID: %w", err)
	}
	return a, nil
}

// scopeConditions renders a visibility scope into WHERE clauses. Articles
// carry no sharing flags, so IncludeShared has nothing to widen here.
func articleScopeConditions(scope authz.Scope, conditions *[]string, args *[]interface{}, argID *int) {
	if scope.Unrestricted {
		return
	}
	*conditions = append(*conditions, fmt.Sprintf("a.owner_id = $%d", *argID))
	*args = append(*args, scope.OwnerID)
	*argID++
}

func (r *pgArticleRepository) List(ctx context.Context, scope authz.Scope, filter model.FilterBundle, limit, offset int) ([]model.Article, int, error) {
	var baseQuery strings.Builder
	baseQuery.WriteString(`SELECT ` + prefixColumns("a", articleColumns) + ` FROM articles a`)

	var countQuery strings.Builder
	countQuery.WriteString(`SELECT COUNT(*) FROM articles a`)

	var conditions []string
	var args []interface{}
	argID := 1

	articleScopeConditions(scope, &conditions, &args, &argID)

	if filter.TitlePattern != "" {
		if filter.UseRegex {
			conditions = append(conditions, fmt.Sprintf("a.title ~* $%d", argID))
			args = append(args, filter.TitlePattern)
		} else {
			conditions = append(conditions, fmt.Sprintf("a.title ILIKE $%d", argID))
			args = append(args, "%"+filter.TitlePattern+"%")
		}
		argID++
	}
	if filter.URLPattern != "" {
		if filter.UseRegex {
			conditions = append(conditions, fmt.Sprintf("a.url ~* $%d", argID))
			args = append(args, filter.URLPattern)
		} else {
			conditions = append(conditions, fmt.Sprintf("a.url ILIKE $%d", argID))
			args = append(args, "%"+filter.URLPattern+"%")
		}
		argID++
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("a.created_at >= $%d", argID))
		args = append(args, *filter.DateFrom)
		argID++
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("a.created_at <= $%d", argID))
		args = append(args, *filter.DateTo)
		argID++
	}
	if filter.Sentiment != "" {
		conditions = append(conditions, fmt.Sprintf("a.sentiment = $%d", argID))
		args = append(args, filter.Sentiment)
		argID++
	}
	if len(filter.Tags) > 0 {
		if filter.TagLogic == model.TagLogicAnd {
			// Every tag must be present: one EXISTS per tag.
			for _, tag := range filter.Tags {
				conditions = append(conditions, fmt.Sprintf(
					`EXISTS (SELECT 1 FROM article_tags at JOIN tags t ON at.tag_id = t.id
					 WHERE at.article_id = a.id AND t.slug = $%d)`, argID))
				args = append(args, tag)
				argID++
			}
		} else {
			placeholders := make([]string, len(filter.Tags))
			for i, tag := range filter.Tags {
				placeholders[i] = fmt.Sprintf("$%d", argID)
				args = append(args, tag)
				argID++
			}
			conditions = append(conditions, fmt.Sprintf(
				`EXISTS (SELECT 1 FROM article_tags at JOIN tags t ON at.tag_id = t.id
				 WHERE at.article_id = a.id AND t.slug IN (%s))`, strings.Join(placeholders, ", ")))
		}
	}

	if len(conditions) > 0 {
		where := " WHERE " + strings.Join(conditions, " AND ")
		baseQuery.WriteString(where)
		countQuery.WriteString(where)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery.String(), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgArticleRepository.List count: %w", err)
	}

	baseQuery.WriteString(fmt.Sprintf(" ORDER BY a.created_at DESC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, baseQuery.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgArticleRepository.List: %w", err)
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		var a model.Article
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Title, &a.URL, &a.Content,
			&a.Sentiment, &a.ScrapedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("pgArticleRepository.List scan: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, total, rows.Err()
}

func (r *pgArticleRepository) Update(ctx context.Context, a *model.Article) error {
	query := `UPDATE articles SET title = $1, url = $2, content = $3, sentiment = $4,
	          updated_at = CURRENT_TIMESTAMP WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, a.Title, a.URL, a.Content, a.Sentiment, a.ID)
	if err != nil {
		return fmt.Errorf("pgArticleRepository.Update: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgArticleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgArticleRepository.Delete: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgArticleRepository) FindOrCreateTag(ctx context.Context, tx *sql.Tx, name, slugged string) (*model.Tag, error) {
	tag := &model.Tag{}
	err := queryRower(tx, r.db).QueryRowContext(ctx,
		`SELECT id, name, slug FROM tags WHERE slug = $1`, slugged).
		Scan(&tag.ID, &tag.Name, &tag.Slug)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pgArticleRepository.FindOrCreateTag: %w", err)
	}

	tag = &model.Tag{ID: newTagID(), Name: name, Slug: slugged}
	_, err = execer(tx, r.db).ExecContext(ctx,
		`INSERT INTO tags (id, name, slug) VALUES ($1, $2, $3)`, tag.ID, tag.Name, tag.Slug)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Lost a race with a concurrent insert; the tag exists now.
			err = queryRower(tx, r.db).QueryRowContext(ctx,
				`SELECT id, name, slug FROM tags WHERE slug = $1`, slugged).
				Scan(&tag.ID, &tag.Name, &tag.Slug)
			if err != nil {
				return nil, fmt.Errorf("pgArticleRepository.FindOrCreateTag retry: %w", err)
			}
			return tag, nil
		}
		return nil, fmt.Errorf("pgArticleRepository.FindOrCreateTag insert: %w", err)
	}
	return tag, nil
}

func (r *pgArticleRepository) LinkTag(ctx context.Context, tx *sql.Tx, articleID, tagID string) error {
	_, err := execer(tx, r.db).ExecContext(ctx,
		`INSERT INTO article_tags (article_id, tag_id) VALUES ($1, $2)`, articleID, tagID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("tag already attached to article: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgArticleRepository.LinkTag: %w", err)
	}
	return nil
}

func (r *pgArticleRepository) ClearTags(ctx context.Context, tx *sql.Tx, articleID string) error {
	_, err := execer(tx, r.db).ExecContext(ctx,
		`DELETE FROM article_tags WHERE article_id = $1`, articleID)
	if err != nil {
		return fmt.Errorf("pgArticleRepository.ClearTags: %w", err)
	}
	return nil
}

func (r *pgArticleRepository) GetTagsByArticleID(ctx context.Context, articleID string) ([]model.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug FROM tags t
		JOIN article_tags at ON at.tag_id = t.id
		WHERE at.article_id = $1 ORDER BY t.slug`, articleID)
	if err != nil {
		return nil, fmt.Errorf("pgArticleRepository.GetTagsByArticleID: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("pgArticleRepository.GetTagsByArticleID scan: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *pgArticleRepository) ListTags(ctx context.Context, scope authz.Scope) ([]model.Tag, error) {
	var query strings.Builder
	query.WriteString(`
		SELECT DISTINCT t.id, t.name, t.slug FROM tags t
		JOIN article_tags at ON at.tag_id = t.id
		JOIN articles a ON a.id = at.article_id`)

	var args []interface{}
	if !scope.Unrestricted {
		query.WriteString(` WHERE a.owner_id = $1`)
		args = append(args, scope.OwnerID)
	}
	query.WriteString(` ORDER BY t.slug`)

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("pgArticleRepository.ListTags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("pgArticleRepository.ListTags scan: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

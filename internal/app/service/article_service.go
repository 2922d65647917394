package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/authz"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/repository"
)

type ArticleService struct {
	articleRepo repository.ArticleRepository
	db          *sql.DB // For transactions
}

func NewArticleService(articleRepo repository.ArticleRepository, db *sql.DB) *ArticleService {
	return &ArticleService{articleRepo: articleRepo, db: db}
}

type CreateArticleRequest struct {
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Content   *string    `json:"content,omitempty"`
	Sentiment *string    `json:"sentiment,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	ScrapedAt *time.Time `json:"scraped_at,omitempty"`
}

type UpdateArticleRequest struct {
	Title     *string   `json:"title,omitempty"`
	URL       *string   `json:"url,omitempty"`
	Content   *string   `json:"content,omitempty"`
	Sentiment *string   `json:"sentiment,omitempty"`
	Tags      *[]string `json:"tags,omitempty"`
}

type ArticlePage struct {
	Articles []model.Article `json:"articles"`
	Total    int             `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}

func articleResource(a *model.Article) authz.Resource {
	return authz.Resource{OwnerID: &a.OwnerID}
}

func (s *ArticleService) Create(ctx context.Context, caller authz.Caller, req CreateArticleRequest) (*model.Article, error) {
	if d := authz.Authorize(caller, authz.ActionCreate, authz.Resource{}); !d.Allowed {
		return nil, fmt.Errorf("%s: %w", d.Reason, common.ErrForbidden)
	}
	if req.Title == "" || req.URL == "" {
		return nil, fmt.Errorf("title and url are required: %w", common.ErrValidation)
	}
	if req.Sentiment != nil && !model.ValidSentiment(*req.Sentiment) {
		return nil, fmt.Errorf("unknown sentiment %q: %w", *req.Sentiment, common.ErrValidation)
	}

	article := &model.Article{
		ID:        uuid.NewString(),
		OwnerID:   caller.ID,
		Title:     req.Title,
		URL:       req.URL,
		Content:   req.Content,
		Sentiment: req.Sentiment,
		ScrapedAt: req.ScrapedAt,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := s.articleRepo.Create(ctx, tx, article); err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, tx, article, req.Tags); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	return article, nil
}

// Get returns an article the caller can see. An article outside the caller's
// visibility reads as not-found, so the response does not confirm it exists.
func (s *ArticleService) Get(ctx context.Context, caller authz.Caller, id string) (*model.Article, error) {
	article, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.Visible(caller, articleResource(article)) {
		return nil, common.ErrNotFound
	}

	tags, err := s.articleRepo.GetTagsByArticleID(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	article.Tags = tags
	return article, nil
}

func (s *ArticleService) List(ctx context.Context, caller authz.Caller, filter model.FilterBundle, limit, offset int) (*ArticlePage, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	scope := authz.ScopeFor(caller, authz.KindArticle)
	articles, total, err := s.articleRepo.List(ctx, scope, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range articles {
		tags, err := s.articleRepo.GetTagsByArticleID(ctx, articles[i].ID)
		if err != nil {
			return nil, err
		}
		articles[i].Tags = tags
	}
	return &ArticlePage{Articles: articles, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *ArticleService) Update(ctx context.Context, caller authz.Caller, id string, req UpdateArticleRequest) (*model.Article, error) {
	article, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.Visible(caller, articleResource(article)) {
		return nil, common.ErrNotFound
	}
	if d := authz.Authorize(caller, authz.ActionUpdate, articleResource(article)); !d.Allowed {
		return nil, fmt.Errorf("%s: %w", d.Reason, common.ErrForbidden)
	}

	if req.Title != nil {
		article.Title = *req.Title
	}
	if req.URL != nil {
		article.URL = *req.URL
	}
	if req.Content != nil {
		article.Content = req.Content
	}
	if req.Sentiment != nil {
		if !model.ValidSentiment(*req.Sentiment) {
			return nil, fmt.Errorf("unknown sentiment %q: %w", *req.Sentiment, common.ErrValidation)
		}
		article.Sentiment = req.Sentiment
	}

	if err := s.articleRepo.Update(ctx, article); err != nil {
		return nil, err
	}

	if req.Tags != nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, common.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := s.articleRepo.ClearTags(ctx, tx, article.ID); err != nil {
			return nil, err
		}
		if err := s.attachTags(ctx, tx, article, *req.Tags); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, common.Errorf("failed to commit transaction: %w", err)
		}
	} else {
		tags, err := s.articleRepo.GetTagsByArticleID(ctx, article.ID)
		if err != nil {
			return nil, err
		}
		article.Tags = tags
	}
	return article, nil
}

func (s *ArticleService) Delete(ctx context.Context, caller authz.Caller, id string) error {
	article, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !authz.Visible(caller, articleResource(article)) {
		return common.ErrNotFound
	}
	if d := authz.Authorize(caller, authz.ActionDelete, articleResource(article)); !d.Allowed {
		return fmt.Errorf("%s: %w", d.Reason, common.ErrForbidden)
	}
	return s.articleRepo.Delete(ctx, id)
}

// ListTags returns the distinct tags across articles visible to the caller.
func (s *ArticleService) ListTags(ctx context.Context, caller authz.Caller) ([]model.Tag, error) {
	scope := authz.ScopeFor(caller, authz.KindArticle)
	return s.articleRepo.ListTags(ctx, scope)
}

func (s *ArticleService) attachTags(ctx context.Context, tx *sql.Tx, article *model.Article, names []string) error {
	seen := make(map[string]bool)
	for _, name := range names {
		slugged := slug.Make(name)
		if slugged == "" || seen[slugged] {
			continue
		}
		seen[slugged] = true

		tag, err := s.articleRepo.FindOrCreateTag(ctx, tx, name, slugged)
		if err != nil {
			return err
		}
		if err := s.articleRepo.LinkTag(ctx, tx, article.ID, tag.ID); err != nil {
			return err
		}
		article.Tags = append(article.Tags, *tag)
	}
	return nil
}

package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/authz"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/repository"
)

type ScraperService struct {
	scraperRepo repository.ScraperRepository
}

func NewScraperService(scraperRepo repository.ScraperRepository) *ScraperService {
	return &ScraperService{scraperRepo: scraperRepo}
}

type CreateScraperRequest struct {
	Name         string  `json:"name"`
	URL          string  `json:"url"`
	Selector     string  `json:"selector"`
	DefaultLimit int     `json:"default_limit"`
	Description  *string `json:"description,omitempty"`
	IsShared     bool    `json:"is_shared"`
}

type UpdateScraperRequest struct {
	Name         *string `json:"name,omitempty"`
	URL          *string `json:"url,omitempty"`
	Selector     *string `json:"selector,omitempty"`
	DefaultLimit *int    `json:"default_limit,omitempty"`
	Description  *string `json:"description,omitempty"`
}

type ScraperPage struct {
	Scrapers []model.ScraperProfile `json:"scrapers"`
	Total    int                    `json:"total"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
}

// UpdateResult reports whether an update mutated the row in place or forked
// a new owned copy (fork-on-edit of a preinstalled profile).
type UpdateResult struct {
	Profile *model.ScraperProfile
	Forked  bool
}

func scraperResource(p *model.ScraperProfile) authz.Resource {
	return authz.Resource{OwnerID: p.OwnerID, IsShared: p.IsShared, IsPreinstalled: p.IsPreinstalled}
}

func (s *ScraperService) Create(ctx context.Context, caller authz.Caller, req CreateScraperRequest) (*model.ScraperProfile, error) {
	if d := authz.Authorize(caller, authz.ActionCreate, authz.Resource{}); !d.Allowed {
		return nil, fmt.Errorf("%s: %w", d.Reason, common.ErrForbidden)
	}
	if req.Name == "" || req.URL == "" || req.Selector == "" {
		return nil, fmt.Errorf("name, url and selector are required: %w", common.ErrValidation)
	}

	ownerID := caller.ID
	profile := &model.ScraperProfile{
		ID:           uuid.NewString(),
		OwnerID:      &ownerID,
		Name:         req.Name,
		Slug:         slug.Make(req.Name),
		URL:          req.URL,
		Selector:     req.Selector,
		DefaultLimit: req.DefaultLimit,
		Description:  req.Description,
		IsShared:     req.IsShared,
	}
	if err := s.scraperRepo.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ScraperService) Get(ctx context.Context, caller authz.Caller, id string) (*model.ScraperProfile, error) {
	profile, err := s.scraperRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.Visible(caller, scraperResource(profile)) {
		return nil, common.ErrNotFound
	}
	return profile, nil
}

// List returns profiles visible to the caller. With mine set, only the
// caller's own rows count — preinstalled profiles are excluded from personal
// totals even though they are always readable.
func (s *ScraperService) List(ctx context.Context, caller authz.Caller, mine bool, limit, offset int) (*ScraperPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	scope := authz.ScopeFor(caller, authz.KindScraper)
	if mine {
		scope = authz.Scope{OwnerID: caller.ID}
	}

	profiles, total, err := s.scraperRepo.List(ctx, scope, limit, offset)
	if err != nil {
		return nil, err
	}
	return &ScraperPage{Scrapers: profiles, Total: total, Limit: limit, Offset: offset}, nil
}

// Update edits a profile. Editing a preinstalled profile as a non-admin does
// not touch the shared row: the changes land on a brand-new profile owned by
// the caller (fork-on-edit). Admins edit preinstalled rows in place, but the
// preinstalled flag itself is immutable either way.
func (s *ScraperService) Update(ctx context.Context, caller authz.Caller, id string, req UpdateScraperRequest) (*UpdateResult, error) {
	profile, err := s.scraperRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.Visible(caller, scraperResource(profile)) {
		return nil, common.ErrNotFound
	}

	if authz.ShouldFork(caller, scraperResource(profile)) {
		forked, err := s.fork(ctx, caller, profile, req)
		if err != nil {
			return nil, err
		}
		return &UpdateResult{Profile: forked, Forked: true}, nil
	}

	if d := authz.Authorize(caller, authz.ActionUpdate, scraperResource(profile)); !d.Allowed {
		return nil, fmt.Errorf("%s: %w", d.Reason, common.ErrForbidden)
	}

	applyScraperUpdate(profile, req)
	if err := s.scraperRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return &UpdateResult{Profile: profile}, nil
}

func (s *ScraperService) fork(ctx context.Context, caller authz.Caller, base *model.ScraperProfile, req UpdateScraperRequest) (*model.ScraperProfile, error) {
	ownerID := caller.ID
	forked := &model.ScraperProfile{
		ID:           uuid.NewString(),
		OwnerID:      &ownerID,
		Name:         base.Name,
		URL:          base.URL,
		Selector:     base.Selector,
		DefaultLimit: base.DefaultLimit,
		Description:  base.Description,
		// The copy is private and ordinary: not shared, not preinstalled.
	}
	applyScraperUpdate(forked, req)
	forked.Slug = slug.Make(forked.Name)

	if err := s.scraperRepo.Create(ctx, forked); err != nil {
		return nil, err
	}
	return forked, nil
}

func applyScraperUpdate(p *model.ScraperProfile, req UpdateScraperRequest) {
	if req.Name != nil {
		p.Name = *req.Name
		p.Slug = slug.Make(p.Name)
	}
	if req.URL != nil {
		p.URL = *req.URL
	}
	if req.Selector != nil {
		p.Selector = *req.Selector
	}
	if req.DefaultLimit != nil {
		p.DefaultLimit = *req.DefaultLimit
	}
	if req.Description != nil {
		p.Description = req.Description
	}
}

// SetShared flips the all-or-nothing sharing flag. Sharing is a boolean, not
// a grant list: shared means readable by every authenticated user.
func (s *ScraperService) SetShared(ctx context.Context, caller authz.Caller, id string, shared bool) (*model.ScraperProfile, error) {
	profile, err := s.scraperRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.Visible(caller, scraperResource(profile)) {
		return nil, common.ErrNotFound
	}
	if d := authz.Authorize(caller, authz.ActionShare, scraperResource(profile)); !d.Allowed {
		return nil, fmt.Errorf("%s: %w", d.Reason, common.ErrForbidden)
	}

	if err := s.scraperRepo.SetShared(ctx, id, shared); err != nil {
		return nil, err
	}
	profile.IsShared = shared
	return profile, nil
}

func (s *ScraperService) Delete(ctx context.Context, caller authz.Caller, id string) error {
	profile, err := s.scraperRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !authz.Visible(caller, scraperResource(profile)) {
		return common.ErrNotFound
	}
	if d := authz.Authorize(caller, authz.ActionDelete, scraperResource(profile)); !d.Allowed {
		return fmt.Errorf("%s: %w", d.Reason, common.ErrForbidden)
	}
	return s.scraperRepo.Delete(ctx, id)
}

package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/authz"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
)

// In-memory repository fakes. They mirror the SQL implementations closely
// enough for service-level behavior: visibility scoping, conflict on
// duplicates, not-found on absent rows.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return common.ErrConflict
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) List(ctx context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id, oldHash, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.PasswordHash != oldHash {
		return common.ErrConflict
	}
	u.PasswordHash = newHash
	return nil
}

func (r *fakeUserRepo) ResetPassword(ctx context.Context, id, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.PasswordHash = newHash
	return nil
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[user.ID]
	if !ok {
		return common.ErrNotFound
	}
	u.Email, u.Role, u.IsActive = user.Email, user.Role, user.IsActive
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeScraperRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.ScraperProfile
}

func newFakeScraperRepo() *fakeScraperRepo {
	return &fakeScraperRepo{profiles: make(map[string]*model.ScraperProfile)}
}

func (r *fakeScraperRepo) Create(ctx context.Context, p *model.ScraperProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}

func (r *fakeScraperRepo) FindByID(ctx context.Context, id string) (*model.ScraperProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func scraperInScope(scope authz.Scope, p *model.ScraperProfile) bool {
	if scope.Unrestricted {
		return true
	}
	if p.OwnerID != nil && *p.OwnerID == scope.OwnerID {
		return true
	}
	return scope.IncludeShared && (p.IsShared || p.IsPreinstalled)
}

func (r *fakeScraperRepo) List(ctx context.Context, scope authz.Scope, limit, offset int) ([]model.ScraperProfile, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ScraperProfile
	for _, p := range r.profiles {
		if scraperInScope(scope, p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *fakeScraperRepo) Update(ctx context.Context, p *model.ScraperProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.profiles[p.ID]
	if !ok {
		return common.ErrNotFound
	}
	// is_preinstalled deliberately not copied, matching the SQL UPDATE.
	existing.Name, existing.Slug, existing.URL = p.Name, p.Slug, p.URL
	existing.Selector, existing.DefaultLimit = p.Selector, p.DefaultLimit
	existing.Description, existing.IsShared = p.Description, p.IsShared
	return nil
}

func (r *fakeScraperRepo) SetShared(ctx context.Context, id string, shared bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok || p.IsPreinstalled {
		return common.ErrNotFound
	}
	p.IsShared = shared
	return nil
}

func (r *fakeScraperRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok || p.IsPreinstalled {
		return common.ErrNotFound
	}
	delete(r.profiles, id)
	return nil
}

type fakeArticleRepo struct {
	mu       sync.Mutex
	articles map[string]*model.Article
	tags     map[string][]model.Tag // by article id
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{
		articles: make(map[string]*model.Article),
		tags:     make(map[string][]model.Tag),
	}
}

func (r *fakeArticleRepo) Create(ctx context.Context, tx *sql.Tx, a *model.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	cp.Tags = nil
	r.articles[a.ID] = &cp
	return nil
}

func (r *fakeArticleRepo) FindByID(ctx context.Context, id string) (*model.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.articles[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (r *fakeArticleRepo) List(ctx context.Context, scope authz.Scope, filter model.FilterBundle, limit, offset int) ([]model.Article, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Article
	for _, a := range r.articles {
		if !scope.Unrestricted && a.OwnerID != scope.OwnerID {
			continue
		}
		if filter.TitlePattern != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(filter.TitlePattern)) {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *fakeArticleRepo) Update(ctx context.Context, a *model.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.articles[a.ID]
	if !ok {
		return common.ErrNotFound
	}
	existing.Title, existing.URL = a.Title, a.URL
	existing.Content, existing.Sentiment = a.Content, a.Sentiment
	return nil
}

func (r *fakeArticleRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.articles, id)
	delete(r.tags, id)
	return nil
}

func (r *fakeArticleRepo) FindOrCreateTag(ctx context.Context, tx *sql.Tx, name, slugged string) (*model.Tag, error) {
	return &model.Tag{ID: "tag-" + slugged, Name: name, Slug: slugged}, nil
}

func (r *fakeArticleRepo) LinkTag(ctx context.Context, tx *sql.Tx, articleID, tagID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tags[articleID] {
		if t.ID == tagID {
			return common.ErrConflict
		}
	}
	r.tags[articleID] = append(r.tags[articleID], model.Tag{ID: tagID, Slug: strings.TrimPrefix(tagID, "tag-")})
	return nil
}

func (r *fakeArticleRepo) ClearTags(ctx context.Context, tx *sql.Tx, articleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tags, articleID)
	return nil
}

func (r *fakeArticleRepo) GetTagsByArticleID(ctx context.Context, articleID string) ([]model.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Tag(nil), r.tags[articleID]...), nil
}

func (r *fakeArticleRepo) ListTags(ctx context.Context, scope authz.Scope) ([]model.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]model.Tag)
	for articleID, tags := range r.tags {
		a, ok := r.articles[articleID]
		if !ok {
			continue
		}
		if !scope.Unrestricted && a.OwnerID != scope.OwnerID {
			continue
		}
		for _, t := range tags {
			seen[t.ID] = t
		}
	}
	var out []model.Tag
	for _, t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

type fakePresetRepo struct {
	mu      sync.Mutex
	presets map[string]*model.FilterPreset // key ownerID + "/" + name
}

func newFakePresetRepo() *fakePresetRepo {
	return &fakePresetRepo{presets: make(map[string]*model.FilterPreset)}
}

func presetKey(ownerID, name string) string { return ownerID + "/" + name }

func (r *fakePresetRepo) Upsert(ctx context.Context, p *model.FilterPreset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := presetKey(p.OwnerID, p.Name)
	now := time.Now()
	// Overwrites keep the stored row's id and creation time, like the
	// ON CONFLICT ... RETURNING round trip does.
	if prev, ok := r.presets[key]; ok {
		p.ID = prev.ID
		p.CreatedAt = prev.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	r.presets[key] = &cp
	return nil
}

func (r *fakePresetRepo) FindByName(ctx context.Context, ownerID, name string) (*model.FilterPreset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.presets[presetKey(ownerID, name)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (r *fakePresetRepo) ListNames(ctx context.Context, ownerID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, p := range r.presets {
		if p.OwnerID == ownerID {
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *fakePresetRepo) Delete(ctx context.Context, ownerID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := presetKey(ownerID, name)
	if _, ok := r.presets[key]; !ok {
		return common.ErrNotFound
	}
	delete(r.presets, key)
	return nil
}

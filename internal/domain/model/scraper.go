package model

import (
	"time"
)

// ScraperProfile describes a named scrape target. Profiles belong to a user
// unless preinstalled, in which case OwnerID is nil and the row is implicitly
// shared and permanent: it can never be deleted, and a non-admin editing it
// gets a fresh owned copy instead (fork-on-edit).
type ScraperProfile struct {
	ID             string    `json:"id"`
	OwnerID        *string   `json:"owner_id,omitempty"` // nil only for preinstalled rows
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	URL            string    `json:"url"`
	Selector       string    `json:"selector"`
	DefaultLimit   int       `json:"default_limit"`
	Description    *string   `json:"description,omitempty"`
	IsShared       bool      `json:"is_shared"`
	IsPreinstalled bool      `json:"is_preinstalled"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OwnedBy reports whether the profile is owned by the given user.
// Preinstalled profiles have no owner, so this is false for everyone.
func (p *ScraperProfile) OwnedBy(userID string) bool {
	return p.OwnerID != nil && *p.OwnerID == userID
}

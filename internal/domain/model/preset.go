package model

import (
	"time"
)

// Tag combination logic inside a FilterBundle.
const (
	TagLogicAnd = "and"
	TagLogicOr  = "or"
)

// FilterBundle is the saved shape of an article query. It is persisted as a
// jsonb column and round-trips through the preset store unchanged.
type FilterBundle struct {
	TitlePattern string     `json:"title_pattern,omitempty"`
	URLPattern   string     `json:"url_pattern,omitempty"`
	DateFrom     *time.Time `json:"date_from,omitempty"`
	DateTo       *time.Time `json:"date_to,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	TagLogic     string     `json:"tag_logic,omitempty"` // "and" or "or", defaults to "or"
	Sentiment    string     `json:"sentiment,omitempty"`
	UseRegex     bool       `json:"use_regex,omitempty"`
}

// FilterPreset is a named FilterBundle scoped to a single user. Presets are
// never shared or visible across callers, admins included.
type FilterPreset struct {
	ID        string       `json:"id"`
	OwnerID   string       `json:"-"`
	Name      string       `json:"name"`
	Bundle    FilterBundle `json:"bundle"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

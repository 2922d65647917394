package authz

type ResourceKind string

const (
	KindArticle ResourceKind = "article"
	KindScraper ResourceKind = "scraper"
	KindPreset  ResourceKind = "preset"
)

// Scope is the row-level visibility predicate for a listing query.
// Repositories translate it into WHERE conditions before any pagination or
// sorting is applied; the same Scope drives the REST surface and the TUI.
type Scope struct {
	// Unrestricted means no visibility conditions at all (admin).
	Unrestricted bool
	// OwnerID restricts to rows owned by this user.
	OwnerID string
	// IncludeShared widens the owner restriction with shared and
	// preinstalled rows.
	IncludeShared bool
}

// ScopeFor builds the visibility scope for a caller listing resources of the
// given kind.
//
// Articles are strictly owner-scoped (no sharing exists for them). Scrapers
// add shared and preinstalled rows. Presets are personal state: even admins
// only list their own.
func ScopeFor(caller Caller, kind ResourceKind) Scope {
	switch kind {
	case KindArticle:
		if caller.IsAdmin() {
			return Scope{Unrestricted: true}
		}
		return Scope{OwnerID: caller.ID}

	case KindScraper:
		if caller.IsAdmin() {
			return Scope{Unrestricted: true}
		}
		return Scope{OwnerID: caller.ID, IncludeShared: true}

	case KindPreset:
		return Scope{OwnerID: caller.ID}
	}

	// Unknown kinds scope to nothing visible beyond the caller's own rows.
	return Scope{OwnerID: caller.ID}
}

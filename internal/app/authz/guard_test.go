package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
)

func strPtr(s string) *string { return &s }

var (
	admin  = Caller{ID: "admin-1", Role: model.RoleAdmin}
	alice  = Caller{ID: "alice", Role: model.RoleUser}
	bob    = Caller{ID: "bob", Role: model.RoleUser}
	viewer = Caller{ID: "carol", Role: model.RoleViewer}
)

func TestAuthorize_OwnershipInvariant(t *testing.T) {
	// A private resource owned by alice: bob may not touch it.
	res := Resource{OwnerID: strPtr("alice")}

	for _, action := range []Action{ActionUpdate, ActionDelete, ActionShare} {
		d := Authorize(bob, action, res)
		assert.False(t, d.Allowed, "bob should be denied %s", action)
		assert.NotEmpty(t, d.Reason)
	}

	for _, action := range []Action{ActionUpdate, ActionDelete, ActionShare} {
		assert.True(t, Authorize(alice, action, res).Allowed, "owner should be allowed %s", action)
	}
}

func TestAuthorize_AdminBypass(t *testing.T) {
	res := Resource{OwnerID: strPtr("alice")}

	for _, action := range []Action{ActionRead, ActionUpdate, ActionDelete, ActionShare, ActionCreate} {
		assert.True(t, Authorize(admin, action, res).Allowed, "admin should be allowed %s", action)
	}

	// Admin bypass stops at preinstalled deletion.
	pre := Resource{IsPreinstalled: true, IsShared: true}
	assert.False(t, Authorize(admin, ActionDelete, pre).Allowed)
}

func TestAuthorize_ViewerIsReadOnly(t *testing.T) {
	owned := Resource{OwnerID: strPtr(viewer.ID)}

	assert.False(t, Authorize(viewer, ActionCreate, Resource{}).Allowed)
	// Even on a resource recorded as its own, a viewer cannot write.
	assert.False(t, Authorize(viewer, ActionUpdate, owned).Allowed)
	assert.False(t, Authorize(viewer, ActionDelete, owned).Allowed)
	assert.False(t, Authorize(viewer, ActionShare, owned).Allowed)
	assert.True(t, Authorize(viewer, ActionRead, owned).Allowed)
}

func TestAuthorize_PreinstalledImmutability(t *testing.T) {
	pre := Resource{IsPreinstalled: true, IsShared: true}

	// Delete fails for every role.
	for _, c := range []Caller{admin, alice, viewer} {
		assert.False(t, Authorize(c, ActionDelete, pre).Allowed, "delete by %s", c.Role)
	}

	// Sharing is implicit and cannot be toggled.
	for _, c := range []Caller{admin, alice, viewer} {
		assert.False(t, Authorize(c, ActionShare, pre).Allowed, "share by %s", c.Role)
	}

	// Admin edits in place; a regular user forks; a viewer does neither.
	assert.True(t, Authorize(admin, ActionUpdate, pre).Allowed)
	assert.False(t, ShouldFork(admin, pre))
	assert.True(t, ShouldFork(alice, pre))
	assert.False(t, ShouldFork(viewer, pre))
}

func TestVisible_SharingToggle(t *testing.T) {
	res := Resource{OwnerID: strPtr("alice")}

	assert.True(t, Visible(alice, res))
	assert.False(t, Visible(bob, res), "private resource invisible to non-owner")

	res.IsShared = true
	assert.True(t, Visible(bob, res), "shared resource visible to everyone")
	assert.True(t, Visible(viewer, res))

	res.IsShared = false
	assert.False(t, Visible(bob, res), "unsharing removes visibility again")
	assert.True(t, Visible(admin, res))
}

func TestAuthorize_Read_FollowsVisibility(t *testing.T) {
	hidden := Resource{OwnerID: strPtr("alice")}
	assert.False(t, Authorize(bob, ActionRead, hidden).Allowed)
	assert.True(t, Authorize(bob, ActionRead, Resource{IsPreinstalled: true}).Allowed)
}

func TestScopeFor(t *testing.T) {
	tests := []struct {
		name   string
		caller Caller
		kind   ResourceKind
		want   Scope
	}{
		{"admin articles unrestricted", admin, KindArticle, Scope{Unrestricted: true}},
		{"user articles owner-only", alice, KindArticle, Scope{OwnerID: "alice"}},
		{"viewer articles owner-only", viewer, KindArticle, Scope{OwnerID: "carol"}},
		{"admin scrapers unrestricted", admin, KindScraper, Scope{Unrestricted: true}},
		{"user scrapers include shared", alice, KindScraper, Scope{OwnerID: "alice", IncludeShared: true}},
		{"admin presets still own-only", admin, KindPreset, Scope{OwnerID: "admin-1"}},
		{"user presets own-only", bob, KindPreset, Scope{OwnerID: "bob"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScopeFor(tt.caller, tt.kind))
		})
	}
}

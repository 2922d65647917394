package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/authz"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
)

func newScraperMock(t *testing.T) (sqlmock.Sqlmock, ScraperRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, NewPgScraperRepository(db)
}

func scraperRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "owner_id", "name", "slug", "url", "selector", "default_limit",
		"description", "is_shared", "is_preinstalled", "created_at", "updated_at",
	}).AddRow("scr-1", "alice", "My Scraper", "my-scraper", "https://example.com",
		"article h2 a", 10, "", false, false, now, now)
}

func TestScraperList_VisibilityScope(t *testing.T) {
	mock, repo := newScraperMock(t)

	// A regular caller sees owned, shared, and preinstalled rows; the WHERE
	// clause carries all three predicates.
	where := `WHERE \(owner_id = \$1 OR is_shared = TRUE OR is_preinstalled = TRUE\)`
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM scraper_profiles ` + where).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT .+ FROM scraper_profiles ` + where + ` ORDER BY is_preinstalled DESC, name LIMIT \$2 OFFSET \$3`).
		WithArgs("alice", 20, 0).
		WillReturnRows(scraperRows())

	profiles, total, err := repo.List(context.Background(),
		authz.Scope{OwnerID: "alice", IncludeShared: true}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, profiles, 1)
	assert.Equal(t, "scr-1", profiles[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScraperList_OwnerOnlyScope(t *testing.T) {
	mock, repo := newScraperMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM scraper_profiles WHERE owner_id = \$1`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT .+ FROM scraper_profiles WHERE owner_id = \$1 ORDER BY`).
		WithArgs("alice", 20, 0).
		WillReturnRows(scraperRows())

	_, _, err := repo.List(context.Background(), authz.Scope{OwnerID: "alice"}, 20, 0)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScraperList_AdminUnrestricted(t *testing.T) {
	mock, repo := newScraperMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM scraper_profiles`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT .+ FROM scraper_profiles ORDER BY is_preinstalled DESC, name LIMIT \$1 OFFSET \$2`).
		WithArgs(20, 0).
		WillReturnRows(scraperRows())

	_, total, err := repo.List(context.Background(), authz.Scope{Unrestricted: true}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScraperSetShared_PreinstalledGuardedInSQL(t *testing.T) {
	mock, repo := newScraperMock(t)

	mock.ExpectExec(`UPDATE scraper_profiles SET is_shared = \$1.+WHERE id = \$2 AND is_preinstalled = FALSE`).
		WithArgs(true, "pre-0001").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetShared(context.Background(), "pre-0001", true)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScraperDelete_PreinstalledGuardedInSQL(t *testing.T) {
	mock, repo := newScraperMock(t)

	mock.ExpectExec(`DELETE FROM scraper_profiles WHERE id = \$1 AND is_preinstalled = FALSE`).
		WithArgs("pre-0001").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "pre-0001")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScraperUpdate_NeverTouchesPreinstalledFlag(t *testing.T) {
	mock, repo := newScraperMock(t)

	owner := "alice"
	p := &model.ScraperProfile{
		ID: "scr-1", OwnerID: &owner, Name: "Renamed", Slug: "renamed",
		URL: "https://example.com", Selector: "h2 a", DefaultLimit: 10,
	}

	// The column list of the UPDATE stops before is_preinstalled.
	mock.ExpectExec(`UPDATE scraper_profiles SET\s+name = \$1, slug = \$2, url = \$3, selector = \$4, default_limit = \$5,\s+description = \$6, is_shared = \$7, updated_at = CURRENT_TIMESTAMP\s+WHERE id = \$8`).
		WithArgs(p.Name, p.Slug, p.URL, p.Selector, p.DefaultLimit, p.Description, p.IsShared, p.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

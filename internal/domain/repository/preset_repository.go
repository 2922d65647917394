package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
)

// PresetRepository persists named filter bundles. Every query is keyed by
// (owner_id, name); there is no cross-user access path at all.
type PresetRepository interface {
	// Upsert saves the preset, overwriting an existing one of the same name
	// for the same owner. The stored row's id and timestamps are written
	// back into the preset, so an overwrite keeps the original id.
	Upsert(ctx context.Context, preset *model.FilterPreset) error
	FindByName(ctx context.Context, ownerID, name string) (*model.FilterPreset, error)
	ListNames(ctx context.Context, ownerID string) ([]string, error)
	Delete(ctx context.Context, ownerID, name string) error
}

type pgPresetRepository struct {
	db *sql.DB
}

func NewPgPresetRepository(db *sql.DB) PresetRepository {
	return &pgPresetRepository{db: db}
}

func (r *pgPresetRepository) Upsert(ctx context.Context, p *model.FilterPreset) error {
	bundle, err := json.Marshal(p.Bundle)
	if err != nil {
		return fmt.Errorf("pgPresetRepository.Upsert marshal: %w", err)
	}

	query := `INSERT INTO filter_presets (id, owner_id, name, bundle)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (owner_id, name)
	          DO UPDATE SET bundle = EXCLUDED.bundle, updated_at = CURRENT_TIMESTAMP
	          RETURNING id, created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query, p.ID, p.OwnerID, p.Name, bundle).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgPresetRepository.Upsert: %w", err)
	}
	return nil
}

func (r *pgPresetRepository) FindByName(ctx context.Context, ownerID, name string) (*model.FilterPreset, error) {
	query := `SELECT id, owner_id, name, bundle, created_at, updated_at
	          FROM filter_presets WHERE owner_id = $1 AND name = $2`
	p := &model.FilterPreset{}
	var bundle []byte
	err := r.db.QueryRowContext(ctx, query, ownerID, name).Scan(
		&p.ID, &p.OwnerID, &p.Name, &bundle, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPresetRepository.FindByName: %w", err)
	}
	if err := json.Unmarshal(bundle, &p.Bundle); err != nil {
		return nil, fmt.Errorf("pgPresetRepository.FindByName unmarshal: %w", err)
	}
	return p, nil
}

func (r *pgPresetRepository) ListNames(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM filter_presets WHERE owner_id = $1 ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("pgPresetRepository.ListNames: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("pgPresetRepository.ListNames scan: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *pgPresetRepository) Delete(ctx context.Context, ownerID, name string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM filter_presets WHERE owner_id = $1 AND name = $2`, ownerID, name)
	if err != nil {
		return fmt.Errorf("pgPresetRepository.Delete: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

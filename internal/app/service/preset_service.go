package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/authz"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/repository"
)

// PresetService manages named filter bundles. Presets are strictly personal:
// every operation is keyed by the caller's own id and there is no admin or
// sharing path across users.
type PresetService struct {
	presetRepo repository.PresetRepository
}

func NewPresetService(presetRepo repository.PresetRepository) *PresetService {
	return &PresetService{presetRepo: presetRepo}
}

// Save upserts a preset under (caller, name); saving an existing name
// overwrites it in place rather than creating a duplicate. The returned
// preset carries the persisted id and timestamps, so an overwrite reports
// the original row's id.
func (s *PresetService) Save(ctx context.Context, caller authz.Caller, name string, bundle model.FilterBundle) (*model.FilterPreset, error) {
	if d := authz.Authorize(caller, authz.ActionCreate, authz.Resource{}); !d.Allowed {
		return nil, fmt.Errorf("%s: %w", d.Reason, common.ErrForbidden)
	}
	if name == "" {
		return nil, fmt.Errorf("preset name is required: %w", common.ErrValidation)
	}
	if bundle.TagLogic != "" && bundle.TagLogic != model.TagLogicAnd && bundle.TagLogic != model.TagLogicOr {
		return nil, fmt.Errorf("tag logic must be %q or %q: %w", model.TagLogicAnd, model.TagLogicOr, common.ErrValidation)
	}
	if bundle.Sentiment != "" && !model.ValidSentiment(bundle.Sentiment) {
		return nil, fmt.Errorf("unknown sentiment %q: %w", bundle.Sentiment, common.ErrValidation)
	}

	preset := &model.FilterPreset{
		ID:      uuid.NewString(),
		OwnerID: caller.ID,
		Name:    name,
		Bundle:  bundle,
	}
	if err := s.presetRepo.Upsert(ctx, preset); err != nil {
		return nil, err
	}
	return preset, nil
}

func (s *PresetService) Load(ctx context.Context, caller authz.Caller, name string) (*model.FilterPreset, error) {
	return s.presetRepo.FindByName(ctx, caller.ID, name)
}

func (s *PresetService) List(ctx context.Context, caller authz.Caller) ([]string, error) {
	return s.presetRepo.ListNames(ctx, caller.ID)
}

func (s *PresetService) Delete(ctx context.Context, caller authz.Caller, name string) error {
	return s.presetRepo.Delete(ctx, caller.ID, name)
}

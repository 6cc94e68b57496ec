package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/layer-3/flowkey/core"
)

// ProfileService answers the profile, layout and access endpoints. Nothing is
// persisted: profiles are derived from the address and layouts are accepted
// and dropped.
type ProfileService struct {
	logger *zap.Logger
}

func NewProfileService(logger *zap.Logger) *ProfileService {
	return &ProfileService{logger: logger.Named("profile")}
}

// Profile derives the minimal profile for an authenticated address
func (s *ProfileService) Profile(address string) core.Profile {
	return core.Profile{
		PublicAddress: address,
		Username:      core.ShortAddress(address),
		Config: core.ProfileConfig{
			Gating:  core.Gating{Enabled: false},
			Layouts: []json.RawMessage{},
		},
	}
}

// SaveLayouts accepts a layout update for address without storing it
func (s *ProfileService) SaveLayouts(ctx context.Context, address string, layouts []json.RawMessage) error {
	s.logger.Debug("layouts received", zap.String("address", address), zap.Int("count", len(layouts)))
	return nil
}

// Access always lets the client in
func (s *ProfileService) Access() core.AccessDecision {
	return core.AccessDecision{Access: true}
}

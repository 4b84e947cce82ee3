// services/player_service.go
package services

import (
	"github.com/wfunc/idlerpg/models"
	"github.com/wfunc/idlerpg/persistence"
)

// PlayerService answers profile and progress queries over the Store. The rpc
// admin surface reads through it; the game server writes milestone rows
// through it on prestige and defeat.
type PlayerService struct {
	store persistence.Store
}

func NewPlayerService(store persistence.Store) *PlayerService {
	return &PlayerService{store: store}
}

// GetProgress loads one player's save and summarizes it.
func (s *PlayerService) GetProgress(playerID string) (*models.ProgressSummary, error) {
	state, err := s.store.LoadSnapshot(playerID)
	if err != nil {
		return nil, err
	}
	return &models.ProgressSummary{
		PlayerID:  playerID,
		Level:     state.Level,
		Zone:      state.Zone,
		Coins:     state.Coins,
		Deaths:    state.Stats.Deaths,
		Prestiges: state.Stats.Prestiges,
	}, nil
}

// TopProgress lists the most recently active saves.
func (s *PlayerService) TopProgress(limit int) ([]models.ProgressSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListProgress(limit)
}

// RecordMilestone appends a milestone row (prestige, defeat, zone record).
func (s *PlayerService) RecordMilestone(playerID, kind string, detail map[string]interface{}) error {
	return s.store.RecordProgress(playerID, kind, detail)
}

// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/idlerpg/models"
)

// Store owns serialization of the save snapshot. The engine never talks to
// it directly; sessions load on attach and save on a timer and on detach.
type Store interface {
	SaveSnapshot(playerID string, state *models.PlayerState) error
	LoadSnapshot(playerID string) (*models.PlayerState, error)
	RecordProgress(playerID, kind string, detail map[string]interface{}) error
	ListProgress(limit int) ([]models.ProgressSummary, error)
	Close() error
}

// 错误定义
var (
	ErrSnapshotNotFound = fmt.Errorf("snapshot not found")
	ErrSnapshotCorrupt  = fmt.Errorf("snapshot corrupt")
)

// normalizeState is the shared post-decode guard of both store
// implementations. A snapshot without identity is corrupt; absent collection
// fields decode as nil maps, which would panic the first transition that
// inserts into them, so they are restored to the empty maps NewPlayerState
// starts with.
func normalizeState(state *models.PlayerState) (*models.PlayerState, error) {
	if state.PlayerID == "" {
		return nil, ErrSnapshotCorrupt
	}
	if state.Items == nil {
		state.Items = make(map[string]*models.Item)
	}
	if state.Relics == nil {
		state.Relics = make(map[string]*models.Relic)
	}
	return state, nil
}
